// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import (
	"regexp"
	"time"
)

type (
	// Kind is the primitive kind of a column. It determines the value
	// representation accepted by the column, the SQLite storage class the
	// column is declared with, and how literals are rendered.
	Kind int

	// A Ref declares a foreign-key reference to a column of another model
	// definition. An empty Column refers to the parent's "id" column.
	Ref struct {
		Def    *Def
		Column string
	}

	// A Spec holds the enumerated set of constraints and fill rules a
	// column may carry. It replaces the loose keyword bag of dynamic
	// schema systems with an explicit structure.
	Spec struct {
		PrimaryKey bool
		ForeignKey *Ref
		NotNull    bool
		Default    any
		// FillOnCreate and FillOnUpdate apply to KindTimestamp columns:
		// the value is stamped internally when the column is rendered for
		// storage, and external writes are rejected.
		FillOnCreate bool
		FillOnUpdate bool
	}

	// A Column is the immutable template of one attribute slot in a model
	// schema. Per-row state lives in the Value instances cloned from it.
	Column struct {
		Kind Kind
		Spec Spec
	}

	// A ColumnDef names a column template within a model definition.
	ColumnDef struct {
		Name   string
		Column *Column
	}

	// ColumnOption allows configuring column constraints using functional
	// options.
	ColumnOption func(*Spec)
)

// Column kinds.
const (
	KindInteger Kind = iota
	KindReal
	KindText
	KindTimestamp
	KindBool
)

// String returns the kind name as used in error messages.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindText:
		return "text"
	case KindTimestamp:
		return "timestamp"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// TimeLayout is the fixed storage format of timestamp columns,
// truncated to 3 fractional digits.
const TimeLayout = "2006-01-02 15:04:05.000"

// displayLayout truncates timestamps to minutes for client output.
const displayLayout = "2006-01-02 15:04"

// reTime matches the textual form of a stored timestamp.
var reTime = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}`)

// PrimaryKey configures the column as the table's primary key. Primary
// key values are assigned by the storage engine and reject external
// writes.
func PrimaryKey() ColumnOption {
	return func(s *Spec) { s.PrimaryKey = true }
}

// NotNull configures the column to reject absent values at
// constraint-check time.
func NotNull() ColumnOption {
	return func(s *Spec) { s.NotNull = true }
}

// Default configures the value a fresh slot takes when no initial value
// is provided.
func Default(v any) ColumnOption {
	return func(s *Spec) { s.Default = v }
}

// References declares a foreign key to a column of the given definition.
// An empty column name refers to the parent's "id" column. The reference
// is resolved when the owning definition's schema is merged.
func References(def *Def, column string) ColumnOption {
	return func(s *Spec) { s.ForeignKey = &Ref{Def: def, Column: column} }
}

// FillOnCreate stamps the current time on first render when the column
// has no value yet. Applies to timestamp columns.
func FillOnCreate() ColumnOption {
	return func(s *Spec) { s.FillOnCreate = true }
}

// FillOnUpdate stamps the current time on every render for storage.
// Applies to timestamp columns.
func FillOnUpdate() ColumnOption {
	return func(s *Spec) { s.FillOnUpdate = true }
}

// NewColumn returns a new column template of the given kind.
func NewColumn(name string, k Kind, opts ...ColumnOption) ColumnDef {
	c := &Column{Kind: k}
	for _, opt := range opts {
		opt(&c.Spec)
	}
	return ColumnDef{Name: name, Column: c}
}

// NewIntColumn returns a new integer column template.
func NewIntColumn(name string, opts ...ColumnOption) ColumnDef {
	return NewColumn(name, KindInteger, opts...)
}

// NewFloatColumn returns a new real column template.
func NewFloatColumn(name string, opts ...ColumnOption) ColumnDef {
	return NewColumn(name, KindReal, opts...)
}

// NewStringColumn returns a new text column template.
func NewStringColumn(name string, opts ...ColumnOption) ColumnDef {
	return NewColumn(name, KindText, opts...)
}

// NewTimeColumn returns a new timestamp column template. Timestamps are
// stored as text in the TimeLayout format.
func NewTimeColumn(name string, opts ...ColumnOption) ColumnDef {
	return NewColumn(name, KindTimestamp, opts...)
}

// NewBoolColumn returns a new boolean column template. Booleans are
// stored as integer 0/1.
func NewBoolColumn(name string, opts ...ColumnOption) ColumnDef {
	return NewColumn(name, KindBool, opts...)
}

// TypeCheck reports whether the candidate value is acceptable for the
// column kind. A nil candidate is accepted universally; not-null
// enforcement happens at constraint-check time, not here.
func (c *Column) TypeCheck(v any) error {
	if v == nil {
		return nil
	}
	switch c.Kind {
	case KindInteger:
		switch v.(type) {
		case int, int64:
			return nil
		}
	case KindReal:
		switch v.(type) {
		case float64, float32:
			return nil
		}
	case KindText:
		if _, ok := v.(string); ok {
			return nil
		}
	case KindTimestamp:
		switch v := v.(type) {
		case time.Time:
			return nil
		case string:
			if reTime.MatchString(v) {
				return nil
			}
		}
	case KindBool:
		if _, ok := v.(bool); ok {
			return nil
		}
	}
	return &TypeError{Kind: c.Kind, Value: v}
}

// normalize converts an accepted candidate to the canonical in-memory
// representation of the kind. It must be called only after TypeCheck.
func (c *Column) normalize(v any) any {
	if v == nil {
		return nil
	}
	switch c.Kind {
	case KindInteger:
		if i, ok := v.(int); ok {
			return int64(i)
		}
	case KindReal:
		if f, ok := v.(float32); ok {
			return float64(f)
		}
	case KindTimestamp:
		if s, ok := v.(string); ok && len(s) >= len(TimeLayout) {
			if t, err := time.Parse(TimeLayout, s[:len(TimeLayout)]); err == nil {
				return t
			}
		}
	}
	return v
}
