// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import (
	"fmt"
	"strconv"
	"time"
)

// A Value is one live attribute slot of a row: a column template bound
// to a current value and a dirty flag. Values are exclusively owned by
// the row they belong to; the template remains shared and read-only.
type Value struct {
	col   *Column
	v     any
	dirty bool
}

// timeNow is stubbed in tests.
var timeNow = time.Now

// Value returns a fresh slot for the column, holding the column default.
func (c *Column) Value() *Value {
	return &Value{col: c, v: c.normalize(c.Spec.Default)}
}

// Column returns the shared column template of the slot.
func (v *Value) Column() *Column { return v.col }

// Get returns the current value, or nil when the slot is unset.
func (v *Value) Get() any { return v.v }

// Dirty reports whether the value changed since the last successful
// persist.
func (v *Value) Dirty() bool { return v.dirty }

// ClearDirty resets the dirty flag after a successful persist.
func (v *Value) ClearDirty() { v.dirty = false }

// TypeCheck reports whether the candidate is acceptable for the slot.
func (v *Value) TypeCheck(candidate any) error {
	return v.col.TypeCheck(candidate)
}

// Autofilled reports whether the slot's value is assigned internally and
// therefore rejects external writes: primary keys, fill-on-update
// timestamps, and fill-on-create timestamps that were not stamped yet.
func (v *Value) Autofilled() bool {
	switch {
	case v.col.Spec.PrimaryKey:
		return true
	case v.col.Spec.FillOnUpdate:
		return true
	case v.col.Spec.FillOnCreate && v.v == nil:
		return true
	}
	return false
}

// Set replaces the current value with the candidate and reports whether
// a change occurred. It fails with AutofillError for internally-assigned
// slots and with TypeError when the candidate does not match the kind.
// Setting an equal value is a no-op that leaves the dirty flag alone.
func (v *Value) Set(candidate any) (bool, error) {
	return v.set(candidate, true)
}

func (v *Value) set(candidate any, check bool) (bool, error) {
	if v.Autofilled() {
		return false, &AutofillError{Value: candidate}
	}
	if check {
		if err := v.col.TypeCheck(candidate); err != nil {
			return false, err
		}
	}
	candidate = v.col.normalize(candidate)
	if equal(v.v, candidate) {
		return false, nil
	}
	v.v = candidate
	v.dirty = true
	return true, nil
}

// Overwrite sets the value unconditionally, bypassing autofill
// protection and dirty tracking. It is used exclusively on the
// storage-load path, converting raw storage values to the slot's
// representation.
func (v *Value) Overwrite(raw any) error {
	conv, err := v.col.fromStorage(raw)
	if err != nil {
		return err
	}
	v.v = conv
	return nil
}

// Autofill stamps the current time on timestamp slots configured with
// a fill rule and reports whether the value changed. Primary-key
// autofill is delegated to the storage engine's row-id assignment, so
// the call is a no-op for every other kind.
func (v *Value) Autofill() bool {
	if v.col.Kind != KindTimestamp {
		return false
	}
	switch {
	case v.col.Spec.FillOnUpdate:
		v.v = timeNow()
	case v.col.Spec.FillOnCreate && v.v == nil:
		v.v = timeNow()
	default:
		return false
	}
	v.dirty = true
	return true
}

// CheckConstraint verifies the slot satisfies its constraints before a
// write. Primary and foreign keys are validated at schema-merge time;
// only not-null is enforced here.
func (v *Value) CheckConstraint() error {
	if v.col.Spec.NotNull && v.v == nil {
		return &RequiredError{}
	}
	return nil
}

// SQL renders the slot's effective value as a storage literal,
// triggering autofill first so fill-on-write timestamps self-populate
// at render time.
func (v *Value) SQL() string {
	v.Autofill()
	return literal(v.col.Kind, v.v)
}

// Display returns the value in its client-facing shape: timestamps are
// truncated to minutes, everything else is returned as-is.
func (v *Value) Display() any {
	if v.v == nil {
		return nil
	}
	if v.col.Kind == KindTimestamp {
		if t, ok := v.v.(time.Time); ok {
			return t.Format(displayLayout)
		}
	}
	return v.v
}

// Literal renders an arbitrary candidate as a storage literal of the
// column's kind without touching the slot state. It backs filter
// predicate rendering, where values bypass autofill.
func (c *Column) Literal(candidate any) string {
	return literal(c.Kind, c.normalize(candidate))
}

// fromStorage converts a raw value returned by the storage engine to
// the kind's in-memory representation. Conversions are lenient: the
// engine reports integers for booleans and text for timestamps.
func (c *Column) fromStorage(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}
	switch c.Kind {
	case KindInteger:
		switch i := raw.(type) {
		case int64:
			return i, nil
		case int:
			return int64(i), nil
		}
	case KindReal:
		switch f := raw.(type) {
		case float64:
			return f, nil
		case float32:
			return float64(f), nil
		case int64:
			return float64(f), nil
		case int:
			return float64(f), nil
		}
	case KindText:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	case KindTimestamp:
		switch t := raw.(type) {
		case time.Time:
			return t, nil
		case string:
			if len(t) >= len(TimeLayout) {
				t = t[:len(TimeLayout)]
			}
			parsed, err := time.Parse(TimeLayout, t)
			if err != nil {
				return nil, fmt.Errorf("schema: parse stored timestamp: %w", err)
			}
			return parsed, nil
		}
	case KindBool:
		switch b := raw.(type) {
		case bool:
			return b, nil
		case int64:
			return b != 0, nil
		case int:
			return b != 0, nil
		}
	}
	return nil, &TypeError{Kind: c.Kind, Value: raw}
}

// literal renders a normalized value as dialect text: null for absent
// values, double-quoted literals for text kinds, bare literals for
// numerics, and 0/1 for booleans. Embedded quotes are not escaped,
// preserving wire compatibility with previously stored data.
func literal(k Kind, v any) string {
	if v == nil {
		return "null"
	}
	switch k {
	case KindInteger:
		if i, ok := v.(int64); ok {
			return strconv.FormatInt(i, 10)
		}
	case KindReal:
		if f, ok := v.(float64); ok {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
	case KindText:
		if s, ok := v.(string); ok {
			return `"` + s + `"`
		}
	case KindTimestamp:
		switch t := v.(type) {
		case time.Time:
			return `"` + t.Format(TimeLayout) + `"`
		case string:
			return `"` + t + `"`
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			if b {
				return "1"
			}
			return "0"
		}
	}
	return fmt.Sprint(v)
}

// equal compares two normalized values. Timestamps compare on the
// instant, not on the location.
func equal(a, b any) bool {
	at, aok := a.(time.Time)
	bt, bok := b.(time.Time)
	if aok && bok {
		return at.Equal(bt)
	}
	return a == b
}
