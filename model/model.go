// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package model binds merged schemas to live row values and orchestrates
// validation, statement compilation and execution against the shared
// storage connection. Validation always happens before any SQL is
// compiled or executed, so a failed operation leaves no partial writes.
package model

import (
	"context"
	"fmt"

	"ariga.io/ormlite/schema"
	"ariga.io/ormlite/sqlite"
)

// A Row is one possibly-persisted row of a model: the model's shared
// schema bound to per-row value slots, aligned to the schema's column
// order. A row with an unset id is transient and will be inserted; once
// an id is assigned by a successful insert the row is persisted and
// further saves update it. The transition is one-way.
type Row struct {
	def    *schema.Def
	schema *schema.Schema
	vals   []*schema.Value
}

// New returns a fresh transient row holding the column defaults.
func New(def *schema.Def) (*Row, error) {
	s, err := schema.Of(def)
	if err != nil {
		return nil, err
	}
	r := &Row{def: def, schema: s, vals: make([]*schema.Value, s.Len())}
	for i, cd := range s.Columns {
		r.vals[i] = cd.Column.Value()
	}
	return r, nil
}

// FromMap validates the keyed values and returns a row populated from
// them. A non-nil "id" value signals that the values originate from
// storage: the slots are overwritten directly, bypassing autofill
// protection, instead of going through checked writes.
func FromMap(def *schema.Def, values map[string]any) (*Row, error) {
	if err := ValidateMap(def, values); err != nil {
		return nil, err
	}
	r, err := New(def)
	if err != nil {
		return nil, err
	}
	fromDB := values["id"] != nil
	for i, cd := range r.schema.Columns {
		v, ok := values[cd.Name]
		if !ok || v == nil {
			continue
		}
		if err := r.assign(i, v, fromDB); err != nil {
			return nil, fmt.Errorf("model: column %q: %w", cd.Name, err)
		}
	}
	return r, nil
}

// FromList validates the positional values and returns a row populated
// from them, in schema column order. As with FromMap, a non-nil value
// in the id position selects the storage-load path.
func FromList(def *schema.Def, values []any) (*Row, error) {
	if err := ValidateList(def, values); err != nil {
		return nil, err
	}
	r, err := New(def)
	if err != nil {
		return nil, err
	}
	fromDB := false
	if pos, ok := r.schema.Pos("id"); ok && values[pos] != nil {
		fromDB = true
	}
	for i, v := range values {
		if v == nil {
			continue
		}
		if err := r.assign(i, v, fromDB); err != nil {
			return nil, fmt.Errorf("model: column %q: %w", r.schema.Columns[i].Name, err)
		}
	}
	return r, nil
}

func (r *Row) assign(pos int, v any, fromDB bool) error {
	if fromDB {
		return r.vals[pos].Overwrite(v)
	}
	_, err := r.vals[pos].Set(v)
	return err
}

// ValidateMap checks keyed input against the definition's schema: every
// key must name a schema column and every value must match its column's
// kind. It returns nil only when the whole input is acceptable.
func ValidateMap(def *schema.Def, values map[string]any) error {
	s, err := schema.Of(def)
	if err != nil {
		return err
	}
	for _, cd := range s.Columns {
		v, ok := values[cd.Name]
		if !ok {
			continue
		}
		if err := cd.Column.TypeCheck(v); err != nil {
			return fmt.Errorf("model: column %q: %w", cd.Name, err)
		}
	}
	for name := range values {
		if !s.Has(name) {
			return &schema.UnknownColumnError{Name: name}
		}
	}
	return nil
}

// ValidateList checks positional input against the definition's schema:
// the length must equal the schema size and every value must match the
// column at its position.
func ValidateList(def *schema.Def, values []any) error {
	s, err := schema.Of(def)
	if err != nil {
		return err
	}
	if len(values) != s.Len() {
		return &schema.ArityError{Want: s.Len(), Got: len(values)}
	}
	for i, v := range values {
		if err := s.Columns[i].Column.TypeCheck(v); err != nil {
			return fmt.Errorf("model: column %q: %w", s.Columns[i].Name, err)
		}
	}
	return nil
}

// Schema returns the row's merged schema.
func (r *Row) Schema() *schema.Schema { return r.schema }

// Def returns the row's model definition.
func (r *Row) Def() *schema.Def { return r.def }

// ID returns the row's id and whether it is set.
func (r *Row) ID() (int64, bool) {
	pos, ok := r.schema.Pos("id")
	if !ok {
		return 0, false
	}
	id, ok := r.vals[pos].Get().(int64)
	return id, ok
}

// Value returns the named column's current value.
func (r *Row) Value(name string) (any, bool) {
	pos, ok := r.schema.Pos(name)
	if !ok {
		return nil, false
	}
	return r.vals[pos].Get(), true
}

// Apply validates the keyed values and writes them through each slot's
// checked update, returning the names of columns that actually changed.
// Writes to internally-assigned columns fail with AutofillError; a
// value equal to the current one changes nothing and is not reported.
func (r *Row) Apply(values map[string]any) ([]string, error) {
	if err := ValidateMap(r.def, values); err != nil {
		return nil, err
	}
	var changed []string
	for i, cd := range r.schema.Columns {
		v, ok := values[cd.Name]
		if !ok {
			continue
		}
		did, err := r.vals[i].Set(v)
		if err != nil {
			return changed, fmt.Errorf("model: column %q: %w", cd.Name, err)
		}
		if did {
			changed = append(changed, cd.Name)
		}
	}
	return changed, nil
}

// ApplyList is Apply for positional values covering the whole schema.
func (r *Row) ApplyList(values []any) ([]string, error) {
	if err := ValidateList(r.def, values); err != nil {
		return nil, err
	}
	var changed []string
	for i, v := range values {
		did, err := r.vals[i].Set(v)
		if err != nil {
			return changed, fmt.Errorf("model: column %q: %w", r.schema.Columns[i].Name, err)
		}
		if did {
			changed = append(changed, r.schema.Columns[i].Name)
		}
	}
	return changed, nil
}

// Save writes the row through the connection: an insert when the id is
// unset, otherwise an update of the dirty columns. The statement is
// compiled first (stamping fill-on-write timestamps), constraints are
// checked before anything executes, and on success the dirty flags are
// cleared. A fresh insert adopts the engine-assigned row id. When
// nothing is dirty the update compiles to no statement and Save is a
// successful no-op.
func (r *Row) Save(ctx context.Context, conn schema.Conn) error {
	_, hasID := r.ID()
	var stmt string
	if hasID {
		s, ok := sqlite.Update(r.schema, r.vals)
		if !ok {
			return nil
		}
		stmt = s
	} else {
		stmt = sqlite.Insert(r.schema, r.vals)
	}
	for i, v := range r.vals {
		if err := v.CheckConstraint(); err != nil {
			return fmt.Errorf("model: column %q: %w", r.schema.Columns[i].Name, err)
		}
	}
	if _, err := conn.Exec(ctx, stmt, schema.ModeCommit); err != nil {
		return err
	}
	if !hasID {
		id, err := conn.LastInsertID(ctx)
		if err != nil {
			return err
		}
		if pos, ok := r.schema.Pos("id"); ok {
			if err := r.vals[pos].Overwrite(id); err != nil {
				return err
			}
		}
	}
	for _, v := range r.vals {
		v.ClearDirty()
	}
	return nil
}

// Display returns the row in its client-facing shape, column by column.
func (r *Row) Display() map[string]any {
	out := make(map[string]any, r.schema.Len())
	for i, cd := range r.schema.Columns {
		out[cd.Name] = r.vals[i].Display()
	}
	return out
}

// String renders the row's raw values keyed by column name.
func (r *Row) String() string {
	out := make(map[string]any, r.schema.Len())
	for i, cd := range r.schema.Columns {
		out[cd.Name] = r.vals[i].Get()
	}
	return fmt.Sprint(out)
}

// CreateTable creates the definition's table if it does not exist.
func CreateTable(ctx context.Context, conn schema.Conn, def *schema.Def) error {
	s, err := schema.Of(def)
	if err != nil {
		return err
	}
	_, err = conn.Exec(ctx, sqlite.CreateTable(s), schema.ModeExec)
	return err
}

// DropTable drops the definition's table if it exists.
func DropTable(ctx context.Context, conn schema.Conn, def *schema.Def) error {
	s, err := schema.Of(def)
	if err != nil {
		return err
	}
	_, err = conn.Exec(ctx, sqlite.DropTable(s), schema.ModeExec)
	return err
}

// Find returns every row matching the filter, reconstructed through the
// storage-load path.
func Find(ctx context.Context, conn schema.Conn, def *schema.Def, f sqlite.Filter) ([]*Row, error) {
	s, err := schema.Of(def)
	if err != nil {
		return nil, err
	}
	stmt, err := sqlite.SelectAll(s, f)
	if err != nil {
		return nil, err
	}
	rows, err := conn.Exec(ctx, stmt, schema.ModeFetchAll)
	if err != nil {
		return nil, err
	}
	out := make([]*Row, 0, len(rows))
	for _, raw := range rows {
		r, err := load(def, s, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// First returns the single row matching the filter, or nil when no row
// matches.
func First(ctx context.Context, conn schema.Conn, def *schema.Def, f sqlite.Filter) (*Row, error) {
	s, err := schema.Of(def)
	if err != nil {
		return nil, err
	}
	stmt, err := sqlite.SelectOne(s, f)
	if err != nil {
		return nil, err
	}
	rows, err := conn.Exec(ctx, stmt, schema.ModeFetchOne)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return load(def, s, rows[0])
}

// ByID returns the row with the given id, or nil when it does not
// exist. Definitions declaring a "disabled" column only match rows that
// are not disabled.
func ByID(ctx context.Context, conn schema.Conn, def *schema.Def, id int64) (*Row, error) {
	s, err := schema.Of(def)
	if err != nil {
		return nil, err
	}
	f := sqlite.Filter{"id": id}
	if s.Has("disabled") {
		f["disabled"] = false
	}
	return First(ctx, conn, def, f)
}

// Delete deletes every row matching the filter, or every row of the
// table when the filter is empty.
func Delete(ctx context.Context, conn schema.Conn, def *schema.Def, f sqlite.Filter) error {
	s, err := schema.Of(def)
	if err != nil {
		return err
	}
	stmt, err := sqlite.Delete(s, f)
	if err != nil {
		return err
	}
	_, err = conn.Exec(ctx, stmt, schema.ModeExec)
	return err
}

// load reconstructs a row from one raw storage row, positionally.
func load(def *schema.Def, s *schema.Schema, raw schema.Row) (*Row, error) {
	if len(raw) != s.Len() {
		return nil, &schema.ArityError{Want: s.Len(), Got: len(raw)}
	}
	r, err := New(def)
	if err != nil {
		return nil, err
	}
	for i, cell := range raw {
		if err := r.vals[i].Overwrite(cell); err != nil {
			return nil, fmt.Errorf("model: column %q: %w", s.Columns[i].Name, err)
		}
	}
	return r, nil
}
