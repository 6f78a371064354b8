// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package sqlite

import (
	"fmt"
	"strings"

	"ariga.io/ormlite/schema"
)

// A Filter maps column names to the values their predicates compare
// against. Keys holding nil are dropped from the rendered predicate
// entirely rather than emitted as null-equality. Predicates are
// rendered in schema column order to keep statement text deterministic.
type Filter map[string]any

// formatKind maps a column kind to its SQLite storage class token.
// Booleans are stored as integer 0/1; timestamps as text.
func formatKind(k schema.Kind) string {
	switch k {
	case schema.KindInteger, schema.KindBool:
		return "integer"
	case schema.KindReal:
		return "real"
	default:
		return "text"
	}
}

// CreateTable compiles the statement creating the schema's table,
// including per-column constraint clauses and foreign-key references.
func CreateTable(s *schema.Schema) string {
	b := Build("create table if not exists").Ident(s.Table)
	b.Wrap(func(b *Builder) {
		b.MapComma(len(s.Columns), func(i int, b *Builder) {
			column(b, s.Columns[i])
		})
	})
	return b.String()
}

// column renders one column definition: name, storage class, then any
// subset of "primary key", "not null" and "references t(c)".
func column(b *Builder, cd schema.ColumnDef) {
	b.Ident(cd.Name).P(formatKind(cd.Column.Kind))
	spec := cd.Column.Spec
	if spec.PrimaryKey {
		b.P("primary key")
	}
	if spec.NotNull {
		b.P("not null")
	}
	if ref := spec.ForeignKey; ref != nil {
		key := ref.Column
		if key == "" {
			key = "id"
		}
		b.P(fmt.Sprintf("references %s(%s)", schema.TableName(ref.Def), key))
	}
}

// DropTable compiles the statement dropping the schema's table.
func DropTable(s *schema.Schema) string {
	return Build("drop table if exists").Ident(s.Table).String()
}

// SelectAll compiles a select returning every row matching the filter,
// or every row of the table when the filter is empty.
func SelectAll(s *schema.Schema, f Filter) (string, error) {
	b := Build("select * from").Ident(s.Table)
	pred, err := predicate(s, f)
	if err != nil {
		return "", err
	}
	if pred != "" {
		b.P("where", pred)
	}
	return b.String(), nil
}

// SelectOne compiles a select returning a single row. A filter is
// required: selecting "one" of an unfiltered table is a caller bug.
func SelectOne(s *schema.Schema, f Filter) (string, error) {
	pred, err := predicate(s, f)
	if err != nil {
		return "", err
	}
	if pred == "" {
		return "", fmt.Errorf("sqlite: select one from %s requires a filter", s.Table)
	}
	return Build("select * from").Ident(s.Table).P("where", pred).String(), nil
}

// Delete compiles the statement deleting every row matching the filter,
// or every row of the table when the filter is empty.
func Delete(s *schema.Schema, f Filter) (string, error) {
	b := Build("delete from").Ident(s.Table)
	pred, err := predicate(s, f)
	if err != nil {
		return "", err
	}
	if pred != "" {
		b.P("where", pred)
	}
	return b.String(), nil
}

// Insert compiles the statement inserting the row values, in schema
// order. Every column is listed; autofilled slots self-populate while
// rendering and unset slots render as null, letting the engine assign
// row ids.
func Insert(s *schema.Schema, vals []*schema.Value) string {
	names := make([]string, len(s.Columns))
	for i, cd := range s.Columns {
		names[i] = cd.Name
	}
	b := Build("insert into").Ident(s.Table)
	b.Wrap(func(b *Builder) {
		b.P(strings.Join(names, ", "))
	})
	b.P("values")
	b.Wrap(func(b *Builder) {
		b.MapComma(len(vals), func(i int, b *Builder) {
			b.P(vals[i].SQL())
		})
	})
	return b.String()
}

// Update compiles the statement updating the row's dirty columns,
// keyed by the row's id. Rendering every slot first lets fill-on-update
// timestamps stamp themselves and join the dirty set. When no column is
// dirty there is no statement to run and ok is false; the caller must
// skip execution rather than execute an empty statement.
func Update(s *schema.Schema, vals []*schema.Value) (stmt string, ok bool) {
	rendered := make([]string, len(vals))
	for i, v := range vals {
		rendered[i] = v.SQL()
	}
	var set []string
	for i, v := range vals {
		if v.Dirty() {
			set = append(set, fmt.Sprintf("%s = %s", s.Columns[i].Name, rendered[i]))
		}
	}
	if len(set) == 0 {
		return "", false
	}
	idPos, hasID := s.Pos("id")
	if !hasID {
		return "", false
	}
	b := Build("update").Ident(s.Table).P("set", strings.Join(set, ", "))
	b.P("where", fmt.Sprintf("%s.id = %s", s.Table, rendered[idPos]))
	return b.String(), true
}

// predicate renders the filter as an and-joined list of equality
// comparisons. Keys must name schema columns; keys holding nil are
// dropped.
func predicate(s *schema.Schema, f Filter) (string, error) {
	for name := range f {
		if !s.Has(name) {
			return "", &schema.UnknownColumnError{Name: name}
		}
	}
	var parts []string
	for _, cd := range s.Columns {
		v, ok := f[cd.Name]
		if !ok || v == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s = %s", cd.Name, cd.Column.Literal(v)))
	}
	return strings.Join(parts, " and "), nil
}
