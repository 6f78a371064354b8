// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import (
	"sync"

	"github.com/go-openapi/inflect"
)

type (
	// A Def is an explicit model definition: a named, ordered set of
	// column templates, optionally extending a parent definition. The
	// merged shape used by every other component is produced by Of.
	Def struct {
		// Name identifies the model and derives the default table name.
		Name string
		// Table overrides the derived table name when set.
		Table string
		// Parent is the definition this model extends, if any.
		Parent *Def
		// Columns are the model's own declarations, in order. A column
		// named like an inherited one shadows it in place.
		Columns []ColumnDef
	}

	// A Schema is the merged, ordered attribute set of a model
	// definition: every ancestor column not overridden plus the model's
	// own, with stable positions for positional construction and SQL
	// column ordering. Schemas are shared read-only by every row of the
	// model.
	Schema struct {
		Table   string
		Columns []ColumnDef
		index   map[string]int
	}
)

// Base is the conventional root definition: an integer "id" primary key
// and a text "name" column. Model definitions extend it unless they
// explicitly override the convention.
var Base = &Def{
	Name: "base",
	Columns: []ColumnDef{
		NewIntColumn("id", PrimaryKey()),
		NewStringColumn("name"),
	},
}

// registry caches merged schemas by definition identity. Definitions
// are declared once at init time, so the cache only grows.
var registry struct {
	sync.Mutex
	schemas map[*Def]*Schema
}

// TableName resolves the table identity of a definition: the explicit
// override if configured, else a name derived from the model name.
func TableName(def *Def) string {
	if def.Table != "" {
		return def.Table
	}
	return inflect.Underscore(def.Name)
}

// Of merges the definition's parent chain into its flat schema and
// caches the result by definition identity. The chain is walked from
// the most distant ancestor to the model itself, later declarations
// overriding earlier ones by name while keeping the first-seen position.
// Foreign-key references are resolved here; a malformed or dangling
// reference fails with ForeignKeyError.
func Of(def *Def) (*Schema, error) {
	registry.Lock()
	defer registry.Unlock()
	if s, ok := registry.schemas[def]; ok {
		return s, nil
	}
	s := &Schema{Table: TableName(def), index: make(map[string]int)}
	for _, level := range chain(def) {
		for _, cd := range level.Columns {
			if pos, ok := s.index[cd.Name]; ok {
				s.Columns[pos] = cd
				continue
			}
			s.index[cd.Name] = len(s.Columns)
			s.Columns = append(s.Columns, cd)
		}
	}
	for _, cd := range s.Columns {
		if err := checkRef(cd); err != nil {
			return nil, err
		}
	}
	if registry.schemas == nil {
		registry.schemas = make(map[*Def]*Schema)
	}
	registry.schemas[def] = s
	return s, nil
}

// chain returns the definition's ancestry ordered root-first.
func chain(def *Def) []*Def {
	var defs []*Def
	for d := def; d != nil; d = d.Parent {
		defs = append([]*Def{d}, defs...)
	}
	return defs
}

// checkRef validates a column's foreign-key declaration against the
// referenced definition's declaration chain. The chain is scanned
// directly rather than merged, so self- and cyclic references do not
// recurse.
func checkRef(cd ColumnDef) error {
	ref := cd.Column.Spec.ForeignKey
	if ref == nil {
		return nil
	}
	if ref.Def == nil {
		return &ForeignKeyError{Column: cd.Name, Ref: ref}
	}
	key := ref.Column
	if key == "" {
		key = "id"
	}
	for _, level := range chain(ref.Def) {
		for _, pcd := range level.Columns {
			if pcd.Name == key {
				return nil
			}
		}
	}
	return &ForeignKeyError{Column: cd.Name, Ref: ref}
}

// Column returns the template of the named column.
func (s *Schema) Column(name string) (*Column, bool) {
	pos, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.Columns[pos].Column, true
}

// Pos returns the stable position of the named column.
func (s *Schema) Pos(name string) (int, bool) {
	pos, ok := s.index[name]
	return pos, ok
}

// Has reports whether the schema contains the named column.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Len returns the number of columns in the merged schema.
func (s *Schema) Len() int { return len(s.Columns) }
