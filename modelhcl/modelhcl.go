// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package modelhcl loads model definitions from HCL documents, as an
// alternative to declaring them in Go:
//
//	model "dataset" {
//	  table = "datasets"
//	  column "desc"     { type = "text" }
//	  column "readonly" { type = "bool" not_null = true default = false }
//	  column "created"  { type = "timestamp" fill_on_create = true }
//	  column "type_id"  { type = "integer" references { model = "dataset_type" } }
//	}
//
// Models extend schema.Base unless "extends" names another model,
// resolved against earlier models in the same document or the
// caller-supplied base set.
package modelhcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"ariga.io/ormlite/schema"
)

type (
	document struct {
		Models []*modelBlock `hcl:"model,block"`
	}

	modelBlock struct {
		Name    string         `hcl:"name,label"`
		Table   string         `hcl:"table,optional"`
		Extends string         `hcl:"extends,optional"`
		Columns []*columnBlock `hcl:"column,block"`
	}

	columnBlock struct {
		Name         string    `hcl:"name,label"`
		Type         string    `hcl:"type"`
		PrimaryKey   bool      `hcl:"primary_key,optional"`
		NotNull      bool      `hcl:"not_null,optional"`
		FillOnCreate bool      `hcl:"fill_on_create,optional"`
		FillOnUpdate bool      `hcl:"fill_on_update,optional"`
		Default      cty.Value `hcl:"default,optional"`
		References   *refBlock `hcl:"references,block"`
	}

	refBlock struct {
		Model  string `hcl:"model"`
		Column string `hcl:"column,optional"`
	}
)

// kinds maps HCL type names to column kinds.
var kinds = map[string]schema.Kind{
	"integer":   schema.KindInteger,
	"real":      schema.KindReal,
	"text":      schema.KindText,
	"timestamp": schema.KindTimestamp,
	"bool":      schema.KindBool,
}

// Decode parses the document and returns its model definitions in
// declaration order. The base definitions (schema.Base implied) seed
// the set that "extends" and "references" resolve against; models
// declared earlier in the document are visible to later ones.
func Decode(body []byte, filename string, base ...*schema.Def) ([]*schema.Def, error) {
	parser := hclparse.NewParser()
	file, diag := parser.ParseHCL(body, filename)
	if diag.HasErrors() {
		return nil, fmt.Errorf("modelhcl: parse %s: %w", filename, diag)
	}
	var doc document
	if diag := gohcl.DecodeBody(file.Body, nil, &doc); diag.HasErrors() {
		return nil, fmt.Errorf("modelhcl: decode %s: %w", filename, diag)
	}
	known := map[string]*schema.Def{schema.Base.Name: schema.Base}
	for _, d := range base {
		known[d.Name] = d
	}
	defs := make([]*schema.Def, 0, len(doc.Models))
	for _, m := range doc.Models {
		def, err := convert(m, known)
		if err != nil {
			return nil, err
		}
		known[def.Name] = def
		defs = append(defs, def)
	}
	return defs, nil
}

func convert(m *modelBlock, known map[string]*schema.Def) (*schema.Def, error) {
	def := &schema.Def{Name: m.Name, Table: m.Table, Parent: schema.Base}
	if m.Extends != "" {
		parent, ok := known[m.Extends]
		if !ok {
			return nil, fmt.Errorf("modelhcl: model %q extends unknown model %q", m.Name, m.Extends)
		}
		def.Parent = parent
	}
	for _, c := range m.Columns {
		cd, err := convertColumn(m.Name, c, known)
		if err != nil {
			return nil, err
		}
		def.Columns = append(def.Columns, cd)
	}
	return def, nil
}

func convertColumn(model string, c *columnBlock, known map[string]*schema.Def) (schema.ColumnDef, error) {
	kind, ok := kinds[c.Type]
	if !ok {
		return schema.ColumnDef{}, fmt.Errorf("modelhcl: model %q: column %q has unknown type %q", model, c.Name, c.Type)
	}
	var opts []schema.ColumnOption
	if c.PrimaryKey {
		opts = append(opts, schema.PrimaryKey())
	}
	if c.NotNull {
		opts = append(opts, schema.NotNull())
	}
	if c.FillOnCreate {
		opts = append(opts, schema.FillOnCreate())
	}
	if c.FillOnUpdate {
		opts = append(opts, schema.FillOnUpdate())
	}
	if !c.Default.IsNull() {
		d, err := defaultValue(kind, c.Default)
		if err != nil {
			return schema.ColumnDef{}, fmt.Errorf("modelhcl: model %q: column %q: %w", model, c.Name, err)
		}
		opts = append(opts, schema.Default(d))
	}
	if r := c.References; r != nil {
		parent, ok := known[r.Model]
		if !ok {
			return schema.ColumnDef{}, fmt.Errorf("modelhcl: model %q: column %q references unknown model %q", model, c.Name, r.Model)
		}
		opts = append(opts, schema.References(parent, r.Column))
	}
	return schema.NewColumn(c.Name, kind, opts...), nil
}

// defaultValue converts a decoded cty default to the column kind's
// value representation.
func defaultValue(kind schema.Kind, v cty.Value) (any, error) {
	switch kind {
	case schema.KindInteger:
		if v.Type() != cty.Number {
			return nil, fmt.Errorf("default %s is not a number", v.Type().FriendlyName())
		}
		i, _ := v.AsBigFloat().Int64()
		return i, nil
	case schema.KindReal:
		if v.Type() != cty.Number {
			return nil, fmt.Errorf("default %s is not a number", v.Type().FriendlyName())
		}
		f, _ := v.AsBigFloat().Float64()
		return f, nil
	case schema.KindText, schema.KindTimestamp:
		if v.Type() != cty.String {
			return nil, fmt.Errorf("default %s is not a string", v.Type().FriendlyName())
		}
		return v.AsString(), nil
	case schema.KindBool:
		if v.Type() != cty.Bool {
			return nil, fmt.Errorf("default %s is not a bool", v.Type().FriendlyName())
		}
		return v.True(), nil
	}
	return nil, fmt.Errorf("default not supported for kind %s", kind)
}
