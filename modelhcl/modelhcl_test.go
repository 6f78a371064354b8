// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package modelhcl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ariga.io/ormlite/schema"
	"ariga.io/ormlite/sqlite"
)

func TestDecode(t *testing.T) {
	defs, err := Decode([]byte(`
model "dataset_type" {
}

model "dataset" {
  table = "datasets"

  column "desc" {
    type = "text"
  }
  column "type_id" {
    type = "integer"
    references {
      model = "dataset_type"
    }
  }
  column "path" {
    type    = "text"
    default = ""
  }
  column "readonly" {
    type     = "bool"
    not_null = true
    default  = false
  }
  column "created" {
    type           = "timestamp"
    fill_on_create = true
  }
  column "modified" {
    type           = "timestamp"
    fill_on_update = true
  }
}
`), "models.hcl")
	require.NoError(t, err)
	require.Len(t, defs, 2)

	require.Equal(t, "dataset_type", schema.TableName(defs[0]))
	require.Equal(t, schema.Base, defs[0].Parent)

	ds := defs[1]
	s, err := schema.Of(ds)
	require.NoError(t, err)
	require.Equal(t, "datasets", s.Table)

	typeID, ok := s.Column("type_id")
	require.True(t, ok)
	require.Equal(t, defs[0], typeID.Spec.ForeignKey.Def)

	readonly, ok := s.Column("readonly")
	require.True(t, ok)
	require.True(t, readonly.Spec.NotNull)
	require.Equal(t, false, readonly.Spec.Default)

	created, ok := s.Column("created")
	require.True(t, ok)
	require.True(t, created.Spec.FillOnCreate)

	require.Equal(t,
		"create table if not exists datasets ("+
			"id integer primary key, "+
			"name text, "+
			"desc text, "+
			"type_id integer references dataset_type(id), "+
			"path text, "+
			"readonly integer not null, "+
			"created text, "+
			"modified text)",
		sqlite.CreateTable(s),
	)
}

func TestDecode_Extends(t *testing.T) {
	defs, err := Decode([]byte(`
model "disableable" {
  column "disabled" {
    type    = "bool"
    default = false
  }
}

model "job" {
  extends = "disableable"

  column "priority" {
    type    = "integer"
    default = 0
  }
}
`), "models.hcl")
	require.NoError(t, err)
	s, err := schema.Of(defs[1])
	require.NoError(t, err)
	require.True(t, s.Has("disabled"), "columns inherit through extends")
	prio, _ := s.Column("priority")
	require.Equal(t, int64(0), prio.Spec.Default)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte(`
model "m" {
  column "c" {
    type = "uuid"
  }
}`), "bad.hcl")
	require.ErrorContains(t, err, "unknown type")

	_, err = Decode([]byte(`
model "m" {
  extends = "ghost"
}`), "bad.hcl")
	require.ErrorContains(t, err, "extends unknown model")

	_, err = Decode([]byte(`
model "m" {
  column "ref" {
    type = "integer"
    references {
      model = "ghost"
    }
  }
}`), "bad.hcl")
	require.ErrorContains(t, err, "references unknown model")

	_, err = Decode([]byte(`model "m" {`), "bad.hcl")
	require.Error(t, err)
}
