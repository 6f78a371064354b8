// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func stubNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = prev })
}

func TestColumn_TypeCheck(t *testing.T) {
	for _, tt := range []struct {
		kind    Kind
		value   any
		wantErr bool
	}{
		{KindInteger, nil, false},
		{KindInteger, 1, false},
		{KindInteger, int64(1), false},
		{KindInteger, "1", true},
		{KindInteger, 1.0, true},
		{KindReal, 1.5, false},
		{KindReal, 1, true},
		{KindText, "a", false},
		{KindText, 1, true},
		{KindTimestamp, time.Now(), false},
		{KindTimestamp, "2023-04-01 10:20:30.123", false},
		{KindTimestamp, "2023-04-01", true},
		{KindTimestamp, 1, true},
		{KindBool, true, false},
		{KindBool, 1, true},
	} {
		cd := NewColumn("c", tt.kind)
		err := cd.Column.TypeCheck(tt.value)
		if tt.wantErr {
			require.Error(t, err, "%s <- %v", tt.kind, tt.value)
			require.True(t, IsTypeError(err))
		} else {
			require.NoError(t, err, "%s <- %v", tt.kind, tt.value)
		}
	}
}

func TestValue_SetTracksDirtiness(t *testing.T) {
	v := NewStringColumn("name").Column.Value()
	changed, err := v.Set("Alice")
	require.NoError(t, err)
	require.True(t, changed)
	require.True(t, v.Dirty())
	require.Equal(t, "Alice", v.Get())

	v.ClearDirty()
	changed, err = v.Set("Alice")
	require.NoError(t, err)
	require.False(t, changed, "equal value is a no-op")
	require.False(t, v.Dirty(), "no-op must not re-mark dirty")

	changed, err = v.Set(nil)
	require.NoError(t, err)
	require.True(t, changed, "clearing a value is a change")
	require.Nil(t, v.Get())
}

func TestValue_SetRejectsAutofilled(t *testing.T) {
	pk := NewIntColumn("id", PrimaryKey()).Column.Value()
	_, err := pk.Set(int64(3))
	require.True(t, IsAutofillError(err))

	mod := NewTimeColumn("modified", FillOnUpdate()).Column.Value()
	_, err = mod.Set(time.Now())
	require.True(t, IsAutofillError(err))

	created := NewTimeColumn("created", FillOnCreate()).Column.Value()
	_, err = created.Set(time.Now())
	require.True(t, IsAutofillError(err), "unset fill-on-create rejects writes")
	require.True(t, created.Autofill())
	_, err = created.Set(created.Get().(time.Time).Add(time.Hour))
	require.NoError(t, err, "stamped fill-on-create accepts writes")
}

func TestValue_Overwrite(t *testing.T) {
	id := NewIntColumn("id", PrimaryKey()).Column.Value()
	require.NoError(t, id.Overwrite(int64(7)))
	require.Equal(t, int64(7), id.Get())
	require.False(t, id.Dirty(), "load path bypasses dirty tracking")

	b := NewBoolColumn("disabled").Column.Value()
	require.NoError(t, b.Overwrite(int64(1)))
	require.Equal(t, true, b.Get())

	ts := NewTimeColumn("created").Column.Value()
	require.NoError(t, ts.Overwrite("2023-04-01 10:20:30.123"))
	require.Equal(t, time.Date(2023, 4, 1, 10, 20, 30, 123_000_000, time.UTC), ts.Get())

	require.Error(t, ts.Overwrite("nonsense"))
}

func TestValue_AutofillOnCreateStampsOnce(t *testing.T) {
	first := time.Date(2023, 4, 1, 10, 20, 30, 123_000_000, time.UTC)
	stubNow(t, first)
	v := NewTimeColumn("created", FillOnCreate()).Column.Value()
	require.Equal(t, `"2023-04-01 10:20:30.123"`, v.SQL())
	require.True(t, v.Dirty())

	stubNow(t, first.Add(time.Hour))
	require.Equal(t, `"2023-04-01 10:20:30.123"`, v.SQL(), "stamp must not move once set")
}

func TestValue_AutofillOnUpdateRestamps(t *testing.T) {
	first := time.Date(2023, 4, 1, 10, 20, 30, 123_000_000, time.UTC)
	stubNow(t, first)
	v := NewTimeColumn("modified", FillOnUpdate()).Column.Value()
	require.Equal(t, `"2023-04-01 10:20:30.123"`, v.SQL())

	stubNow(t, first.Add(time.Hour))
	require.Equal(t, `"2023-04-01 11:20:30.123"`, v.SQL())
}

func TestValue_CheckConstraint(t *testing.T) {
	v := NewStringColumn("text", NotNull()).Column.Value()
	require.True(t, IsRequiredError(v.CheckConstraint()))
	_, err := v.Set("x")
	require.NoError(t, err)
	require.NoError(t, v.CheckConstraint())

	optional := NewStringColumn("desc").Column.Value()
	require.NoError(t, optional.CheckConstraint())
}

func TestValue_SQLLiterals(t *testing.T) {
	for _, tt := range []struct {
		cd   ColumnDef
		set  any
		want string
	}{
		{NewIntColumn("n"), nil, "null"},
		{NewIntColumn("n"), 42, "42"},
		{NewFloatColumn("f"), 1.5, "1.5"},
		{NewStringColumn("s"), "Alice", `"Alice"`},
		{NewBoolColumn("b"), true, "1"},
		{NewBoolColumn("b"), false, "0"},
	} {
		v := tt.cd.Column.Value()
		if tt.set != nil {
			_, err := v.Set(tt.set)
			require.NoError(t, err)
		}
		require.Equal(t, tt.want, v.SQL())
	}
}

func TestValue_TimestampRoundTrip(t *testing.T) {
	at := time.Date(2023, 4, 1, 10, 20, 30, 123_456_789, time.UTC)
	v := NewTimeColumn("stamp").Column.Value()
	_, err := v.Set(at)
	require.NoError(t, err)
	lit := v.SQL()
	require.Equal(t, `"2023-04-01 10:20:30.123"`, lit, "render truncates to milliseconds")

	loaded := NewTimeColumn("stamp").Column.Value()
	require.NoError(t, loaded.Overwrite(lit[1:len(lit)-1]))
	require.Equal(t, at.Truncate(time.Millisecond), loaded.Get())
}

func TestValue_DefaultTaken(t *testing.T) {
	v := NewStringColumn("path", Default("")).Column.Value()
	require.Equal(t, "", v.Get())
	b := NewBoolColumn("readonly", NotNull(), Default(false)).Column.Value()
	require.Equal(t, false, b.Get())
	require.NoError(t, b.CheckConstraint())
}

func TestValue_Display(t *testing.T) {
	ts := NewTimeColumn("created").Column.Value()
	require.NoError(t, ts.Overwrite("2023-04-01 10:20:30.123"))
	require.Equal(t, "2023-04-01 10:20", ts.Display())

	s := NewStringColumn("name").Column.Value()
	require.Nil(t, s.Display())
	_, err := s.Set("Alice")
	require.NoError(t, err)
	require.Equal(t, "Alice", s.Display())
}

func TestColumn_Literal(t *testing.T) {
	require.Equal(t, `"active"`, NewStringColumn("s").Column.Literal("active"))
	require.Equal(t, "0", NewBoolColumn("b").Column.Literal(false))
	require.Equal(t, "7", NewIntColumn("n").Column.Literal(7))
	require.Equal(t, "null", NewIntColumn("n").Column.Literal(nil))
}
