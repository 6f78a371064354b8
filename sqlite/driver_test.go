// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package sqlite

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"ariga.io/ormlite/schema"
)

func mockDriver(t *testing.T) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return OpenDB(db), mock
}

func TestDriver_ExecRecordsLastInsertID(t *testing.T) {
	d, mock := mockDriver(t)
	mock.ExpectExec(`insert into people (id, name) values (null, "Alice")`).
		WillReturnResult(sqlmock.NewResult(7, 1))

	rows, err := d.Exec(context.Background(), `insert into people (id, name) values (null, "Alice")`, schema.ModeCommit)
	require.NoError(t, err)
	require.Nil(t, rows)

	id, err := d.LastInsertID(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriver_FetchAll(t *testing.T) {
	d, mock := mockDriver(t)
	mock.ExpectQuery("select * from people").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "Alice").
			AddRow(int64(2), "Bob"),
	)

	rows, err := d.Exec(context.Background(), "select * from people", schema.ModeFetchAll)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, schema.Row{int64(1), "Alice"}, rows[0])
	require.Equal(t, schema.Row{int64(2), "Bob"}, rows[1])
}

func TestDriver_FetchOne(t *testing.T) {
	d, mock := mockDriver(t)
	mock.ExpectQuery("select * from people where id = 1").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), "Alice"),
	)
	rows, err := d.Exec(context.Background(), "select * from people where id = 1", schema.ModeFetchOne)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	mock.ExpectQuery("select * from people where id = 9").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}),
	)
	rows, err = d.Exec(context.Background(), "select * from people where id = 9", schema.ModeFetchOne)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestDriver_ErrorReleasesLock(t *testing.T) {
	d, mock := mockDriver(t)
	mock.ExpectExec("drop table if exists people").WillReturnError(context.DeadlineExceeded)
	_, err := d.Exec(context.Background(), "drop table if exists people", schema.ModeExec)
	require.Error(t, err)

	// A failed statement must not leave the connection lock held.
	mock.ExpectExec("drop table if exists people").WillReturnResult(sqlmock.NewResult(0, 0))
	_, err = d.Exec(context.Background(), "drop table if exists people", schema.ModeExec)
	require.NoError(t, err)
}
