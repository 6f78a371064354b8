// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"ariga.io/ormlite/schema"
)

// A Driver is the process-wide connection to one embedded SQLite
// database. Access is serialized by a single lock held for the full
// duration of statement execution: concurrent callers block rather
// than interleave, and reads share the lock with writes. The lock is
// released on both success and failure paths; failed executions are
// not retried, the error propagates to the caller.
type Driver struct {
	mu      sync.Mutex
	db      *sql.DB
	log     zerolog.Logger
	existed bool
	lastID  int64
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger every executed statement is reported to
// at debug level. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Driver) { d.log = l }
}

// Open opens the database file at path, creating it when absent, and
// enables foreign-key enforcement. Use ":memory:" for an in-memory
// database.
func Open(path string, opts ...Option) (*Driver, error) {
	existed := false
	if path != ":memory:" {
		if _, err := os.Stat(path); err == nil {
			existed = true
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	d := OpenDB(db, opts...)
	d.existed = existed
	return d, nil
}

// OpenDB wraps an already-opened database handle. It is used by tests
// to inject a mocked connection.
func OpenDB(db *sql.DB, opts ...Option) *Driver {
	d := &Driver{db: db, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Existed reports whether the database file was present before Open.
func (d *Driver) Existed() bool { return d.existed }

// Close closes the underlying database handle.
func (d *Driver) Close() error {
	return d.db.Close()
}

// Exec runs a single statement under the connection lock. ModeExec and
// ModeCommit return no rows; with autocommit on the underlying handle
// both commit durably, the modes stay distinct for contract parity.
// The row id assigned by an insert is recorded under the same lock
// that serialized the statement.
func (d *Driver) Exec(ctx context.Context, stmt string, mode schema.Mode) ([]schema.Row, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.log.Debug().Stringer("mode", mode).Msg(stmt)
	switch mode {
	case schema.ModeFetchAll:
		return d.query(ctx, stmt, -1)
	case schema.ModeFetchOne:
		return d.query(ctx, stmt, 1)
	default:
		res, err := d.db.ExecContext(ctx, stmt)
		if err != nil {
			return nil, fmt.Errorf("sqlite: exec: %w", err)
		}
		if id, err := res.LastInsertId(); err == nil {
			d.lastID = id
		}
		return nil, nil
	}
}

// LastInsertID reports the row id recorded by the most recent insert.
// It is only meaningful immediately after a successful insert on this
// connection.
func (d *Driver) LastInsertID(ctx context.Context) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastID, nil
}

// query runs the statement and scans up to limit rows (all rows when
// limit is negative).
func (d *Driver) query(ctx context.Context, stmt string, limit int) ([]schema.Row, error) {
	rows, err := d.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query: %w", err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlite: columns: %w", err)
	}
	var out []schema.Row
	for rows.Next() {
		if limit >= 0 && len(out) == limit {
			break
		}
		row := make(schema.Row, len(cols))
		ptrs := make([]any, len(cols))
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: rows: %w", err)
	}
	return out, nil
}
