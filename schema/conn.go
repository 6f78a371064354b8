// Copyright 2021-present The Atlas Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import "context"

type (
	// Mode selects how a statement is executed and what it returns.
	Mode int

	// A Row is one raw result row as returned by the storage engine.
	Row []any

	// Conn is the contract of the process-wide storage connection. The
	// connection is an external collaborator: it is shared and
	// referenced, never owned, by the components executing statements
	// through it. Implementations serialize access; execution errors
	// propagate to the caller uninterpreted.
	Conn interface {
		// Exec runs a single statement. It returns no rows for ModeExec
		// and ModeCommit, all matching rows for ModeFetchAll, and zero or
		// one row for ModeFetchOne.
		Exec(ctx context.Context, stmt string, mode Mode) ([]Row, error)
		// LastInsertID reports the row id assigned by the most recent
		// insert on this connection.
		LastInsertID(ctx context.Context) (int64, error)
	}
)

// Execution modes.
const (
	// ModeExec executes DDL/DML without returning rows.
	ModeExec Mode = iota
	// ModeFetchAll returns every matching row.
	ModeFetchAll
	// ModeFetchOne returns at most one row.
	ModeFetchOne
	// ModeCommit executes and durably commits.
	ModeCommit
)

// String returns the mode name for logging.
func (m Mode) String() string {
	switch m {
	case ModeExec:
		return "exec"
	case ModeFetchAll:
		return "fetch_all"
	case ModeFetchOne:
		return "fetch_one"
	case ModeCommit:
		return "commit"
	default:
		return "unknown"
	}
}
