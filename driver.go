// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package tinyorm

import (
	"context"
	"database/sql"
)

// RowHandler is called once for every row of a result set with the number
// of columns and the text of each column. A NULL column is not valid. The
// values slice is reused between calls.
type RowHandler func(columns int, values []sql.NullString) error

// Driver runs generated statements on a database.
type Driver interface {
	// ForeignKeysOn enables enforcement of foreign key constraints.
	ForeignKeysOn(ctx context.Context) error

	// Execute runs statements that return no rows.
	Execute(ctx context.Context, stmt string) error

	// ExecuteRows runs a statement and passes every result row to onRow.
	// An error returned by onRow aborts the statement and is returned.
	ExecuteRows(ctx context.Context, stmt string, onRow RowHandler) error
}

// Tx is a [Driver] bound to a database transaction.
type Tx interface {
	Driver
	Commit() error
	Rollback() error
}

// TxDriver is a [Driver] that can start transactions.
type TxDriver interface {
	Driver
	Begin(ctx context.Context) (Tx, error)
}
