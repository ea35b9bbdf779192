// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package tinyorm_test

import (
	"context"
	"database/sql"

	"github.com/canonical/tinyorm"
)

// fakeDriver records the statements it is given and answers every query
// with the same rows.
type fakeDriver struct {
	stmts  []string
	rows   [][]sql.NullString
	err    error
	fkOn   int
	events *[]string
}

func (d *fakeDriver) ForeignKeysOn(ctx context.Context) error {
	d.fkOn++
	return nil
}

func (d *fakeDriver) Execute(ctx context.Context, stmt string) error {
	d.stmts = append(d.stmts, stmt)
	if d.events != nil {
		*d.events = append(*d.events, stmt)
	}
	return d.err
}

func (d *fakeDriver) ExecuteRows(ctx context.Context, stmt string, onRow tinyorm.RowHandler) error {
	d.stmts = append(d.stmts, stmt)
	if d.err != nil {
		return d.err
	}
	for _, row := range d.rows {
		if err := onRow(len(row), row); err != nil {
			return err
		}
	}
	return nil
}

// text returns a row of non-NULL columns.
func text(values ...string) []sql.NullString {
	row := make([]sql.NullString, len(values))
	for i, v := range values {
		row[i] = sql.NullString{String: v, Valid: true}
	}
	return row
}

var sqlNull = sql.NullString{}

// fakeTxDriver is a fakeDriver that logs the transaction lifecycle.
type fakeTxDriver struct {
	fakeDriver
	events []string
}

func newFakeTxDriver() *fakeTxDriver {
	d := &fakeTxDriver{}
	d.fakeDriver.events = &d.events
	return d
}

func (d *fakeTxDriver) Begin(ctx context.Context) (tinyorm.Tx, error) {
	d.events = append(d.events, "begin")
	return &fakeTx{fakeDriver: &d.fakeDriver, events: &d.events}, nil
}

type fakeTx struct {
	*fakeDriver
	events *[]string
}

func (tx *fakeTx) Commit() error {
	*tx.events = append(*tx.events, "commit")
	return nil
}

func (tx *fakeTx) Rollback() error {
	*tx.events = append(*tx.events, "rollback")
	return nil
}
