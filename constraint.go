// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package tinyorm

import (
	"fmt"

	"github.com/canonical/tinyorm/internal/assemble"
)

// Constraint is a table definition constraint passed to
// [DBManager.CreateTbl]. A constraint with a column is appended to the
// definition of that column, the others are appended after all columns.
type Constraint struct {
	text string
	// column is empty for table level constraints.
	column string
	// table is the table the constrained columns belong to, if known.
	table string
	err   error
}

// String renders the constraint.
func (c Constraint) String() string {
	return c.text
}

// Column returns the constrained column of a column level constraint, or ""
// for a table level constraint.
func (c Constraint) Column() string {
	return c.column
}

// Default sets the default value of the column of f.
func Default[T comparable](f Field[T], v T) Constraint {
	lit, err := serialize(v)
	return Constraint{text: " default " + lit, column: f.Column(), table: f.Table(), err: err}
}

// Check adds a check constraint on the table.
func Check(pred RelationExpr) Constraint {
	return Constraint{text: "check (" + pred.String() + ")", err: pred.Err()}
}

// Unique requires the values of the columns to be unique in the table.
func Unique(cols Columns) Constraint {
	table, columns, err := cols.columnList()
	return Constraint{text: "unique (" + assemble.Join(columns) + ")", table: table, err: err}
}

// Reference adds a foreign key from cols to the columns ref of another
// table. Both lists must have the same length.
func Reference(cols Columns, ref Columns) Constraint {
	table, columns, err := cols.columnList()
	if err != nil {
		return Constraint{err: err}
	}
	refTable, refColumns, err := ref.columnList()
	if err != nil {
		return Constraint{err: err}
	}
	if len(columns) != len(refColumns) {
		return Constraint{err: fmt.Errorf("cannot reference %d columns of %q with %d columns",
			len(refColumns), refTable, len(columns))}
	}
	text := "foreign key (" + assemble.Join(columns) + ") references " +
		refTable + "(" + assemble.Join(refColumns) + ")"
	return Constraint{text: text, table: table}
}
