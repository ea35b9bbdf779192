// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package assemble writes the text of the DDL and DML statements generated for
// record types. It does not validate its input, callers are expected to pass
// already rendered column names, types and literals.
package assemble

import (
	"bytes"
)

// ColumnDef describes a single column in a create table statement.
type ColumnDef struct {
	Name    string
	Type    string
	NotNull bool
	// PrimaryKey marks the column as the primary key of the table.
	PrimaryKey bool
	// Constraints are column level constraint fragments. Each fragment
	// starts with a space.
	Constraints []string
}

// sqlBuilder is used to generate SQL string piece by piece using the struct
// methods.
type sqlBuilder struct {
	buf bytes.Buffer
}

// writeCommaSeparatedList writes out the provided list using the writer to
// write each element into the SQL.
func (b *sqlBuilder) writeCommaSeparatedList(list []string, writer func(i int, s string) string) {
	for i, s := range list {
		if i != 0 {
			b.buf.WriteString(",")
		}
		b.buf.WriteString(writer(i, s))
	}
}

// write writes the SQL to the sqlBuilder.
func (b *sqlBuilder) write(sql ...string) {
	for _, s := range sql {
		b.buf.WriteString(s)
	}
}

// getSQL returns the generated SQL string
func (b *sqlBuilder) getSQL() string {
	return b.buf.String()
}

func verbatim(_ int, s string) string {
	return s
}

// columnSQL renders a column definition.
func columnSQL(col ColumnDef) string {
	var b sqlBuilder
	b.write(col.Name, " ", col.Type)
	if col.NotNull {
		b.write(" not null")
	}
	if col.PrimaryKey {
		b.write(" primary key")
	}
	b.write(col.Constraints...)
	return b.getSQL()
}

// CreateTable returns the create table statement for the columns and the
// table level constraints.
func CreateTable(table string, columns []ColumnDef, constraints []string) string {
	var b sqlBuilder
	b.write("create table ", table, "(")
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = columnSQL(col)
	}
	b.writeCommaSeparatedList(append(defs, constraints...), verbatim)
	b.write(");")
	return b.getSQL()
}

// DropTable returns the drop table statement for the table.
func DropTable(table string) string {
	return "drop table " + table + ";"
}

// Insert returns an insert statement. The columns and values must be index
// aligned.
func Insert(table string, columns []string, values []string) string {
	var b sqlBuilder
	b.write("insert into ", table, "(")
	b.writeCommaSeparatedList(columns, verbatim)
	b.write(") values (")
	b.writeCommaSeparatedList(values, verbatim)
	b.write(");")
	return b.getSQL()
}

// Update returns an update statement from rendered assignments and
// predicate.
func Update(table string, assignments string, predicate string) string {
	var b sqlBuilder
	b.write("update ", table, " set ", assignments, " where ", predicate, ";")
	return b.getSQL()
}

// Assignments joins rendered column assignments.
func Assignments(columns []string, values []string) string {
	var b sqlBuilder
	b.writeCommaSeparatedList(columns, func(i int, column string) string {
		return column + "=" + values[i]
	})
	return b.getSQL()
}

// Delete returns a delete statement with a rendered predicate.
func Delete(table string, predicate string) string {
	var b sqlBuilder
	b.write("delete from ", table, " where ", predicate, ";")
	return b.getSQL()
}

// Join returns the elements of list separated by commas.
func Join(list []string) string {
	var b sqlBuilder
	b.writeCommaSeparatedList(list, verbatim)
	return b.getSQL()
}
