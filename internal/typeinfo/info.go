// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"reflect"
)

// Column represents a single field of a record type and the table column it
// is stored in.
type Column struct {
	// Name is the column name in the table.
	Name string

	// Field is the name of the struct field.
	Field string

	// Index of this field in the struct.
	Index int

	// Type is the type of the struct field.
	Type reflect.Type

	// ValueType is the scalar type stored in the column. It differs from
	// Type only for nullable fields.
	ValueType reflect.Type

	// Nullable is true if the field can hold SQL NULL.
	Nullable bool

	// SQLType is the SQL type keyword of the column.
	SQLType string
}

// Info represents reflected information about a record type.
type Info struct {
	Type reflect.Type

	// Table is the name of the table the record type is stored in.
	Table string

	// Columns are listed in field declaration order. The first column is the
	// primary key.
	Columns []Column

	// byName relates both column names and field names to column indexes.
	byName map[string]int
}

// Column returns the column with the given column or field name.
func (info *Info) Column(name string) (Column, bool) {
	i, ok := info.byName[name]
	if !ok {
		return Column{}, false
	}
	return info.Columns[i], true
}

// PrimaryKey returns the first column of the record type.
func (info *Info) PrimaryKey() Column {
	return info.Columns[0]
}
