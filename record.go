// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package tinyorm

import (
	"reflect"

	"github.com/canonical/tinyorm/internal/typeinfo"
)

// Record is implemented by the struct types stored in tables. The exported
// fields of the struct, in declaration order, are the columns of the table.
// A column is named after its field unless the field has a "db" tag, and
// fields tagged with `db:"-"` are skipped. The first column is always the
// primary key.
//
// Supported field types are the integer, floating point, boolean and string
// types, and [Nullable] of those.
type Record interface {
	TableName() string
}

// schemaOf returns the cached schema of the record type.
func schemaOf(rec Record) (*typeinfo.Info, error) {
	return typeinfo.GetTypeInfo(rec)
}

// recordValue returns the struct value behind rec.
func recordValue(rec Record) reflect.Value {
	return reflect.Indirect(reflect.ValueOf(rec))
}
