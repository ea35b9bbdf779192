// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package tinyorm

import (
	"database/sql"
	"fmt"
	"reflect"

	"github.com/canonical/tinyorm/internal/typeinfo"
)

// cell receives one column of a result row.
type cell interface {
	scan(text *string) error
	get() any
}

func (n *Nullable[T]) scan(text *string) error {
	return typeinfo.Deserialize(reflect.ValueOf(n).Elem(), text)
}

func (n *Nullable[T]) get() any {
	return *n
}

// Tuple is a result row of a projection or a join. Every element is a
// [Nullable] of the type of the selected expression, read them with
// [TupleValue].
type Tuple []any

// TupleValue returns element i of t.
func TupleValue[T comparable](t Tuple, i int) (Nullable[T], error) {
	if i < 0 || i >= len(t) {
		return Nullable[T]{}, fmt.Errorf("cannot get element %d of tuple with %d elements", i, len(t))
	}
	n, ok := t[i].(Nullable[T])
	if !ok {
		return Nullable[T]{}, fmt.Errorf("cannot get element %d of tuple as %T, have %T", i, n, t[i])
	}
	return n, nil
}

// basicCells makes cells for the scalar types of non-nullable columns.
// Columns of named types are decoded into the underlying basic type.
var basicCells = map[reflect.Kind]func() cell{
	reflect.Bool:    func() cell { return &Nullable[bool]{} },
	reflect.Int:     func() cell { return &Nullable[int]{} },
	reflect.Int8:    func() cell { return &Nullable[int8]{} },
	reflect.Int16:   func() cell { return &Nullable[int16]{} },
	reflect.Int32:   func() cell { return &Nullable[int32]{} },
	reflect.Int64:   func() cell { return &Nullable[int64]{} },
	reflect.Uint:    func() cell { return &Nullable[uint]{} },
	reflect.Uint8:   func() cell { return &Nullable[uint8]{} },
	reflect.Uint16:  func() cell { return &Nullable[uint16]{} },
	reflect.Uint32:  func() cell { return &Nullable[uint32]{} },
	reflect.Uint64:  func() cell { return &Nullable[uint64]{} },
	reflect.Float32: func() cell { return &Nullable[float32]{} },
	reflect.Float64: func() cell { return &Nullable[float64]{} },
	reflect.String:  func() cell { return &Nullable[string]{} },
}

// columnCells returns the cell constructors for all columns of a schema.
func columnCells(info *typeinfo.Info) []func() cell {
	cells := make([]func() cell, len(info.Columns))
	for i, col := range info.Columns {
		if _, ok := reflect.New(col.Type).Interface().(cell); ok {
			typ := col.Type
			cells[i] = func() cell { return reflect.New(typ).Interface().(cell) }
			continue
		}
		cells[i] = basicCells[col.ValueType.Kind()]
	}
	return cells
}

// nullText returns the text of a column, or nil for NULL.
func nullText(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
