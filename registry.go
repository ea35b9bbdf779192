// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package tinyorm

import (
	"fmt"
	"reflect"

	"github.com/canonical/tinyorm/internal/typeinfo"
)

// FieldRegistry resolves fields of registered record types into typed
// [Field] handles.
type FieldRegistry struct {
	schemas map[reflect.Type]*typeinfo.Info
}

// NewFieldRegistry registers the types of the given records. The record
// values are only used for their type.
func NewFieldRegistry(records ...Record) (*FieldRegistry, error) {
	r := &FieldRegistry{schemas: map[reflect.Type]*typeinfo.Info{}}
	for _, rec := range records {
		if err := r.Register(rec); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustFieldRegistry is the same as [NewFieldRegistry] except that it panics
// on error.
func MustFieldRegistry(records ...Record) *FieldRegistry {
	r, err := NewFieldRegistry(records...)
	if err != nil {
		panic(err)
	}
	return r
}

// Register adds the type of rec to the registry.
func (r *FieldRegistry) Register(rec Record) error {
	info, err := schemaOf(rec)
	if err != nil {
		return fmt.Errorf("cannot register record: %w", err)
	}
	r.schemas[info.Type] = info
	return nil
}

// Lookup returns the field of rec with the given field or column name. The
// Go type of the field must be T, or Nullable[T].
func Lookup[T comparable](r *FieldRegistry, rec Record, name string) (Field[T], error) {
	v := recordValue(rec)
	if !v.IsValid() {
		return Field[T]{}, fmt.Errorf("%w: nil record %T", ErrNoSuchField, rec)
	}
	info, ok := r.schemas[v.Type()]
	if !ok {
		return Field[T]{}, fmt.Errorf("%w: record type %T not registered", ErrNoSuchField, rec)
	}
	col, ok := info.Column(name)
	if !ok {
		return Field[T]{}, fmt.Errorf("%w: %q in table %q", ErrNoSuchField, name, info.Table)
	}
	want := reflect.TypeOf((*T)(nil)).Elem()
	if col.ValueType != want {
		return Field[T]{}, fmt.Errorf("field %q of table %q has type %s, not %s",
			col.Field, info.Table, typeinfo.PrettyTypeName(col.ValueType), typeinfo.PrettyTypeName(want))
	}
	return newField[T](info.Table, col.Name, col.Nullable), nil
}

// MustLookup is the same as [Lookup] except that it panics on error.
func MustLookup[T comparable](r *FieldRegistry, rec Record, name string) Field[T] {
	f, err := Lookup[T](r, rec, name)
	if err != nil {
		panic(err)
	}
	return f
}
