// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"reflect"

	"github.com/pkg/errors"
)

// Nullable is implemented by the nullable wrapper type of the root package.
// Reflection code uses it to recognise nullable fields without importing
// the root package.
type Nullable interface {
	// NullableType returns the type of the wrapped value.
	NullableType() reflect.Type
	// NullableValue returns the wrapped value and whether it is set.
	NullableValue() (any, bool)
}

// NullableSetter is implemented by pointers to nullable values.
type NullableSetter interface {
	SetNullableValue(v any)
	ClearNullable()
}

var nullableInterface = reflect.TypeOf((*Nullable)(nil)).Elem()

// ElemType returns the scalar type held by values of type t and whether t is
// a nullable wrapper.
func ElemType(t reflect.Type) (reflect.Type, bool) {
	if t.Implements(nullableInterface) {
		return reflect.Zero(t).Interface().(Nullable).NullableType(), true
	}
	return t, false
}

// SQLType returns the SQL type keyword for values of type t. Integral and
// boolean types are stored as integer, floating point types as real and
// strings as text. Nullable wrappers take the keyword of the wrapped type.
func SQLType(t reflect.Type) (string, error) {
	t, _ = ElemType(t)
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer", nil
	case reflect.Float32, reflect.Float64:
		return "real", nil
	case reflect.String:
		return "text", nil
	}
	return "", errors.Errorf("invalid type %s", PrettyTypeName(t))
}

// PrettyTypeName returns a human readable name for t.
func PrettyTypeName(t reflect.Type) string {
	return t.String()
}
