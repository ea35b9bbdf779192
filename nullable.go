// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package tinyorm

import (
	"fmt"
	"reflect"
)

// Nullable holds a value that may be SQL NULL. The zero value is empty.
// Nullable has value semantics, copies do not share state.
//
// Record fields of type Nullable are created without "not null" and are
// omitted from inserts when empty.
type Nullable[T comparable] struct {
	value T
	valid bool
}

// Null returns an empty Nullable.
func Null[T comparable]() Nullable[T] {
	return Nullable[T]{}
}

// NewNullable returns a Nullable holding v.
func NewNullable[T comparable](v T) Nullable[T] {
	return Nullable[T]{value: v, valid: true}
}

// HasValue reports whether n holds a value.
func (n Nullable[T]) HasValue() bool {
	return n.valid
}

// IsNull reports whether n is empty.
func (n Nullable[T]) IsNull() bool {
	return !n.valid
}

// Value returns the value held by n. Value panics if n is empty, callers
// must check [Nullable.HasValue] first or use [Nullable.ValueOr].
func (n Nullable[T]) Value() T {
	if !n.valid {
		panic("tinyorm: Value called on empty Nullable")
	}
	return n.value
}

// ValueOr returns the value held by n, or def if n is empty.
func (n Nullable[T]) ValueOr(def T) T {
	if !n.valid {
		return def
	}
	return n.value
}

// Set stores v in n.
func (n *Nullable[T]) Set(v T) {
	n.value, n.valid = v, true
}

// Clear empties n.
func (n *Nullable[T]) Clear() {
	var zero T
	n.value, n.valid = zero, false
}

// Equal reports whether n and other are both empty, or both hold equal
// values.
func (n Nullable[T]) Equal(other Nullable[T]) bool {
	if !n.valid || !other.valid {
		return n.valid == other.valid
	}
	return n.value == other.value
}

// EqualValue reports whether n holds a value equal to v.
func (n Nullable[T]) EqualValue(v T) bool {
	return n.valid && n.value == v
}

func (n Nullable[T]) String() string {
	if !n.valid {
		return "null"
	}
	return fmt.Sprint(n.value)
}

// NullableType returns the type of the value held by n.
func (n Nullable[T]) NullableType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// NullableValue returns the value held by n and whether it is set.
func (n Nullable[T]) NullableValue() (any, bool) {
	return n.value, n.valid
}

// SetNullableValue stores v, which must be of type T, in n.
func (n *Nullable[T]) SetNullableValue(v any) {
	n.Set(v.(T))
}

// ClearNullable empties n.
func (n *Nullable[T]) ClearNullable() {
	n.Clear()
}
