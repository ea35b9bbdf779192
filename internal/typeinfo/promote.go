// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"reflect"
)

type numericClass int

const (
	notNumeric numericClass = iota
	signedClass
	unsignedClass
	floatClass
)

func classify(t reflect.Type) numericClass {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return signedClass
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return unsignedClass
	case reflect.Float32, reflect.Float64:
		return floatClass
	}
	return notNumeric
}

// ConvertsLosslessly reports whether every value of type from is
// representable as a value of type to. Integers are considered to widen into
// float64, and into float32 when they are at most 16 bits wide.
func ConvertsLosslessly(from, to reflect.Type) bool {
	if from.Kind() == to.Kind() {
		return true
	}
	fc, tc := classify(from), classify(to)
	if fc == notNumeric || tc == notNumeric {
		return false
	}
	switch {
	case fc == tc:
		return to.Size() >= from.Size()
	case tc == floatClass:
		return to.Kind() == reflect.Float64 || from.Size() <= 2
	case fc == unsignedClass && tc == signedClass:
		return to.Size() > from.Size()
	}
	return false
}

// ResultType returns the static type of an arithmetic expression with
// operands of type left and right. If left converts losslessly to right the
// result has type right, otherwise it has type left.
func ResultType(left, right reflect.Type) reflect.Type {
	if ConvertsLosslessly(left, right) {
		return right
	}
	return left
}
