// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"reflect"
	"strconv"

	"github.com/pkg/errors"
)

// ErrNullDeserialize is returned when a NULL result is read into a value that
// cannot hold it.
var ErrNullDeserialize = errors.New("cannot deserialize NULL value to a non-nullable value")

// Serialize renders v as a SQL literal. Strings are enclosed in single quotes
// and are not escaped. The boolean result is false if v is an empty nullable
// value, in which case no text is produced.
func Serialize(v reflect.Value) (string, bool, error) {
	if n, ok := v.Interface().(Nullable); ok {
		inner, ok := n.NullableValue()
		if !ok {
			return "", false, nil
		}
		return Serialize(reflect.ValueOf(inner))
	}

	switch v.Kind() {
	case reflect.String:
		return "'" + v.String() + "'", true, nil
	case reflect.Bool:
		if v.Bool() {
			return "1", true, nil
		}
		return "0", true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true, nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), true, nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), true, nil
	}
	return "", false, errors.Errorf("cannot serialize value of type %s", PrettyTypeName(v.Type()))
}

// SerializeOrNull renders v as a SQL literal, or null if v is an empty
// nullable value.
func SerializeOrNull(v reflect.Value) (string, error) {
	text, ok, err := Serialize(v)
	if err != nil {
		return "", err
	}
	if !ok {
		return "null", nil
	}
	return text, nil
}

// Deserialize parses the SQL result text into target, which must be
// settable. A nil text represents NULL.
func Deserialize(target reflect.Value, text *string) error {
	if !target.CanSet() {
		return errors.Errorf("internal error: cannot set value of type %s", PrettyTypeName(target.Type()))
	}
	if setter, ok := target.Addr().Interface().(NullableSetter); ok {
		if text == nil {
			setter.ClearNullable()
			return nil
		}
		elemType, _ := ElemType(target.Type())
		elem := reflect.New(elemType).Elem()
		if err := parseScalar(elem, *text); err != nil {
			return err
		}
		setter.SetNullableValue(elem.Interface())
		return nil
	}
	if text == nil {
		return ErrNullDeserialize
	}
	return parseScalar(target, *text)
}

// parseScalar sets target from its SQL text representation.
func parseScalar(target reflect.Value, text string) error {
	switch target.Kind() {
	case reflect.String:
		target.SetString(text)
	case reflect.Bool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return errors.Wrapf(err, "cannot parse %q as bool", text)
		}
		target.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(text, 10, target.Type().Bits())
		if err != nil {
			return errors.Wrapf(err, "cannot parse %q as %s", text, PrettyTypeName(target.Type()))
		}
		target.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(text, 10, target.Type().Bits())
		if err != nil {
			return errors.Wrapf(err, "cannot parse %q as %s", text, PrettyTypeName(target.Type()))
		}
		target.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(text, target.Type().Bits())
		if err != nil {
			return errors.Wrapf(err, "cannot parse %q as %s", text, PrettyTypeName(target.Type()))
		}
		target.SetFloat(f)
	default:
		return errors.Errorf("cannot deserialize into value of type %s", PrettyTypeName(target.Type()))
	}
	return nil
}
