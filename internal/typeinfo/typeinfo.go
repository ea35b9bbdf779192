// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package typeinfo

import (
	"reflect"
	"regexp"
	"sync"

	"github.com/pkg/errors"
)

// TableNamer is implemented by every record type.
type TableNamer interface {
	TableName() string
}

var cacheMutex sync.RWMutex
var cache = make(map[reflect.Type]*Info)

// GetTypeInfo will return the Info of the given record,
// generating and caching as required.
func GetTypeInfo(record TableNamer) (*Info, error) {
	if record == nil {
		return nil, errors.New("cannot reflect nil value")
	}

	v := reflect.Indirect(reflect.ValueOf(record))
	if !v.IsValid() {
		return nil, errors.New("cannot reflect nil pointer")
	}

	cacheMutex.RLock()
	info, found := cache[v.Type()]
	cacheMutex.RUnlock()
	if found {
		return info, nil
	}

	info, err := generate(v.Type(), record.TableName())
	if err != nil {
		return nil, err
	}

	cacheMutex.Lock()
	cache[v.Type()] = info
	cacheMutex.Unlock()

	return info, nil
}

// generate produces and returns the schema of the input record type.
func generate(typ reflect.Type, table string) (*Info, error) {
	// Reflection information is only generated for structs.
	if typ.Kind() != reflect.Struct {
		return nil, errors.Errorf("can only reflect struct type, got %s", typ.Kind())
	}
	if table == "" {
		return nil, errors.Errorf("record type %q has empty table name", typ.Name())
	}

	info := Info{
		Type:   typ,
		Table:  table,
		byName: make(map[string]int),
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("db")
		if tag == "-" {
			continue
		}
		name, err := parseTag(tag, field.Name)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot reflect field %s of %s", field.Name, typ.Name())
		}

		sqlType, err := SQLType(field.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot reflect field %s of %s", field.Name, typ.Name())
		}
		valueType, nullable := ElemType(field.Type)

		if _, ok := info.byName[name]; ok {
			return nil, errors.Errorf("column %q appears more than once in %s", name, typ.Name())
		}
		info.byName[name] = len(info.Columns)
		if name != field.Name {
			info.byName[field.Name] = len(info.Columns)
		}
		info.Columns = append(info.Columns, Column{
			Name:      name,
			Field:     field.Name,
			Index:     i,
			Type:      field.Type,
			ValueType: valueType,
			Nullable:  nullable,
			SQLType:   sqlType,
		})
	}

	if len(info.Columns) == 0 {
		return nil, errors.Errorf("record type %q has no columns", typ.Name())
	}

	return &info, nil
}

// This expression should be aligned with the identifiers accepted by SQLite
// without quoting.
var validColNameRx = regexp.MustCompile(`^([a-zA-Z_])+([a-zA-Z_0-9])*$`)

// parseTag returns the column name held in a "db" tag. An empty tag names the
// column after the field.
func parseTag(tag string, fieldName string) (string, error) {
	if tag == "" {
		return fieldName, nil
	}
	if !validColNameRx.MatchString(tag) {
		return "", errors.Errorf("invalid column name %q in 'db' tag", tag)
	}
	return tag, nil
}
