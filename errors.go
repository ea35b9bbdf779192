// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package tinyorm

import (
	"errors"

	"github.com/canonical/tinyorm/internal/typeinfo"
)

var (
	// ErrNoSuchField is returned when a field is looked up that was never
	// registered.
	ErrNoSuchField = errors.New("no such field")

	// ErrBadColumnCount is returned when a result row does not have the
	// number of columns the query decodes into.
	ErrBadColumnCount = errors.New("bad column count")

	// ErrNotSameTable is returned when a composite is built from fields of
	// different tables.
	ErrNotSameTable = errors.New("fields not in the same table")

	// ErrNoTxSupport is returned by [DBManager.Transaction] when the driver
	// does not implement [TxDriver].
	ErrNoTxSupport = errors.New("transaction not supported")

	// ErrNullDeserialize is returned when NULL is read into a field that is
	// not a [Nullable].
	ErrNullDeserialize = typeinfo.ErrNullDeserialize
)

var errEmptyPredicate = errors.New("empty predicate")
var errEmptyAssignment = errors.New("empty assignment")
