// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package tinyorm

import (
	"fmt"
	"reflect"

	"github.com/canonical/tinyorm/internal/assemble"
	"github.com/canonical/tinyorm/internal/typeinfo"
)

// token is a fragment of rendered SQL. A token with a table renders
// qualified by it.
type token struct {
	text  string
	table string
	// err is set when the fragment could not be rendered.
	err error
}

func (t token) String() string {
	if t.table != "" {
		return t.table + "." + t.text
	}
	return t.text
}

// Selectable is an expression that can be listed in a select, group by or
// order by clause.
type Selectable interface {
	term() token
	newCell() cell
}

// Expr is a typed scalar expression: a [Field], an [AggregateField] or a
// [CalculateField].
type Expr[T comparable] interface {
	Selectable
	typeOf(T)
}

// operand implements the comparisons shared by all typed expressions.
type operand[T comparable] struct {
	tok token
}

func (o operand[T]) term() token {
	return o.tok
}

func (operand[T]) typeOf(T) {}

func (operand[T]) newCell() cell {
	return &Nullable[T]{}
}

// String returns the expression as it is rendered in a select list.
func (o operand[T]) String() string {
	return o.tok.String()
}

// Eq returns the predicate "expr=v".
func (o operand[T]) Eq(v T) RelationExpr { return compareValue(o.tok, "=", v) }

// Ne returns the predicate "expr!=v".
func (o operand[T]) Ne(v T) RelationExpr { return compareValue(o.tok, "!=", v) }

// Lt returns the predicate "expr<v".
func (o operand[T]) Lt(v T) RelationExpr { return compareValue(o.tok, "<", v) }

// Le returns the predicate "expr<=v".
func (o operand[T]) Le(v T) RelationExpr { return compareValue(o.tok, "<=", v) }

// Gt returns the predicate "expr>v".
func (o operand[T]) Gt(v T) RelationExpr { return compareValue(o.tok, ">", v) }

// Ge returns the predicate "expr>=v".
func (o operand[T]) Ge(v T) RelationExpr { return compareValue(o.tok, ">=", v) }

// EqExpr returns the predicate "expr=rhs".
func (o operand[T]) EqExpr(rhs Expr[T]) RelationExpr { return compareExpr(o.tok, "=", rhs.term()) }

// NeExpr returns the predicate "expr!=rhs".
func (o operand[T]) NeExpr(rhs Expr[T]) RelationExpr { return compareExpr(o.tok, "!=", rhs.term()) }

// LtExpr returns the predicate "expr<rhs".
func (o operand[T]) LtExpr(rhs Expr[T]) RelationExpr { return compareExpr(o.tok, "<", rhs.term()) }

// LeExpr returns the predicate "expr<=rhs".
func (o operand[T]) LeExpr(rhs Expr[T]) RelationExpr { return compareExpr(o.tok, "<=", rhs.term()) }

// GtExpr returns the predicate "expr>rhs".
func (o operand[T]) GtExpr(rhs Expr[T]) RelationExpr { return compareExpr(o.tok, ">", rhs.term()) }

// GeExpr returns the predicate "expr>=rhs".
func (o operand[T]) GeExpr(rhs Expr[T]) RelationExpr { return compareExpr(o.tok, ">=", rhs.term()) }

// IsNull returns the predicate "expr is null".
func (o operand[T]) IsNull() RelationExpr {
	return RelationExpr{tokens: []token{{text: o.tok.text + " is null", table: o.tok.table, err: o.tok.err}}}
}

// IsNotNull returns the predicate "expr is not null".
func (o operand[T]) IsNotNull() RelationExpr {
	return RelationExpr{tokens: []token{{text: o.tok.text + " is not null", table: o.tok.table, err: o.tok.err}}}
}

// Like returns the predicate "expr like pattern".
func Like(e Expr[string], pattern string) RelationExpr {
	return compareValue(e.term(), " like ", pattern)
}

// NotLike returns the predicate "expr not like pattern".
func NotLike(e Expr[string], pattern string) RelationExpr {
	return compareValue(e.term(), " not like ", pattern)
}

// serialize renders v as a SQL literal.
func serialize(v any) (string, error) {
	text, _, err := typeinfo.Serialize(reflect.ValueOf(v))
	return text, err
}

func compareValue[T comparable](lhs token, op string, v T) RelationExpr {
	lit, err := serialize(v)
	if err == nil {
		err = lhs.err
	}
	return RelationExpr{tokens: []token{{text: lhs.text + op + lit, table: lhs.table, err: err}}}
}

func compareExpr(lhs token, op string, rhs token) RelationExpr {
	return RelationExpr{tokens: []token{lhs, {text: op}, rhs}}
}

// Field is a typed handle on one column of one table. Fields are obtained
// from a [FieldRegistry].
type Field[T comparable] struct {
	operand[T]
	nullable bool
}

func newField[T comparable](table, column string, nullable bool) Field[T] {
	return Field[T]{operand: operand[T]{tok: token{text: column, table: table}}, nullable: nullable}
}

// Column returns the column name of the field.
func (f Field[T]) Column() string {
	return f.tok.text
}

// Table returns the name of the table owning the field.
func (f Field[T]) Table() string {
	return f.tok.table
}

// IsNullable reports whether the field is a [Nullable].
func (f Field[T]) IsNullable() bool {
	return f.nullable
}

// Set returns the assignment "column=v".
func (f Field[T]) Set(v T) AssignmentExpr {
	lit, err := serialize(v)
	return AssignmentExpr{text: f.tok.text + "=" + lit, err: err}
}

// SetNull returns the assignment "column=null".
func (f Field[T]) SetNull() AssignmentExpr {
	if !f.nullable {
		return AssignmentExpr{err: fmt.Errorf("cannot assign null to non-nullable field %s", f.tok)}
	}
	return AssignmentExpr{text: f.tok.text + "=null"}
}

func (f Field[T]) columnRef() (table, column string) {
	return f.tok.table, f.tok.text
}

func (f Field[T]) columnList() (string, []string, error) {
	return f.tok.table, []string{f.tok.text}, nil
}

// Column is a single column reference, implemented by [Field].
type Column interface {
	columnRef() (table, column string)
}

// Columns is one or more columns of the same table, implemented by [Field]
// and [CompositeField].
type Columns interface {
	columnList() (table string, columns []string, err error)
}

// CompositeField groups columns of one table for multi-column constraints.
type CompositeField struct {
	table   string
	columns []string
}

// Composite groups the given fields. All fields must belong to the same
// table.
func Composite(fields ...Column) (CompositeField, error) {
	if len(fields) == 0 {
		return CompositeField{}, fmt.Errorf("cannot make composite of no fields")
	}
	var cf CompositeField
	for i, f := range fields {
		table, column := f.columnRef()
		if i == 0 {
			cf.table = table
		} else if table != cf.table {
			return CompositeField{}, fmt.Errorf("%w: %q and %q", ErrNotSameTable, cf.table, table)
		}
		cf.columns = append(cf.columns, column)
	}
	return cf, nil
}

// MustComposite is the same as [Composite] except that it panics on error.
func MustComposite(fields ...Column) CompositeField {
	cf, err := Composite(fields...)
	if err != nil {
		panic(err)
	}
	return cf
}

// Table returns the name of the table owning the columns.
func (cf CompositeField) Table() string {
	return cf.table
}

func (cf CompositeField) columnList() (string, []string, error) {
	return cf.table, cf.columns, nil
}

// String returns the comma separated column names.
func (cf CompositeField) String() string {
	return assemble.Join(cf.columns)
}
