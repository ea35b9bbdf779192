// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package tinyorm

// AggregateField is an aggregate function over an expression. It can be
// selected, compared in a having clause or computed with [Aggregate].
type AggregateField[T comparable] struct {
	operand[T]
}

func aggregate[T comparable](function string, e Selectable) AggregateField[T] {
	inner := e.term()
	return AggregateField[T]{operand: operand[T]{tok: token{text: function + "(" + inner.String() + ")", err: inner.err}}}
}

// Count returns the aggregate "count (*)".
func Count() AggregateField[int64] {
	return AggregateField[int64]{operand: operand[int64]{tok: token{text: "count (*)"}}}
}

// CountOf returns the aggregate "count(expr)".
func CountOf[T comparable](e Expr[T]) AggregateField[int64] {
	return aggregate[int64]("count", e)
}

// Sum returns the aggregate "sum(expr)".
func Sum[T Number](e Expr[T]) AggregateField[T] {
	return aggregate[T]("sum", e)
}

// Avg returns the aggregate "avg(expr)". The average is always real valued.
func Avg[T Number](e Expr[T]) AggregateField[float64] {
	return aggregate[float64]("avg", e)
}

// Min returns the aggregate "min(expr)".
func Min[T comparable](e Expr[T]) AggregateField[T] {
	return aggregate[T]("min", e)
}

// Max returns the aggregate "max(expr)".
func Max[T comparable](e Expr[T]) AggregateField[T] {
	return aggregate[T]("max", e)
}
