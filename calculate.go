// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package tinyorm

import (
	"fmt"
	"reflect"

	"github.com/canonical/tinyorm/internal/typeinfo"
)

// Number is the set of types arithmetic expressions can be built from.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// CalculateField is an arithmetic expression. It renders fully
// parenthesised, nested calculations nest their parentheses.
type CalculateField[T Number] struct {
	operand[T]
}

func calculate[T Number](lhs token, op string, rhs token) CalculateField[T] {
	err := lhs.err
	if err == nil {
		err = rhs.err
	}
	return CalculateField[T]{operand: operand[T]{tok: token{text: "(" + lhs.String() + op + rhs.String() + ")", err: err}}}
}

func literal[T Number](v T) token {
	lit, err := serialize(v)
	return token{text: lit, err: err}
}

// Add returns "(lhs+rhs)".
func Add[T Number](lhs, rhs Expr[T]) CalculateField[T] { return calculate[T](lhs.term(), "+", rhs.term()) }

// Sub returns "(lhs-rhs)".
func Sub[T Number](lhs, rhs Expr[T]) CalculateField[T] { return calculate[T](lhs.term(), "-", rhs.term()) }

// Mul returns "(lhs*rhs)".
func Mul[T Number](lhs, rhs Expr[T]) CalculateField[T] { return calculate[T](lhs.term(), "*", rhs.term()) }

// Div returns "(lhs/rhs)".
func Div[T Number](lhs, rhs Expr[T]) CalculateField[T] { return calculate[T](lhs.term(), "/", rhs.term()) }

// Mod returns "(lhs%rhs)".
func Mod[T Number](lhs, rhs Expr[T]) CalculateField[T] { return calculate[T](lhs.term(), "%", rhs.term()) }

// AddValue returns "(lhs+v)".
func AddValue[T Number](lhs Expr[T], v T) CalculateField[T] { return calculate[T](lhs.term(), "+", literal(v)) }

// SubValue returns "(lhs-v)".
func SubValue[T Number](lhs Expr[T], v T) CalculateField[T] { return calculate[T](lhs.term(), "-", literal(v)) }

// MulValue returns "(lhs*v)".
func MulValue[T Number](lhs Expr[T], v T) CalculateField[T] { return calculate[T](lhs.term(), "*", literal(v)) }

// DivValue returns "(lhs/v)".
func DivValue[T Number](lhs Expr[T], v T) CalculateField[T] { return calculate[T](lhs.term(), "/", literal(v)) }

// ModValue returns "(lhs%v)".
func ModValue[T Number](lhs Expr[T], v T) CalculateField[T] { return calculate[T](lhs.term(), "%", literal(v)) }

// ValueAdd returns "(v+rhs)".
func ValueAdd[T Number](v T, rhs Expr[T]) CalculateField[T] { return calculate[T](literal(v), "+", rhs.term()) }

// ValueSub returns "(v-rhs)".
func ValueSub[T Number](v T, rhs Expr[T]) CalculateField[T] { return calculate[T](literal(v), "-", rhs.term()) }

// ValueMul returns "(v*rhs)".
func ValueMul[T Number](v T, rhs Expr[T]) CalculateField[T] { return calculate[T](literal(v), "*", rhs.term()) }

// ValueDiv returns "(v/rhs)".
func ValueDiv[T Number](v T, rhs Expr[T]) CalculateField[T] { return calculate[T](literal(v), "/", rhs.term()) }

// ValueMod returns "(v%rhs)".
func ValueMod[T Number](v T, rhs Expr[T]) CalculateField[T] { return calculate[T](literal(v), "%", rhs.term()) }

// Promote retypes e as T so it can be combined with expressions of type T.
// The text of e is unchanged. Promotion is only valid when S converts
// losslessly to T, e.g. int to float64; otherwise the returned expression
// carries an error that surfaces when it is used in a statement.
func Promote[T, S Number](e Expr[S]) CalculateField[T] {
	tok := e.term()
	from := reflect.TypeOf((*S)(nil)).Elem()
	to := reflect.TypeOf((*T)(nil)).Elem()
	if tok.err == nil && typeinfo.ResultType(from, to) != to {
		tok.err = fmt.Errorf("cannot promote %s expression %s to %s", from, tok, to)
	}
	return CalculateField[T]{operand: operand[T]{tok: tok}}
}
