// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package tinyorm

import (
	"strings"
)

// RelationExpr is a boolean predicate over fields and values, used in where
// and having clauses, join conditions and check constraints.
type RelationExpr struct {
	tokens []token
}

// String renders the predicate.
func (e RelationExpr) String() string {
	var b strings.Builder
	for _, t := range e.tokens {
		b.WriteString(t.String())
	}
	return b.String()
}

// Err returns the first error met while building the predicate.
func (e RelationExpr) Err() error {
	for _, t := range e.tokens {
		if t.err != nil {
			return t.err
		}
	}
	if len(e.tokens) == 0 {
		return errEmptyPredicate
	}
	return nil
}

// And returns the predicate "(e and rhs)".
func (e RelationExpr) And(rhs RelationExpr) RelationExpr {
	return e.combine(rhs, " and ")
}

// Or returns the predicate "(e or rhs)".
func (e RelationExpr) Or(rhs RelationExpr) RelationExpr {
	return e.combine(rhs, " or ")
}

// combine always wraps the result in parentheses so that nesting follows
// the order of the calls.
func (e RelationExpr) combine(rhs RelationExpr, op string) RelationExpr {
	tokens := make([]token, 0, len(e.tokens)+len(rhs.tokens)+3)
	tokens = append(tokens, token{text: "("})
	tokens = append(tokens, e.tokens...)
	tokens = append(tokens, token{text: op})
	tokens = append(tokens, rhs.tokens...)
	tokens = append(tokens, token{text: ")"})
	return RelationExpr{tokens: tokens}
}

// AssignmentExpr is a list of column assignments for an update statement.
type AssignmentExpr struct {
	text string
	err  error
}

// String renders the assignments.
func (e AssignmentExpr) String() string {
	return e.text
}

// Err returns the first error met while building the assignments.
func (e AssignmentExpr) Err() error {
	if e.err == nil && e.text == "" {
		return errEmptyAssignment
	}
	return e.err
}

// And returns the assignments of e followed by those of rhs.
func (e AssignmentExpr) And(rhs AssignmentExpr) AssignmentExpr {
	err := e.err
	if err == nil {
		err = rhs.err
	}
	return AssignmentExpr{text: e.text + "," + rhs.text, err: err}
}
