// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package tinyorm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/canonical/tinyorm/internal/typeinfo"
)

// QueryResult is an immutable select query over the table of R. Every
// method returns a modified copy, so a QueryResult can be reused as a
// template for several queries. Building errors are kept and returned by
// the terminal calls [QueryResult.ToVector], [QueryResult.ToTuples] and
// [Aggregate].
type QueryResult[R Record] struct {
	manager *DBManager
	info    *typeinfo.Info

	selectSQL string
	target    string
	from      string
	where     string
	groupBy   string
	having    string
	orderBy   string
	limit     string
	offset    string

	// columns is the shape of a "select *" result: the columns of R
	// followed by those of every joined table.
	columns []func() cell
	// selected is the shape set by Select. It takes precedence over
	// columns.
	selected []func() cell
	// joined is true when rows no longer decode into R.
	joined bool
	// compound is true once the query is part of a set operation.
	compound bool

	err error
}

// Query returns a query selecting all rows of the table of rec.
func Query[R Record](m *DBManager, rec R) QueryResult[R] {
	q := QueryResult[R]{
		manager:   m,
		selectSQL: "select",
		target:    " *",
	}
	info, err := schemaOf(rec)
	if err != nil {
		q.err = fmt.Errorf("cannot query %T: %w", rec, err)
		return q
	}
	q.info = info
	q.from = " from " + info.Table
	q.columns = columnCells(info)
	return q
}

// fail records the first building error.
func (q QueryResult[R]) fail(err error) QueryResult[R] {
	if q.err == nil && err != nil {
		q.err = err
	}
	return q
}

func selectList(exprs []Selectable) (string, error) {
	list := make([]string, len(exprs))
	for i, e := range exprs {
		t := e.term()
		if t.err != nil {
			return "", t.err
		}
		list[i] = t.String()
	}
	return strings.Join(list, ","), nil
}

// Select replaces the target list. The rows of the query become tuples of
// the selected expressions, see [QueryResult.ToTuples].
func (q QueryResult[R]) Select(exprs ...Selectable) QueryResult[R] {
	if q.compound {
		return q.fail(errors.New("cannot select from a set operation"))
	}
	if len(exprs) == 0 {
		return q.fail(errors.New("cannot select no expressions"))
	}
	list, err := selectList(exprs)
	if err != nil {
		return q.fail(err)
	}
	q.target = " " + list
	q.selected = make([]func() cell, len(exprs))
	for i, e := range exprs {
		q.selected[i] = e.newCell
	}
	return q
}

// Distinct selects distinct rows only.
func (q QueryResult[R]) Distinct() QueryResult[R] {
	if q.compound {
		return q.fail(errors.New("cannot make a set operation distinct"))
	}
	q.selectSQL = "select distinct"
	return q
}

// Where sets the where clause.
func (q QueryResult[R]) Where(pred RelationExpr) QueryResult[R] {
	if err := pred.Err(); err != nil {
		return q.fail(err)
	}
	q.where = " where (" + pred.String() + ")"
	return q
}

// GroupBy sets the group by clause.
func (q QueryResult[R]) GroupBy(exprs ...Selectable) QueryResult[R] {
	list, err := selectList(exprs)
	if err != nil {
		return q.fail(err)
	}
	q.groupBy = " group by " + list
	return q
}

// Having sets the having clause.
func (q QueryResult[R]) Having(pred RelationExpr) QueryResult[R] {
	if err := pred.Err(); err != nil {
		return q.fail(err)
	}
	q.having = " having (" + pred.String() + ")"
	return q
}

// OrderBy appends expressions to the order by clause.
func (q QueryResult[R]) OrderBy(exprs ...Selectable) QueryResult[R] {
	list, err := selectList(exprs)
	if err != nil {
		return q.fail(err)
	}
	if q.orderBy == "" {
		q.orderBy = " order by " + list
	} else {
		q.orderBy += "," + list
	}
	return q
}

// OrderByDescending appends expressions to the order by clause and then
// makes the whole clause descending.
func (q QueryResult[R]) OrderByDescending(exprs ...Selectable) QueryResult[R] {
	q = q.OrderBy(exprs...)
	q.orderBy += " desc"
	return q
}

// Limit sets the maximum number of rows returned.
func (q QueryResult[R]) Limit(n int) QueryResult[R] {
	q.limit = " limit " + strconv.Itoa(n)
	return q
}

// Offset skips the first n rows. Without a limit the query is given an
// unbounded one, as SQLite requires.
func (q QueryResult[R]) Offset(n int) QueryResult[R] {
	if q.limit == "" {
		q.limit = " limit ~0"
	}
	q.offset = " offset " + strconv.Itoa(n)
	return q
}

// Join joins the table of rec on the predicate. Unless a target list is
// selected the rows of the query become tuples of the columns of both
// tables.
func (q QueryResult[R]) Join(rec Record, on RelationExpr) QueryResult[R] {
	return q.join(" join ", rec, on)
}

// LeftJoin left joins the table of rec on the predicate.
func (q QueryResult[R]) LeftJoin(rec Record, on RelationExpr) QueryResult[R] {
	return q.join(" left join ", rec, on)
}

func (q QueryResult[R]) join(kind string, rec Record, on RelationExpr) QueryResult[R] {
	if q.compound {
		return q.fail(fmt.Errorf("cannot join %T to a set operation", rec))
	}
	info, err := schemaOf(rec)
	if err != nil {
		return q.fail(fmt.Errorf("cannot join %T: %w", rec, err))
	}
	if err := on.Err(); err != nil {
		return q.fail(err)
	}
	q.from += kind + info.Table + " on " + on.String()
	q.columns = append(slices.Clip(q.columns), columnCells(info)...)
	q.joined = true
	return q
}

// Union returns the union of q and other.
func (q QueryResult[R]) Union(other QueryResult[R]) QueryResult[R] {
	return q.combine("union", other)
}

// UnionAll returns the union of q and other, keeping duplicates.
func (q QueryResult[R]) UnionAll(other QueryResult[R]) QueryResult[R] {
	return q.combine("union all", other)
}

// Intersect returns the rows both in q and other.
func (q QueryResult[R]) Intersect(other QueryResult[R]) QueryResult[R] {
	return q.combine("intersect", other)
}

// Except returns the rows of q not in other.
func (q QueryResult[R]) Except(other QueryResult[R]) QueryResult[R] {
	return q.combine("except", other)
}

// body renders the query up to and including the having clause.
func (q QueryResult[R]) body() string {
	return q.selectSQL + q.target + q.from + q.where + q.groupBy + q.having
}

// combine freezes both queries into the from clause. The where, group by
// and having clauses of q are part of the frozen text and are cleared.
func (q QueryResult[R]) combine(op string, other QueryResult[R]) QueryResult[R] {
	q = q.fail(other.err)
	if q.err != nil {
		return q
	}
	if len(q.shape()) != len(other.shape()) {
		return q.fail(fmt.Errorf("%w: cannot %s queries with %d and %d columns",
			ErrBadColumnCount, op, len(q.shape()), len(other.shape())))
	}
	q.from = q.body() + " " + op + " " + other.body()
	q.selectSQL, q.target = "", ""
	q.where, q.groupBy, q.having = "", "", ""
	q.compound = true
	return q
}

// shape returns the cells a row of q decodes into.
func (q QueryResult[R]) shape() []func() cell {
	if q.selected != nil {
		return q.selected
	}
	return q.columns
}

// decodesRecords reports whether rows of q decode into R.
func (q QueryResult[R]) decodesRecords() bool {
	return q.selected == nil && !q.joined
}

// SQL returns the statement run by [QueryResult.ToVector] and
// [QueryResult.ToTuples].
func (q QueryResult[R]) SQL() string {
	return q.body() + q.orderBy + q.limit + q.offset + ";"
}

// ToVector runs the query and decodes every row into a record.
func (q QueryResult[R]) ToVector(ctx context.Context) ([]R, error) {
	if q.err != nil {
		return nil, q.err
	}
	if !q.decodesRecords() {
		var zero R
		return nil, fmt.Errorf("cannot decode tuple rows into %T, use ToTuples", zero)
	}

	stmt := q.SQL()
	var records []R
	err := q.manager.query(ctx, stmt, func(columns int, values []sql.NullString) error {
		if columns != len(q.info.Columns) {
			return fmt.Errorf("%w: got %d, table %q has %d columns",
				ErrBadColumnCount, columns, q.info.Table, len(q.info.Columns))
		}
		var rec R
		v := reflect.ValueOf(&rec).Elem()
		if v.Kind() == reflect.Pointer {
			v.Set(reflect.New(v.Type().Elem()))
			v = v.Elem()
		}
		for i, col := range q.info.Columns {
			if err := typeinfo.Deserialize(v.Field(col.Index), nullText(values[i])); err != nil {
				return fmt.Errorf("cannot decode column %q: %w", col.Name, err)
			}
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ToTuples runs the query and decodes every row into a tuple of the
// selected expressions, or of the columns of all joined tables.
func (q QueryResult[R]) ToTuples(ctx context.Context) ([]Tuple, error) {
	if q.err != nil {
		return nil, q.err
	}

	shape := q.shape()
	stmt := q.SQL()
	var tuples []Tuple
	err := q.manager.query(ctx, stmt, func(columns int, values []sql.NullString) error {
		if columns != len(shape) {
			return fmt.Errorf("%w: got %d, expected %d", ErrBadColumnCount, columns, len(shape))
		}
		tuple := make(Tuple, len(shape))
		for i, newCell := range shape {
			c := newCell()
			if err := c.scan(nullText(values[i])); err != nil {
				return fmt.Errorf("cannot decode column %d: %w", i, err)
			}
			tuple[i] = c.get()
		}
		tuples = append(tuples, tuple)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tuples, nil
}

// Aggregate computes agg over the rows matched by q. The result is empty
// when no row matches.
func Aggregate[R Record, T comparable](ctx context.Context, q QueryResult[R], agg AggregateField[T]) (Nullable[T], error) {
	var result Nullable[T]
	if q.err != nil {
		return result, q.err
	}
	if q.compound {
		return result, errors.New("cannot aggregate over a set operation")
	}
	tok := agg.term()
	if tok.err != nil {
		return result, tok.err
	}

	stmt := "select " + tok.String() + q.from + q.where + q.groupBy + q.having + q.limit + ";"
	rows := 0
	err := q.manager.query(ctx, stmt, func(columns int, values []sql.NullString) error {
		if columns != 1 {
			return fmt.Errorf("%w: got %d, expected 1", ErrBadColumnCount, columns)
		}
		if rows++; rows > 1 {
			return errors.New("aggregate returned more than one row")
		}
		return result.scan(nullText(values[0]))
	})
	if err != nil {
		return Nullable[T]{}, err
	}
	return result, nil
}
