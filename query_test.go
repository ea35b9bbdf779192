// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package tinyorm_test

import (
	"context"
	"database/sql"
	"errors"

	. "gopkg.in/check.v1"

	"github.com/canonical/tinyorm"
)

type QuerySuite struct {
	reg *tinyorm.FieldRegistry
}

var _ = Suite(&QuerySuite{})

type badRecord struct {
	ID   int
	Tags []string
}

func (badRecord) TableName() string { return "Bad" }

func (s *QuerySuite) SetUpSuite(c *C) {
	s.reg = tinyorm.MustFieldRegistry(Student{}, Teacher{}, Sample{})
}

func (s *QuerySuite) TestSQL(c *C) {
	name := tinyorm.MustLookup[string](s.reg, Student{}, "Name")
	grade := tinyorm.MustLookup[int](s.reg, Student{}, "Grade")
	teacherGrade := tinyorm.MustLookup[int](s.reg, Teacher{}, "Grade")
	students := tinyorm.Query(nil, Student{})

	tests := []struct {
		summary  string
		query    tinyorm.QueryResult[Student]
		expected string
	}{{
		summary:  "select all",
		query:    students,
		expected: "select * from Student;",
	}, {
		summary:  "distinct",
		query:    students.Distinct(),
		expected: "select distinct * from Student;",
	}, {
		summary:  "projection",
		query:    students.Select(name, grade),
		expected: "select Student.Name,Student.Grade from Student;",
	}, {
		summary:  "aggregate projection",
		query:    students.Select(grade, tinyorm.Count()).GroupBy(grade),
		expected: "select Student.Grade,count (*) from Student group by Student.Grade;",
	}, {
		summary:  "where",
		query:    students.Where(grade.Gt(2)),
		expected: "select * from Student where (Student.Grade>2);",
	}, {
		summary:  "where replaces where",
		query:    students.Where(grade.Gt(2)).Where(name.Eq("Ann")),
		expected: "select * from Student where (Student.Name='Ann');",
	}, {
		summary:  "compound where",
		query:    students.Where(grade.Gt(2).And(name.Ne("Ann")).Or(grade.IsNull())),
		expected: "select * from Student where (((Student.Grade>2 and Student.Name!='Ann') or Student.Grade is null));",
	}, {
		summary:  "group by having",
		query:    students.GroupBy(grade).Having(tinyorm.Count().Gt(1)),
		expected: "select * from Student group by Student.Grade having (count (*)>1);",
	}, {
		summary:  "order by appends",
		query:    students.OrderBy(name).OrderBy(grade),
		expected: "select * from Student order by Student.Name,Student.Grade;",
	}, {
		summary:  "descending suffixes the whole clause",
		query:    students.OrderBy(name).OrderByDescending(grade),
		expected: "select * from Student order by Student.Name,Student.Grade desc;",
	}, {
		summary:  "descending then ascending",
		query:    students.OrderByDescending(name).OrderBy(grade),
		expected: "select * from Student order by Student.Name desc,Student.Grade;",
	}, {
		summary:  "limit",
		query:    students.Limit(5),
		expected: "select * from Student limit 5;",
	}, {
		summary:  "offset without limit",
		query:    students.Offset(3),
		expected: "select * from Student limit ~0 offset 3;",
	}, {
		summary:  "limit and offset",
		query:    students.Limit(2).Offset(3),
		expected: "select * from Student limit 2 offset 3;",
	}, {
		summary:  "join",
		query:    students.Join(Teacher{}, grade.EqExpr(teacherGrade)),
		expected: "select * from Student join Teacher on Student.Grade=Teacher.Grade;",
	}, {
		summary:  "left join",
		query:    students.LeftJoin(Teacher{}, grade.EqExpr(teacherGrade)).Where(teacherGrade.IsNull()),
		expected: "select * from Student left join Teacher on Student.Grade=Teacher.Grade where (Teacher.Grade is null);",
	}, {
		summary:  "union",
		query:    students.Where(grade.Lt(2)).Union(students.Where(grade.Gt(3))),
		expected: "select * from Student where (Student.Grade<2) union select * from Student where (Student.Grade>3);",
	}, {
		summary:  "union all",
		query:    students.UnionAll(students),
		expected: "select * from Student union all select * from Student;",
	}, {
		summary:  "intersect with limit",
		query:    students.GroupBy(grade).Intersect(students).Limit(1),
		expected: "select * from Student group by Student.Grade intersect select * from Student limit 1;",
	}, {
		summary:  "except",
		query:    students.Select(name).Except(students.Select(name).Where(grade.Ge(4))),
		expected: "select Student.Name from Student except select Student.Name from Student where (Student.Grade>=4);",
	}}
	for i, t := range tests {
		c.Logf("test %d: %s", i, t.summary)
		c.Check(t.query.SQL(), Equals, t.expected)
	}
}

func (s *QuerySuite) TestOffsetOnly(c *C) {
	c.Check(tinyorm.Query(nil, Item{}).Offset(3).SQL(), Equals, "select * from T limit ~0 offset 3;")
}

func (s *QuerySuite) TestShape(c *C) {
	grade := tinyorm.MustLookup[int](s.reg, Student{}, "Grade")
	teacherGrade := tinyorm.MustLookup[int](s.reg, Teacher{}, "Grade")
	students := tinyorm.Query(nil, Student{})

	c.Check(students.ShapeLen(), Equals, 3)
	c.Check(students.DecodesRecords(), Equals, true)

	joined := students.Join(Teacher{}, grade.EqExpr(teacherGrade))
	c.Check(joined.ShapeLen(), Equals, 7)
	c.Check(joined.DecodesRecords(), Equals, false)

	selected := joined.Select(grade)
	c.Check(selected.ShapeLen(), Equals, 1)

	// The receiver is unchanged.
	c.Check(students.ShapeLen(), Equals, 3)
	c.Check(students.DecodesRecords(), Equals, true)
}

func (s *QuerySuite) TestBuildErrors(c *C) {
	ctx := context.Background()
	m, err := tinyorm.NewDBManager(ctx, &fakeDriver{}, nil)
	c.Assert(err, IsNil)
	name := tinyorm.MustLookup[string](s.reg, Student{}, "Name")
	grade := tinyorm.MustLookup[int](s.reg, Student{}, "Grade")
	teacherGrade := tinyorm.MustLookup[int](s.reg, Teacher{}, "Grade")
	f := tinyorm.MustLookup[float64](s.reg, Sample{}, "F")
	students := tinyorm.Query(m, Student{})

	tests := []struct {
		summary string
		query   tinyorm.QueryResult[Student]
		err     string
	}{{
		summary: "empty select",
		query:   students.Select(),
		err:     "cannot select no expressions",
	}, {
		summary: "empty predicate",
		query:   students.Where(tinyorm.RelationExpr{}),
		err:     "empty predicate",
	}, {
		summary: "bad promotion",
		query:   students.Where(tinyorm.Promote[int](f).Gt(1)),
		err:     "cannot promote float64 expression S.F to int",
	}, {
		summary: "bad promotion in select",
		query:   students.Select(tinyorm.Sum(tinyorm.Promote[int](f))),
		err:     "cannot promote float64 expression S.F to int",
	}, {
		summary: "join of bad record",
		query:   students.Join(badRecord{}, grade.EqExpr(teacherGrade)),
		err:     "cannot join tinyorm_test.badRecord: cannot reflect field Tags of badRecord: invalid type \\[\\]string",
	}, {
		summary: "set operation arity",
		query:   students.Select(name).Union(students),
		err:     "bad column count: cannot union queries with 1 and 3 columns",
	}, {
		summary: "select after a set operation",
		query:   students.Union(students).Select(name),
		err:     "cannot select from a set operation",
	}, {
		summary: "distinct after a set operation",
		query:   students.Union(students).Distinct(),
		err:     "cannot make a set operation distinct",
	}, {
		summary: "join after a set operation",
		query:   students.Except(students).Join(Teacher{}, grade.EqExpr(teacherGrade)),
		err:     "cannot join tinyorm_test.Teacher to a set operation",
	}, {
		summary: "left join after a set operation",
		query:   students.UnionAll(students).LeftJoin(Teacher{}, grade.EqExpr(teacherGrade)),
		err:     "cannot join tinyorm_test.Teacher to a set operation",
	}, {
		summary: "first error wins",
		query:   students.Select().Where(tinyorm.RelationExpr{}),
		err:     "cannot select no expressions",
	}, {
		summary: "records from a join",
		query:   students.Join(Teacher{}, grade.EqExpr(teacherGrade)),
		err:     "cannot decode tuple rows into tinyorm_test.Student, use ToTuples",
	}, {
		summary: "records from a projection",
		query:   students.Select(name),
		err:     "cannot decode tuple rows into tinyorm_test.Student, use ToTuples",
	}}
	for i, t := range tests {
		c.Logf("test %d: %s", i, t.summary)
		_, err := t.query.ToVector(ctx)
		c.Check(err, ErrorMatches, t.err)
	}

	_, err = tinyorm.Query(m, badRecord{}).ToVector(ctx)
	c.Check(err, ErrorMatches, `cannot query tinyorm_test.badRecord: cannot reflect field Tags of badRecord: invalid type \[\]string`)

	_, err = tinyorm.Aggregate(ctx, students.Union(students), tinyorm.Count())
	c.Check(err, ErrorMatches, "cannot aggregate over a set operation")
}

func (s *QuerySuite) TestToVector(c *C) {
	ctx := context.Background()
	drv := &fakeDriver{rows: [][]sql.NullString{
		text("1", "Ann", "3"),
		text("2", "Bob", "4"),
	}}
	m, err := tinyorm.NewDBManager(ctx, drv, nil)
	c.Assert(err, IsNil)
	c.Check(drv.fkOn, Equals, 1)

	students, err := tinyorm.Query(m, Student{}).ToVector(ctx)
	c.Assert(err, IsNil)
	c.Check(students, DeepEquals, []Student{{1, "Ann", 3}, {2, "Bob", 4}})
	c.Check(drv.stmts, DeepEquals, []string{"select * from Student;"})

	pointers, err := tinyorm.Query(m, &Student{}).ToVector(ctx)
	c.Assert(err, IsNil)
	c.Assert(pointers, HasLen, 2)
	c.Check(*pointers[1], Equals, Student{2, "Bob", 4})

	drv.rows = [][]sql.NullString{text("1", "Ann")}
	_, err = tinyorm.Query(m, Student{}).ToVector(ctx)
	c.Check(err, ErrorMatches, `bad column count: got 2, table "Student" has 3 columns`)
	c.Check(errors.Is(err, tinyorm.ErrBadColumnCount), Equals, true)

	drv.rows = [][]sql.NullString{text("1", "Ann", "three")}
	_, err = tinyorm.Query(m, Student{}).ToVector(ctx)
	c.Check(err, ErrorMatches, `cannot decode column "Grade": cannot parse "three" as int: .*`)

	drv.rows = nil
	drv.err = errors.New("connection lost")
	_, err = tinyorm.Query(m, Student{}).ToVector(ctx)
	c.Check(err, ErrorMatches, "connection lost")
}

func (s *QuerySuite) TestToTuples(c *C) {
	ctx := context.Background()
	drv := &fakeDriver{rows: [][]sql.NullString{
		append(text("1", "Ann", "3", "10", "Cat", "3"), sqlNull),
		text("2", "Bob", "3", "10", "Cat", "3", "art"),
	}}
	m, err := tinyorm.NewDBManager(ctx, drv, nil)
	c.Assert(err, IsNil)
	grade := tinyorm.MustLookup[int](s.reg, Student{}, "Grade")
	teacherGrade := tinyorm.MustLookup[int](s.reg, Teacher{}, "Grade")

	q := tinyorm.Query(m, Student{}).Join(Teacher{}, grade.EqExpr(teacherGrade))
	tuples, err := q.ToTuples(ctx)
	c.Assert(err, IsNil)
	c.Check(drv.stmts, DeepEquals, []string{"select * from Student join Teacher on Student.Grade=Teacher.Grade;"})
	c.Assert(tuples, HasLen, 2)
	c.Check(tuples[0], DeepEquals, tinyorm.Tuple{
		tinyorm.NewNullable(1), tinyorm.NewNullable("Ann"), tinyorm.NewNullable(3),
		tinyorm.NewNullable(10), tinyorm.NewNullable("Cat"), tinyorm.NewNullable(3), tinyorm.Null[string](),
	})

	subject, err := tinyorm.TupleValue[string](tuples[1], 6)
	c.Assert(err, IsNil)
	c.Check(subject.Value(), Equals, "art")

	_, err = tinyorm.TupleValue[int](tuples[1], 1)
	c.Check(err, ErrorMatches, `cannot get element 1 of tuple as tinyorm.Nullable\[int\], have tinyorm.Nullable\[string\]`)
	_, err = tinyorm.TupleValue[int](tuples[1], 7)
	c.Check(err, ErrorMatches, "cannot get element 7 of tuple with 7 elements")

	drv.rows = [][]sql.NullString{text("1", "Ann", "3")}
	_, err = q.ToTuples(ctx)
	c.Check(err, ErrorMatches, "bad column count: got 3, expected 7")

	// A NULL in a selected non-nullable column is an empty cell.
	drv.rows = [][]sql.NullString{{sqlNull}}
	tuples, err = tinyorm.Query(m, Student{}).Select(tinyorm.Max(grade)).ToTuples(ctx)
	c.Assert(err, IsNil)
	c.Check(tuples, DeepEquals, []tinyorm.Tuple{{tinyorm.Null[int]()}})
}

func (s *QuerySuite) TestAggregate(c *C) {
	ctx := context.Background()
	drv := &fakeDriver{rows: [][]sql.NullString{text("6")}}
	m, err := tinyorm.NewDBManager(ctx, drv, nil)
	c.Assert(err, IsNil)
	grade := tinyorm.MustLookup[int](s.reg, Student{}, "Grade")

	q := tinyorm.Query(m, Student{}).Where(grade.Gt(1)).Limit(3)
	sum, err := tinyorm.Aggregate(ctx, q, tinyorm.Sum(grade))
	c.Assert(err, IsNil)
	c.Check(sum, Equals, tinyorm.NewNullable(6))
	c.Check(drv.stmts, DeepEquals, []string{"select sum(Student.Grade) from Student where (Student.Grade>1) limit 3;"})

	drv.rows = [][]sql.NullString{text("2.5")}
	avg, err := tinyorm.Aggregate(ctx, q, tinyorm.Avg(grade))
	c.Assert(err, IsNil)
	c.Check(avg, Equals, tinyorm.NewNullable(2.5))

	drv.rows = nil
	count, err := tinyorm.Aggregate(ctx, q, tinyorm.Count())
	c.Assert(err, IsNil)
	c.Check(count.IsNull(), Equals, true)

	drv.rows = [][]sql.NullString{text("1"), text("2")}
	_, err = tinyorm.Aggregate(ctx, q, tinyorm.Count())
	c.Check(err, ErrorMatches, "aggregate returned more than one row")

	drv.rows = [][]sql.NullString{text("1", "2")}
	_, err = tinyorm.Aggregate(ctx, q, tinyorm.Count())
	c.Check(err, ErrorMatches, "bad column count: got 2, expected 1")
}
