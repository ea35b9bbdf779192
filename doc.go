/*
Package tinyorm maps Go structs to SQL tables and builds the statements that
read and write them from typed expressions instead of concatenated strings.

# Records

A record is a struct implementing [Record]. Its exported fields are the
columns of its table, in declaration order, and the first of them is the
primary key:

	type Student struct {
		ID    string
		Name  string
		Grade int
		Tutor tinyorm.Nullable[string] `db:"tutor"`
	}

	func (Student) TableName() string { return "Student" }

Fields of type [Nullable] may hold NULL. All other columns are created
"not null".

# Fields

Typed handles on the columns are resolved once through a [FieldRegistry]:

	reg := tinyorm.MustFieldRegistry(Student{}, Teacher{})
	grade := tinyorm.MustLookup[int](reg, Student{}, "Grade")

The handles build predicates, assignments, aggregates and arithmetic, and
the Go compiler rejects comparisons between mismatched types:

	grade.Gt(3).And(tinyorm.Like(name, "A%"))  // (Student.Grade>3 and Student.Name like 'A%')
	tinyorm.Sum(tinyorm.MulValue(grade, 2))    // sum((Student.Grade*2))

# Statements

A [DBManager] generates the DDL and DML for records and runs it with a
[Driver]. The sqlite sub-package provides a driver over
github.com/mattn/go-sqlite3.

	err := m.CreateTbl(ctx, Student{})
	err = m.Insert(ctx, Student{ID: "s1", Name: "Ann", Grade: 3})
	students, err := tinyorm.Query(m, Student{}).Where(grade.Gt(2)).OrderBy(grade).ToVector(ctx)

A [QueryResult] is immutable: every builder call returns a new query and
leaves its receiver usable as a template. Errors met while building a query
are returned by the call that runs it.

String values are quoted but not escaped. Values holding a single quote
must not be passed to the expression builders.
*/
package tinyorm
