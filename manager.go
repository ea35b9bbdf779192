// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package tinyorm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/canonical/tinyorm/internal/assemble"
	"github.com/canonical/tinyorm/internal/typeinfo"
)

// Options holds the options to be used in [NewDBManager].
type Options struct {
	// Logger receives every generated statement at debug level. If nil,
	// nothing is logged.
	Logger *slog.Logger
}

func (opts *Options) logger() *slog.Logger {
	if opts == nil || opts.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return opts.Logger
}

// DBManager generates the statements for record types and runs them with a
// [Driver].
type DBManager struct {
	driver Driver
	logger *slog.Logger
}

// NewDBManager returns a manager running statements on drv. Foreign key
// enforcement is turned on.
func NewDBManager(ctx context.Context, drv Driver, opts *Options) (*DBManager, error) {
	m := &DBManager{driver: drv, logger: opts.logger()}
	if err := drv.ForeignKeysOn(ctx); err != nil {
		return nil, fmt.Errorf("cannot enable foreign keys: %w", err)
	}
	return m, nil
}

func (m *DBManager) exec(ctx context.Context, stmt string) error {
	m.logger.DebugContext(ctx, "execute", "stmt", stmt)
	return m.driver.Execute(ctx, stmt)
}

func (m *DBManager) query(ctx context.Context, stmt string, onRow RowHandler) error {
	m.logger.DebugContext(ctx, "query", "stmt", stmt)
	return m.driver.ExecuteRows(ctx, stmt, onRow)
}

// CreateTbl creates the table of rec. Every column that is not a
// [Nullable] is "not null" and the first column is the primary key.
func (m *DBManager) CreateTbl(ctx context.Context, rec Record, constraints ...Constraint) error {
	stmt, err := createTableSQL(rec, constraints)
	if err != nil {
		return err
	}
	return m.exec(ctx, stmt)
}

func createTableSQL(rec Record, constraints []Constraint) (string, error) {
	info, err := schemaOf(rec)
	if err != nil {
		return "", fmt.Errorf("cannot create table: %w", err)
	}

	cols := make([]assemble.ColumnDef, len(info.Columns))
	byName := make(map[string]int, len(info.Columns))
	for i, col := range info.Columns {
		cols[i] = assemble.ColumnDef{
			Name:       col.Name,
			Type:       col.SQLType,
			NotNull:    !col.Nullable,
			PrimaryKey: i == 0,
		}
		byName[col.Name] = i
	}

	var tableConstraints []string
	for _, c := range constraints {
		if c.err != nil {
			return "", fmt.Errorf("cannot create table %q: %w", info.Table, c.err)
		}
		if c.table != "" && c.table != info.Table {
			return "", fmt.Errorf("cannot create table %q: constraint %q is on table %q",
				info.Table, strings.TrimSpace(c.text), c.table)
		}
		if c.column == "" {
			tableConstraints = append(tableConstraints, c.text)
			continue
		}
		i, ok := byName[c.column]
		if !ok {
			return "", fmt.Errorf("cannot create table %q: %w: %q", info.Table, ErrNoSuchField, c.column)
		}
		cols[i].Constraints = append(cols[i].Constraints, c.text)
	}
	return assemble.CreateTable(info.Table, cols, tableConstraints), nil
}

// DropTbl drops the table of rec.
func (m *DBManager) DropTbl(ctx context.Context, rec Record) error {
	info, err := schemaOf(rec)
	if err != nil {
		return fmt.Errorf("cannot drop table: %w", err)
	}
	return m.exec(ctx, assemble.DropTable(info.Table))
}

// Insert inserts rec. Empty [Nullable] fields are left out so the column
// gets its default.
func (m *DBManager) Insert(ctx context.Context, rec Record) error {
	stmt, err := insertSQL(rec, true)
	if err != nil {
		return err
	}
	return m.exec(ctx, stmt)
}

// InsertAuto inserts rec without its primary key, leaving the database to
// assign it.
func (m *DBManager) InsertAuto(ctx context.Context, rec Record) error {
	stmt, err := insertSQL(rec, false)
	if err != nil {
		return err
	}
	return m.exec(ctx, stmt)
}

// InsertRange inserts all records with a single batch of statements.
func InsertRange[R Record](ctx context.Context, m *DBManager, recs []R) error {
	return batch(ctx, m, recs, func(rec Record) (string, error) {
		return insertSQL(rec, true)
	})
}

func insertSQL(rec Record, withPrimaryKey bool) (string, error) {
	info, err := schemaOf(rec)
	if err != nil {
		return "", fmt.Errorf("cannot insert: %w", err)
	}
	v := recordValue(rec)

	var columns, values []string
	for i, col := range info.Columns {
		if i == 0 && !withPrimaryKey {
			continue
		}
		text, ok, err := typeinfo.Serialize(v.Field(col.Index))
		if err != nil {
			return "", fmt.Errorf("cannot insert into %q: column %q: %w", info.Table, col.Name, err)
		}
		if !ok {
			continue
		}
		columns = append(columns, col.Name)
		values = append(values, text)
	}
	if len(columns) == 0 {
		columns = []string{info.PrimaryKey().Name}
		values = []string{"null"}
	}
	return assemble.Insert(info.Table, columns, values), nil
}

// Update sets every column of the row of rec to the value in rec. The row
// is selected by primary key. A record with no column but its primary key
// is not updated.
func (m *DBManager) Update(ctx context.Context, rec Record) error {
	stmt, err := updateSQL(rec)
	if err != nil || stmt == "" {
		return err
	}
	return m.exec(ctx, stmt)
}

// UpdateRange updates all records with a single batch of statements.
func UpdateRange[R Record](ctx context.Context, m *DBManager, recs []R) error {
	return batch(ctx, m, recs, updateSQL)
}

func updateSQL(rec Record) (string, error) {
	info, err := schemaOf(rec)
	if err != nil {
		return "", fmt.Errorf("cannot update: %w", err)
	}
	if len(info.Columns) == 1 {
		return "", nil
	}
	v := recordValue(rec)

	literals := make([]string, len(info.Columns))
	for i, col := range info.Columns {
		literals[i], err = typeinfo.SerializeOrNull(v.Field(col.Index))
		if err != nil {
			return "", fmt.Errorf("cannot update %q: column %q: %w", info.Table, col.Name, err)
		}
	}
	columns := make([]string, 0, len(info.Columns)-1)
	for _, col := range info.Columns[1:] {
		columns = append(columns, col.Name)
	}
	pk := info.PrimaryKey()
	where := info.Table + "." + pk.Name + "=" + literals[0]
	return assemble.Update(info.Table, assemble.Assignments(columns, literals[1:]), where), nil
}

// UpdateWhere applies the assignments to the rows of the table of rec
// matching the predicate. Only the type of rec is used.
func (m *DBManager) UpdateWhere(ctx context.Context, rec Record, set AssignmentExpr, where RelationExpr) error {
	info, err := schemaOf(rec)
	if err != nil {
		return fmt.Errorf("cannot update: %w", err)
	}
	if err := set.Err(); err != nil {
		return fmt.Errorf("cannot update %q: %w", info.Table, err)
	}
	if err := where.Err(); err != nil {
		return fmt.Errorf("cannot update %q: %w", info.Table, err)
	}
	return m.exec(ctx, assemble.Update(info.Table, set.String(), where.String()))
}

// Delete deletes the row of rec, selected by primary key.
func (m *DBManager) Delete(ctx context.Context, rec Record) error {
	info, err := schemaOf(rec)
	if err != nil {
		return fmt.Errorf("cannot delete: %w", err)
	}
	pk := info.PrimaryKey()
	lit, err := typeinfo.SerializeOrNull(recordValue(rec).Field(pk.Index))
	if err != nil {
		return fmt.Errorf("cannot delete from %q: %w", info.Table, err)
	}
	return m.exec(ctx, assemble.Delete(info.Table, pk.Name+"="+lit))
}

// DeleteWhere deletes the rows of the table of rec matching the predicate.
// Only the type of rec is used.
func (m *DBManager) DeleteWhere(ctx context.Context, rec Record, where RelationExpr) error {
	info, err := schemaOf(rec)
	if err != nil {
		return fmt.Errorf("cannot delete: %w", err)
	}
	if err := where.Err(); err != nil {
		return fmt.Errorf("cannot delete from %q: %w", info.Table, err)
	}
	return m.exec(ctx, assemble.Delete(info.Table, where.String()))
}

// batch runs the statements generated for recs as one text blob.
func batch[R Record](ctx context.Context, m *DBManager, recs []R, gen func(Record) (string, error)) error {
	var b strings.Builder
	for _, rec := range recs {
		stmt, err := gen(rec)
		if err != nil {
			return err
		}
		b.WriteString(stmt)
	}
	if b.Len() == 0 {
		return nil
	}
	return m.exec(ctx, b.String())
}

// Transaction runs fn with a manager bound to a new transaction. The
// transaction is committed if fn returns nil and rolled back otherwise,
// including when fn panics.
func (m *DBManager) Transaction(ctx context.Context, fn func(tx *DBManager) error) (err error) {
	txd, ok := m.driver.(TxDriver)
	if !ok {
		return ErrNoTxSupport
	}
	tx, err := txd.Begin(ctx)
	if err != nil {
		return fmt.Errorf("cannot begin transaction: %w", err)
	}
	m.logger.DebugContext(ctx, "begin transaction")

	committed := false
	defer func() {
		if committed {
			return
		}
		m.logger.DebugContext(ctx, "rollback transaction")
		if rerr := tx.Rollback(); rerr != nil && err == nil {
			err = fmt.Errorf("cannot rollback transaction: %w", rerr)
		}
	}()

	if err := fn(&DBManager{driver: tx, logger: m.logger}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cannot commit transaction: %w", err)
	}
	committed = true
	m.logger.DebugContext(ctx, "commit transaction")
	return nil
}
