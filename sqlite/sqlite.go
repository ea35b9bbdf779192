// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package sqlite runs the statements generated by tinyorm on a SQLite
// database through database/sql and github.com/mattn/go-sqlite3.
//
// Statements failing because the database is busy or locked are retried
// a bounded number of times with a linear backoff.
package sqlite

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/canonical/tinyorm"
)

var ErrTXDone = sql.ErrTxDone

const (
	defaultBusyRetries = 5
	defaultBusyBackoff = 10 * time.Millisecond
)

// Options holds the options to be used in [Open] and [NewDB].
type Options struct {
	// BusyRetries is the number of times a statement is retried while the
	// database is busy. If zero, 5 is used.
	BusyRetries uint
	// BusyBackoff is the delay added before each successive retry. If zero,
	// 10ms is used.
	BusyBackoff time.Duration
	// Logger receives a warning for every retry. If nil, nothing is logged.
	Logger *slog.Logger
}

func (opts *Options) runner(q querier) runner {
	r := runner{
		q:       q,
		retries: defaultBusyRetries,
		backoff: defaultBusyBackoff,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if opts == nil {
		return r
	}
	if opts.BusyRetries != 0 {
		r.retries = opts.BusyRetries
	}
	if opts.BusyBackoff != 0 {
		r.backoff = opts.BusyBackoff
	}
	if opts.Logger != nil {
		r.logger = opts.Logger
	}
	return r
}

// querier is implemented by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// DB is a [tinyorm.TxDriver] over a SQLite database.
type DB struct {
	runner
	sqldb *sql.DB
}

var _ tinyorm.TxDriver = (*DB)(nil)

// Open opens the SQLite database named by dsn. The database is limited to
// a single connection, so per connection state such as foreign key
// enforcement and ":memory:" databases is shared by every statement.
func Open(dsn string, opts *Options) (*DB, error) {
	sqldb, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %q", dsn)
	}
	sqldb.SetMaxOpenConns(1)
	return NewDB(sqldb, opts), nil
}

// NewDB creates a new [DB] from a [sql.DB].
func NewDB(sqldb *sql.DB, opts *Options) *DB {
	if sqldb == nil {
		return nil
	}
	return &DB{runner: opts.runner(sqldb), sqldb: sqldb}
}

// PlainDB returns the underlying database object.
func (db *DB) PlainDB() *sql.DB {
	return db.sqldb
}

// Close closes the underlying database.
func (db *DB) Close() error {
	return db.sqldb.Close()
}

// Begin starts a transaction. A transaction must be ended with a
// Commit or Rollback.
func (db *DB) Begin(ctx context.Context) (tinyorm.Tx, error) {
	sqltx, err := db.sqldb.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "cannot begin transaction")
	}
	r := db.runner
	r.q = sqltx
	return &TX{runner: r, sqltx: sqltx}, nil
}

// TX is a [tinyorm.Tx] running statements in a SQLite transaction.
type TX struct {
	runner
	sqltx *sql.Tx
	done  int32
}

func (tx *TX) isDone() bool {
	return atomic.LoadInt32(&tx.done) == 1
}

func (tx *TX) setDone() error {
	if !atomic.CompareAndSwapInt32(&tx.done, 0, 1) {
		return ErrTXDone
	}
	return nil
}

// Execute runs stmt in the transaction.
func (tx *TX) Execute(ctx context.Context, stmt string) error {
	if tx.isDone() {
		return ErrTXDone
	}
	return tx.runner.Execute(ctx, stmt)
}

// ExecuteRows runs stmt in the transaction.
func (tx *TX) ExecuteRows(ctx context.Context, stmt string, onRow tinyorm.RowHandler) error {
	if tx.isDone() {
		return ErrTXDone
	}
	return tx.runner.ExecuteRows(ctx, stmt, onRow)
}

// Commit commits the transaction.
func (tx *TX) Commit() error {
	err := tx.setDone()
	if err == nil {
		err = tx.sqltx.Commit()
	}
	return err
}

// Rollback aborts the transaction.
func (tx *TX) Rollback() error {
	err := tx.setDone()
	if err == nil {
		err = tx.sqltx.Rollback()
	}
	return err
}

// runner runs statements with busy retry.
type runner struct {
	q       querier
	retries uint
	backoff time.Duration
	logger  *slog.Logger
}

// ForeignKeysOn enables foreign key enforcement on the connection.
func (r runner) ForeignKeysOn(ctx context.Context) error {
	return r.Execute(ctx, "pragma foreign_keys = on;")
}

// Execute runs stmt, which may hold several statements, discarding any
// rows.
func (r runner) Execute(ctx context.Context, stmt string) error {
	err := r.retry(ctx, stmt, func() bool { return true }, func() error {
		_, err := r.q.ExecContext(ctx, stmt)
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "cannot execute %q", stmt)
	}
	return nil
}

// ExecuteRows runs stmt and passes every row to onRow as text. A statement
// is only retried while no row has been passed to onRow.
func (r runner) ExecuteRows(ctx context.Context, stmt string, onRow tinyorm.RowHandler) error {
	var delivered bool
	var handlerErr error
	err := r.retry(ctx, stmt, func() bool { return !delivered }, func() error {
		rows, err := r.q.QueryContext(ctx, stmt)
		if err != nil {
			return err
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return err
		}
		values := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		for rows.Next() {
			if err := rows.Scan(ptrs...); err != nil {
				return err
			}
			delivered = true
			if err := onRow(len(cols), values); err != nil {
				handlerErr = err
				return err
			}
		}
		return rows.Err()
	})
	if handlerErr != nil {
		return handlerErr
	}
	if err != nil {
		return errors.Wrapf(err, "cannot execute %q", stmt)
	}
	return nil
}

// retry runs action until it succeeds, fails with an error other than
// busy, or the retries are exhausted. canRetry can veto a retry.
func (r runner) retry(ctx context.Context, stmt string, canRetry func() bool, action func() error) error {
	var last error
	busy := func(attempt uint) bool {
		if attempt == 0 {
			return true
		}
		if !isBusy(last) || !canRetry() || ctx.Err() != nil {
			return false
		}
		r.logger.WarnContext(ctx, "database busy, retrying", "attempt", attempt, "stmt", stmt)
		return true
	}
	return retry.Retry(func(uint) error {
		last = action()
		return last
	}, strategy.Limit(r.retries+1), busy, strategy.Backoff(backoff.Linear(r.backoff)))
}

// isBusy reports whether err is a transient SQLite locking error.
func isBusy(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.Code == sqlite3.ErrBusy || serr.Code == sqlite3.ErrLocked
	}
	return false
}
