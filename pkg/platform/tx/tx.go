// Package tx carries a SQL transaction through context so stores can join an
// in-flight unit of work without changing their signatures. The caller owns
// commit/rollback; see Runner.
package tx

import (
	"context"
	"database/sql"
	"time"

	dErrors "arcanalyse/pkg/domain-errors"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Stores resolve one per call so they transparently join a context transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// QuerierFrom returns the context transaction when one is present, else db.
func QuerierFrom(ctx context.Context, db *sql.DB) Querier {
	if t, ok := From(ctx); ok {
		return t
	}
	return db
}

const defaultTxTimeout = 5 * time.Second

// Runner executes a function inside a single database transaction. The
// transaction is placed in the context handed to fn, so every store call made
// through that context joins the same unit of work.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SQLRunner is the database/sql-backed Runner.
type SQLRunner struct {
	db      *sql.DB
	timeout time.Duration
}

func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{db: db}
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := r.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = t.Rollback()
	}()

	if err := fn(WithTx(ctx, t)); err != nil {
		return err
	}

	return t.Commit()
}

// NopRunner runs fn without a transaction. Used with in-memory stores where
// operations are individually atomic.
type NopRunner struct{}

func (NopRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
