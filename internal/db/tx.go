package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the statement surface shared by *pgxpool.Pool and pgx.Tx.
// Repositories take it as a parameter so the same method runs standalone or
// as one step of an enclosing transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Transactor runs fn inside one all-or-nothing transaction
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, q DBTX) error) error
}

// TxRunner is the pgx-backed Transactor. Every transaction is bounded by
// timeout; when it expires the transaction is rolled back and the deadline
// error is returned.
type TxRunner struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewTxRunner(pool *pgxpool.Pool, timeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, timeout: timeout}
}

func (r *TxRunner) InTx(ctx context.Context, fn func(ctx context.Context, q DBTX) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	// Rollback after a successful Commit is a no-op
	defer tx.Rollback(context.Background())

	if err := fn(ctx, tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
