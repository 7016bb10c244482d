package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager defines methods for transaction management
type TransactionManager interface {
	// Begin starts a new database transaction
	Begin(ctx context.Context) (pgx.Tx, error)

	// Commit commits a transaction
	Commit(ctx context.Context, tx pgx.Tx) error

	// Rollback rolls back a transaction
	Rollback(ctx context.Context, tx pgx.Tx) error
}

// WithinTx runs fn inside one unit of work. fn's error, or a failed commit,
// rolls back everything fn wrote.
func WithinTx(ctx context.Context, tm TransactionManager, fn func(tx pgx.Tx) error) (err error) {
	tx, err := tm.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tm.Rollback(ctx, tx)
			panic(p)
		}
		if err != nil {
			_ = tm.Rollback(ctx, tx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tm.Commit(ctx, tx)
}
