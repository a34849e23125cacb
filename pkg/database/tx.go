package database

import (
	"context"
	"fmt"
)

// TxRunner is the transactional surface services depend on. *DB is the
// production implementation; tests substitute a pass-through.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	WithPool(ctx context.Context) context.Context
}

// InTx runs fn with a transaction-backed querier installed in the
// context. The transaction commits when fn returns nil and rolls back
// otherwise. Nested calls reuse pgx's savepoint support only if the
// caller begins its own transaction; repositories never do.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(SetQuerier(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// WithPool installs the pool itself as the active querier. Handlers use
// this for read paths and single-statement writes.
func (db *DB) WithPool(ctx context.Context) context.Context {
	return SetQuerier(ctx, db.Pool)
}
