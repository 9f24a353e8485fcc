package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// withReservationLock runs fn in a transaction holding a transaction-scoped advisory lock on key.
// Writers of the same resource window serialise on the lock, so a count taken inside fn stays
// valid until commit.
func withReservationLock(ctx context.Context, db *sqlx.DB, key string, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reservation tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("acquire reservation lock: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reservation tx: %w", err)
	}
	return nil
}

// countOverlapping runs a COUNT(*) overlap query inside tx and maps a non-zero result to
// ErrReservationOverlap.
func countOverlapping(ctx context.Context, tx *sqlx.Tx, query string, args ...interface{}) error {
	var n int
	if err := tx.GetContext(ctx, &n, query, args...); err != nil {
		return fmt.Errorf("count overlapping reservations: %w", err)
	}
	if n > 0 {
		return ErrReservationOverlap
	}
	return nil
}
