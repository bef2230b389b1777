package services

import (
	"context"
	"database/sql"

	"tiketku/internal/domain"
)

// TxRunner runs fn inside a transaction boundary. Services expose it as an
// overridable field so tests can substitute the boundary.
type TxRunner func(ctx context.Context, fn func(tx *sql.Tx) error) error

func runTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	if db == nil {
		return domain.PersistenceError{Op: "begin tx"}
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return domain.PersistenceError{Op: "begin tx", Err: err}
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return domain.PersistenceError{Op: "commit tx", Err: err}
	}
	return nil
}
