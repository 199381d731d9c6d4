package service

import (
	"context"
	"database/sql"

	"jobpilot/internal/common"
)

// withTx runs fn inside a transaction when a relational backend is wired
// (db != nil). The document/memory backends supply their own per-write
// atomicity, so fn receives a nil tx and runs as-is.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	if db == nil {
		return fn(nil)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return common.Errorf("begin transaction: %v: %w", err, common.ErrStorage)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return common.Errorf("commit transaction: %v: %w", err, common.ErrStorage)
	}
	return nil
}
