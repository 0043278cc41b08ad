package db

import (
	"context"
	"database/sql"

	"github.com/Hussein-Mazeh/passvault/internal/vault"
)

// DBTX is the subset of database/sql used by the queries here.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx begins a transaction, runs fn, and commits on success or rolls back on
// error or panic. Panics are rethrown.
func withTx(ctx context.Context, db *sql.DB, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return vault.StorageError(err, "begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = vault.StorageError(cerr, "commit transaction")
		}
	}()

	err = fn(ctx, tx)
	return err
}
