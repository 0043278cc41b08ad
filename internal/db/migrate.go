package db

import (
	"context"
	"database/sql"
	"embed"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/Hussein-Mazeh/passvault/internal/vault"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its FS and dialect in package state.
var gooseMu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate ensures the vault tables and indices exist. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return vault.StorageError(err, "set migration dialect")
	}
	if err := gooseUpContext(ctx, db, "migrations"); err != nil {
		return vault.StorageError(err, "migrate schema")
	}
	return nil
}
