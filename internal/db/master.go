package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Hussein-Mazeh/passvault/internal/vault"
)

// SaveMasterHash upserts the single authentication record. Retrying with the same hash
// leaves the row unchanged apart from last_modified.
func (d *DB) SaveMasterHash(ctx context.Context, hash string) error {
	if hash == "" {
		return vault.ValidationError("password hash is required")
	}
	return d.locked(ctx, func() error {
		return saveMasterHash(ctx, d.sql, hash, d.timestamp())
	})
}

func saveMasterHash(ctx context.Context, q DBTX, hash, now string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO master_credential (id, password_hash, created_at, last_modified)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     password_hash = excluded.password_hash,
		     last_modified = excluded.last_modified`,
		hash, now, now,
	)
	if err != nil {
		return vault.StorageError(err, "save master hash")
	}
	return nil
}

// GetMasterHash returns the stored hash; ok is false when the vault was never set up.
func (d *DB) GetMasterHash(ctx context.Context) (hash string, ok bool, err error) {
	cred, err := d.GetMasterCredential(ctx)
	if err != nil || cred == nil {
		return "", false, err
	}
	return cred.PasswordHash, true, nil
}

// GetMasterCredential returns the authentication record, or nil when absent.
func (d *DB) GetMasterCredential(ctx context.Context) (*vault.MasterCredential, error) {
	var cred *vault.MasterCredential
	err := d.locked(ctx, func() error {
		var (
			hash, created, modified string
		)
		err := d.sql.QueryRowContext(ctx,
			`SELECT password_hash, created_at, last_modified FROM master_credential WHERE id = 1`,
		).Scan(&hash, &created, &modified)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return vault.StorageError(err, "select master hash")
		}

		c := &vault.MasterCredential{PasswordHash: hash}
		if c.CreatedAt, err = parseTime(created); err != nil {
			return vault.StorageError(err, "parse created_at")
		}
		if c.LastModified, err = parseTime(modified); err != nil {
			return vault.StorageError(err, "parse last_modified")
		}
		cred = c
		return nil
	})
	return cred, err
}
