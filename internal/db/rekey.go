package db

import (
	"context"

	"github.com/Hussein-Mazeh/passvault/internal/vault"
)

// ResealFunc returns the replacement sealed secret for one stored entry.
type ResealFunc func(EntryRow) (vault.Sealed, error)

// Rekey rewrites every entry's sealed secret and replaces the master hash in a single
// transaction under one lock acquisition. Any error rolls back all changes, so the
// vault stays readable with the old master password. It returns the number of
// entries rewritten.
func (d *DB) Rekey(ctx context.Context, newHash string, reseal ResealFunc) (int, error) {
	if newHash == "" {
		return 0, vault.ValidationError("password hash is required")
	}
	if reseal == nil {
		return 0, vault.ValidationError("reseal function is required")
	}

	var count int
	err := d.locked(ctx, func() error {
		return withTx(ctx, d.sql, func(ctx context.Context, tx DBTX) error {
			var exists int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM master_credential WHERE id = 1`).Scan(&exists); err != nil {
				return vault.StorageError(err, "check master hash")
			}
			if exists == 0 {
				return vault.ConfigurationError("vault is not initialised")
			}

			// Collect first; the single connection cannot interleave reads and writes.
			rows, err := listSealed(ctx, tx)
			if err != nil {
				return err
			}

			now := d.timestamp()
			for _, row := range rows {
				sealed, err := reseal(row)
				if err != nil {
					return err
				}
				if _, err := tx.ExecContext(ctx,
					`UPDATE vault_entries
					    SET encrypted_password = ?, salt = ?, iv = ?, last_modified = ?
					  WHERE id = ?`,
					sealed.Ciphertext, sealed.Salt, sealed.IV, now, row.ID,
				); err != nil {
					return vault.StorageError(err, "update entry")
				}
			}

			if err := saveMasterHash(ctx, tx, newHash, now); err != nil {
				return err
			}
			count = len(rows)
			return nil
		})
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
