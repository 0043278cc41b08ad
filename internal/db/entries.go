package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/Hussein-Mazeh/passvault/internal/vault"
)

// EntryRow is a stored entry including its sealed secret.
type EntryRow struct {
	vault.Summary
	Notes  string
	Sealed vault.Sealed
}

// summaryColumns never include encrypted_password, salt or iv.
const summaryColumns = `id, title, url, username, category, created_at, last_modified, last_accessed`

const entryColumns = summaryColumns + `, notes, encrypted_password, salt, iv`

// InsertEntry stores a new entry and returns its id.
func (d *DB) InsertEntry(ctx context.Context, e vault.NewEntry, s vault.Sealed) (int64, error) {
	if strings.TrimSpace(e.Title) == "" {
		return 0, vault.ValidationError("title is required")
	}
	if s.Ciphertext == "" || s.Salt == "" || s.IV == "" {
		return 0, vault.ValidationError("sealed secret is incomplete")
	}
	category := e.Category
	if category == "" {
		category = vault.DefaultCategory
	}

	var id int64
	err := d.locked(ctx, func() error {
		now := d.timestamp()
		res, err := d.sql.ExecContext(ctx,
			`INSERT INTO vault_entries
			     (title, url, username, encrypted_password, salt, iv, notes, category, created_at, last_modified)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.Title, e.URL, e.Username, s.Ciphertext, s.Salt, s.IV, e.Notes, category, now, now,
		)
		if err != nil {
			return vault.StorageError(err, "insert entry")
		}
		if id, err = res.LastInsertId(); err != nil {
			return vault.StorageError(err, "fetch insert id")
		}
		return nil
	})
	return id, err
}

// GetEntry returns the entry and marks it accessed. It returns nil, nil for unknown ids.
func (d *DB) GetEntry(ctx context.Context, id int64) (*EntryRow, error) {
	var row *EntryRow
	err := d.locked(ctx, func() error {
		return withTx(ctx, d.sql, func(ctx context.Context, tx DBTX) error {
			res, err := tx.ExecContext(ctx,
				`UPDATE vault_entries SET last_accessed = ? WHERE id = ?`, d.timestamp(), id)
			if err != nil {
				return vault.StorageError(err, "touch entry")
			}
			n, err := res.RowsAffected()
			if err != nil {
				return vault.StorageError(err, "rows affected")
			}
			if n == 0 {
				return nil
			}

			r, err := scanEntry(tx.QueryRowContext(ctx,
				`SELECT `+entryColumns+` FROM vault_entries WHERE id = ?`, id))
			if err != nil {
				return err
			}
			row = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// SearchEntries matches query case-insensitively (full Unicode folding) against
// title, url and username, most recently used first. Only non-secret columns are selected.
func (d *DB) SearchEntries(ctx context.Context, query, category string) ([]vault.Summary, error) {
	pattern := "%" + escapeLike(foldCase(query)) + "%"
	sqlText := `SELECT ` + summaryColumns + ` FROM vault_entries
		WHERE (casefold(title) LIKE ? ESCAPE '\'
		    OR casefold(url) LIKE ? ESCAPE '\'
		    OR casefold(username) LIKE ? ESCAPE '\')`
	args := []any{pattern, pattern, pattern}
	if category != "" {
		sqlText += ` AND category = ?`
		args = append(args, category)
	}
	sqlText += ` ORDER BY last_accessed DESC, last_modified DESC, id DESC`

	var out []vault.Summary
	err := d.locked(ctx, func() error {
		rows, err := d.sql.QueryContext(ctx, sqlText, args...)
		if err != nil {
			return vault.StorageError(err, "search entries")
		}
		defer rows.Close()

		for rows.Next() {
			s, err := scanSummary(rows)
			if err != nil {
				return err
			}
			out = append(out, s)
		}
		if err := rows.Err(); err != nil {
			return vault.StorageError(err, "iterate entries")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteEntry removes an entry, reporting whether a row existed.
func (d *DB) DeleteEntry(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := d.locked(ctx, func() error {
		res, err := d.sql.ExecContext(ctx, `DELETE FROM vault_entries WHERE id = ?`, id)
		if err != nil {
			return vault.StorageError(err, "delete entry")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return vault.StorageError(err, "delete rows affected")
		}
		deleted = n > 0
		return nil
	})
	return deleted, err
}

// ListSealed returns every entry with its sealed secret, without marking any as
// accessed. It backs offline inspection.
func (d *DB) ListSealed(ctx context.Context) ([]EntryRow, error) {
	var out []EntryRow
	err := d.locked(ctx, func() error {
		var err error
		out, err = listSealed(ctx, d.sql)
		return err
	})
	return out, err
}

func listSealed(ctx context.Context, q DBTX) ([]EntryRow, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+entryColumns+` FROM vault_entries ORDER BY id`)
	if err != nil {
		return nil, vault.StorageError(err, "select entries")
	}
	defer rows.Close()

	var out []EntryRow
	for rows.Next() {
		r, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, vault.StorageError(err, "iterate entries")
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(sc scanner) (vault.Summary, error) {
	var (
		s                 vault.Summary
		created, modified string
		accessed          sql.NullString
	)
	if err := sc.Scan(&s.ID, &s.Title, &s.URL, &s.Username, &s.Category, &created, &modified, &accessed); err != nil {
		return s, vault.StorageError(err, "scan entry row")
	}
	return s, fillTimes(&s, created, modified, accessed)
}

func scanEntry(sc scanner) (*EntryRow, error) {
	var (
		r                 EntryRow
		created, modified string
		accessed          sql.NullString
	)
	err := sc.Scan(&r.ID, &r.Title, &r.URL, &r.Username, &r.Category, &created, &modified, &accessed,
		&r.Notes, &r.Sealed.Ciphertext, &r.Sealed.Salt, &r.Sealed.IV)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vault.NotFoundError("entry not found")
	}
	if err != nil {
		return nil, vault.StorageError(err, "scan entry row")
	}
	if err := fillTimes(&r.Summary, created, modified, accessed); err != nil {
		return nil, err
	}
	return &r, nil
}

func fillTimes(s *vault.Summary, created, modified string, accessed sql.NullString) error {
	var err error
	if s.CreatedAt, err = parseTime(created); err != nil {
		return vault.StorageError(err, "parse created_at")
	}
	if s.LastModified, err = parseTime(modified); err != nil {
		return vault.StorageError(err, "parse last_modified")
	}
	if s.LastAccessed, err = parseNullTime(accessed); err != nil {
		return vault.StorageError(err, "parse last_accessed")
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
