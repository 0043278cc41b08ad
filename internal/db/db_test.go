package db_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hussein-Mazeh/passvault/internal/db"
	"github.com/Hussein-Mazeh/passvault/internal/vault"
	"github.com/Hussein-Mazeh/passvault/store"
)

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func openTestDB(t *testing.T) (*db.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vault.db")
	d, err := db.Open(context.Background(), path, db.Options{LockTimeout: time.Second, Now: stepClock()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d, path
}

func sealed(tag string) vault.Sealed {
	return vault.Sealed{Ciphertext: "ct-" + tag, Salt: "salt-" + tag, IV: "iv-" + tag}
}

func TestOpenCreatesSchema(t *testing.T) {
	d, path := openTestDB(t)
	assert.Equal(t, path, d.Path())

	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer raw.Close()

	names := map[string]bool{}
	rows, err := raw.Query(`SELECT name FROM sqlite_master WHERE type IN ('table', 'index')`)
	require.NoError(t, err)
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names[name] = true
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())

	for _, want := range []string{"master_credential", "vault_entries", "idx_vault_entries_url", "idx_vault_entries_category"} {
		assert.True(t, names[want], "missing %s", want)
	}
}

func TestOpenKeepsURIMetacharactersInPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("'?' is not valid in Windows file names")
	}
	ctx := context.Background()
	parent := t.TempDir()
	dir := filepath.Join(parent, "my?vault#x%20")
	path := filepath.Join(dir, "vault.db")

	d, err := db.Open(ctx, path, db.Options{LockTimeout: time.Second})
	require.NoError(t, err)
	require.NoError(t, d.SaveMasterHash(ctx, "hash"))
	require.NoError(t, d.Close())

	assert.FileExists(t, path)
	assert.FileExists(t, store.LockPathFor(path))
	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "my?vault#x%20", entries[0].Name())

	d, err = db.Open(ctx, path, db.Options{LockTimeout: time.Second})
	require.NoError(t, err)
	defer d.Close()
	hash, ok, err := d.GetMasterHash(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hash", hash)
}

func TestOpenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault.db")

	d, err := db.Open(ctx, path, db.Options{})
	require.NoError(t, err)
	_, err = d.InsertEntry(ctx, vault.NewEntry{Title: "mail"}, sealed("a"))
	require.NoError(t, err)
	require.NoError(t, d.Close())

	d, err = db.Open(ctx, path, db.Options{})
	require.NoError(t, err)
	defer d.Close()

	got, err := d.SearchEntries(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := db.Open(context.Background(), "", db.Options{})
	assert.ErrorIs(t, err, vault.ErrValidation)
}

func TestMasterHashUpsert(t *testing.T) {
	ctx := context.Background()
	d, _ := openTestDB(t)

	_, ok, err := d.GetMasterHash(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.SaveMasterHash(ctx, "hash-1"))
	first, err := d.GetMasterCredential(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)

	require.NoError(t, d.SaveMasterHash(ctx, "hash-2"))
	second, err := d.GetMasterCredential(ctx)
	require.NoError(t, err)

	assert.Equal(t, "hash-2", second.PasswordHash)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.LastModified.After(first.LastModified))

	assert.ErrorIs(t, d.SaveMasterHash(ctx, ""), vault.ErrValidation)
}

func TestInsertAndGetEntry(t *testing.T) {
	ctx := context.Background()
	d, _ := openTestDB(t)

	id, err := d.InsertEntry(ctx, vault.NewEntry{
		Title:    "GitHub",
		URL:      "https://github.com",
		Username: "octo",
		Notes:    "2fa on",
	}, sealed("gh"))
	require.NoError(t, err)
	assert.Positive(t, id)

	row, err := d.GetEntry(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "GitHub", row.Title)
	assert.Equal(t, "octo", row.Username)
	assert.Equal(t, "2fa on", row.Notes)
	assert.Equal(t, vault.DefaultCategory, row.Category)
	assert.Equal(t, sealed("gh"), row.Sealed)
	assert.False(t, row.LastAccessed.IsZero())
	assert.True(t, row.LastAccessed.After(row.CreatedAt))

	again, err := d.GetEntry(ctx, id)
	require.NoError(t, err)
	assert.True(t, again.LastAccessed.After(row.LastAccessed))

	missing, err := d.GetEntry(ctx, id+100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestInsertEntryValidation(t *testing.T) {
	ctx := context.Background()
	d, _ := openTestDB(t)

	_, err := d.InsertEntry(ctx, vault.NewEntry{Title: "  "}, sealed("x"))
	assert.ErrorIs(t, err, vault.ErrValidation)

	_, err = d.InsertEntry(ctx, vault.NewEntry{Title: "x"}, vault.Sealed{})
	assert.ErrorIs(t, err, vault.ErrValidation)
}

func TestSearchEntries(t *testing.T) {
	ctx := context.Background()
	d, _ := openTestDB(t)

	mail, err := d.InsertEntry(ctx, vault.NewEntry{Title: "Mail", URL: "https://mail.example.com", Category: "email"}, sealed("m"))
	require.NoError(t, err)
	bank, err := d.InsertEntry(ctx, vault.NewEntry{Title: "Bank", Username: "alice@example.com", Category: "finance"}, sealed("b"))
	require.NoError(t, err)
	_, err = d.InsertEntry(ctx, vault.NewEntry{Title: "Forum", Username: "100%_user"}, sealed("f"))
	require.NoError(t, err)

	all, err := d.SearchEntries(ctx, "EXAMPLE", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Never accessed: newest modification first.
	assert.Equal(t, bank, all[0].ID)
	assert.Equal(t, mail, all[1].ID)

	_, err = d.GetEntry(ctx, mail)
	require.NoError(t, err)
	all, err = d.SearchEntries(ctx, "example", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, mail, all[0].ID)

	byCategory, err := d.SearchEntries(ctx, "example", "finance")
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Bank", byCategory[0].Title)

	literal, err := d.SearchEntries(ctx, "%_", "")
	require.NoError(t, err)
	require.Len(t, literal, 1)
	assert.Equal(t, "Forum", literal[0].Title)

	none, err := d.SearchEntries(ctx, "nothing", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearchEntriesFoldsUnicodeCase(t *testing.T) {
	ctx := context.Background()
	d, _ := openTestDB(t)

	id, err := d.InsertEntry(ctx, vault.NewEntry{Title: "Ärztekammer", Username: "Ωmega"}, sealed("a"))
	require.NoError(t, err)

	for _, q := range []string{"ärzte", "ÄRZTE", "RZTE", "ωMEGA"} {
		got, err := d.SearchEntries(ctx, q, "")
		require.NoError(t, err, q)
		require.Len(t, got, 1, q)
		assert.Equal(t, id, got[0].ID, q)
	}
}

func TestDeleteEntry(t *testing.T) {
	ctx := context.Background()
	d, _ := openTestDB(t)

	id, err := d.InsertEntry(ctx, vault.NewEntry{Title: "tmp"}, sealed("t"))
	require.NoError(t, err)

	ok, err := d.DeleteEntry(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = d.DeleteEntry(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRekey(t *testing.T) {
	ctx := context.Background()
	d, _ := openTestDB(t)

	require.NoError(t, d.SaveMasterHash(ctx, "old"))
	for _, title := range []string{"a", "b", "c"} {
		_, err := d.InsertEntry(ctx, vault.NewEntry{Title: title}, sealed(title))
		require.NoError(t, err)
	}

	n, err := d.Rekey(ctx, "new", func(r db.EntryRow) (vault.Sealed, error) {
		return sealed("new-" + r.Title), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	hash, _, err := d.GetMasterHash(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", hash)

	rows, err := d.ListSealed(ctx)
	require.NoError(t, err)
	for _, r := range rows {
		assert.Equal(t, sealed("new-"+r.Title), r.Sealed)
	}
}

func TestRekeyRollsBack(t *testing.T) {
	ctx := context.Background()
	d, _ := openTestDB(t)

	require.NoError(t, d.SaveMasterHash(ctx, "old"))
	for _, title := range []string{"a", "b", "c"} {
		_, err := d.InsertEntry(ctx, vault.NewEntry{Title: title}, sealed(title))
		require.NoError(t, err)
	}

	boom := errors.New("boom")
	_, err := d.Rekey(ctx, "new", func(r db.EntryRow) (vault.Sealed, error) {
		if r.Title == "c" {
			return vault.Sealed{}, boom
		}
		return sealed("new-" + r.Title), nil
	})
	require.ErrorIs(t, err, boom)

	hash, _, err := d.GetMasterHash(ctx)
	require.NoError(t, err)
	assert.Equal(t, "old", hash)

	rows, err := d.ListSealed(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.Equal(t, sealed(r.Title), r.Sealed)
	}
}

func TestRekeyRequiresMaster(t *testing.T) {
	d, _ := openTestDB(t)
	_, err := d.Rekey(context.Background(), "new", func(r db.EntryRow) (vault.Sealed, error) {
		return r.Sealed, nil
	})
	assert.ErrorIs(t, err, vault.ErrConfiguration)
}

func TestLockTimeoutIsStorageError(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault.db")
	d, err := db.Open(ctx, path, db.Options{LockTimeout: 50 * time.Millisecond})
	require.NoError(t, err)
	defer d.Close()

	release, err := store.NewFileLock(store.LockPathFor(path), time.Second).Acquire(ctx)
	require.NoError(t, err)
	defer release()

	_, err = d.SearchEntries(ctx, "", "")
	require.ErrorIs(t, err, vault.ErrStorage)
	assert.Equal(t, "storage", vault.KindOf(err))
}
