package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/agilira/go-timecache"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Hussein-Mazeh/passvault/internal/vault"
	"github.com/Hussein-Mazeh/passvault/store"
)

// timeLayout is fixed width so that text comparison orders chronologically.
const timeLayout = "2006-01-02 15:04:05.000000000"

// Options tunes how the store is opened.
type Options struct {
	// LockTimeout bounds the wait for the advisory lock; zero waits for ctx.
	LockTimeout time.Duration
	// Now overrides the clock used for timestamps.
	Now func() time.Time
}

// DB is the vault store: a SQLite handle guarded by an advisory file lock that is
// taken for the duration of every call.
type DB struct {
	sql  *sql.DB
	path string
	lock *store.FileLock
	now  func() time.Time
}

// Open initialises a SQLite database at the given path, applies the schema and
// returns a DB wrapper.
func Open(ctx context.Context, path string, opts Options) (*DB, error) {
	if path == "" {
		return nil, vault.ValidationError("database path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, vault.StorageError(err, "create database directory")
	}

	handle, err := sql.Open("sqlite", dataSourceName(path))
	if err != nil {
		return nil, vault.StorageError(err, "open sqlite database")
	}
	// One connection per process; cross-process exclusion comes from the file lock.
	handle.SetMaxOpenConns(1)

	now := opts.Now
	if now == nil {
		now = timecache.CachedTime
	}
	d := &DB{
		sql:  handle,
		path: path,
		lock: store.NewFileLock(store.LockPathFor(path), opts.LockTimeout),
		now:  now,
	}

	err = d.locked(ctx, func() error {
		if err := handle.PingContext(ctx); err != nil {
			return vault.StorageError(err, "ping sqlite database")
		}
		if err := EnsurePerm0600(path); err != nil {
			return vault.StorageError(err, "restrict database permissions")
		}
		return Migrate(ctx, handle)
	})
	if err != nil {
		handle.Close()
		return nil, err
	}
	return d, nil
}

// dataSourceName builds a file: URI for path. The path is percent-encoded so that
// '?', '#' and '%' in directory names stay part of the file name.
func dataSourceName(path string) string {
	p := filepath.ToSlash(path)
	if vol := filepath.VolumeName(path); vol != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	u := url.URL{
		Scheme:   "file",
		OmitHost: true,
		Path:     p,
		RawQuery: "_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)",
	}
	return u.String()
}

// Close releases the database resources.
func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Path returns the database file path.
func (d *DB) Path() string { return d.path }

// EnsurePerm0600 sets the database file permissions to owner read/write on Unix systems.
func EnsurePerm0600(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	if err := os.Chmod(path, 0o600); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("chmod database: %w", err)
	}
	return nil
}

// locked runs fn while holding the advisory lock. Lock failures surface as storage errors;
// errors from fn pass through unchanged.
func (d *DB) locked(ctx context.Context, fn func() error) error {
	err := d.lock.With(ctx, fn)
	switch {
	case err == nil || vault.KindOf(err) != "":
		return err
	case errors.Is(err, store.ErrLockTimeout):
		return vault.LockTimeoutError(err, d.lock.Path())
	}
	return vault.StorageError(err, "vault lock "+d.lock.Path())
}

func (d *DB) timestamp() string {
	return formatTime(d.now())
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		// Rows written by sqlite defaults use CURRENT_TIMESTAMP's layout.
		return time.ParseInLocation(time.DateTime, s, time.UTC)
	}
	return t, nil
}

func parseNullTime(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return parseTime(s.String)
}
