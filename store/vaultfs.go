package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	databaseFilename = "vault.db"
	configFilename   = "config.json"
	lockSuffix       = ".lock"
)

// Paths locates vault artifacts on disk.
type Paths struct {
	Dir string
}

// DatabasePath resolves the SQLite file.
func (p Paths) DatabasePath() string {
	return filepath.Join(p.Dir, databaseFilename)
}

// LockPath resolves the advisory lock file guarding the database.
func (p Paths) LockPath() string {
	return LockPathFor(p.DatabasePath())
}

// ConfigPath resolves the optional JSON config file.
func (p Paths) ConfigPath() string {
	return filepath.Join(p.Dir, configFilename)
}

// EnsureDir creates the vault directory with owner-only permissions.
func (p Paths) EnsureDir() error {
	if p.Dir == "" {
		return errors.New("vault directory not specified")
	}
	if err := os.MkdirAll(p.Dir, 0o700); err != nil {
		return fmt.Errorf("create vault directory: %w", err)
	}
	return nil
}

// LockPathFor returns "<storagePath>.lock".
func LockPathFor(storagePath string) string {
	return storagePath + lockSuffix
}

// WriteFileAtomic writes data to path via a temp file and rename, with 0600 permissions.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace file: %w", err)
	}
	return nil
}
