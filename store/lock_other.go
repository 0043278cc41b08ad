//go:build !unix && !windows

package store

import (
	"errors"
	"os"
)

func tryLock(*os.File) (bool, error) {
	return false, errors.New("advisory locking not supported on this platform")
}

func unlock(*os.File) error { return nil }
