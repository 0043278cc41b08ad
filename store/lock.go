package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrLockTimeout is returned when the lock could not be acquired before the deadline.
var ErrLockTimeout = errors.New("lock acquisition timed out")

const pollInterval = 10 * time.Millisecond

// FileLock is a cross-process advisory lock on a single path. It is not reentrant and
// is meant to be held for one storage operation at a time.
type FileLock struct {
	path    string
	timeout time.Duration
}

// NewFileLock returns a lock on path. A zero timeout waits until ctx is done.
func NewFileLock(path string, timeout time.Duration) *FileLock {
	return &FileLock{path: path, timeout: timeout}
}

// Path returns the lock file path.
func (l *FileLock) Path() string { return l.path }

// Acquire blocks until the lock is held, ctx is cancelled, or the timeout expires.
// The returned func releases the lock.
func (l *FileLock) Acquire(ctx context.Context) (func() error, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ok, err := tryLock(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("lock %s: %w", l.path, err)
		}
		if ok {
			return func() error {
				uerr := unlock(f)
				cerr := f.Close()
				return errors.Join(uerr, cerr)
			}, nil
		}

		select {
		case <-ctx.Done():
			f.Close()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w after %s: %s", ErrLockTimeout, l.timeout, l.path)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// With runs fn while holding the lock.
func (l *FileLock) With(ctx context.Context, fn func() error) (err error) {
	release, err := l.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := release(); rerr != nil && err == nil {
			err = fmt.Errorf("release lock: %w", rerr)
		}
	}()
	return fn()
}
