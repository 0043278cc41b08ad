// Package service implements the vault manager: the locked/unlocked session and
// the command API (setup, unlock, add, get, search, delete, generate, rotate)
// layered over the crypto primitives and the SQLite store.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/Hussein-Mazeh/passvault/auth"
	"github.com/Hussein-Mazeh/passvault/internal/db"
	"github.com/Hussein-Mazeh/passvault/internal/logging"
	"github.com/Hussein-Mazeh/passvault/internal/vault"
	"github.com/Hussein-Mazeh/passvault/krypto"
	"github.com/Hussein-Mazeh/passvault/store"
)

// DefaultAuditMaxAge marks entries older than this as stale.
const DefaultAuditMaxAge = 90 * 24 * time.Hour

// Options configures a Service. Zero values pick defaults.
type Options struct {
	LockTimeout time.Duration
	Logger      logging.Logger
	Now         func() time.Time
	AuditMaxAge time.Duration
	// Breaches enables breach lookups for setup, rotation and audits.
	Breaches *auth.BreachChecker
}

// Service exposes high-level vault operations for the CLI. Calls are serialised;
// one command runs to completion before the next starts.
type Service struct {
	mu       sync.Mutex
	db       *db.DB
	session  session
	log      logging.Logger
	now      func() time.Time
	maxAge   time.Duration
	breaches *auth.BreachChecker
}

// New opens (creating if needed) the vault in vaultDir and returns a locked Service.
func New(ctx context.Context, vaultDir string, opts Options) (*Service, error) {
	paths := store.Paths{Dir: vaultDir}
	if err := paths.EnsureDir(); err != nil {
		return nil, vault.StorageError(err, "create vault directory")
	}
	return Open(ctx, paths.DatabasePath(), opts)
}

// Open binds a Service to the database file at path.
func Open(ctx context.Context, path string, opts Options) (*Service, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	maxAge := opts.AuditMaxAge
	if maxAge <= 0 {
		maxAge = DefaultAuditMaxAge
	}

	d, err := db.Open(ctx, path, db.Options{LockTimeout: opts.LockTimeout, Now: opts.Now})
	if err != nil {
		return nil, err
	}
	log.Debug(ctx, "vault opened", "path", path)

	return &Service{
		db:       d,
		log:      log.With("component", "vault"),
		now:      now,
		maxAge:   maxAge,
		breaches: opts.Breaches,
	}, nil
}

// Close locks the session and closes the store.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.lock()
	if err := s.db.Close(); err != nil {
		return vault.StorageError(err, "close database")
	}
	return nil
}

// Path returns the vault database path.
func (s *Service) Path() string { return s.db.Path() }

// IsUnlocked reports the session state.
func (s *Service) IsUnlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.unlocked()
}

// Initialized reports whether a master password has been set up.
func (s *Service) Initialized(ctx context.Context) (bool, error) {
	_, ok, err := s.db.GetMasterHash(ctx)
	return ok, err
}

// SetupMasterPassword initialises the vault and unlocks the session.
func (s *Service) SetupMasterPassword(ctx context.Context, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateMaster(ctx, password); err != nil {
		return err
	}

	_, exists, err := s.db.GetMasterHash(ctx)
	if err != nil {
		return err
	}
	if exists {
		return vault.ConfigurationError("vault already initialised; unlock instead")
	}

	pw := []byte(password)
	defer krypto.Zeroize(pw)
	hash, err := krypto.HashPassword(pw)
	if err != nil {
		return vault.CryptoError(err, "hash master password")
	}
	if err := s.db.SaveMasterHash(ctx, hash); err != nil {
		return err
	}

	s.session.unlock(password)
	s.log.Info(ctx, "vault initialised")
	return nil
}

// Unlock verifies password against the stored hash. A failed attempt leaves the
// session as it was.
func (s *Service) Unlock(ctx context.Context, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.verifyMaster(ctx, password); err != nil {
		if vault.KindOf(err) == "authentication" {
			s.log.Warn(ctx, "unlock failed")
		}
		return err
	}
	s.session.unlock(password)
	s.log.Info(ctx, "vault unlocked")
	return nil
}

// Lock drops the session password. It is safe to call in any state.
func (s *Service) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.lock()
}

// verifyMaster fails with ConfigurationError before setup and AuthenticationError
// on a mismatch.
func (s *Service) verifyMaster(ctx context.Context, password string) error {
	hash, ok, err := s.db.GetMasterHash(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return vault.ConfigurationError("vault is not initialised; run setup first")
	}

	pw := []byte(password)
	defer krypto.Zeroize(pw)
	if !krypto.VerifyPassword(pw, hash) {
		return vault.AuthenticationError()
	}
	return nil
}

// validateMaster applies the master password policy. Breach lookups fail open.
func (s *Service) validateMaster(ctx context.Context, password string) error {
	if err := auth.ValidateMasterPassword(password); err != nil {
		return err
	}
	if s.breaches == nil {
		return nil
	}

	opts := auth.DefaultValidateOptions()
	opts.Breaches = s.breaches
	err := auth.ValidateMasterPasswordAdvanced(ctx, password, opts)
	if err != nil && vault.KindOf(err) != "validation" {
		s.log.Warn(ctx, "breach lookup failed", "error", err)
		return nil
	}
	return err
}
