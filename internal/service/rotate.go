package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Hussein-Mazeh/passvault/internal/db"
	"github.com/Hussein-Mazeh/passvault/internal/vault"
	"github.com/Hussein-Mazeh/passvault/krypto"
)

// resealEntry is a seam for tests.
var resealEntry = vault.Reseal

// Rotate re-encrypts every entry under newPassword, each with a fresh salt and IV,
// and replaces the authentication hash. Either everything is rewritten or nothing
// is; on failure the vault still opens with oldPassword. On success the session
// continues under newPassword. It returns the number of entries rewritten.
func (s *Service) Rotate(ctx context.Context, oldPassword, newPassword string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.unlocked() {
		return 0, vault.LockedError()
	}
	if err := s.verifyMaster(ctx, oldPassword); err != nil {
		return 0, err
	}
	if err := s.validateMaster(ctx, newPassword); err != nil {
		return 0, err
	}

	log := s.log.With("rotation_id", uuid.NewString())
	start := time.Now()
	log.Info(ctx, "key rotation started")

	oldKey := []byte(oldPassword)
	newKey := []byte(newPassword)
	defer krypto.Zeroize(oldKey)
	defer krypto.Zeroize(newKey)

	hash, err := krypto.HashPassword(newKey)
	if err != nil {
		return 0, vault.CryptoError(err, "hash new master password")
	}

	n, err := s.db.Rekey(ctx, hash, func(row db.EntryRow) (vault.Sealed, error) {
		return resealEntry(oldKey, newKey, row.Sealed)
	})
	if err != nil {
		log.Error(ctx, "key rotation rolled back", "kind", vault.KindOf(err))
		return 0, err
	}

	s.session.unlock(newPassword)
	log.Info(ctx, "key rotation finished", "entries", n, "elapsed", time.Since(start))
	return n, nil
}
