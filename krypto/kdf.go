package krypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

const (
	// SaltLengthBytes is the per-entry salt length.
	SaltLengthBytes = 16
	// KeyLengthBytes is the derived key length (AES-256).
	KeyLengthBytes = 32

	minTime        = 3
	minMemoryMB    = 64
	minParallelism = 4
)

var (
	// ErrEmptyPassword is returned when a derivation is requested for an empty secret.
	ErrEmptyPassword = errors.New("krypto: password is required")
	// ErrInvalidSalt is returned when the salt has the wrong length.
	ErrInvalidSalt = errors.New("krypto: invalid salt")
	// ErrWeakParams is returned when Argon2 parameters fall below the enforced floor.
	ErrWeakParams = errors.New("krypto: argon2 parameters below minimum")
)

// Argon2Params captures tunable parameters for Argon2id.
type Argon2Params struct {
	MemoryMB    uint32
	Time        uint32
	Parallelism uint8
	SaltLen     int
	KeyLen      uint32
}

// DefaultArgon2Params returns the parameters used for per-entry encryption keys.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		MemoryMB:    64,
		Time:        3,
		Parallelism: 4,
		SaltLen:     SaltLengthBytes,
		KeyLen:      KeyLengthBytes,
	}
}

// Validate rejects parameter sets weaker than the entry-key floor.
func (p Argon2Params) Validate() error {
	if p.Time < minTime || p.MemoryMB < minMemoryMB || p.Parallelism < minParallelism {
		return fmt.Errorf("%w: t=%d m=%dMiB p=%d", ErrWeakParams, p.Time, p.MemoryMB, p.Parallelism)
	}
	if p.KeyLen != KeyLengthBytes {
		return fmt.Errorf("%w: key length %d", ErrWeakParams, p.KeyLen)
	}
	if p.SaltLen != SaltLengthBytes {
		return fmt.Errorf("%w: salt length %d", ErrWeakParams, p.SaltLen)
	}
	return nil
}

// DeriveKey turns a password and salt into a 32-byte key with the default parameters.
// The same (password, salt) pair always yields the same key.
func DeriveKey(password, salt []byte) ([]byte, error) {
	return DeriveKeyArgon2id(password, salt, DefaultArgon2Params())
}

// DeriveKeyArgon2id derives a key using Argon2id with the provided parameters.
func DeriveKeyArgon2id(password []byte, salt []byte, p Argon2Params) ([]byte, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	if len(salt) != SaltLengthBytes {
		return nil, fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidSalt, SaltLengthBytes, len(salt))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	key := argon2.IDKey(password, salt, p.Time, p.MemoryMB*1024, p.Parallelism, p.KeyLen)
	if uint32(len(key)) != p.KeyLen {
		return nil, fmt.Errorf("derived key has unexpected length %d", len(key))
	}
	return key, nil
}

// NewRandomSalt returns a fresh salt from crypto/rand.
func NewRandomSalt() ([]byte, error) {
	return randomBytes(SaltLengthBytes)
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("read random: %w", err)
	}
	return b, nil
}

// Zeroize overwrites sensitive byte slices in place.
func Zeroize(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
