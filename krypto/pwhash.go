package krypto

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Upper bounds accepted when parsing a stored hash, so a tampered record cannot make
// Verify allocate unbounded memory.
const (
	maxHashMemoryKiB = 1 << 20
	maxHashTime      = 32
	maxHashThreads   = 64
)

// HashParams are the authentication-hash parameters. They are independent from the
// entry-key parameters and are embedded in every encoded hash.
type HashParams struct {
	MemoryKiB   uint32
	Time        uint32
	Parallelism uint8
	SaltLen     int
	HashLen     uint32
}

// DefaultHashParams mirrors the common argon2id password-hasher defaults.
func DefaultHashParams() HashParams {
	return HashParams{
		MemoryKiB:   64 * 1024,
		Time:        3,
		Parallelism: 4,
		SaltLen:     16,
		HashLen:     32,
	}
}

// HashPassword returns a self-describing encoded hash:
//
//	$argon2id$v=19$m=65536,t=3,p=4$<salt>$<digest>
func HashPassword(password []byte) (string, error) {
	return HashPasswordWithParams(password, DefaultHashParams())
}

// HashPasswordWithParams is HashPassword with explicit parameters.
func HashPasswordWithParams(password []byte, p HashParams) (string, error) {
	if len(password) == 0 {
		return "", ErrEmptyPassword
	}
	salt, err := randomBytes(p.SaltLen)
	if err != nil {
		return "", fmt.Errorf("generate hash salt: %w", err)
	}
	digest := argon2.IDKey(password, salt, p.Time, p.MemoryKiB, p.Parallelism, p.HashLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.MemoryKiB, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest)), nil
}

// VerifyPassword reports whether password matches encoded. Malformed input and a
// wrong password both yield false.
func VerifyPassword(password []byte, encoded string) bool {
	p, salt, want, ok := decodeHash(encoded)
	if !ok || len(password) == 0 {
		return false
	}
	got := argon2.IDKey(password, salt, p.Time, p.MemoryKiB, p.Parallelism, uint32(len(want)))
	defer Zeroize(got)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func decodeHash(encoded string) (HashParams, []byte, []byte, bool) {
	var p HashParams
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, false
	}
	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Time, &threads); err != nil {
		return p, nil, nil, false
	}
	if p.MemoryKiB == 0 || p.MemoryKiB > maxHashMemoryKiB ||
		p.Time == 0 || p.Time > maxHashTime ||
		threads == 0 || threads > maxHashThreads {
		return p, nil, nil, false
	}
	p.Parallelism = uint8(threads)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, false
	}
	digest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(digest) < 16 || len(digest) > 64 {
		return p, nil, nil, false
	}
	p.SaltLen = len(salt)
	p.HashLen = uint32(len(digest))
	return p, salt, digest, true
}
