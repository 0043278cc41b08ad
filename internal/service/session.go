package service

import (
	"github.com/awnumar/memguard"

	"github.com/Hussein-Mazeh/passvault/internal/vault"
)

// session is the in-memory unlock state of one Service. The master password is
// kept sealed in a memguard enclave and only opened for the duration of a call.
type session struct {
	master *memguard.Enclave
}

func (s *session) unlocked() bool { return s.master != nil }

// unlock replaces the held password. The temporary copy is wiped by memguard.
func (s *session) unlock(password string) {
	buf := []byte(password)
	s.master = memguard.NewEnclave(buf)
}

func (s *session) lock() { s.master = nil }

// withMaster opens the enclave and hands the plaintext password to fn. The
// buffer is destroyed when fn returns.
func (s *session) withMaster(fn func(master []byte) error) error {
	if s.master == nil {
		return vault.LockedError()
	}
	buf, err := s.master.Open()
	if err != nil {
		return vault.CryptoError(err, "open session enclave")
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}
