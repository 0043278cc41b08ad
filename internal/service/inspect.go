package service

import (
	"context"
	"encoding/base64"

	"github.com/Hussein-Mazeh/passvault/internal/vault"
)

// SealedInfo describes how an entry is stored without decrypting it. Sizes are
// decoded byte lengths; -1 marks a field that is not valid base64.
type SealedInfo struct {
	vault.Summary
	SaltLen       int
	IVLen         int
	CiphertextLen int
}

// Inspect lists storage metadata for every entry. It works on a locked vault
// because nothing is decrypted, and it does not touch last_accessed.
func (s *Service) Inspect(ctx context.Context) ([]SealedInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.ListSealed(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SealedInfo, 0, len(rows))
	for _, r := range rows {
		out = append(out, SealedInfo{
			Summary:       r.Summary,
			SaltLen:       decodedLen(r.Sealed.Salt),
			IVLen:         decodedLen(r.Sealed.IV),
			CiphertextLen: decodedLen(r.Sealed.Ciphertext),
		})
	}
	return out, nil
}

func decodedLen(s string) int {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return -1
	}
	return len(b)
}
