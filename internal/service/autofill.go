package service

import (
	"context"

	"github.com/Hussein-Mazeh/passvault/internal/sitecheck"
	"github.com/Hussein-Mazeh/passvault/internal/vault"
)

// CredentialsForURL returns the most recently used entry stored for the same
// registrable domain as rawURL, decrypted. It returns nil when nothing matches.
func (s *Service) CredentialsForURL(ctx context.Context, rawURL string) (*vault.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.unlocked() {
		return nil, vault.LockedError()
	}

	host := sitecheck.Host(rawURL)
	if host == "" {
		return nil, vault.ValidationError("url has no host")
	}

	// Stored URLs may hold either the Unicode or the punycode form of a host, so
	// the text search cannot narrow by site; SameSite compares the ASCII forms.
	list, err := s.db.SearchEntries(ctx, "", "")
	if err != nil {
		return nil, err
	}
	for _, sum := range list {
		if !sitecheck.SameSite(sum.URL, host) {
			continue
		}
		e, err := s.getEntry(ctx, sum.ID)
		if err != nil {
			return nil, err
		}
		if e != nil {
			return e, nil
		}
	}
	return nil, nil
}
