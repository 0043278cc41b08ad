package service

import (
	"context"
	"strings"

	"github.com/Hussein-Mazeh/passvault/internal/vault"
)

// AddEntry encrypts password under the session master password and stores it
// with the given metadata. It returns the new entry id.
func (s *Service) AddEntry(ctx context.Context, e vault.NewEntry, password string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.unlocked() {
		return 0, vault.LockedError()
	}
	if strings.TrimSpace(e.Title) == "" {
		return 0, vault.ValidationError("title is required")
	}
	if password == "" {
		return 0, vault.ValidationError("password cannot be empty")
	}

	var sealed vault.Sealed
	err := s.session.withMaster(func(master []byte) error {
		var err error
		sealed, err = vault.Seal(master, password)
		return err
	})
	if err != nil {
		return 0, err
	}

	id, err := s.db.InsertEntry(ctx, e, sealed)
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "entry added", "id", id)
	return id, nil
}

// GetEntry returns the decrypted entry, or nil when id is unknown.
func (s *Service) GetEntry(ctx context.Context, id int64) (*vault.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.unlocked() {
		return nil, vault.LockedError()
	}
	return s.getEntry(ctx, id)
}

// getEntry expects s.mu held and the session unlocked.
func (s *Service) getEntry(ctx context.Context, id int64) (*vault.Entry, error) {
	row, err := s.db.GetEntry(ctx, id)
	if err != nil || row == nil {
		return nil, err
	}

	var plain string
	err = s.session.withMaster(func(master []byte) error {
		var err error
		plain, err = vault.Open(master, row.Sealed)
		return err
	})
	if err != nil {
		s.log.Warn(ctx, "entry decrypt failed", "id", id)
		return nil, err
	}

	return &vault.Entry{
		ID:           row.ID,
		Title:        row.Title,
		URL:          row.URL,
		Username:     row.Username,
		Password:     plain,
		Notes:        row.Notes,
		Category:     row.Category,
		CreatedAt:    row.CreatedAt,
		LastModified: row.LastModified,
		LastAccessed: row.LastAccessed,
	}, nil
}

// SearchEntries lists entries matching query (and category, when non-empty),
// most recently used first. Results never carry secrets.
func (s *Service) SearchEntries(ctx context.Context, query, category string) ([]vault.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.unlocked() {
		return nil, vault.LockedError()
	}
	return s.db.SearchEntries(ctx, query, category)
}

// DeleteEntry removes an entry, reporting whether it existed.
func (s *Service) DeleteEntry(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.unlocked() {
		return false, vault.LockedError()
	}
	ok, err := s.db.DeleteEntry(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		s.log.Info(ctx, "entry deleted", "id", id)
	}
	return ok, nil
}

// GeneratePassword draws a random password from the selected character classes.
// It does not need an unlocked session.
func (s *Service) GeneratePassword(opts vault.GeneratorOptions) (string, error) {
	return vault.GeneratePassword(opts)
}
