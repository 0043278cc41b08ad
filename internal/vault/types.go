package vault

import "time"

// DefaultCategory is assigned to entries stored without a category.
const DefaultCategory = "general"

// MasterCredential is the single authentication record of a vault.
type MasterCredential struct {
	PasswordHash string
	CreatedAt    time.Time
	LastModified time.Time
}

// Sealed is an encrypted secret in its persisted, text-encoded form.
type Sealed struct {
	Ciphertext string
	Salt       string
	IV         string
}

// NewEntry is the non-secret data supplied when storing an entry.
type NewEntry struct {
	Title    string
	URL      string
	Username string
	Notes    string
	Category string
}

// Summary is a search result. It has no field able to hold a secret.
type Summary struct {
	ID           int64
	Title        string
	URL          string
	Username     string
	Category     string
	CreatedAt    time.Time
	LastModified time.Time
	LastAccessed time.Time // zero when never read
}

// Entry is a fully decrypted credential.
type Entry struct {
	ID           int64
	Title        string
	URL          string
	Username     string
	Password     string
	Notes        string
	Category     string
	CreatedAt    time.Time
	LastModified time.Time
	LastAccessed time.Time
}
