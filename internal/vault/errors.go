package vault

import (
	"errors"
	"fmt"

	goerrors "github.com/agilira/go-errors"
)

// Error kinds. Every error returned by the vault packages wraps exactly one of these,
// so callers can tell them apart with errors.Is.
var (
	ErrValidation     = errors.New("vault: validation error")
	ErrLocked         = errors.New("vault: locked")
	ErrConfiguration  = errors.New("vault: not configured")
	ErrAuthentication = errors.New("vault: authentication failed")
	ErrStorage        = errors.New("vault: storage error")
	ErrCrypto         = errors.New("vault: crypto error")
	ErrNotFound       = errors.New("vault: not found")
)

// Error codes attached to the rich error.
const (
	CodeValidation     = "VAULT_VALIDATION"
	CodeLocked         = "VAULT_LOCKED"
	CodeConfiguration  = "VAULT_CONFIGURATION"
	CodeAuthentication = "VAULT_AUTHENTICATION"
	CodeStorage        = "VAULT_STORAGE"
	CodeLockTimeout    = "STORAGE_LOCK_TIMEOUT"
	CodeCrypto         = "VAULT_CRYPTO"
	CodeNotFound       = "VAULT_NOT_FOUND"
)

// ValidationError reports malformed caller input.
func ValidationError(msg string) error {
	return fmt.Errorf("%w: %w", ErrValidation, goerrors.New(CodeValidation, msg))
}

// LockedError reports a command issued while the session is locked.
func LockedError() error {
	return fmt.Errorf("%w: %w", ErrLocked, goerrors.New(CodeLocked, "unlock the vault first"))
}

// ConfigurationError reports a vault that is in the wrong lifecycle state.
func ConfigurationError(msg string) error {
	return fmt.Errorf("%w: %w", ErrConfiguration, goerrors.New(CodeConfiguration, msg))
}

// AuthenticationError never says why authentication failed.
func AuthenticationError() error {
	return fmt.Errorf("%w: %w", ErrAuthentication, goerrors.New(CodeAuthentication, "invalid master password"))
}

// StorageError wraps an I/O or database failure.
func StorageError(err error, msg string) error {
	return fmt.Errorf("%w: %w", ErrStorage, goerrors.Wrap(err, CodeStorage, msg))
}

// LockTimeoutError is a StorageError raised when the advisory lock could not be taken in time.
func LockTimeoutError(err error, path string) error {
	return fmt.Errorf("%w: %w", ErrStorage, goerrors.Wrap(err, CodeLockTimeout, "acquire lock "+path))
}

// CryptoError wraps a decryption or encryption failure.
func CryptoError(err error, msg string) error {
	return fmt.Errorf("%w: %w", ErrCrypto, goerrors.Wrap(err, CodeCrypto, msg))
}

// NotFoundError is used internally when a row is missing.
func NotFoundError(msg string) error {
	return fmt.Errorf("%w: %w", ErrNotFound, goerrors.New(CodeNotFound, msg))
}

// KindOf names the error kind, or "" when err carries none.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrLocked):
		return "locked"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrAuthentication):
		return "authentication"
	case errors.Is(err, ErrStorage):
		return "storage"
	case errors.Is(err, ErrCrypto):
		return "crypto"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	}
	return ""
}
