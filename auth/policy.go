package auth

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/nbutton23/zxcvbn-go"

	"github.com/Hussein-Mazeh/passvault/internal/vault"
)

// MinMasterPasswordLength is the shortest master password accepted.
const MinMasterPasswordLength = 8

// StrongScore is the lowest zxcvbn score not reported as weak.
const StrongScore = 3

// ValidateOptions tunes ValidateMasterPasswordAdvanced.
type ValidateOptions struct {
	MinLength int
	// MinZXCVBNScore rejects passwords scoring below it; zero disables the check.
	MinZXCVBNScore int
	UserInputs     []string
	// Breaches, when set, rejects passwords found in a breach corpus.
	Breaches *BreachChecker
}

// DefaultValidateOptions returns the policy applied to master passwords.
func DefaultValidateOptions() ValidateOptions {
	return ValidateOptions{MinLength: MinMasterPasswordLength}
}

// ValidateMasterPassword applies the default master password policy.
func ValidateMasterPassword(pw string) error {
	return ValidateMasterPasswordAdvanced(context.Background(), pw, DefaultValidateOptions())
}

// ValidateMasterPasswordAdvanced applies the length rule, then the optional strength
// and breach checks. A breach lookup failure is returned as-is so the caller can
// decide whether to fail open.
func ValidateMasterPasswordAdvanced(ctx context.Context, pw string, opts ValidateOptions) error {
	minLen := opts.MinLength
	if minLen <= 0 {
		minLen = MinMasterPasswordLength
	}
	if utf8.RuneCountInString(pw) < minLen {
		return vault.ValidationError(fmt.Sprintf("master password must be at least %d characters long", minLen))
	}

	if opts.MinZXCVBNScore > 0 {
		if score := Strength(pw, opts.UserInputs); score < opts.MinZXCVBNScore {
			return vault.ValidationError(fmt.Sprintf("master password is too guessable (score %d of 4)", score))
		}
	}

	if opts.Breaches != nil {
		res, err := opts.Breaches.Check(ctx, pw)
		if err != nil {
			return err
		}
		if res.Found {
			return vault.ValidationError(fmt.Sprintf("master password appears in %d known breaches", res.Count))
		}
	}
	return nil
}

// Strength returns the zxcvbn score from 0 (trivial) to 4 (very strong).
func Strength(pw string, userInputs []string) int {
	if pw == "" {
		return 0
	}
	return zxcvbn.PasswordStrength(pw, userInputs).Score
}

// IsWeak reports whether pw scores below StrongScore. userInputs are words
// (titles, usernames) that make a password easier to guess.
func IsWeak(pw string, userInputs ...string) bool {
	return Strength(pw, userInputs) < StrongScore
}
