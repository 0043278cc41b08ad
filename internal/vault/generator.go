package vault

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Character classes available to GeneratePassword.
const (
	Uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Lowercase = "abcdefghijklmnopqrstuvwxyz"
	Digits    = "0123456789"
	Symbols   = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
)

// GeneratorOptions selects the length and character classes of a generated password.
type GeneratorOptions struct {
	Length       int
	UseUppercase bool
	UseLowercase bool
	UseDigits    bool
	UseSymbols   bool
}

// DefaultGeneratorOptions is 16 characters from every class.
func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{Length: 16, UseUppercase: true, UseLowercase: true, UseDigits: true, UseSymbols: true}
}

// GeneratePassword draws each character independently and uniformly from the union of
// the selected classes using crypto/rand. No upper bound is applied to Length.
func GeneratePassword(opts GeneratorOptions) (string, error) {
	if opts.Length < 1 {
		return "", ValidationError("length must be at least 1")
	}

	var alphabet strings.Builder
	if opts.UseUppercase {
		alphabet.WriteString(Uppercase)
	}
	if opts.UseLowercase {
		alphabet.WriteString(Lowercase)
	}
	if opts.UseDigits {
		alphabet.WriteString(Digits)
	}
	if opts.UseSymbols {
		alphabet.WriteString(Symbols)
	}
	chars := alphabet.String()
	if chars == "" {
		return "", ValidationError("select at least one character class")
	}

	max := big.NewInt(int64(len(chars)))
	out := make([]byte, opts.Length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", CryptoError(err, "read random")
		}
		out[i] = chars[n.Int64()]
	}
	return string(out), nil
}
