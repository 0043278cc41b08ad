package vault

import (
	"encoding/base64"
	"fmt"

	"github.com/Hussein-Mazeh/passvault/krypto"
)

// Seal encrypts plaintext under a key derived from master and a fresh salt. Salt and
// IV are generated per call and never reused.
func Seal(master []byte, plaintext string) (Sealed, error) {
	if len(master) == 0 {
		return Sealed{}, ValidationError("master password is required")
	}

	salt, err := krypto.NewRandomSalt()
	if err != nil {
		return Sealed{}, CryptoError(err, "generate entry salt")
	}

	key, err := krypto.DeriveKey(master, salt)
	if err != nil {
		return Sealed{}, CryptoError(err, "derive entry key")
	}
	defer krypto.Zeroize(key)

	iv, ciphertext, err := krypto.EncryptAESCBC(key, []byte(plaintext))
	if err != nil {
		return Sealed{}, CryptoError(err, "encrypt entry password")
	}

	return Sealed{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		Salt:       base64.StdEncoding.EncodeToString(salt),
		IV:         base64.StdEncoding.EncodeToString(iv),
	}, nil
}

// Open re-derives the entry key from master and the stored salt and decrypts.
func Open(master []byte, s Sealed) (string, error) {
	if len(master) == 0 {
		return "", ValidationError("master password is required")
	}

	ciphertext, salt, iv, err := decodeSealed(s)
	if err != nil {
		return "", err
	}

	key, err := krypto.DeriveKey(master, salt)
	if err != nil {
		return "", CryptoError(err, "derive entry key")
	}
	defer krypto.Zeroize(key)

	plain, err := krypto.DecryptAESCBC(key, iv, ciphertext)
	if err != nil {
		return "", CryptoError(err, "decrypt entry password")
	}
	return plain, nil
}

// Reseal opens s under oldMaster and seals the plaintext under newMaster with a new
// salt and IV.
func Reseal(oldMaster, newMaster []byte, s Sealed) (Sealed, error) {
	plain, err := Open(oldMaster, s)
	if err != nil {
		return Sealed{}, err
	}
	return Seal(newMaster, plain)
}

func decodeSealed(s Sealed) (ciphertext, salt, iv []byte, err error) {
	if ciphertext, err = base64.StdEncoding.DecodeString(s.Ciphertext); err != nil {
		return nil, nil, nil, CryptoError(err, "decode ciphertext")
	}
	if salt, err = base64.StdEncoding.DecodeString(s.Salt); err != nil {
		return nil, nil, nil, CryptoError(err, "decode salt")
	}
	if iv, err = base64.StdEncoding.DecodeString(s.IV); err != nil {
		return nil, nil, nil, CryptoError(err, "decode iv")
	}
	if len(salt) != krypto.SaltLengthBytes {
		return nil, nil, nil, CryptoError(fmt.Errorf("salt is %d bytes", len(salt)), "invalid entry salt")
	}
	return ciphertext, salt, iv, nil
}
