package krypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"unicode/utf8"
)

// IVSize is the CBC initialization vector length.
const IVSize = aes.BlockSize

var (
	// ErrInvalidKeySize is returned for keys that are not 32 bytes.
	ErrInvalidKeySize = errors.New("krypto: aes-256 requires a 32-byte key")
	// ErrInvalidIV is returned when the IV is not one block long.
	ErrInvalidIV = errors.New("krypto: invalid iv")
	// ErrCiphertextLength is returned when ciphertext is empty or not block aligned.
	ErrCiphertextLength = errors.New("krypto: ciphertext is not a multiple of the block size")
	// ErrInvalidPadding is returned when PKCS#7 unpadding fails, typically a wrong key.
	ErrInvalidPadding = errors.New("krypto: invalid padding")
	// ErrInvalidText is returned when decrypted bytes are not valid UTF-8.
	ErrInvalidText = errors.New("krypto: plaintext is not valid utf-8")
)

// EncryptAESCBC pads plaintext with PKCS#7 and encrypts it with AES-256-CBC under a
// fresh random IV. The ciphertext carries no authentication tag.
func EncryptAESCBC(key, plaintext []byte) (iv, ciphertext []byte, err error) {
	if len(key) != KeyLengthBytes {
		return nil, nil, ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("create cipher: %w", err)
	}

	iv, err = randomBytes(IVSize)
	if err != nil {
		return nil, nil, fmt.Errorf("generate iv: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	defer Zeroize(padded)

	ciphertext = make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return iv, ciphertext, nil
}

// DecryptAESCBC reverses EncryptAESCBC and returns the plaintext as text.
func DecryptAESCBC(key, iv, ciphertext []byte) (string, error) {
	if len(key) != KeyLengthBytes {
		return "", ErrInvalidKeySize
	}
	if len(iv) != IVSize {
		return "", fmt.Errorf("%w: must be %d bytes, got %d", ErrInvalidIV, IVSize, len(iv))
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", ErrCiphertextLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}

	padded := make([]byte, len(ciphertext))
	defer Zeroize(padded)
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	plain, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plain) {
		return "", ErrInvalidText
	}
	return string(plain), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data), len(data)+n)
	copy(out, data)
	return append(out, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrInvalidPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, ErrInvalidPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrInvalidPadding
		}
	}
	return data[:len(data)-n], nil
}
