package main

import (
	"bytes"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/term"
)

// promptFunc reads one secret without echo.
type promptFunc func(prompt string) ([]byte, error)

func promptPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// promptConfirmed asks twice and fails when the answers differ.
func promptConfirmed(prompt promptFunc, first, second string) ([]byte, error) {
	pw, err := prompt(first)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	confirm, err := prompt(second)
	if err != nil {
		zeroBytes(pw)
		return nil, fmt.Errorf("read confirmation: %w", err)
	}
	defer zeroBytes(confirm)

	if !bytes.Equal(pw, confirm) {
		zeroBytes(pw)
		return nil, userError{msg: "passwords do not match"}
	}
	return pw, nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
