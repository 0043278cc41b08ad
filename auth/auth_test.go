package auth_test

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hussein-Mazeh/passvault/auth"
	"github.com/Hussein-Mazeh/passvault/internal/vault"
)

func TestValidateMasterPassword(t *testing.T) {
	tests := []struct {
		name    string
		pw      string
		wantErr bool
	}{
		{"empty", "", true},
		{"seven", "abcdefg", true},
		{"eight", "abcdefgh", false},
		{"multibyte counts runes", "ééééééé", true},
		{"long", "correct horse battery staple", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateMasterPassword(tt.pw)
			if tt.wantErr {
				assert.ErrorIs(t, err, vault.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestStrength(t *testing.T) {
	assert.Equal(t, 0, auth.Strength("", nil))
	assert.True(t, auth.IsWeak("password"))
	assert.False(t, auth.IsWeak("vQ7#pL2!zR9@wK4$"))

	opts := auth.DefaultValidateOptions()
	opts.MinZXCVBNScore = auth.StrongScore
	err := auth.ValidateMasterPasswordAdvanced(context.Background(), "password123", opts)
	assert.ErrorIs(t, err, vault.ErrValidation)
}

func hibpServer(t *testing.T, pw string, count int) *httptest.Server {
	t.Helper()
	sum := sha1.Sum([]byte(pw))
	full := strings.ToUpper(hex.EncodeToString(sum[:]))

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/range/"+full[:5] {
			return
		}
		fmt.Fprintln(w, "0000000000000000000000000000000000A:3")
		fmt.Fprintf(w, "%s:%d\n", strings.ToLower(full[5:]), count)
	}))
}

func TestBreachChecker(t *testing.T) {
	srv := hibpServer(t, "hunter22", 42)
	defer srv.Close()

	c := auth.NewBreachChecker(srv.URL+"/range", srv.Client())
	res, err := c.Check(context.Background(), "hunter22")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, 42, res.Count)

	res, err = c.Check(context.Background(), "something else entirely")
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestBreachCheckerPaddingRow(t *testing.T) {
	srv := hibpServer(t, "hunter22", 0)
	defer srv.Close()

	res, err := auth.NewBreachChecker(srv.URL+"/range/", srv.Client()).Check(context.Background(), "hunter22")
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestBreachCheckerStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := auth.NewBreachChecker(srv.URL, srv.Client()).Check(context.Background(), "x")
	assert.Error(t, err)
}

func TestValidateRejectsBreached(t *testing.T) {
	srv := hibpServer(t, "hunter2hunter2", 7)
	defer srv.Close()

	opts := auth.DefaultValidateOptions()
	opts.Breaches = auth.NewBreachChecker(srv.URL+"/range", srv.Client())
	err := auth.ValidateMasterPasswordAdvanced(context.Background(), "hunter2hunter2", opts)
	assert.ErrorIs(t, err, vault.ErrValidation)
}
