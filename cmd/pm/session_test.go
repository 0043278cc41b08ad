package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hussein-Mazeh/passvault/internal/service"
	"github.com/Hussein-Mazeh/passvault/internal/vault"
)

const testMaster = "Sup3rSecret!"

// scripted answers prompts in order.
func scripted(answers ...string) promptFunc {
	return func(string) ([]byte, error) {
		if len(answers) == 0 {
			return nil, errors.New("no more answers")
		}
		a := answers[0]
		answers = answers[1:]
		return []byte(a), nil
	}
}

func newTestRepl(t *testing.T, prompt promptFunc) (*repl, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	ctx := context.Background()
	svc, err := service.New(ctx, t.TempDir(), service.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	require.NoError(t, svc.SetupMasterPassword(ctx, testMaster))

	var out, errOut bytes.Buffer
	return &repl{svc: svc, out: &out, errOut: &errOut, prompt: prompt, genLength: 16}, &out, &errOut
}

func TestReplAddGetSearch(t *testing.T) {
	r, out, errOut := newTestRepl(t, scripted("Tr0ub4dor&3", "Tr0ub4dor&3"))

	script := strings.Join([]string{
		"add -title GitHub -url github.com -user octo",
		"get 1",
		"search git",
		"get 9",
		"exit",
	}, "\n")
	require.NoError(t, r.run(context.Background(), strings.NewReader(script)))

	assert.Contains(t, out.String(), "stored GitHub (id=1)")
	assert.Contains(t, out.String(), "password: Tr0ub4dor&3")
	assert.Contains(t, out.String(), "octo")
	assert.Equal(t, 1, strings.Count(out.String(), "Tr0ub4dor&3"))
	assert.Contains(t, errOut.String(), "no entry with id 9")
	assert.False(t, r.svc.IsUnlocked())
}

func TestReplLockUnlock(t *testing.T) {
	r, out, errOut := newTestRepl(t, scripted("wrong-password", testMaster))

	script := "lock\nsearch\nunlock\nunlock\nsearch\n"
	require.NoError(t, r.run(context.Background(), strings.NewReader(script)))

	assert.Contains(t, out.String(), "vault locked")
	assert.Contains(t, errOut.String(), "vault is locked")
	assert.Contains(t, errOut.String(), "failed to unlock vault")
	assert.Contains(t, out.String(), "vault unlocked")
	assert.Contains(t, out.String(), "no entries")
}

func TestReplAddMismatch(t *testing.T) {
	r, _, errOut := newTestRepl(t, scripted("one", "two"))

	require.NoError(t, r.run(context.Background(), strings.NewReader("add -title x\n")))
	assert.Contains(t, errOut.String(), "passwords do not match")
}

func TestReplGenerateAndDelete(t *testing.T) {
	r, out, errOut := newTestRepl(t, scripted())

	script := "gen 12 -no-symbols\nadd -title Gen -gen\ndelete 1\ndelete 1\nbogus\n"
	require.NoError(t, r.run(context.Background(), strings.NewReader(script)))

	lines := strings.Split(out.String(), "\n")
	generated := strings.TrimPrefix(lines[0], "pm> ")
	assert.Len(t, generated, 12)
	assert.False(t, strings.ContainsAny(generated, vault.Symbols))

	assert.Contains(t, out.String(), "stored Gen (id=1)")
	assert.Contains(t, out.String(), "generated password: ")
	assert.Contains(t, out.String(), "deleted 1")
	assert.Contains(t, errOut.String(), "no entry with id 1")
	assert.Contains(t, errOut.String(), "unknown command: bogus")
}

func TestReplRotate(t *testing.T) {
	r, out, _ := newTestRepl(t, scripted("secret-1", "secret-1", testMaster, "N3w-master-pass", "N3w-master-pass"))

	require.NoError(t, r.run(context.Background(), strings.NewReader("add -title a\nrotate\n")))
	assert.Contains(t, out.String(), "1 entries re-encrypted")

	r.svc.Lock()
	require.NoError(t, r.svc.Unlock(context.Background(), "N3w-master-pass"))
}

func TestReplLookup(t *testing.T) {
	r, out, errOut := newTestRepl(t, scripted("g-pass", "g-pass"))

	script := "add -title Google -url https://accounts.google.com\nlookup http://mail.google.com\nlookup example.org\n"
	require.NoError(t, r.run(context.Background(), strings.NewReader(script)))

	assert.Contains(t, out.String(), "password: g-pass")
	assert.Contains(t, errOut.String(), "warning: HTTP")
	assert.Contains(t, errOut.String(), "no credentials for example.org")
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		code int
		want string
	}{
		{userError{msg: "bad"}, 1, "bad"},
		{vault.AuthenticationError(), 1, "failed to unlock vault"},
		{vault.LockedError(), 1, "vault is locked"},
		{vault.CryptoError(errors.New("pad"), "decrypt"), 2, "could not decrypt"},
		{errors.New("boom"), 2, "unexpected error"},
	}
	for _, tt := range tests {
		msg, code := describeError(tt.err)
		assert.Equal(t, tt.code, code)
		assert.Contains(t, msg, tt.want)
	}
}
