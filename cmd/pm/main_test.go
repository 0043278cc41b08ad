package main

import (
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPM compiles the pm binary into a temporary directory.
func buildPM(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("builds the binary")
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go toolchain not on PATH")
	}
	bin := filepath.Join(t.TempDir(), "pm")
	if runtime.GOOS == "windows" {
		bin += ".exe"
	}
	out, err := exec.Command(goBin, "build", "-o", bin, ".").CombinedOutput()
	require.NoError(t, err, string(out))
	return bin
}

func TestBinaryRunsOutsideSourceTree(t *testing.T) {
	bin := buildPM(t)
	work := t.TempDir()

	cmd := exec.Command(bin, "version")
	cmd.Dir = work
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	assert.Equal(t, cliVersion, strings.TrimSpace(string(out)))

	cmd = exec.Command(bin, "generate", "-length", "20", "-no-symbols")
	cmd.Dir = work
	out, err = cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	assert.Len(t, strings.TrimSpace(string(out)), 20)

	cmd = exec.Command(bin, "inspect", "-dir", filepath.Join(work, "vault"))
	cmd.Dir = work
	out, err = cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	assert.Contains(t, string(out), "CIPHERTEXT")
}
