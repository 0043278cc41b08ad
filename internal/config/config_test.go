package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultDirName, filepath.Base(cfg.VaultDir))
	assert.Equal(t, 10*time.Second, cfg.LockTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 90*24*time.Hour, cfg.AuditMaxAge)
	assert.False(t, cfg.BreachCheck)
	assert.Equal(t, 16, cfg.GeneratorLength)
	assert.Equal(t, filepath.Join(cfg.VaultDir, "vault.db"), cfg.Paths().DatabasePath())
}

func TestLoadLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pm.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"vault_dir": "/from/json",
		"lock_timeout": "2s",
		"log_format": "json",
		"audit_max_age": 3600000000000,
		"generator_length": 24
	}`), 0o600))

	cfg, err := Load([]string{"session", "-c", path, "-lock-timeout", "500ms", "--breach-check", "extra"})
	require.NoError(t, err)

	assert.Equal(t, "/from/json", cfg.VaultDir)
	assert.Equal(t, 500*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Hour, cfg.AuditMaxAge)
	assert.Equal(t, 24, cfg.GeneratorLength)
	assert.True(t, cfg.BreachCheck)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load([]string{"-config", filepath.Join(t.TempDir(), "missing.json")})
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"lock_timeout": "soon"}`), 0o600))
	_, err = Load([]string{"-config=" + bad})
	assert.Error(t, err)

	_, err = Load([]string{"-length", "many"})
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	in := &Config{}
	in.LoadDefaults()
	in.VaultDir = "/tmp/v"
	in.BreachCheck = true

	require.NoError(t, Save(path, in))
	out, err := Load([]string{"-c", path})
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFilterArgs(t *testing.T) {
	got := FilterArgs(
		[]string{"add", "-dir", "/v", "-x", "1", "--length=20", "-breach-check", "tail"},
		knownFlags,
	)
	assert.Equal(t, []string{"-dir", "/v", "--length=20", "-breach-check"}, got)
}

func TestClampLength(t *testing.T) {
	assert.Equal(t, 8, ClampLength(1))
	assert.Equal(t, 16, ClampLength(16))
	assert.Equal(t, 128, ClampLength(1000))
}
