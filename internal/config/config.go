// Package config loads runtime settings for the pm CLI.
//
// Values are resolved in three layers, later ones winning: built-in defaults,
// an optional JSON file named by -c/-config, then command-line flags.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/Hussein-Mazeh/passvault/store"
)

// DefaultDirName is the vault directory created under the user's home.
const DefaultDirName = ".password_manager"

// Generator length bounds enforced by the CLI.
const (
	MinGeneratorLength = 8
	MaxGeneratorLength = 128
)

// Config holds runtime settings.
//
// Units: LockTimeout and AuditMaxAge are time.Duration.
type Config struct {
	VaultDir        string
	LockTimeout     time.Duration
	LogLevel        string
	LogFormat       string
	AuditMaxAge     time.Duration
	BreachCheck     bool
	BreachAPIURL    string
	GeneratorLength int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.VaultDir = defaultVaultDir()
	c.LockTimeout = 10 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.AuditMaxAge = 90 * 24 * time.Hour
	c.BreachCheck = false
	c.BreachAPIURL = ""
	c.GeneratorLength = 16
}

// Paths returns the on-disk layout for the configured vault directory.
func (c *Config) Paths() store.Paths {
	return store.Paths{Dir: c.VaultDir}
}

// ClampedGeneratorLength returns GeneratorLength forced into the CLI bounds.
func (c *Config) ClampedGeneratorLength() int {
	return ClampLength(c.GeneratorLength)
}

// ClampLength forces n into [MinGeneratorLength, MaxGeneratorLength].
func ClampLength(n int) int {
	return min(max(n, MinGeneratorLength), MaxGeneratorLength)
}

// Load constructs a Config from defaults, the JSON file named in args (if any),
// and the flags in args. args excludes the program name.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJSON(cfg, jsonConfigPath(args)); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultVaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return DefaultDirName
	}
	return filepath.Join(home, DefaultDirName)
}
