package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Hussein-Mazeh/passvault/store"
)

// Duration accepts "10s" style strings or integer nanoseconds in JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		*d = Duration(time.Duration(val))
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// JSONConfig is the file representation of Config. Pointer fields distinguish
// "absent" from zero values so absent keys keep their defaults.
type JSONConfig struct {
	VaultDir        *string   `json:"vault_dir,omitempty"`
	LockTimeout     *Duration `json:"lock_timeout,omitempty"`
	LogLevel        *string   `json:"log_level,omitempty"`
	LogFormat       *string   `json:"log_format,omitempty"`
	AuditMaxAge     *Duration `json:"audit_max_age,omitempty"`
	BreachCheck     *bool     `json:"breach_check,omitempty"`
	BreachAPIURL    *string   `json:"breach_api_url,omitempty"`
	GeneratorLength *int      `json:"generator_length,omitempty"`
}

// parseJSON overlays cfg with values from the file at path. An empty path is a no-op.
func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.VaultDir != nil {
		cfg.VaultDir = *jc.VaultDir
	}
	if jc.LockTimeout != nil {
		cfg.LockTimeout = time.Duration(*jc.LockTimeout)
	}
	if jc.LogLevel != nil {
		cfg.LogLevel = *jc.LogLevel
	}
	if jc.LogFormat != nil {
		cfg.LogFormat = *jc.LogFormat
	}
	if jc.AuditMaxAge != nil {
		cfg.AuditMaxAge = time.Duration(*jc.AuditMaxAge)
	}
	if jc.BreachCheck != nil {
		cfg.BreachCheck = *jc.BreachCheck
	}
	if jc.BreachAPIURL != nil {
		cfg.BreachAPIURL = *jc.BreachAPIURL
	}
	if jc.GeneratorLength != nil {
		cfg.GeneratorLength = *jc.GeneratorLength
	}
	return nil
}

// Save writes cfg as JSON to path with owner-only permissions.
func Save(path string, cfg *Config) error {
	lock := Duration(cfg.LockTimeout)
	age := Duration(cfg.AuditMaxAge)
	jc := JSONConfig{
		VaultDir:        &cfg.VaultDir,
		LockTimeout:     &lock,
		LogLevel:        &cfg.LogLevel,
		LogFormat:       &cfg.LogFormat,
		AuditMaxAge:     &age,
		BreachCheck:     &cfg.BreachCheck,
		BreachAPIURL:    &cfg.BreachAPIURL,
		GeneratorLength: &cfg.GeneratorLength,
	}
	data, err := json.MarshalIndent(jc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return store.WriteFileAtomic(path, append(data, '\n'))
}
