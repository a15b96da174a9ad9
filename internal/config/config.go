// Package config loads keepsake's configuration from an optional YAML file
// and the environment. Environment variables win over the file.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables recognized on top of the config file.
const (
	EnvRemoteURL    = "KEEPSAKE_REMOTE_URL"
	EnvExportSecret = "KEEPSAKE_EXPORT_SECRET"
	EnvDBPath       = "KEEPSAKE_DB_PATH"
)

// Config is the resolved runtime configuration.
//
// ExportSecret is deliberately injected here rather than compiled in: an
// application-wide constant would reduce encrypted export to obfuscation.
type Config struct {
	DBPath       string `yaml:"db_path"`
	RemoteURL    string `yaml:"remote_url"`
	ExportSecret string `yaml:"export_secret"`
}

// Load reads the config file at path (optional - a missing file is not an
// error), applies environment overrides, then fills defaults.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			// Strict field validation catches typos like "remoteurl:".
			dec := yaml.NewDecoder(bytes.NewReader(data))
			dec.KnownFields(true)
			if err := dec.Decode(&cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Fine: run on env and defaults.
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if v := os.Getenv(EnvRemoteURL); v != "" {
		cfg.RemoteURL = v
	}
	if v := os.Getenv(EnvExportSecret); v != "" {
		cfg.ExportSecret = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}

	if cfg.DBPath == "" {
		dir, err := defaultDataDir()
		if err != nil {
			return Config{}, err
		}
		cfg.DBPath = filepath.Join(dir, "keepsake.db")
	}
	return cfg, nil
}

// DefaultPath returns the conventional config file location. The file does
// not have to exist.
func DefaultPath() (string, error) {
	dir, err := defaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func defaultDataDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "keepsake"), nil
}
