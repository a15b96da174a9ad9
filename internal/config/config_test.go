package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
db_path: /tmp/keepsake-test.db
remote_url: https://authority.example
export_secret: file-secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/keepsake-test.db", cfg.DBPath)
	assert.Equal(t, "https://authority.example", cfg.RemoteURL)
	assert.Equal(t, "file-secret", cfg.ExportSecret)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
remote_url: https://from-file.example
export_secret: file-secret
`)
	t.Setenv(EnvRemoteURL, "https://from-env.example")
	t.Setenv(EnvExportSecret, "env-secret")
	t.Setenv(EnvDBPath, "/tmp/env.db")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://from-env.example", cfg.RemoteURL)
	assert.Equal(t, "env-secret", cfg.ExportSecret)
	assert.Equal(t, "/tmp/env.db", cfg.DBPath)
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.DBPath, "default db path is filled in")
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, `remoteurl: https://typo.example`)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_DefaultDBPathUnderConfigDir(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	base, err := os.UserConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "keepsake", "keepsake.db"), cfg.DBPath)
}
