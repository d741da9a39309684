package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 10*1024*1024, cfg.MaxDocumentSize)
	assert.Equal(t, 64, cfg.SessionMailboxSize)
	assert.Equal(t, "", cfg.SQLiteDSN)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromTOMLFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.toml"
	require.NoError(t, os.WriteFile(path, []byte(`
addr = ":9090"
log_level = "debug"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestEnvOverridesFileAndDefaults(t *testing.T) {
	t.Setenv("TEXTSYNC_ADDR", ":7070")
	t.Setenv("TEXTSYNC_IDLE_EXPIRY", "1m")

	path := t.TempDir() + "/config.toml"
	require.NoError(t, os.WriteFile(path, []byte(`
addr = ":9090"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, time.Minute, cfg.IdleExpiry)
}

func TestMissingConfigFileIsNotAnError(t *testing.T) {
	_, err := Load("/nonexistent/path/config.toml")
	require.NoError(t, err)
}
