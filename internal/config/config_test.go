package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api", cfg.APIURL)
	assert.Equal(t, 60*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, StoreFile, cfg.TokenStore)
	assert.Equal(t, "session.json", filepath.Base(cfg.TokenPath))
	assert.False(t, cfg.KeepSessionOnNetworkError)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "s.db")
	t.Setenv("SOURCEFINDER_API_URL", "https://search.example.com/api/")
	t.Setenv("SOURCEFINDER_HTTP_TIMEOUT", "5s")
	t.Setenv("SOURCEFINDER_TOKEN_STORE", "SQLite")
	t.Setenv("SOURCEFINDER_TOKEN_PATH", dbPath)
	t.Setenv("SOURCEFINDER_KEEP_SESSION_ON_NETWORK_ERROR", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "https://search.example.com/api", cfg.APIURL)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, StoreSQLite, cfg.TokenStore)
	assert.Equal(t, dbPath, cfg.TokenPath)
	assert.True(t, cfg.KeepSessionOnNetworkError)
}

func TestLoad_DotEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SOURCEFINDER_TOKEN_STORE=memory\nSOURCEFINDER_LOG_LEVEL=debug\n"), 0o600))
	// godotenv does not override variables that are already set; make sure
	// these are unset for the duration of the test.
	t.Setenv("SOURCEFINDER_TOKEN_STORE", "")
	os.Unsetenv("SOURCEFINDER_TOKEN_STORE")
	t.Setenv("SOURCEFINDER_LOG_LEVEL", "")
	os.Unsetenv("SOURCEFINDER_LOG_LEVEL")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.TokenStore)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestResolveDefaults_Rejects(t *testing.T) {
	base := func() Config {
		return Config{APIURL: "http://x/api", HTTPTimeout: time.Second, HealthInterval: time.Second, TokenStore: StoreMemory}
	}

	c := base()
	c.TokenStore = "redis"
	assert.ErrorContains(t, c.ResolveDefaults(), "unsupported TOKEN_STORE")

	c = base()
	c.HTTPTimeout = 0
	assert.ErrorContains(t, c.ResolveDefaults(), "HTTP_TIMEOUT")

	c = base()
	c.APIURL = " "
	assert.Error(t, c.ResolveDefaults())
}
