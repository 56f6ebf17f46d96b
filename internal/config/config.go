// Package config loads sourcefinder settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Token store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds the CLI and stub server configuration.
// Environment variables are parsed with the SOURCEFINDER_ prefix.
type Config struct {
	// API root, including the /api prefix
	APIURL      string        `envconfig:"API_URL" default:"http://localhost:8000/api"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"60s"`

	// Session persistence
	TokenStore string `envconfig:"TOKEN_STORE" default:"file"`
	TokenPath  string `envconfig:"TOKEN_PATH" default:""`

	KeepSessionOnNetworkError bool `envconfig:"KEEP_SESSION_ON_NETWORK_ERROR" default:"false"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`

	HealthInterval time.Duration `envconfig:"HEALTH_INTERVAL" default:"10s"`

	// Stub server
	StubAddr   string `envconfig:"STUB_ADDR" default:":8000"`
	StubSecret string `envconfig:"STUB_SECRET" default:"dev-secret"`
}

// Load reads .env files (missing ones are skipped; default ".env"), then
// the SOURCEFINDER_ environment, and resolves defaults.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("SOURCEFINDER", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("api_url", cfg.APIURL).
		Dur("http_timeout", cfg.HTTPTimeout).
		Str("token_store", cfg.TokenStore).
		Str("token_path", cfg.TokenPath).
		Bool("keep_session_on_network_error", cfg.KeepSessionOnNetworkError).
		Msg("Configuration loaded")

	return &cfg, nil
}

// ResolveDefaults validates the config and derives TokenPath when empty.
func (c *Config) ResolveDefaults() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		return fmt.Errorf("API_URL cannot be empty")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be > 0, got %s", c.HTTPTimeout)
	}
	if c.HealthInterval <= 0 {
		return fmt.Errorf("HEALTH_INTERVAL must be > 0, got %s", c.HealthInterval)
	}

	c.TokenStore = strings.ToLower(strings.TrimSpace(c.TokenStore))
	var file string
	switch c.TokenStore {
	case StoreFile:
		file = "session.json"
	case StoreSQLite:
		file = "session.db"
	case StoreMemory:
		return nil
	default:
		return fmt.Errorf("unsupported TOKEN_STORE: %s", c.TokenStore)
	}
	if c.TokenPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("resolve config dir: %w", err)
		}
		c.TokenPath = filepath.Join(dir, "sourcefinder", file)
	}
	return nil
}
