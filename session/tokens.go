package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenStore persists the bearer token under a single key. Saving "" clears
// it; loading from an empty store returns "" and no error.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
}

// tokenExpired reports whether token is a JWT whose exp claim is already in
// the past. Tokens that do not parse are treated as opaque and never expire
// locally.
func tokenExpired(token string, now time.Time) (bool, time.Time) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false, time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, time.Time{}
	}
	return !now.Before(exp.Time), exp.Time
}

// --------------------------------------------------------------------
// MemoryStore
// --------------------------------------------------------------------

// MemoryStore keeps the token in process memory only.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore returns a store seeded with token.
func NewMemoryStore(token string) *MemoryStore { return &MemoryStore{token: token} }

func (m *MemoryStore) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// --------------------------------------------------------------------
// FileStore
// --------------------------------------------------------------------

// FileStore keeps the token in a JSON file readable only by the owner.
type FileStore struct {
	path string
	mu   sync.Mutex
}

type fileRecord struct {
	Token string `json:"token"`
}

// NewFileStore returns a store backed by path. The file is created on the
// first Save.
func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

// DefaultFilePath returns <user config dir>/sourcefinder/session.json.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "sourcefinder", "session.json"), nil
}

// Path returns the backing file.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.path, err)
	}
	var rec fileRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return "", fmt.Errorf("decode %s: %w", f.path, err)
	}
	return rec.Token, nil
}

func (f *FileStore) Save(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if token == "" {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", f.path, err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	b, err := json.Marshal(fileRecord{Token: token})
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, f.path)
}
