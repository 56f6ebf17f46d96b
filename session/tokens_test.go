package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	fs := NewFileStore(path)

	tok, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, fs.Save(ctx, "abc"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err = NewFileStore(path).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, fs.Save(ctx, ""))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, fs.Save(ctx, ""), "clearing twice is fine")
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := NewFileStore(path).Load(context.Background())
	assert.Error(t, err)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")
	s, err := OpenSQLiteStore(ctx, path)
	require.NoError(t, err)

	tok, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, s.Save(ctx, "first"))
	require.NoError(t, s.Save(ctx, "second"))
	require.NoError(t, s.Close())

	s, err = OpenSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	tok, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", tok)

	require.NoError(t, s.Save(ctx, ""))
	tok, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	expired, _ := tokenExpired("opaque-token", now)
	assert.False(t, expired, "opaque tokens are left to the server")

	expired, exp := tokenExpired(signedToken(t, now.Add(-time.Second)), now)
	assert.True(t, expired)
	assert.Equal(t, now.Add(-time.Second).Unix(), exp.Unix())

	expired, _ = tokenExpired(signedToken(t, now.Add(time.Hour)), now)
	assert.False(t, expired)
}
