package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcefinder/sourcefinder/client"
)

// The API serializes naive UTC datetimes; resolving such an identity must
// keep the session.
func TestResolveIdentityWithNaiveTimestamps(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok1" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u1","email":"a@b.com","role":"user","is_active":true,"created_at":"2025-01-02T10:11:12.345678"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	tokens := NewMemoryStore("")
	s := newStore(t, c, tokens)
	require.NoError(t, s.SetToken(context.Background(), "tok1"))

	snap := await(t, s)
	require.NoError(t, snap.Err)
	assert.Equal(t, "tok1", snap.Token)
	require.NotNil(t, snap.Identity)
	assert.Equal(t, "a@b.com", snap.Identity.Email)
	assert.Equal(t, 2025, snap.Identity.CreatedAt.Year())

	persisted, err := tokens.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok1", persisted)
}
