package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/sourcefinder/sourcefinder/client/internal/errors"
	"github.com/sourcefinder/sourcefinder/client/internal/types"
)

func TestUsers_ListCreateUpdate(t *testing.T) {
	t.Parallel()
	var patched map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/users", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":"u2","email":"b@b.com","role":"admin","is_active":true,"created_at":"2025-01-02T00:00:00Z"}]`))
		case http.MethodPost:
			var req types.CreateUserRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "user", req.Role)
			_ = json.NewEncoder(w).Encode(types.UserRecord{ID: "u3", Email: req.Email, Role: req.Role, IsActive: true})
		}
	})
	mux.HandleFunc("/admin/users/u3", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&patched))
		_, _ = w.Write([]byte(`{"id":"u3","email":"c@b.com","role":"user","is_active":false}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	users, err := ListUsers(context.Background(), srv.Client(), srv.URL, "tok")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, 2025, users[0].CreatedAt.Year())

	u, err := CreateUser(context.Background(), srv.Client(), srv.URL, "tok", types.CreateUserRequest{Email: "c@b.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "u3", u.ID)

	inactive := false
	u, err = UpdateUser(context.Background(), srv.Client(), srv.URL, "tok", "u3", types.UpdateUserRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	assert.Equal(t, map[string]any{"is_active": false}, patched)
}

func TestUsers_Validation(t *testing.T) {
	t.Parallel()
	hc := &http.Client{Transport: &errRT{}}
	_, err := CreateUser(context.Background(), hc, "http://x", "tok", types.CreateUserRequest{Email: "c@b.com", Password: "pw", Role: "root"})
	assert.True(t, errors.Is(err, apierrors.ErrValidation))

	bad := "owner"
	_, err = UpdateUser(context.Background(), hc, "http://x", "tok", "u1", types.UpdateUserRequest{Role: &bad})
	assert.True(t, errors.Is(err, apierrors.ErrValidation))

	_, err = UpdateUser(context.Background(), hc, "http://x", "tok", " ", types.UpdateUserRequest{})
	assert.True(t, errors.Is(err, apierrors.ErrValidation))
}
