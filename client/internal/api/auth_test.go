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

func TestLoginAndMe(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var creds types.Credentials
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Email != "a@b.com" || creds.Password != "x" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":"Incorrect email or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok1","token_type":"bearer"}`))
	})
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"u1","email":"a@b.com","role":"user","is_active":true}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tr, err := Login(context.Background(), srv.Client(), srv.URL, types.Credentials{Email: "a@b.com", Password: "x"})
	require.NoError(t, err)
	assert.Equal(t, "tok1", tr.AccessToken)

	id, err := Me(context.Background(), srv.Client(), srv.URL, tr.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user", id.Role)
	assert.False(t, id.IsAdmin())

	_, err = Login(context.Background(), srv.Client(), srv.URL, types.Credentials{Email: "a@b.com", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, "Incorrect email or password", err.Error())

	_, err = Me(context.Background(), srv.Client(), srv.URL, "stale")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apierrors.StatusOf(err))
}

func TestRegister_ValidationAndMissingToken(t *testing.T) {
	t.Parallel()
	h := &countingHandler{h: func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}}
	srv := httptest.NewServer(h)
	defer srv.Close()

	_, err := Register(context.Background(), srv.Client(), srv.URL, types.Credentials{Email: "bad", Password: "x"})
	assert.True(t, errors.Is(err, apierrors.ErrValidation))
	assert.Equal(t, 0, h.n)

	_, err = Register(context.Background(), srv.Client(), srv.URL, types.Credentials{Email: "new@b.com", Password: "x"})
	assert.True(t, errors.Is(err, apierrors.ErrDecode))
	assert.Equal(t, 1, h.n)
}
