package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/sourcefinder/sourcefinder/client/internal/errors"
)

func errorServer(t *testing.T, status int, contentType, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDo_ErrorMessageNormalization(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        string
	}{
		{"json detail", 400, "application/json", `{"detail":"Incorrect email or password"}`, "Incorrect email or password"},
		{"json detail with charset", 403, "application/json; charset=utf-8", `{"detail":"Admin only"}`, "Admin only"},
		{"json structured detail", 422, "application/json", `{"detail":[{"loc":["body","email"],"msg":"bad"}]}`, `[{"loc":["body","email"],"msg":"bad"}]`},
		{"json without detail", 409, "application/json", `{"error":"conflict","code":409}`, `{"code":409,"error":"conflict"}`},
		{"json empty detail", 400, "application/json", `{"detail":""}`, `{"detail":""}`},
		{"json null detail", 400, "application/json", `{"detail":null,"code":1}`, "null"},
		{"broken json degrades to text", 500, "application/json", `{not json`, `{not json`},
		{"broken json empty body", 502, "application/json", ``, "Bad Gateway"},
		{"plain text trimmed", 500, "text/plain", "  upstream exploded \n", "upstream exploded"},
		{"empty text uses status", 404, "text/plain", "   ", "Not Found"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			srv := errorServer(t, c.status, c.contentType, c.body)
			err := Do(context.Background(), srv.Client(), srv.URL, Request{Operation: "fetch", Method: http.MethodGet, Path: "/x"}, nil)
			require.Error(t, err)
			assert.Equal(t, c.want, err.Error())
			assert.True(t, errors.Is(err, apierrors.ErrHTTP))
			assert.Equal(t, c.status, apierrors.StatusOf(err))
		})
	}
}

func TestDo_BearerInjectionAndHeaders(t *testing.T) {
	t.Parallel()
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	hdr := http.Header{}
	hdr.Set("Authorization", "Basic Zm9vOmJhcg==")
	hdr.Set("X-Trace", "abc")
	var out struct {
		OK bool `json:"ok"`
	}
	err := Do(context.Background(), srv.Client(), srv.URL, Request{
		Operation: "fetch", Method: http.MethodGet, Path: "/x", Header: hdr, Token: "tok1",
	}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, "Bearer tok1", got.Get("Authorization"))
	assert.Equal(t, "abc", got.Get("X-Trace"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))

	// Without a token the caller's header is left alone.
	err = Do(context.Background(), srv.Client(), srv.URL, Request{
		Operation: "fetch", Method: http.MethodGet, Path: "/x", Header: hdr,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Basic Zm9vOmJhcg==", got.Get("Authorization"))
}

func TestDo_NoAuthorizationWithoutToken(t *testing.T) {
	t.Parallel()
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	require.NoError(t, Do(context.Background(), srv.Client(), srv.URL, Request{Operation: "p", Method: http.MethodGet, Path: "/"}, nil))
	assert.Empty(t, auth)
}

func TestDo_NetworkAndAbort(t *testing.T) {
	t.Parallel()
	hc := &http.Client{Transport: &errRT{}}
	err := Do(context.Background(), hc, "http://example.com", Request{Operation: "fetch", Method: http.MethodGet, Path: "/"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apierrors.ErrNetwork))
	assert.Contains(t, err.Error(), "network error")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Do(ctx, hc, "http://example.com", Request{Operation: "fetch", Method: http.MethodGet, Path: "/"}, nil)
	assert.True(t, errors.Is(err, apierrors.ErrAborted))
}

func TestDo_DecodeError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{bad json"))
	}))
	defer srv.Close()
	var out map[string]any
	err := Do(context.Background(), srv.Client(), srv.URL, Request{Operation: "fetch", Method: http.MethodGet, Path: "/"}, &out)
	assert.True(t, errors.Is(err, apierrors.ErrDecode))
}
