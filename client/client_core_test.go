package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCloseIdempotent(t *testing.T) {
	c, err := New("http://example.com/api")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestNew(t *testing.T) {
	c, err := New("http://example.com/api/")
	if err != nil || c == nil {
		t.Fatalf("expected client, got %v", err)
	}
	if c.BaseURL() != "http://example.com/api" {
		t.Fatalf("trailing slash not trimmed: %q", c.BaseURL())
	}
	if _, err := New("  "); err == nil {
		t.Fatalf("expected error for empty base url")
	}
}

func TestClient_RoleHelpersSendPartialUpdates(t *testing.T) {
	var bodies []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/admin/users/u1" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var m map[string]any
		_ = json.NewDecoder(r.Body).Decode(&m)
		bodies = append(bodies, m)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u1","email":"a@b.co","role":"admin","is_active":false}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL + "/api")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if _, err := c.SetUserRole(ctx, "tok", "u1", RoleAdmin); err != nil {
		t.Fatalf("SetUserRole: %v", err)
	}
	if _, err := c.SetUserActive(ctx, "tok", "u1", false); err != nil {
		t.Fatalf("SetUserActive: %v", err)
	}
	if len(bodies) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(bodies))
	}
	if len(bodies[0]) != 1 || bodies[0]["role"] != "admin" {
		t.Fatalf("role update body = %v", bodies[0])
	}
	if len(bodies[1]) != 1 || bodies[1]["is_active"] != false {
		t.Fatalf("active update body = %v", bodies[1])
	}
}
