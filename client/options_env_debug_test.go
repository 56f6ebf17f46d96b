package client

import (
	"context"
	"net/http"
	"testing"
)

func TestNew_AutoEnableDebugViaEnv(t *testing.T) {
	for _, key := range []string{"SOURCEFINDER_DEBUG", "DEBUG"} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "true")
			c, err := New("http://example.com")
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if _, ok := c.http.Transport.(*debugTransport); !ok {
				t.Fatalf("expected debugTransport to be installed when %s=true", key)
			}
		})
	}
}

func TestDebugTransport_ErrorPath(t *testing.T) {
	// base transport returns error
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, context.DeadlineExceeded
	})
	c, err := New("http://example.com", WithHTTPClient(&http.Client{Transport: rt}), WithDebugLogging(true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://example.com", http.NoBody)
	if _, err := c.http.Do(req); err == nil {
		t.Fatalf("expected error from underlying transport")
	}
}
