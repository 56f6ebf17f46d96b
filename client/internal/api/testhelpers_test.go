package api

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
)

// errRT is an http.RoundTripper that always returns an error (simulates network failure).
type errRT struct{}

func (e *errRT) RoundTrip(*http.Request) (*http.Response, error) { return nil, fmt.Errorf("boom") }

// countingHandler wraps h and counts requests that reached the server.
type countingHandler struct {
	n int
	h http.HandlerFunc
}

func (c *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.n++
	c.h(w, r)
}

// readForm decodes a multipart request into its text fields and file parts.
func readForm(t *testing.T, r *http.Request) (map[string]string, map[string][]byte) {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		t.Errorf("unexpected content type %q: %v", r.Header.Get("Content-Type"), err)
		return nil, nil
	}
	fields := map[string]string{}
	files := map[string][]byte{}
	mr := multipart.NewReader(r.Body, params["boundary"])
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Errorf("next part: %v", err)
			return fields, files
		}
		b, _ := io.ReadAll(p)
		if p.FileName() != "" {
			files[p.FormName()] = b
		} else {
			fields[p.FormName()] = string(b)
		}
	}
	return fields, files
}
