package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStartUpload_ProgressThenSettle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"doc-9","title":"Paper","filename":"p.pdf"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL + "/api")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data := bytes.Repeat([]byte("x"), 2<<20)
	task := c.StartUpload(context.Background(), "tok", "Paper", FileSource{Name: "p.pdf", Reader: bytes.NewReader(data), Size: int64(len(data))})

	last := -1
	for p := range task.Progress() {
		if p <= last {
			t.Fatalf("progress not strictly increasing: %d after %d", p, last)
		}
		last = p
	}
	if last != 100 {
		t.Fatalf("final progress = %d, want 100", last)
	}

	res, err := task.Wait()
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.Document == nil || res.Document.ID != "doc-9" {
		t.Fatalf("unexpected result %+v", res)
	}
	if p, ok := task.Percent(); !ok || p != 100 {
		t.Fatalf("Percent = %d,%v", p, ok)
	}
	select {
	case <-task.Done():
	default:
		t.Fatalf("Done not closed after Wait")
	}
}

// blockingReader yields one chunk and then blocks until released.
type blockingReader struct {
	sent    bool
	release chan struct{}
}

func (b *blockingReader) Read(p []byte) (int, error) {
	if !b.sent {
		b.sent = true
		return copy(p, []byte("chunk")), nil
	}
	<-b.release
	return 0, io.EOF
}

func TestStartUpload_CancelSettlesAborted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
	}))
	defer srv.Close()

	c, err := New(srv.URL + "/api")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	br := &blockingReader{release: make(chan struct{})}
	defer close(br.release)
	task := c.StartUpload(context.Background(), "tok", "Paper", FileSource{Name: "p.pdf", Reader: br, Size: -1})
	task.Cancel()

	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("upload did not settle after cancel")
	}
	_, err = task.Wait()
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected aborted error, got %v", err)
	}
	if _, ok := task.Percent(); ok {
		t.Fatalf("unknown-size upload must not report progress")
	}
}
