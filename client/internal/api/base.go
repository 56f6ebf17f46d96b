package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	apierrors "github.com/sourcefinder/sourcefinder/client/internal/errors"
)

// HTTPClient interface for dependency injection
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Request describes one call against the API. Path is relative to the base
// URL (which already carries the /api prefix).
type Request struct {
	Operation   string
	Method      string
	Path        string
	Header      http.Header
	Body        io.Reader
	ContentType string
	// ContentLength is used only when Body is set; <= 0 leaves it to net/http.
	ContentLength int64
	// Token, when non-empty, is sent as a bearer credential.
	Token string
}

// Do is the single entry point for every JSON API call. On a 2xx response
// the body is decoded into out (nil discards it). Any other outcome returns
// an *errors.APIError with a human-readable message.
func Do(ctx context.Context, hc HTTPClient, baseURL string, r Request, out any) error {
	if err := ctx.Err(); err != nil {
		return apierrors.NewTransportError(ctx, r.Operation, err, r.Operation+" aborted")
	}
	httpReq, err := newHTTPRequest(ctx, baseURL, r)
	if err != nil {
		return apierrors.NewValidationError(r.Operation, err.Error())
	}

	start := time.Now()
	resp, err := hc.Do(httpReq)
	if err != nil {
		apiErr := apierrors.NewTransportError(ctx, r.Operation, err, r.Operation+" aborted")
		observe(r.Operation, outcomeFor(apiErr), start)
		return apiErr
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr := apierrors.NewTransportError(ctx, r.Operation, err, r.Operation+" aborted")
		observe(r.Operation, outcomeFor(apiErr), start)
		return apiErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := apierrors.NewHTTPError(r.Operation, resp.StatusCode, errorMessage(resp, body), string(body))
		observe(r.Operation, outcomeFor(apiErr), start)
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			apiErr := apierrors.NewDecodeError(r.Operation, err)
			observe(r.Operation, outcomeFor(apiErr), start)
			return apiErr
		}
	}
	observe(r.Operation, outcomeOK, start)
	return nil
}

// newHTTPRequest builds the outgoing request. Caller headers are kept; the
// bearer token overrides a caller-supplied Authorization header.
func newHTTPRequest(ctx context.Context, baseURL string, r Request) (*http.Request, error) {
	url := strings.TrimRight(baseURL, "/") + r.Path
	httpReq, err := http.NewRequestWithContext(ctx, r.Method, url, r.Body)
	if err != nil {
		return nil, err
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if r.Body != nil && r.ContentLength > 0 {
		httpReq.ContentLength = r.ContentLength
	}
	if r.ContentType != "" {
		httpReq.Header.Set("Content-Type", r.ContentType)
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if httpReq.Header.Get("X-Request-ID") == "" {
		httpReq.Header.Set("X-Request-ID", uuid.NewString())
	}
	if r.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.Token)
	}
	return httpReq, nil
}

// jsonBody marshals v for a JSON request.
func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

// errorMessage derives the failure message of a non-2xx response.
//
// JSON bodies yield their "detail" field (or the whole re-serialized body);
// anything else, including JSON that fails to parse, yields the trimmed raw
// text. The reason phrase of the status line is the last resort.
func errorMessage(resp *http.Response, body []byte) string {
	statusText := apierrors.StatusText(resp.StatusCode, resp.Status)
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "application/json") {
		if msg, ok := jsonErrorMessage(body); ok {
			if msg == "" {
				return statusText
			}
			return msg
		}
	}
	if txt := strings.TrimSpace(string(body)); txt != "" {
		return txt
	}
	return statusText
}

func jsonErrorMessage(body []byte) (string, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return "", false
	}
	if obj, ok := data.(map[string]any); ok {
		raw, present := obj["detail"]
		switch detail := raw.(type) {
		case nil:
			if present {
				return "null", true
			}
		case string:
			if detail != "" {
				return detail, true
			}
		default:
			if b, err := json.Marshal(detail); err == nil {
				return string(b), true
			}
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "", false
	}
	return string(b), true
}
