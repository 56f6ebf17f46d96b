package client

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	apierrors "github.com/sourcefinder/sourcefinder/client/internal/errors"
)

// Re-export the failure taxonomy so callers compare against a single symbol.
type (
	APIError = apierrors.APIError
	Kind     = apierrors.Kind
)

const (
	KindNetwork    = apierrors.KindNetwork
	KindHTTP       = apierrors.KindHTTP
	KindValidation = apierrors.KindValidation
	KindAborted    = apierrors.KindAborted
	KindSession    = apierrors.KindSession
	KindDecode     = apierrors.KindDecode
)

var (
	ErrNetwork        = apierrors.ErrNetwork
	ErrHTTP           = apierrors.ErrHTTP
	ErrValidation     = apierrors.ErrValidation
	ErrAborted        = apierrors.ErrAborted
	ErrSessionInvalid = apierrors.ErrSessionInvalid
	ErrDecode         = apierrors.ErrDecode
)

// KindOf returns the failure kind carried by err.
func KindOf(err error) (Kind, bool) { return apierrors.KindOf(err) }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int { return apierrors.StatusOf(err) }

// IsHTTPStatus reports whether err is an HTTP failure with the given status.
func IsHTTPStatus(err error, code int) bool { return StatusOf(err) == code }

// IsUnauthorized reports whether the server rejected the bearer token.
func IsUnauthorized(err error) bool {
	return IsHTTPStatus(err, 401) || IsHTTPStatus(err, 403)
}

// Message returns the human-readable message carried by err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// NewValidationError reports input rejected before any request was made.
func NewValidationError(operation, message string) error {
	return apierrors.NewValidationError(operation, message)
}

// NewHTTPError builds the failure a non-2xx response with the given message
// produces.
func NewHTTPError(operation string, statusCode int, message string) error {
	return apierrors.NewHTTPError(operation, statusCode, message, "")
}

// NewNetworkError builds the failure of a request that got no response.
func NewNetworkError(operation string, cause error) error {
	return apierrors.NewTransportError(context.Background(), operation, cause, "")
}

// NewSessionError wraps cause as a session-invalid failure.
func NewSessionError(cause error) error { return apierrors.NewSessionError(cause) }

// FriendlyMessage renders err for display. When the message is itself a
// JSON document with a "detail" field (as upload failures carry the raw
// body), the detail is shown instead of the JSON.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := Message(err)
	trimmed := strings.TrimSpace(msg)
	if !strings.HasPrefix(trimmed, "{") {
		return msg
	}
	var payload map[string]any
	if json.Unmarshal([]byte(trimmed), &payload) != nil {
		return msg
	}
	detail, ok := payload["detail"]
	if !ok {
		return msg
	}
	switch d := detail.(type) {
	case nil:
		return "null"
	case string:
		return d
	}
	b, err := json.Marshal(detail)
	if err != nil {
		return msg
	}
	return string(b)
}
