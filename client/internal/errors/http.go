package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// NewHTTPError creates an error for a non-2xx response whose message has
// already been derived from the body.
func NewHTTPError(operation string, statusCode int, message, body string) *APIError {
	if strings.TrimSpace(message) == "" {
		message = StatusText(statusCode, "")
	}
	return &APIError{
		Kind:       KindHTTP,
		Operation:  operation,
		StatusCode: statusCode,
		Message:    message,
		Body:       body,
		Underlying: fmt.Errorf("%s failed: HTTP %d", operation, statusCode),
	}
}

// NewTransportError classifies an error returned by http.Client.Do. Caller
// cancellation becomes KindAborted; everything else is a network failure.
func NewTransportError(ctx context.Context, operation string, err error, abortedMessage string) *APIError {
	if errors.Is(err, context.Canceled) || (ctx != nil && errors.Is(ctx.Err(), context.Canceled)) {
		return &APIError{
			Kind:       KindAborted,
			Operation:  operation,
			Message:    abortedMessage,
			Underlying: err,
		}
	}
	return &APIError{
		Kind:       KindNetwork,
		Operation:  operation,
		Message:    fmt.Sprintf("network error: %v", err),
		Underlying: fmt.Errorf("%s network error: %w", operation, err),
	}
}

// NewValidationError creates a local rejection raised before any network call.
func NewValidationError(operation, message string) *APIError {
	return &APIError{
		Kind:      KindValidation,
		Operation: operation,
		Message:   message,
	}
}

// NewDecodeError wraps a failure to decode a successful response body.
func NewDecodeError(operation string, err error) *APIError {
	return &APIError{
		Kind:       KindDecode,
		Operation:  operation,
		Message:    fmt.Sprintf("%s: malformed response: %v", operation, err),
		Underlying: err,
	}
}

// NewSessionError marks a token whose identity could not be resolved.
func NewSessionError(cause error) *APIError {
	msg := "session expired"
	if cause != nil {
		msg = fmt.Sprintf("session invalid: %v", cause)
	}
	return &APIError{
		Kind:       KindSession,
		Operation:  "resolve identity",
		Message:    msg,
		Underlying: cause,
	}
}

// StatusText returns the reason phrase of a response status line, falling
// back to the canonical text for code and finally to "HTTP <code>".
func StatusText(code int, status string) string {
	// status looks like "404 Not Found"
	if _, reason, ok := strings.Cut(status, " "); ok && strings.TrimSpace(reason) != "" {
		return strings.TrimSpace(reason)
	}
	if txt := http.StatusText(code); txt != "" {
		return txt
	}
	return fmt.Sprintf("HTTP %d", code)
}
