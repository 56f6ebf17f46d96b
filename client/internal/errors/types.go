// Package errors provides the failure taxonomy shared by every client call.
// Callers branch on Kind; the Message is always a human-readable string.
package errors

import (
	"errors"
	"fmt"
)

// Kind identifies which stage of a call failed.
type Kind int

const (
	// KindNetwork means no response reached the client (DNS, connect, reset, timeout).
	KindNetwork Kind = iota

	// KindHTTP means a response arrived with a non-2xx status.
	KindHTTP

	// KindValidation means the request was rejected locally before any network call.
	KindValidation

	// KindAborted means the caller cancelled the operation.
	KindAborted

	// KindSession means the stored token could not be resolved to an identity.
	KindSession

	// KindDecode means a 2xx response body could not be decoded.
	KindDecode
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindValidation:
		return "validation"
	case KindAborted:
		return "aborted"
	case KindSession:
		return "session"
	case KindDecode:
		return "decode"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Sentinels matched by APIError.Is so callers can use errors.Is(err, ErrNetwork).
var (
	ErrNetwork        = errors.New("network error")
	ErrHTTP           = errors.New("http error")
	ErrValidation     = errors.New("validation error")
	ErrAborted        = errors.New("aborted")
	ErrSessionInvalid = errors.New("session invalid")
	ErrDecode         = errors.New("decode error")
)

// APIError is the normalized failure returned by every operation.
type APIError struct {
	Kind       Kind
	Operation  string // logical operation, e.g. "search"
	StatusCode int    // 0 unless Kind == KindHTTP
	Message    string // human-readable, never empty
	Body       string // raw response body for KindHTTP
	Underlying error
}

// Error returns the human-readable message only; operation and status are
// available as fields.
func (e *APIError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *APIError) Unwrap() error {
	return e.Underlying
}

// Is matches the kind sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrHTTP:
		return e.Kind == KindHTTP
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrAborted:
		return e.Kind == KindAborted
	case ErrSessionInvalid:
		return e.Kind == KindSession
	case ErrDecode:
		return e.Kind == KindDecode
	}
	return false
}

// KindOf reports the kind of err and whether err carries one.
func KindOf(err error) (Kind, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return 0, false
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
