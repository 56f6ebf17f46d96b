package types

import (
	"math"
	"strings"
)

// ------------------------------
// Request Types
// ------------------------------

// Credentials is the body of /auth/login and /auth/register.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateUserRequest is the body of POST /admin/users.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// UpdateUserRequest is the partial body of PATCH /admin/users/{id}.
// Nil fields are omitted so the server leaves them unchanged.
type UpdateUserRequest struct {
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	Password *string `json:"password,omitempty"`
}

// SearchQuery is a composite search by text and/or file.
type SearchQuery struct {
	Text string
	File *FileSource
	// MinSimilarityPercent is sent only when non-nil and finite; the server
	// default threshold applies otherwise.
	MinSimilarityPercent *float64
	// Rerank defaults to true when nil.
	Rerank *bool
}

// TrimmedText returns the query text without surrounding whitespace.
func (q SearchQuery) TrimmedText() string { return strings.TrimSpace(q.Text) }

// HasInput reports whether the query carries non-blank text or a file.
func (q SearchQuery) HasInput() bool {
	return q.TrimmedText() != "" || q.File != nil
}

// RerankEnabled resolves the rerank flag, defaulting to true.
func (q SearchQuery) RerankEnabled() bool {
	if q.Rerank == nil {
		return true
	}
	return *q.Rerank
}

// Threshold returns the clamped similarity threshold and whether it should be sent.
func (q SearchQuery) Threshold() (float64, bool) {
	if q.MinSimilarityPercent == nil {
		return 0, false
	}
	v := *q.MinSimilarityPercent
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return math.Max(0, math.Min(100, v)), true
}
