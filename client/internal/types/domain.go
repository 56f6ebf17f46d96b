package types

import (
	"io"
)

// ------------------------------
// Core Domain Entities
// ------------------------------

// Role values understood by the API.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the server-asserted profile for the current token. It is an
// immutable snapshot and is replaced wholesale on every refresh.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt Timestamp `json:"created_at"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// UserRecord is a row of the admin users list.
type UserRecord struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt Timestamp `json:"created_at"`
}

// Document is an ingested source document as listed by the admin API.
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	UploadedAt  Timestamp `json:"uploaded_at"`
	Status      string    `json:"status"`
	NumPages    int       `json:"num_pages"`
}

// SearchEvent is one recorded search in the metrics snapshot.
type SearchEvent struct {
	ID           string    `json:"id"`
	CreatedAt    Timestamp `json:"created_at"`
	UserID       *string   `json:"user_id,omitempty"`
	QueryLen     int       `json:"query_len"`
	QueryPreview *string   `json:"query_preview,omitempty"`
	HasFile      bool      `json:"has_file"`
	DurationMS   int       `json:"duration_ms"`
	ResultsCount int       `json:"results_count"`
}

// MetricsSnapshot holds the aggregate counters shown on the metrics tab.
type MetricsSnapshot struct {
	TotalUsers     int           `json:"total_users"`
	ActiveUsers    int           `json:"active_users"`
	TotalDocuments int           `json:"total_documents"`
	TotalSearches  int           `json:"total_searches"`
	Searches24h    int           `json:"searches_24h"`
	LastEvents     []SearchEvent `json:"last_events"`
}

// FileSource is a binary payload submitted as a multipart file part.
// Size < 0 means the length is unknown.
type FileSource struct {
	Name   string
	Reader io.Reader
	Size   int64
}

// ProgressFunc receives upload progress as an integer percentage in [0,100].
type ProgressFunc func(percent int)
