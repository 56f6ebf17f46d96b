package client

import (
	"time"

	"github.com/sourcefinder/sourcefinder/client/internal/types"
)

// Public type aliases so SDK consumers can import only the client package.
type (
	// Requests
	Credentials       = types.Credentials
	CreateUserRequest = types.CreateUserRequest
	UpdateUserRequest = types.UpdateUserRequest
	SearchQuery       = types.SearchQuery
	FileSource        = types.FileSource
	ProgressFunc      = types.ProgressFunc

	// Domain entities
	Identity        = types.Identity
	UserRecord      = types.UserRecord
	Document        = types.Document
	SearchEvent     = types.SearchEvent
	MetricsSnapshot = types.MetricsSnapshot
	Timestamp       = types.Timestamp

	// Responses
	TokenResponse    = types.TokenResponse
	SearchResultItem = types.SearchResultItem
	SearchResponse   = types.SearchResponse
	DeleteResponse   = types.DeleteResponse
	UploadResult     = types.UploadResult
	HealthResponse   = types.HealthResponse
)

const (
	RoleUser  = types.RoleUser
	RoleAdmin = types.RoleAdmin
)

// NewTimestamp wraps t for the CreatedAt/UploadedAt fields.
func NewTimestamp(t time.Time) Timestamp { return types.NewTimestamp(t) }

// ScorePercent converts a raw similarity score to a display percentage.
func ScorePercent(score float64) float64 { return types.ScorePercent(score) }

// ValidateSearchQuery reports whether q has enough input to submit.
func ValidateSearchQuery(q SearchQuery) error { return types.ValidateSearchQuery(q) }

// ValidateEmail checks an address before it is sent to the API.
func ValidateEmail(email string) error { return types.ValidateEmail(email) }

// ValidateRole rejects roles other than "user" and "admin".
func ValidateRole(role string) error { return types.ValidateRole(role) }
