package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sourcefinder/sourcefinder/client/internal/api"
	"github.com/sourcefinder/sourcefinder/client/internal/types"
)

// --------------------------------------------------------------------
// Client core
// --------------------------------------------------------------------

// Client is the single gateway to the sourcefinder HTTP API. Bearer tokens
// are passed per call; the client itself holds no session state (see the
// session package for that).
type Client struct {
	baseURL string
	http    *http.Client

	closedOnce uint32 // ensures Close is idempotent
}

// New constructs a Client for baseURL, which must include the API prefix
// (e.g. "http://localhost:8000/api").
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("baseURL cannot be empty")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Close releases idle connections. Safe to call multiple times.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapUint32(&c.closedOnce, 0, 1) {
		return nil
	}
	c.http.CloseIdleConnections()
	return nil
}

// --------------------------------------------------------------------
// Auth operations
// --------------------------------------------------------------------

// Login exchanges email and password for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	return api.Login(ctx, c.http, c.baseURL, types.Credentials{Email: email, Password: password})
}

// Register creates a regular user account and returns its access token.
func (c *Client) Register(ctx context.Context, email, password string) (*TokenResponse, error) {
	return api.Register(ctx, c.http, c.baseURL, types.Credentials{Email: email, Password: password})
}

// Me resolves the identity behind token.
func (c *Client) Me(ctx context.Context, token string) (*Identity, error) {
	return api.Me(ctx, c.http, c.baseURL, token)
}

// --------------------------------------------------------------------
// Search operations
// --------------------------------------------------------------------

// Search runs a composite text/file query. token may be empty for anonymous
// searches. Queries without text or file are rejected before any request.
func (c *Client) Search(ctx context.Context, token string, q SearchQuery) (*SearchResponse, error) {
	return api.Search(ctx, c.http, c.baseURL, token, q)
}

// SearchBaseline runs q without the rerank stage.
func (c *Client) SearchBaseline(ctx context.Context, token string, q SearchQuery) (*SearchResponse, error) {
	return api.SearchBaseline(ctx, c.http, c.baseURL, token, q)
}

// --------------------------------------------------------------------
// Admin: documents
// --------------------------------------------------------------------

// ListDocuments returns every ingested document.
func (c *Client) ListDocuments(ctx context.Context, token string) ([]Document, error) {
	return api.ListDocuments(ctx, c.http, c.baseURL, token)
}

// DeleteDocument removes a document by id.
func (c *Client) DeleteDocument(ctx context.Context, token, documentID string) (*DeleteResponse, error) {
	return api.DeleteDocument(ctx, c.http, c.baseURL, token, documentID)
}

// UploadDocument submits a document and blocks until it settles. onProgress
// may be nil; it is never called when the file size is unknown.
func (c *Client) UploadDocument(ctx context.Context, token, title string, file FileSource, onProgress ProgressFunc) (*UploadResult, error) {
	return api.UploadDocument(ctx, c.http, c.baseURL, token, title, file, onProgress)
}

// --------------------------------------------------------------------
// Admin: users
// --------------------------------------------------------------------

// ListUsers returns all accounts.
func (c *Client) ListUsers(ctx context.Context, token string) ([]UserRecord, error) {
	return api.ListUsers(ctx, c.http, c.baseURL, token)
}

// CreateUser creates an account; an empty role means "user".
func (c *Client) CreateUser(ctx context.Context, token string, req CreateUserRequest) (*UserRecord, error) {
	return api.CreateUser(ctx, c.http, c.baseURL, token, req)
}

// UpdateUser applies a partial update.
func (c *Client) UpdateUser(ctx context.Context, token, userID string, req UpdateUserRequest) (*UserRecord, error) {
	return api.UpdateUser(ctx, c.http, c.baseURL, token, userID, req)
}

// SetUserRole changes an account's role.
func (c *Client) SetUserRole(ctx context.Context, token, userID, role string) (*UserRecord, error) {
	return c.UpdateUser(ctx, token, userID, UpdateUserRequest{Role: &role})
}

// SetUserActive enables or disables an account.
func (c *Client) SetUserActive(ctx context.Context, token, userID string, active bool) (*UserRecord, error) {
	return c.UpdateUser(ctx, token, userID, UpdateUserRequest{IsActive: &active})
}

// SetUserPassword replaces an account's password.
func (c *Client) SetUserPassword(ctx context.Context, token, userID, password string) (*UserRecord, error) {
	return c.UpdateUser(ctx, token, userID, UpdateUserRequest{Password: &password})
}

// --------------------------------------------------------------------
// Admin: metrics and health
// --------------------------------------------------------------------

// GetMetrics fetches aggregate usage counters and recent search events.
func (c *Client) GetMetrics(ctx context.Context, token string) (*MetricsSnapshot, error) {
	return api.GetMetrics(ctx, c.http, c.baseURL, token)
}

// Health probes the API liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	return api.Health(ctx, c.http, c.baseURL)
}
