// Package apitest is an in-memory implementation of the sourcefinder HTTP
// API. It backs the client tests and the CLI's stub-server command.
//
// Search scoring is a plain term-overlap ratio; it exists to produce
// ordered, thresholdable results, not to model the real ranking.
package apitest

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/sourcefinder/sourcefinder/client"
)

type user struct {
	client.UserRecord
	hash []byte
}

type document struct {
	client.Document
	content string
}

type failure struct {
	method, path string
	status       int
	body         string
}

// Server holds users, documents and search events in memory. It is safe for
// concurrent use.
type Server struct {
	secret   []byte
	tokenTTL time.Duration
	cost     int
	now      func() time.Time
	log      zerolog.Logger

	mu       sync.Mutex
	users    map[string]*user
	byEmail  map[string]string
	docs     []*document
	events   []client.SearchEvent
	failures []failure
}

// Option configures a Server.
type Option func(*Server)

// WithSecret sets the HS256 signing key.
func WithSecret(secret string) Option { return func(s *Server) { s.secret = []byte(secret) } }

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(d time.Duration) Option { return func(s *Server) { s.tokenTTL = d } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option { return func(s *Server) { s.log = l } }

// New returns an empty server.
func New(opts ...Option) *Server {
	s := &Server{
		secret:   []byte("apitest-secret"),
		tokenTTL: time.Hour,
		cost:     bcrypt.MinCost,
		now:      time.Now,
		log:      log.Logger,
		users:    map[string]*user{},
		byEmail:  map[string]string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router serving every endpoint under /api.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.recoverPanics)
	router.Use(s.logRequests)
	router.Use(s.injectFailures)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/users/me", s.requireUser(s.handleMe)).Methods(http.MethodGet)

	api.HandleFunc("/search", s.handleSearch(true)).Methods(http.MethodPost)
	api.HandleFunc("/baseline/search", s.handleSearch(false)).Methods(http.MethodPost)

	api.HandleFunc("/admin/documents", s.requireAdmin(s.handleListDocuments)).Methods(http.MethodGet)
	api.HandleFunc("/admin/documents", s.requireAdmin(s.handleUploadDocument)).Methods(http.MethodPost)
	api.HandleFunc("/admin/documents/{documentId}", s.requireAdmin(s.handleDeleteDocument)).Methods(http.MethodDelete)
	api.HandleFunc("/admin/users", s.requireAdmin(s.handleListUsers)).Methods(http.MethodGet)
	api.HandleFunc("/admin/users", s.requireAdmin(s.handleCreateUser)).Methods(http.MethodPost)
	api.HandleFunc("/admin/users/{userId}", s.requireAdmin(s.handleUpdateUser)).Methods(http.MethodPatch)
	api.HandleFunc("/admin/metrics", s.requireAdmin(s.handleMetrics)).Methods(http.MethodGet)

	return router
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Str("request_id", r.Header.Get("X-Request-ID")).Msg("request")
		next.ServeHTTP(w, r)
	})
}

// FailNext makes the next request matching method and path answer with
// status and body (sent as application/json when it looks like JSON).
func (s *Server) FailNext(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, path: path, status: status, body: body})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		var hit *failure
		for i, f := range s.failures {
			if f.method == r.Method && f.path == r.URL.Path {
				hit = &f
				s.failures = append(s.failures[:i], s.failures[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		if hit == nil {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(strings.TrimSpace(hit.body), "{") {
			w.Header().Set("Content-Type", "application/json")
		} else {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		}
		w.WriteHeader(hit.status)
		_, _ = w.Write([]byte(hit.body))
	})
}

// SeedUser adds an account directly, bypassing the API.
func (s *Server) SeedUser(email, password, role string) client.UserRecord {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(email, hash, role, true)
}

func (s *Server) addUserLocked(email string, hash []byte, role string, active bool) client.UserRecord {
	u := &user{
		UserRecord: client.UserRecord{
			ID:        uuid.NewString(),
			Email:     strings.ToLower(email),
			Role:      role,
			IsActive:  active,
			CreatedAt: client.NewTimestamp(s.now().UTC()),
		},
		hash: hash,
	}
	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return u.UserRecord
}

// SeedDocument adds a searchable document directly.
func (s *Server) SeedDocument(id, title, content string) client.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = uuid.NewString()
	}
	d := &document{
		Document: client.Document{
			ID:          id,
			Title:       title,
			Filename:    title + ".txt",
			ContentType: "text/plain",
			UploadedAt:  client.NewTimestamp(s.now().UTC()),
			Status:      "ready",
			NumPages:    pageCount(content),
		},
		content: content,
	}
	s.docs = append(s.docs, d)
	return d.Document
}

// Documents returns the stored documents, newest first.
func (s *Server) Documents() []client.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documentsLocked()
}

func (s *Server) documentsLocked() []client.Document {
	out := make([]client.Document, 0, len(s.docs))
	for i := len(s.docs) - 1; i >= 0; i-- {
		out = append(out, s.docs[i].Document)
	}
	return out
}

func pageCount(content string) int {
	return 1 + strings.Count(content, "\f")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, client.HealthResponse{OK: true})
}
