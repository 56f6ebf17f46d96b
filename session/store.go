// Package session owns the authentication state of a sourcefinder client:
// the durable bearer token and the identity resolved from it.
//
// Every token change (login, register, logout, invalidation) goes through
// SetToken. Identity is never persisted; it is re-resolved asynchronously
// after each change and results of superseded resolutions are dropped.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sourcefinder/sourcefinder/client"
	"github.com/sourcefinder/sourcefinder/internal/guard"
)

// API is the subset of *client.Client the store needs.
type API interface {
	Me(ctx context.Context, token string) (*client.Identity, error)
	Login(ctx context.Context, email, password string) (*client.TokenResponse, error)
	Register(ctx context.Context, email, password string) (*client.TokenResponse, error)
}

// NetworkErrorPolicy decides what happens to the token when identity
// resolution fails without any response from the server.
type NetworkErrorPolicy int

const (
	// ClearOnNetworkError treats any resolution failure as an invalid session.
	ClearOnNetworkError NetworkErrorPolicy = iota
	// KeepOnNetworkError keeps the token and leaves identity unresolved when
	// the server could not be reached. HTTP failures still clear the token.
	KeepOnNetworkError
)

// Snapshot is an immutable view of the session.
type Snapshot struct {
	Token     string
	Identity  *client.Identity // nil until resolved
	Resolving bool
	Err       error // last resolution failure, if any
}

// Authenticated reports whether a token is held.
func (s Snapshot) Authenticated() bool { return s.Token != "" }

// Store is the single owner of session state. It is safe for concurrent use.
type Store struct {
	api    API
	tokens TokenStore
	log    zerolog.Logger
	policy NetworkErrorPolicy
	now    func() time.Time

	gen guard.Generation

	mu        sync.Mutex
	token     string
	identity  *client.Identity
	resolving bool
	lastErr   error
	cancel    context.CancelFunc
	settled   chan struct{}
	subs      map[int]func(Snapshot)
	nextSub   int
}

// Option configures a Store.
type Option func(*Store)

// WithNetworkErrorPolicy overrides the default ClearOnNetworkError.
func WithNetworkErrorPolicy(p NetworkErrorPolicy) Option {
	return func(s *Store) { s.policy = p }
}

// WithLogger sets the logger used for session transitions.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock replaces time.Now for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New loads the persisted token and, if one exists, starts resolving its
// identity. Call Await to block until that resolution settles.
func New(ctx context.Context, api API, tokens TokenStore, opts ...Option) (*Store, error) {
	if api == nil {
		return nil, fmt.Errorf("session: api cannot be nil")
	}
	if tokens == nil {
		return nil, fmt.Errorf("session: token store cannot be nil")
	}
	s := &Store{
		api:     api,
		tokens:  tokens,
		log:     log.Logger,
		now:     time.Now,
		settled: closedChan(),
		subs:    make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "session").Logger()

	token, err := tokens.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if token != "" {
		s.mu.Lock()
		s.applyTokenLocked(token)
		s.mu.Unlock()
	}
	return s, nil
}

// Token returns the current bearer token, or "" when anonymous.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Identity returns the resolved identity, if any.
func (s *Store) Identity() (client.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return client.Identity{}, false
	}
	return *s.identity, true
}

// Snapshot returns the full session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Token: s.token, Resolving: s.resolving, Err: s.lastErr}
	if s.identity != nil {
		id := *s.identity
		snap.Identity = &id
	}
	return snap
}

// SetToken persists token and replaces the in-memory state. An empty token
// logs out. Any in-flight identity resolution is cancelled and its result
// discarded.
func (s *Store) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	if err := s.tokens.Save(ctx, token); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persist token: %w", err)
	}
	s.applyTokenLocked(token)
	s.mu.Unlock()

	s.notify()
	return nil
}

// Logout clears the token.
func (s *Store) Logout(ctx context.Context) error {
	return s.SetToken(ctx, "")
}

// Login exchanges credentials for a token and stores it.
func (s *Store) Login(ctx context.Context, email, password string) error {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return s.SetToken(ctx, resp.AccessToken)
}

// Register creates an account and stores the returned token.
func (s *Store) Register(ctx context.Context, email, password string) error {
	resp, err := s.api.Register(ctx, email, password)
	if err != nil {
		return err
	}
	return s.SetToken(ctx, resp.AccessToken)
}

// Await blocks until the current generation's identity resolution settles
// and returns the resulting snapshot. It returns immediately when there is
// nothing to resolve.
func (s *Store) Await(ctx context.Context) (Snapshot, error) {
	for {
		s.mu.Lock()
		ch := s.settled
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return s.Snapshot(), ctx.Err()
		case <-ch:
		}

		s.mu.Lock()
		if s.settled == ch {
			snap := s.snapshotLocked()
			s.mu.Unlock()
			return snap, nil
		}
		// Token changed while waiting; wait for the newer generation.
		s.mu.Unlock()
	}
}

// Subscribe registers fn to be called with the latest snapshot after every
// state change. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Close cancels any in-flight resolution. The store stays readable.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen.Next()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.resolving {
		s.resolving = false
		close(s.settled)
	}
}

// applyTokenLocked swaps in token and starts a new resolution generation.
func (s *Store) applyTokenLocked(token string) {
	ticket := s.gen.Next()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.resolving {
		close(s.settled)
	}

	s.token = token
	s.identity = nil
	s.lastErr = nil

	if token == "" {
		s.resolving = false
		s.settled = closedChan()
		transitionsTotal.WithLabelValues("anonymous").Inc()
		s.log.Debug().Msg("session cleared")
		return
	}

	s.resolving = true
	s.settled = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	transitionsTotal.WithLabelValues("authenticated").Inc()
	s.log.Debug().Uint64("generation", ticket).Msg("token set; resolving identity")

	go s.resolve(ctx, ticket, token)
}

func (s *Store) resolve(ctx context.Context, ticket uint64, token string) {
	var (
		id  *client.Identity
		err error
	)
	if expired, exp := tokenExpired(token, s.now()); expired {
		err = fmt.Errorf("token expired at %s", exp.Format(time.RFC3339))
	} else {
		id, err = s.api.Me(ctx, token)
	}

	s.mu.Lock()
	if !s.gen.IsCurrent(ticket) {
		s.mu.Unlock()
		s.log.Debug().Uint64("generation", ticket).Msg("discarding stale identity resolution")
		return
	}
	s.cancel = nil
	s.resolving = false

	switch {
	case err == nil:
		s.identity = id
		transitionsTotal.WithLabelValues("resolved").Inc()
		s.log.Info().Str("email", id.Email).Str("role", id.Role).Msg("session identity resolved")
	case s.policy == KeepOnNetworkError && errors.Is(err, client.ErrNetwork):
		s.lastErr = err
		s.log.Warn().Err(err).Msg("identity unresolved; keeping token")
	default:
		s.invalidateLocked(err)
	}
	close(s.settled)
	s.mu.Unlock()

	s.notify()
}

// invalidateLocked drops the token after a failed resolution.
func (s *Store) invalidateLocked(cause error) {
	s.gen.Next()
	if err := s.tokens.Save(context.Background(), ""); err != nil {
		s.log.Error().Err(err).Msg("failed to clear persisted token")
	}
	s.token = ""
	s.identity = nil
	s.lastErr = client.NewSessionError(cause)
	transitionsTotal.WithLabelValues("invalidated").Inc()
	s.log.Warn().Err(cause).Msg("session invalidated")
}

func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
