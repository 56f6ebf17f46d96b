// Package admin coordinates the three admin read models (documents, users,
// metrics) and the mutations that change them.
//
// Read models are replaced wholesale on every reload. Reload results are
// applied only if no newer reload of the same tab started and the session
// token is still the one the reload was issued with. Mutations never touch
// a read model directly; each is followed by a reload of the model it
// affects, whether it succeeded or not.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sourcefinder/sourcefinder/client"
	"github.com/sourcefinder/sourcefinder/internal/guard"
)

var (
	// ErrStale is returned when a reload's result was discarded because a
	// newer reload or a token change superseded it.
	ErrStale = errors.New("result discarded: superseded")
	// ErrUploadInProgress rejects a second concurrent upload.
	ErrUploadInProgress = errors.New("an upload is already in progress")
)

// API is the admin subset of *client.Client.
type API interface {
	ListDocuments(ctx context.Context, token string) ([]client.Document, error)
	DeleteDocument(ctx context.Context, token, documentID string) (*client.DeleteResponse, error)
	UploadDocument(ctx context.Context, token, title string, file client.FileSource, onProgress client.ProgressFunc) (*client.UploadResult, error)
	ListUsers(ctx context.Context, token string) ([]client.UserRecord, error)
	CreateUser(ctx context.Context, token string, req client.CreateUserRequest) (*client.UserRecord, error)
	UpdateUser(ctx context.Context, token, userID string, req client.UpdateUserRequest) (*client.UserRecord, error)
	GetMetrics(ctx context.Context, token string) (*client.MetricsSnapshot, error)
}

// Orchestrator is safe for concurrent use.
type Orchestrator struct {
	api  API
	sess Session
	log  zerolog.Logger

	gens [tabCount]guard.Generation

	mu           sync.Mutex
	state        State
	uploadCancel context.CancelFunc
}

// New returns an orchestrator showing the documents tab.
func New(api API, sess Session) *Orchestrator {
	return &Orchestrator{
		api:   api,
		sess:  sess,
		log:   log.With().Str("component", "admin").Logger(),
		state: State{Active: TabDocuments},
	}
}

// Access evaluates the gate against the current session.
func (o *Orchestrator) Access() Access { return AccessFor(o.sess) }

// granted returns the token admin calls must use, or an ErrNotAdmin error.
func (o *Orchestrator) granted() (string, error) {
	if a := o.Access(); a != AccessGranted {
		return "", &accessError{access: a}
	}
	return o.sess.Token(), nil
}

// Snapshot returns a deep copy of all tab state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// ActiveTab returns the selected tab.
func (o *Orchestrator) ActiveTab() Tab {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Active
}

// Activate selects tab and reloads it.
func (o *Orchestrator) Activate(ctx context.Context, tab Tab) error {
	if !tab.valid() {
		return fmt.Errorf("unknown tab %d", int(tab))
	}
	o.mu.Lock()
	o.state.Active = tab
	o.mu.Unlock()
	return o.Reload(ctx, tab)
}

// Reset drops every read model and invalidates in-flight reloads. Call it
// when the session changes hands.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.gens {
		o.gens[i].Next()
	}
	if o.uploadCancel != nil {
		o.uploadCancel()
		o.uploadCancel = nil
	}
	o.state = State{Active: o.state.Active}
}

// Reload fetches tab's read model and replaces it. Failures are recorded on
// that tab only.
func (o *Orchestrator) Reload(ctx context.Context, tab Tab) error {
	if !tab.valid() {
		return fmt.Errorf("unknown tab %d", int(tab))
	}
	token, err := o.granted()
	if err != nil {
		return err
	}

	ticket := o.gens[tab].Next()
	o.mu.Lock()
	o.state.tab(tab).Loading = true
	o.mu.Unlock()

	var apply func(*State)
	switch tab {
	case TabDocuments:
		docs, ferr := o.api.ListDocuments(ctx, token)
		err = ferr
		apply = func(s *State) { s.Documents.Items = docs }
	case TabUsers:
		users, ferr := o.api.ListUsers(ctx, token)
		err = ferr
		apply = func(s *State) { s.Users.Items = users }
	case TabMetrics:
		m, ferr := o.api.GetMetrics(ctx, token)
		err = ferr
		apply = func(s *State) { s.Metrics.Snapshot = m }
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.gens[tab].IsCurrent(ticket) || o.sess.Token() != token {
		o.log.Debug().Str("tab", tab.String()).Uint64("generation", ticket).Msg("discarding stale reload")
		return ErrStale
	}
	ts := o.state.tab(tab)
	ts.Loading = false
	if err != nil {
		ts.Err = fmt.Sprintf("could not load %s: %s", tab, client.FriendlyMessage(err))
		reloadFailuresTotal.WithLabelValues(tab.String()).Inc()
		o.log.Warn().Err(err).Str("tab", tab.String()).Msg("reload failed")
		return err
	}
	ts.Err = ""
	apply(&o.state)
	return nil
}

// ReloadAll reloads the three tabs concurrently. A failure in one does not
// stop the others; the first error is returned.
func (o *Orchestrator) ReloadAll(ctx context.Context) error {
	if _, err := o.granted(); err != nil {
		return err
	}
	var g errgroup.Group
	for _, tab := range Tabs() {
		g.Go(func() error {
			err := o.Reload(ctx, tab)
			if errors.Is(err, ErrStale) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// --------------------------------------------------------------------
// Mutations
// --------------------------------------------------------------------

// mutate runs fn with the admin token, records its failure as the action
// error and then reloads tab regardless of the outcome.
func (o *Orchestrator) mutate(ctx context.Context, tab Tab, action string, fn func(token string) error) error {
	token, err := o.granted()
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.state.Busy = true
	o.state.ActionErr = ""
	o.mu.Unlock()

	err = fn(token)

	o.mu.Lock()
	o.state.Busy = false
	if err != nil && o.sess.Token() == token {
		o.state.ActionErr = client.FriendlyMessage(err)
	}
	o.mu.Unlock()

	outcome := "ok"
	if err != nil {
		outcome = "error"
		o.log.Warn().Err(err).Str("action", action).Msg("admin action failed")
	} else {
		o.log.Info().Str("action", action).Msg("admin action applied")
	}
	mutationsTotal.WithLabelValues(action, outcome).Inc()

	if rerr := o.Reload(ctx, tab); rerr != nil && err == nil && !errors.Is(rerr, ErrStale) {
		return rerr
	}
	return err
}

// DeleteDocument removes a document and reloads the document list.
func (o *Orchestrator) DeleteDocument(ctx context.Context, documentID string) error {
	return o.mutate(ctx, TabDocuments, "delete_document", func(token string) error {
		_, err := o.api.DeleteDocument(ctx, token, documentID)
		return err
	})
}

// CreateUser creates an account and reloads the user list.
func (o *Orchestrator) CreateUser(ctx context.Context, req client.CreateUserRequest) error {
	return o.mutate(ctx, TabUsers, "create_user", func(token string) error {
		_, err := o.api.CreateUser(ctx, token, req)
		return err
	})
}

// ToggleRole flips u between user and admin.
func (o *Orchestrator) ToggleRole(ctx context.Context, u client.UserRecord) error {
	next := client.RoleAdmin
	if u.Role == client.RoleAdmin {
		next = client.RoleUser
	}
	return o.mutate(ctx, TabUsers, "toggle_role", func(token string) error {
		_, err := o.api.UpdateUser(ctx, token, u.ID, client.UpdateUserRequest{Role: &next})
		return err
	})
}

// ToggleActive enables a disabled account or disables an active one.
func (o *Orchestrator) ToggleActive(ctx context.Context, u client.UserRecord) error {
	next := !u.IsActive
	return o.mutate(ctx, TabUsers, "toggle_active", func(token string) error {
		_, err := o.api.UpdateUser(ctx, token, u.ID, client.UpdateUserRequest{IsActive: &next})
		return err
	})
}

// SetPassword replaces a user's password.
func (o *Orchestrator) SetPassword(ctx context.Context, userID, password string) error {
	return o.mutate(ctx, TabUsers, "set_password", func(token string) error {
		_, err := o.api.UpdateUser(ctx, token, userID, client.UpdateUserRequest{Password: &password})
		return err
	})
}

// UploadDocument uploads file under title, exposing progress in the
// documents tab state until it settles, then reloads the document list.
// CancelUpload aborts it.
func (o *Orchestrator) UploadDocument(ctx context.Context, title string, file client.FileSource) (*client.UploadResult, error) {
	if strings.TrimSpace(title) == "" || file.Reader == nil {
		return nil, client.NewValidationError("upload document", "title and file are required")
	}
	o.mu.Lock()
	busy := o.state.Documents.Upload != nil
	o.mu.Unlock()
	if busy {
		return nil, ErrUploadInProgress
	}

	var res *client.UploadResult
	err := o.mutate(ctx, TabDocuments, "upload_document", func(token string) error {
		uctx, cancel := context.WithCancel(ctx)
		defer cancel()

		o.mu.Lock()
		if o.state.Documents.Upload != nil {
			o.mu.Unlock()
			return ErrUploadInProgress
		}
		mine := &UploadState{Title: title, FileName: file.Name}
		o.state.Documents.Upload = mine
		o.uploadCancel = cancel
		o.mu.Unlock()

		// A Reset may have replaced this upload's state; only touch it
		// while it is still ours.
		defer func() {
			o.mu.Lock()
			if o.state.Documents.Upload == mine {
				o.state.Documents.Upload = nil
				o.uploadCancel = nil
			}
			o.mu.Unlock()
		}()

		var err error
		res, err = o.api.UploadDocument(uctx, token, title, file, func(p int) {
			o.mu.Lock()
			if o.state.Documents.Upload == mine {
				mine.Percent = p
			}
			o.mu.Unlock()
		})
		return err
	})
	return res, err
}

// CancelUpload aborts the in-flight upload, if any.
func (o *Orchestrator) CancelUpload() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.uploadCancel != nil {
		o.uploadCancel()
	}
}
