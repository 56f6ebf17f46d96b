// Package search holds the state of a search form: the query being edited,
// the submission in flight and the results last applied.
package search

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sourcefinder/sourcefinder/client"
	"github.com/sourcefinder/sourcefinder/internal/guard"
)

// DefaultMinSimilarityPercent is the threshold a fresh form starts with.
const DefaultMinSimilarityPercent = 30

// ErrSuperseded is returned by Submit when a later submission or Clear
// replaced this one before it completed. Its outcome was not applied.
var ErrSuperseded = errors.New("search superseded by a newer submission")

// Searcher runs a query; *client.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, token string, q client.SearchQuery) (*client.SearchResponse, error)
}

// TokenSource supplies the bearer token, if any; *session.Store satisfies it.
type TokenSource interface {
	Token() string
}

// State is a snapshot of the form.
type State struct {
	Text                 string
	File                 *client.FileSource
	MinSimilarityPercent float64
	Rerank               bool

	Loading bool
	Query   string // echoed by the server for the applied results
	Results []client.SearchResultItem
	Err     string // human-readable, empty when none
}

// Controller is safe for concurrent use.
type Controller struct {
	api    Searcher
	tokens TokenSource
	log    zerolog.Logger

	gen guard.Generation

	mu    sync.Mutex
	state State
}

// NewController returns a controller with an empty form. tokens may be nil
// for anonymous searches.
func NewController(api Searcher, tokens TokenSource) *Controller {
	return &Controller{
		api:    api,
		tokens: tokens,
		log:    log.With().Str("component", "search").Logger(),
		state: State{
			MinSimilarityPercent: DefaultMinSimilarityPercent,
			Rerank:               true,
		},
	}
}

// SetText replaces the query text.
func (c *Controller) SetText(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Text = text
}

// SetFile attaches a file to the query; nil detaches it.
func (c *Controller) SetFile(f *client.FileSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.File = f
}

// SetMinSimilarityPercent sets the threshold, clamped to [0,100]. Non-finite
// values are ignored.
func (c *Controller) SetMinSimilarityPercent(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.MinSimilarityPercent = math.Max(0, math.Min(100, v))
}

// SetRerank toggles the rerank stage.
func (c *Controller) SetRerank(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Rerank = on
}

// CanSubmit reports whether the form has input and nothing is in flight.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queryLocked().HasInput() && !c.state.Loading
}

// Query builds the request the form currently describes.
func (c *Controller) Query() client.SearchQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queryLocked()
}

func (c *Controller) queryLocked() client.SearchQuery {
	threshold := c.state.MinSimilarityPercent
	rerank := c.state.Rerank
	return client.SearchQuery{
		Text:                 c.state.Text,
		File:                 c.state.File,
		MinSimilarityPercent: &threshold,
		Rerank:               &rerank,
	}
}

// Submit validates the form and runs the search. Queries without input are
// rejected locally with no request issued. Only the latest submission's
// outcome is applied; earlier ones return ErrSuperseded.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	q := c.queryLocked()
	if err := client.ValidateSearchQuery(q); err != nil {
		c.state.Err = err.Error()
		c.mu.Unlock()
		return client.NewValidationError("search", err.Error())
	}
	ticket := c.gen.Next()
	c.state.Loading = true
	c.state.Err = ""
	c.mu.Unlock()

	var token string
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	resp, err := c.api.Search(ctx, token, q)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.gen.IsCurrent(ticket) {
		c.log.Debug().Uint64("generation", ticket).Msg("discarding superseded search result")
		return ErrSuperseded
	}
	c.state.Loading = false
	if err != nil {
		c.state.Err = client.FriendlyMessage(err)
		if c.state.Err == "" {
			c.state.Err = "search failed"
		}
		c.log.Debug().Err(err).Msg("search failed")
		return err
	}
	c.state.Query = resp.Query
	c.state.Results = resp.Results
	return nil
}

// Clear resets text, file, results and error. The threshold and rerank
// settings are kept. An in-flight submission is dropped.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen.Next()
	c.state.Text = ""
	c.state.File = nil
	c.state.Loading = false
	c.state.Query = ""
	c.state.Results = nil
	c.state.Err = ""
}

// Snapshot returns a copy of the form state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Results = append([]client.SearchResultItem(nil), c.state.Results...)
	return s
}
