package search

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcefinder/sourcefinder/client"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type fakeSearcher struct {
	calls atomic.Int32
	mu    sync.Mutex
	last  client.SearchQuery
	token string
	fn    func(ctx context.Context, q client.SearchQuery) (*client.SearchResponse, error)
}

func (f *fakeSearcher) Search(ctx context.Context, token string, q client.SearchQuery) (*client.SearchResponse, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.last, f.token = q, token
	f.mu.Unlock()
	return f.fn(ctx, q)
}

func TestController_Defaults(t *testing.T) {
	c := NewController(&fakeSearcher{}, nil)
	s := c.Snapshot()
	assert.Equal(t, float64(30), s.MinSimilarityPercent)
	assert.True(t, s.Rerank)
	assert.False(t, c.CanSubmit())
}

func TestController_EmptySubmitIssuesNoRequest(t *testing.T) {
	api := &fakeSearcher{}
	c := NewController(api, nil)
	c.SetText("   ")

	err := c.Submit(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrValidation)
	assert.Zero(t, api.calls.Load())
	assert.NotEmpty(t, c.Snapshot().Err)
}

func TestController_SubmitAppliesResults(t *testing.T) {
	api := &fakeSearcher{fn: func(_ context.Context, q client.SearchQuery) (*client.SearchResponse, error) {
		return &client.SearchResponse{Query: q.TrimmedText(), Results: []client.SearchResultItem{
			{DocumentID: "d1", Title: "Doc", Score: 0.92},
		}}, nil
	}}
	c := NewController(api, staticToken("tok"))
	c.SetText("  neural nets  ")
	c.SetMinSimilarityPercent(150)
	c.SetRerank(false)
	require.True(t, c.CanSubmit())

	require.NoError(t, c.Submit(context.Background()))

	s := c.Snapshot()
	require.Len(t, s.Results, 1)
	assert.Equal(t, "92.0%", s.Results[0].PercentLabel())
	assert.Equal(t, "neural nets", s.Query)
	assert.False(t, s.Loading)
	assert.Equal(t, "tok", api.token)
	th, ok := api.last.Threshold()
	require.True(t, ok)
	assert.Equal(t, float64(100), th)
	assert.False(t, api.last.RerankEnabled())
}

func TestController_FileOnlyQuery(t *testing.T) {
	api := &fakeSearcher{fn: func(context.Context, client.SearchQuery) (*client.SearchResponse, error) {
		return &client.SearchResponse{}, nil
	}}
	c := NewController(api, nil)
	c.SetFile(&client.FileSource{Name: "a.pdf", Reader: strings.NewReader("%PDF"), Size: 4})
	require.True(t, c.CanSubmit())
	require.NoError(t, c.Submit(context.Background()))
	assert.Empty(t, api.token)
	assert.Empty(t, api.last.TrimmedText())
}

func TestController_ErrorKeepsPreviousResults(t *testing.T) {
	fail := false
	api := &fakeSearcher{fn: func(context.Context, client.SearchQuery) (*client.SearchResponse, error) {
		if fail {
			return nil, client.NewHTTPError("search", 500, "index unavailable")
		}
		return &client.SearchResponse{Results: []client.SearchResultItem{{DocumentID: "d1"}}}, nil
	}}
	c := NewController(api, nil)
	c.SetText("q")
	require.NoError(t, c.Submit(context.Background()))

	fail = true
	require.Error(t, c.Submit(context.Background()))
	s := c.Snapshot()
	assert.Equal(t, "index unavailable", s.Err)
	assert.Len(t, s.Results, 1)
}

func TestController_OnlyLatestSubmissionApplies(t *testing.T) {
	release := make(chan struct{})
	api := &fakeSearcher{fn: func(_ context.Context, q client.SearchQuery) (*client.SearchResponse, error) {
		if q.Text == "slow" {
			<-release
		}
		return &client.SearchResponse{Query: q.Text, Results: []client.SearchResultItem{{DocumentID: q.Text}}}, nil
	}}
	c := NewController(api, nil)
	c.SetText("slow")

	errs := make(chan error, 1)
	go func() { errs <- c.Submit(context.Background()) }()
	require.Eventually(t, func() bool { return api.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, c.CanSubmit(), "submit is disabled while loading")

	c.SetText("fast")
	require.NoError(t, c.Submit(context.Background()))

	close(release)
	assert.ErrorIs(t, <-errs, ErrSuperseded)
	s := c.Snapshot()
	require.Len(t, s.Results, 1)
	assert.Equal(t, "fast", s.Results[0].DocumentID)
}

func TestController_ClearDropsInFlightAndKeepsSettings(t *testing.T) {
	release := make(chan struct{})
	api := &fakeSearcher{fn: func(context.Context, client.SearchQuery) (*client.SearchResponse, error) {
		<-release
		return &client.SearchResponse{Results: []client.SearchResultItem{{DocumentID: "late"}}}, nil
	}}
	c := NewController(api, nil)
	c.SetText("q")
	c.SetMinSimilarityPercent(55)

	errs := make(chan error, 1)
	go func() { errs <- c.Submit(context.Background()) }()
	require.Eventually(t, func() bool { return api.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	c.Clear()
	close(release)
	assert.ErrorIs(t, <-errs, ErrSuperseded)

	s := c.Snapshot()
	assert.Empty(t, s.Text)
	assert.Empty(t, s.Results)
	assert.Equal(t, float64(55), s.MinSimilarityPercent)
	assert.True(t, s.Rerank)
}
