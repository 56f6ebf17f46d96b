package types

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in string
		ok bool
	}{
		{"a@b.com", true}, {"user.name@example.org", true}, {"", false}, {"   ", false}, {"not-an-email", false},
	}
	for _, c := range cases {
		err := ValidateEmail(c.in)
		if c.ok {
			assert.NoError(t, err, c.in)
		} else {
			assert.Error(t, err, c.in)
		}
	}
}

func TestValidateRole(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateRole("user"))
	assert.NoError(t, ValidateRole("admin"))
	assert.Error(t, ValidateRole("root"))
	assert.Error(t, ValidateRole(""))
}

func TestValidateSearchQuery(t *testing.T) {
	t.Parallel()
	assert.Error(t, ValidateSearchQuery(SearchQuery{}))
	assert.Error(t, ValidateSearchQuery(SearchQuery{Text: " \n\t "}))
	assert.NoError(t, ValidateSearchQuery(SearchQuery{Text: "quantum"}))
	assert.NoError(t, ValidateSearchQuery(SearchQuery{File: &FileSource{Name: "a.pdf", Reader: strings.NewReader("x"), Size: 1}}))
	assert.Error(t, ValidateSearchQuery(SearchQuery{File: &FileSource{Name: "a.pdf"}}))
}

func TestSearchQuery_ThresholdAndRerank(t *testing.T) {
	t.Parallel()
	q := SearchQuery{}
	_, ok := q.Threshold()
	assert.False(t, ok)
	assert.True(t, q.RerankEnabled())

	nan := math.NaN()
	q.MinSimilarityPercent = &nan
	_, ok = q.Threshold()
	assert.False(t, ok)

	over := 140.0
	q.MinSimilarityPercent = &over
	v, ok := q.Threshold()
	assert.True(t, ok)
	assert.Equal(t, 100.0, v)

	off := false
	q.Rerank = &off
	assert.False(t, q.RerankEnabled())
}

func TestScorePercent(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "92.0%", SearchResultItem{Score: 0.92}.PercentLabel())
	assert.Equal(t, 100.0, ScorePercent(1.7))
	assert.Equal(t, 0.0, ScorePercent(-0.2))
	assert.Equal(t, 0.0, ScorePercent(math.NaN()))
}
