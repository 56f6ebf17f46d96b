package types

import (
	"fmt"
	"math"
)

// ------------------------------
// Response Types
// ------------------------------

// TokenResponse is returned by login and register.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// SearchResultItem is one ranked hit. Score is a similarity fraction in [0,1].
type SearchResultItem struct {
	DocumentID  string   `json:"document_id"`
	Title       string   `json:"title"`
	Score       float64  `json:"score"`
	RerankScore *float64 `json:"rerank_score,omitempty"`
	Excerpt     string   `json:"excerpt"`
	PageNumber  *int     `json:"page_number,omitempty"`
}

// Percent derives the display percentage, clamped to [0,100].
func (r SearchResultItem) Percent() float64 {
	return ScorePercent(r.Score)
}

// PercentLabel formats Percent with one decimal, e.g. "92.0%".
func (r SearchResultItem) PercentLabel() string {
	return fmt.Sprintf("%.1f%%", r.Percent())
}

// ScorePercent converts a similarity fraction to a clamped percentage.
func ScorePercent(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return math.Max(0, math.Min(100, score*100))
}

// SearchResponse wraps the /search result; Results keep server order.
type SearchResponse struct {
	Query   string             `json:"query"`
	Results []SearchResultItem `json:"results"`
}

// DeleteResponse is returned by DELETE /admin/documents/{id}.
type DeleteResponse struct {
	OK bool `json:"ok"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	OK bool `json:"ok"`
}

// UploadResult is the settled value of a document upload. Document is set
// when the server echoed JSON; Raw always holds the response text.
type UploadResult struct {
	Document *Document
	Raw      string
}
