package apitest

import (
	"cmp"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/sourcefinder/sourcefinder/client"
)

const (
	maxResults     = 10
	excerptRunes   = 240
	previewRunes   = 200
	rerankTitleMix = 0.3
)

func (s *Server) handleSearch(withRerank bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := s.now()
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeDetail(w, http.StatusBadRequest, "invalid multipart body")
			return
		}

		text := r.FormValue("text")
		hasFile := false
		if f, _, err := r.FormFile("file"); err == nil {
			data, rerr := io.ReadAll(f)
			_ = f.Close()
			if rerr != nil {
				writeDetail(w, http.StatusBadRequest, "could not read file")
				return
			}
			text, hasFile = string(data), true
		}

		var minScore float64
		if raw := r.FormValue("min_similarity_percent"); raw != "" {
			p, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				writeMissingField(w, "body", "min_similarity_percent")
				return
			}
			minScore = max(0, min(100, p)) / 100
		}
		rerank := false
		if withRerank {
			rerank = true
			if raw := r.FormValue("rerank"); raw != "" {
				b, err := strconv.ParseBool(raw)
				if err != nil {
					writeMissingField(w, "body", "rerank")
					return
				}
				rerank = b
			}
		}

		query := strings.TrimSpace(text)
		if query == "" {
			writeJSON(w, http.StatusOK, client.SearchResponse{Query: "", Results: []client.SearchResultItem{}})
			return
		}

		results := s.rank(query, minScore, rerank)

		var userID *string
		if u, _ := s.userFromRequest(r); u != nil {
			id := u.ID
			userID = &id
		}
		preview := truncateRunes(query, previewRunes)
		s.mu.Lock()
		s.events = append(s.events, client.SearchEvent{
			ID:           uuid.NewString(),
			CreatedAt:    client.NewTimestamp(s.now().UTC()),
			UserID:       userID,
			QueryLen:     len([]rune(query)),
			QueryPreview: &preview,
			HasFile:      hasFile,
			DurationMS:   int(s.now().Sub(started).Milliseconds()),
			ResultsCount: len(results),
		})
		s.mu.Unlock()

		writeJSON(w, http.StatusOK, client.SearchResponse{Query: query, Results: results})
	}
}

// rank scores every document by the share of distinct query terms it
// contains and keeps those at or above minScore.
func (s *Server) rank(query string, minScore float64, rerank bool) []client.SearchResultItem {
	terms := uniqueTerms(query)
	if len(terms) == 0 {
		return []client.SearchResultItem{}
	}

	s.mu.Lock()
	docs := make([]document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, *d)
	}
	s.mu.Unlock()

	results := []client.SearchResultItem{}
	for _, d := range docs {
		contentTerms := termSet(d.content)
		matched := 0
		for _, t := range terms {
			if contentTerms[t] {
				matched++
			}
		}
		score := float64(matched) / float64(len(terms))
		if matched == 0 || score < minScore {
			continue
		}
		item := client.SearchResultItem{
			DocumentID: d.ID,
			Title:      d.Title,
			Score:      score,
			Excerpt:    excerpt(d.content, terms),
		}
		if page := firstMatchPage(d.content, terms); page > 0 {
			item.PageNumber = &page
		}
		if rerank {
			titleTerms := termSet(d.Title)
			titleHits := 0
			for _, t := range terms {
				if titleTerms[t] {
					titleHits++
				}
			}
			rs := (1-rerankTitleMix)*score + rerankTitleMix*float64(titleHits)/float64(len(terms))
			item.RerankScore = &rs
		}
		results = append(results, item)
	}

	slices.SortStableFunc(results, func(a, b client.SearchResultItem) int {
		return cmp.Compare(rankKey(b), rankKey(a))
	})
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

func rankKey(it client.SearchResultItem) float64 {
	if it.RerankScore != nil {
		return *it.RerankScore
	}
	return it.Score
}

func splitTerms(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func uniqueTerms(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range splitTerms(s) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func termSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, t := range splitTerms(s) {
		set[t] = true
	}
	return set
}

func firstMatchPage(content string, terms []string) int {
	for i, page := range strings.Split(content, "\f") {
		set := termSet(page)
		for _, t := range terms {
			if set[t] {
				return i + 1
			}
		}
	}
	return 0
}

// excerpt returns a window of content starting near the first matched term.
func excerpt(content string, terms []string) string {
	text := strings.Join(strings.Fields(content), " ")
	lower := strings.ToLower(text)
	pos := -1
	for _, t := range terms {
		if p := strings.Index(lower, t); p != -1 && (pos == -1 || p < pos) {
			pos = p
		}
	}
	if pos <= 0 {
		return truncateRunes(text, excerptRunes)
	}
	pos = min(pos, len(text))
	start := strings.LastIndex(text[:pos], " ")
	if start < 0 {
		start = 0
	}
	return "…" + truncateRunes(strings.TrimSpace(text[start:]), excerptRunes)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
