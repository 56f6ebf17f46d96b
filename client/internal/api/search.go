package api

import (
	"context"
	"net/http"
	"strconv"

	apierrors "github.com/sourcefinder/sourcefinder/client/internal/errors"
	"github.com/sourcefinder/sourcefinder/client/internal/types"
)

// Search submits q as a single multipart request. The token is optional.
func Search(ctx context.Context, hc HTTPClient, baseURL, token string, q types.SearchQuery) (*types.SearchResponse, error) {
	return search(ctx, hc, baseURL, token, "search", "/search", q, true)
}

// SearchBaseline runs the same query against the non-reranked endpoint.
func SearchBaseline(ctx context.Context, hc HTTPClient, baseURL, token string, q types.SearchQuery) (*types.SearchResponse, error) {
	return search(ctx, hc, baseURL, token, "baseline search", "/baseline/search", q, false)
}

func search(ctx context.Context, hc HTTPClient, baseURL, token, op, path string, q types.SearchQuery, withRerank bool) (*types.SearchResponse, error) {
	if err := types.ValidateSearchQuery(q); err != nil {
		return nil, apierrors.NewValidationError(op, err.Error())
	}
	payload, err := newMultipartPayload(searchFields(q, withRerank), "file", q.File)
	if err != nil {
		return nil, payloadError(op, err)
	}
	var sr types.SearchResponse
	if err := Do(ctx, hc, baseURL, Request{
		Operation:     op,
		Method:        http.MethodPost,
		Path:          path,
		Body:          payload.body,
		ContentType:   payload.contentType,
		ContentLength: payload.length,
		Token:         token,
	}, &sr); err != nil {
		return nil, err
	}
	if sr.Results == nil {
		sr.Results = []types.SearchResultItem{}
	}
	return &sr, nil
}

func searchFields(q types.SearchQuery, withRerank bool) []formField {
	var fields []formField
	if text := q.TrimmedText(); text != "" {
		fields = append(fields, formField{"text", text})
	}
	if v, ok := q.Threshold(); ok {
		fields = append(fields, formField{"min_similarity_percent", strconv.FormatFloat(v, 'f', -1, 64)})
	}
	if withRerank {
		fields = append(fields, formField{"rerank", strconv.FormatBool(q.RerankEnabled())})
	}
	return fields
}
