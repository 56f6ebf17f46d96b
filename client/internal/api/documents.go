package api

import (
	"context"
	"net/http"
	"net/url"

	apierrors "github.com/sourcefinder/sourcefinder/client/internal/errors"
	"github.com/sourcefinder/sourcefinder/client/internal/types"
)

// ListDocuments returns every ingested document, newest first.
func ListDocuments(ctx context.Context, hc HTTPClient, baseURL, token string) ([]types.Document, error) {
	var docs []types.Document
	if err := Do(ctx, hc, baseURL, Request{
		Operation: "list documents",
		Method:    http.MethodGet,
		Path:      "/admin/documents",
		Token:     token,
	}, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteDocument removes a document. Deleting an unknown id succeeds.
func DeleteDocument(ctx context.Context, hc HTTPClient, baseURL, token, documentID string) (*types.DeleteResponse, error) {
	if err := types.ValidateRequired(documentID, "document id"); err != nil {
		return nil, apierrors.NewValidationError("delete document", err.Error())
	}
	var dr types.DeleteResponse
	if err := Do(ctx, hc, baseURL, Request{
		Operation: "delete document",
		Method:    http.MethodDelete,
		Path:      "/admin/documents/" + url.PathEscape(documentID),
		Token:     token,
	}, &dr); err != nil {
		return nil, err
	}
	return &dr, nil
}
