package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apierrors "github.com/sourcefinder/sourcefinder/client/internal/errors"
	"github.com/sourcefinder/sourcefinder/client/internal/types"
)

const (
	uploadOperation = "upload document"
	uploadAborted   = "upload aborted"
)

// UploadDocument posts title and file as multipart form data while reporting
// progress through onProgress. It is not retried; a failed upload must be
// restarted by the caller.
//
// Unlike Do, a non-2xx failure carries the raw response text as its message
// and a 2xx body that is not JSON settles as raw text.
func UploadDocument(ctx context.Context, hc HTTPClient, baseURL, token, title string, file types.FileSource, onProgress types.ProgressFunc) (*types.UploadResult, error) {
	if err := types.ValidateRequired(title, "title"); err != nil {
		return nil, apierrors.NewValidationError(uploadOperation, err.Error())
	}
	if file.Reader == nil {
		return nil, apierrors.NewValidationError(uploadOperation, "file is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, apierrors.NewTransportError(ctx, uploadOperation, err, uploadAborted)
	}

	payload, err := newMultipartPayload([]formField{{"title", title}}, "file", &file)
	if err != nil {
		return nil, payloadError(uploadOperation, err)
	}
	body := newProgressReader(payload.body, payload.length, onProgress)
	httpReq, err := newHTTPRequest(ctx, baseURL, Request{
		Method:        http.MethodPost,
		Path:          "/admin/documents",
		Body:          body,
		ContentType:   payload.contentType,
		ContentLength: payload.length,
		Token:         token,
	})
	if err != nil {
		return nil, apierrors.NewValidationError(uploadOperation, err.Error())
	}

	start := time.Now()
	resp, err := hc.Do(httpReq)
	if err != nil {
		apiErr := apierrors.NewTransportError(ctx, uploadOperation, err, uploadAborted)
		observe(uploadOperation, outcomeFor(apiErr), start)
		return nil, apiErr
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr := apierrors.NewTransportError(ctx, uploadOperation, err, uploadAborted)
		observe(uploadOperation, outcomeFor(apiErr), start)
		return nil, apiErr
	}
	text := string(raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(text)
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		apiErr := apierrors.NewHTTPError(uploadOperation, resp.StatusCode, msg, text)
		observe(uploadOperation, outcomeFor(apiErr), start)
		return nil, apiErr
	}

	observe(uploadOperation, outcomeOK, start)
	result := &types.UploadResult{Raw: text}
	var doc types.Document
	if err := json.Unmarshal(raw, &doc); err == nil {
		result.Document = &doc
	}
	return result, nil
}
