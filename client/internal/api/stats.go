package api

import (
	"context"
	"net/http"

	apierrors "github.com/sourcefinder/sourcefinder/client/internal/errors"
	"github.com/sourcefinder/sourcefinder/client/internal/types"
)

// GetMetrics fetches the aggregate usage counters and recent search events.
func GetMetrics(ctx context.Context, hc HTTPClient, baseURL, token string) (*types.MetricsSnapshot, error) {
	var m types.MetricsSnapshot
	if err := Do(ctx, hc, baseURL, Request{
		Operation: "get metrics",
		Method:    http.MethodGet,
		Path:      "/admin/metrics",
		Token:     token,
	}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Health probes the API liveness endpoint.
func Health(ctx context.Context, hc HTTPClient, baseURL string) error {
	var hr types.HealthResponse
	if err := Do(ctx, hc, baseURL, Request{
		Operation: "health",
		Method:    http.MethodGet,
		Path:      "/health",
	}, &hr); err != nil {
		return err
	}
	if !hr.OK {
		return apierrors.NewHTTPError("health", http.StatusServiceUnavailable, "service reported not ok", "")
	}
	return nil
}
