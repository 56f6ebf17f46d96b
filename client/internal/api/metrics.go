package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apierrors "github.com/sourcefinder/sourcefinder/client/internal/errors"
)

const outcomeOK = "ok"

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sourcefinder_client",
			Name:      "requests_total",
			Help:      "API calls by logical operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sourcefinder_client",
			Name:      "request_duration_seconds",
			Help:      "Latency of API calls that reached the network.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	uploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sourcefinder_client",
			Name:      "upload_bytes_total",
			Help:      "Bytes of multipart upload bodies pulled by the transport.",
		},
	)
)

func observe(operation, outcome string, start time.Time) {
	requestsTotal.WithLabelValues(operation, outcome).Inc()
	requestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func outcomeFor(err *apierrors.APIError) string {
	if err.Kind == apierrors.KindHTTP {
		switch {
		case err.StatusCode >= 500:
			return "http_5xx"
		case err.StatusCode >= 400:
			return "http_4xx"
		default:
			return "http_other"
		}
	}
	return err.Kind.String()
}
