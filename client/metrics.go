package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsStartedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "sourcefinder_client",
			Name:      "uploads_started_total",
			Help:      "Upload tasks started.",
		},
	)

	uploadsSettledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sourcefinder_client",
			Name:      "uploads_settled_total",
			Help:      "Upload tasks settled, by outcome.",
		},
		[]string{"outcome"},
	)
)

func uploadOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind, ok := KindOf(err); ok {
		return kind.String()
	}
	return "error"
}
