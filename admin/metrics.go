package admin

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reloadFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sourcefinder",
			Subsystem: "admin",
			Name:      "reload_failures_total",
			Help:      "Admin read model reloads that failed, by tab.",
		},
		[]string{"tab"},
	)

	mutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sourcefinder",
			Subsystem: "admin",
			Name:      "mutations_total",
			Help:      "Admin mutations by action and outcome.",
		},
		[]string{"action", "outcome"},
	)
)
