package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var transitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "sourcefinder",
		Subsystem: "session",
		Name:      "transitions_total",
		Help:      "Session state transitions by target state.",
	},
	[]string{"to"},
)
