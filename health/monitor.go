// Package health tracks liveness of the remote sourcefinder API.
package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Pinger is implemented by anything that can probe the API; *client.Client
// satisfies it. Health must return nil when the API is up.
type Pinger interface {
	Health(ctx context.Context) error
}

var apiUp = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "sourcefinder",
	Subsystem: "health",
	Name:      "api_up",
	Help:      "1 when the last health probe of the API succeeded.",
})

// Monitor periodically probes the API and caches the result in an atomic
// flag.
type Monitor struct {
	healthy atomic.Int32
	pinger  Pinger
	timeout time.Duration
	log     zerolog.Logger
}

// NewMonitor returns a monitor that starts in the DOWN state. Each probe is
// bounded by timeout.
func NewMonitor(log zerolog.Logger, pinger Pinger, timeout time.Duration) *Monitor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	m := &Monitor{pinger: pinger, timeout: timeout, log: log}
	m.healthy.Store(0)
	return m
}

// IsHealthy returns the cached API health.
func (m *Monitor) IsHealthy() bool { return m.healthy.Load() == 1 }

// Start probes immediately and then on every tick until ctx is done,
// logging each UP/DOWN transition.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := int32(0)
	eval := func() {
		pctx, cancel := context.WithTimeout(ctx, m.timeout)
		err := m.pinger.Health(pctx)
		cancel()
		if err == nil {
			m.healthy.Store(1)
			apiUp.Set(1)
		} else {
			m.healthy.Store(0)
			apiUp.Set(0)
		}
		cur := m.healthy.Load()
		if cur != prev {
			if cur == 1 {
				m.log.Info().Msg("api health: UP")
			} else {
				m.log.Error().Err(err).Msg("api health: DOWN")
			}
			prev = cur
		}
	}

	eval()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			eval()
		}
	}
}
