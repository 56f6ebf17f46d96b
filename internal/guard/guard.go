// Package guard tags asynchronous work with a generation so that results of
// superseded calls can be recognised and dropped.
package guard

import "sync/atomic"

// Generation is a monotonically increasing counter. The zero value is ready
// to use and safe for concurrent access.
type Generation struct {
	n atomic.Uint64
}

// Next starts a new generation, invalidating every ticket issued before.
func (g *Generation) Next() uint64 { return g.n.Add(1) }

// Current returns the latest ticket without advancing.
func (g *Generation) Current() uint64 { return g.n.Load() }

// IsCurrent reports whether ticket is still the latest generation.
func (g *Generation) IsCurrent(ticket uint64) bool { return g.n.Load() == ticket }
