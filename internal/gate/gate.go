// Package gate rate-limits immediate alerts per (source, fingerprint) key.
package gate

import (
	"sync"
	"time"
)

type key struct {
	source      string
	fingerprint string
}

// Gate decides whether an immediate alert may fire now for a key. The
// decision and the state update are one atomic check-and-set, so two
// near-simultaneous qualifying lines never both pass within a window.
type Gate struct {
	window time.Duration

	mu   sync.Mutex
	last map[key]time.Time
}

func New(window time.Duration) *Gate {
	return &Gate{
		window: window,
		last:   make(map[key]time.Time),
	}
}

// Allow reports whether an alert for (source, fingerprint) may fire at now,
// recording now as the new lastAlertAt when it may. The window is inclusive
// at the lower bound: exactly window elapsed is enough to fire again.
// Suppressed calls leave state untouched.
func (g *Gate) Allow(source, fingerprint string, now time.Time) bool {
	k := key{source: source, fingerprint: fingerprint}

	g.mu.Lock()
	defer g.mu.Unlock()

	if last, ok := g.last[k]; ok && now.Sub(last) < g.window {
		return false
	}
	g.last[k] = now
	return true
}

// Window returns the configured rate-limit window.
func (g *Gate) Window() time.Duration { return g.window }
