// Package debounce suppresses contact bounce on the increment button.
// A mechanical push-button produces a burst of edges per press; only the
// first edge within the bounce window may advance the counter.
package debounce

import "time"

// DefaultWindow is the minimum spacing between two accepted edges.
const DefaultWindow = 200 * time.Millisecond

// Clock is a monotonic millisecond time source. The reference epoch is
// captured at construction, so the values stay small and are immune to
// wall-clock adjustments (time.Since uses the monotonic clock).
type Clock struct {
	epoch time.Time
}

// NewClock captures the reference epoch.
func NewClock() *Clock {
	return &Clock{epoch: time.Now()}
}

// NowMs returns the elapsed milliseconds since the reference epoch.
func (c *Clock) NowMs() int64 {
	return time.Since(c.epoch).Milliseconds()
}

// Gate decides whether an incoming edge is a genuine press or bounce noise.
//
// Gate does no locking; the caller serializes Accept with the counter
// mutations it gates.
type Gate struct {
	clock *Clock
	// window is the minimum accepted edge spacing in milliseconds.
	window int64
	// lastAccepted is the NowMs instant of the last accepted edge.
	lastAccepted int64
}

// NewGate returns a gate over its own clock. A window of 0 falls back to
// DefaultWindow.
func NewGate(window time.Duration) *Gate {
	if window == 0 {
		window = DefaultWindow
	}
	return &Gate{
		clock:  NewClock(),
		window: window.Milliseconds(),
	}
}

// Accept reports whether an edge arriving now should be acted on. An
// accepted edge moves the window; a rejected edge leaves the gate state
// unchanged.
func (g *Gate) Accept() bool {
	return g.AcceptAt(g.clock.NowMs())
}

// AcceptAt is Accept with an explicit instant, in milliseconds on the
// gate's clock.
func (g *Gate) AcceptAt(nowMs int64) bool {
	if nowMs-g.lastAccepted < g.window {
		return false
	}
	g.lastAccepted = nowMs
	return true
}
