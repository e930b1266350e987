package debounce

import (
	"testing"
	"time"
)

func TestGateSpacing(t *testing.T) {
	g := NewGate(200 * time.Millisecond)

	testCases := []struct {
		nowMs    int64
		accepted bool
	}{
		{250, true},  // first press, well past the epoch window
		{300, false}, // 50ms later: bounce
		{449, false}, // 199ms later: still inside the window
		{450, true},  // exactly 200ms later
		{650, true},  // 200ms after the last accepted edge
		{700, false}, // window counts from the accepted edge, not the rejected one
		{5000, true},
	}

	for _, tc := range testCases {
		if got := g.AcceptAt(tc.nowMs); got != tc.accepted {
			t.Errorf("edge at %dms: got %v, want %v", tc.nowMs, got, tc.accepted)
		}
	}
}

func TestGateRejectsEarlyEdges(t *testing.T) {
	// the window is measured from the reference epoch, so an edge in the
	// first 200ms of the process lifetime is dropped
	g := NewGate(200 * time.Millisecond)
	if g.AcceptAt(100) {
		t.Error("edge 100ms after epoch accepted")
	}
	if !g.AcceptAt(200) {
		t.Error("edge 200ms after epoch rejected")
	}
}

func TestGateDefaultWindow(t *testing.T) {
	g := NewGate(0)
	if g.window != DefaultWindow.Milliseconds() {
		t.Errorf("got window %dms, want %dms", g.window, DefaultWindow.Milliseconds())
	}
}

func TestClockMonotonic(t *testing.T) {
	c := NewClock()
	a := c.NowMs()
	time.Sleep(5 * time.Millisecond)
	b := c.NowMs()
	if b < a {
		t.Errorf("clock went backwards: %d -> %d", a, b)
	}
	if a < 0 {
		t.Errorf("negative instant: %d", a)
	}
}
