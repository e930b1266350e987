package counter

import "testing"

func TestAdvanceOrWrap(t *testing.T) {
	c := New()
	c.RecomputeCapacity(2) // maxPossible = 3

	testCases := []struct {
		value    uint
		wrapped  bool
		maxValue uint
	}{
		{1, false, 1},
		{2, false, 2},
		{3, false, 3},
		{0, true, 3},
		{1, false, 3},
	}

	for i, tc := range testCases {
		v, w := c.AdvanceOrWrap()
		if v != tc.value || w != tc.wrapped {
			t.Errorf("press %d: got value %d wrapped %v, want %d %v", i+1, v, w, tc.value, tc.wrapped)
		}
		if m := c.MaxValue(); m != tc.maxValue {
			t.Errorf("press %d: got maxValue %d, want %d", i+1, m, tc.maxValue)
		}
	}
}

func TestAdvanceWithoutCapacity(t *testing.T) {
	c := New()

	// maxPossible == 0: every advance wraps immediately.
	for i := 0; i < 3; i++ {
		v, wrapped := c.AdvanceOrWrap()
		if v != 0 || !wrapped {
			t.Fatalf("advance %d: got value %d wrapped %v, want 0 true", i, v, wrapped)
		}
	}
	if c.MaxValue() != 0 {
		t.Errorf("maxValue changed on wrap: %d", c.MaxValue())
	}
}

func TestSetValueRaisesMax(t *testing.T) {
	c := New()
	c.RecomputeCapacity(2)

	// direct writes are not clamped against the capacity
	c.SetValue(7)
	if c.Value() != 7 {
		t.Errorf("got value %d, want 7", c.Value())
	}
	if c.MaxValue() != 7 {
		t.Errorf("got maxValue %d, want 7", c.MaxValue())
	}

	c.SetValue(2)
	if c.MaxValue() != 7 {
		t.Errorf("maxValue lowered by smaller write: %d", c.MaxValue())
	}
}

func TestSetMaxValue(t *testing.T) {
	c := New()
	c.SetValue(5)
	c.SetMaxValue(1)

	// the override is unconditional, even below the current value
	if c.MaxValue() != 1 {
		t.Errorf("got maxValue %d, want 1", c.MaxValue())
	}
	if c.Value() != 5 {
		t.Errorf("value changed by max override: %d", c.Value())
	}
}

func TestRecomputeCapacity(t *testing.T) {
	testCases := []struct {
		ledCount    int
		maxPossible uint
	}{
		{0, 0},
		{1, 1},
		{2, 3},
		{3, 7},
		{8, 255},
	}

	for _, tc := range testCases {
		c := New()
		c.RecomputeCapacity(tc.ledCount)
		if c.MaxPossible() != tc.maxPossible {
			t.Errorf("ledCount %d: got maxPossible %d, want %d", tc.ledCount, c.MaxPossible(), tc.maxPossible)
		}
	}
}

func TestRecomputeCapacityResetsOversizedValue(t *testing.T) {
	c := New()
	c.RecomputeCapacity(3)
	c.SetValue(6)

	c.RecomputeCapacity(2)
	if c.Value() != 0 {
		t.Errorf("got value %d, want 0 after shrinking capacity", c.Value())
	}
	if c.MaxValue() != 6 {
		t.Errorf("maxValue lost on capacity change: %d", c.MaxValue())
	}

	c.SetValue(2)
	c.RecomputeCapacity(2)
	if c.Value() != 2 {
		t.Errorf("value reset although it still fits: %d", c.Value())
	}
}

func TestResetCapacity(t *testing.T) {
	c := New()
	c.RecomputeCapacity(3)
	c.SetValue(5)

	c.ResetCapacity()
	if c.Value() != 0 || c.MaxPossible() != 0 {
		t.Errorf("got value %d maxPossible %d, want 0 0", c.Value(), c.MaxPossible())
	}
	if c.MaxValue() != 5 {
		t.Errorf("maxValue not preserved: %d", c.MaxValue())
	}
}

func TestMonotonicMax(t *testing.T) {
	c := New()
	c.RecomputeCapacity(3)

	last := uint(0)
	for i := 0; i < 20; i++ {
		c.AdvanceOrWrap()
		if c.MaxValue() < last {
			t.Fatalf("maxValue decreased: %d -> %d", last, c.MaxValue())
		}
		last = c.MaxValue()
	}
	if last != 7 {
		t.Errorf("got maxValue %d after 20 advances on 3 digits, want 7", last)
	}
}
