// Package counter implements the binary counter behind the LED display.
// It tracks the displayed value, the historical maximum and the largest
// value representable by the currently bound LED digits.
package counter

// Counter holds the three counter fields as one unit.
//
// Counter does no locking of its own; all mutations are expected to be
// serialized by the owner (see app). Keeping the lock outside makes the
// increment path and the administrative write paths share a single mutex.
type Counter struct {
	// value is the count currently shown on the LEDs.
	value uint
	// maxValue is the highest value ever reached via an increment or a
	// direct set. It is kept as a record and survives wraps and rebinds.
	maxValue uint
	// maxPossible is the largest value the bound LED digits can show,
	// 2^k-1 for k digits. Zero while no LEDs are bound.
	maxPossible uint
}

// New returns a zeroed counter: value 0, max value 0, no capacity.
func New() *Counter {
	return &Counter{}
}

// AdvanceOrWrap increments the value by one, raising maxValue if the new
// value exceeds it. If the value already equals maxPossible (including the
// degenerate case maxPossible == 0) the value wraps to 0 instead; a wrap
// leaves maxValue untouched.
//
// This is the single increment path, shared by the hardware button edge
// and the manual increment trigger.
func (c *Counter) AdvanceOrWrap() (value uint, wrapped bool) {
	if c.value < c.maxPossible {
		c.value++
		if c.value > c.maxValue {
			c.maxValue = c.value
		}
		return c.value, false
	}

	c.value = 0
	return c.value, true
}

// SetValue assigns the value directly. No capacity clamp is applied; the
// projector only encodes the low digit bits anyway. maxValue is raised if
// the new value exceeds it.
func (c *Counter) SetValue(v uint) {
	c.value = v
	if v > c.maxValue {
		c.maxValue = v
	}
}

// SetMaxValue overrides the historical maximum. No relation to the current
// value is enforced; this is an administrative write.
func (c *Counter) SetMaxValue(v uint) {
	c.maxValue = v
}

// RecomputeCapacity derives maxPossible from the number of bound LED
// digits. If the current value no longer fits it is reset to 0; maxValue
// stays as a record.
func (c *Counter) RecomputeCapacity(ledCount int) {
	c.maxPossible = 0
	for i := 0; i < ledCount; i++ {
		c.maxPossible = c.maxPossible<<1 | 1
	}
	if c.value > c.maxPossible {
		c.value = 0
	}
}

// ResetCapacity drops the capacity and the value to zero. Used when all
// LEDs are unbound or a bind is rolled back; maxValue is preserved.
func (c *Counter) ResetCapacity() {
	c.value = 0
	c.maxPossible = 0
}

// Value returns the currently displayed count.
func (c *Counter) Value() uint {
	return c.value
}

// MaxValue returns the historical maximum.
func (c *Counter) MaxValue() uint {
	return c.maxValue
}

// MaxPossible returns the capacity of the bound LED digits.
func (c *Counter) MaxPossible() uint {
	return c.maxPossible
}
