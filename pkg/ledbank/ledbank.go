// Package ledbank manages the bank of LEDs that displays the counter in
// binary: which GPIO line carries which binary digit, and the projection
// of a counter value onto those lines.
//
// The bank is either fully bound or fully unbound. A bind that fails half
// way through hardware activation rolls back every line it already
// claimed, so a partial binding is never observable.
package ledbank

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/womat/debug"

	"gpiocount/pkg/counter"
	"gpiocount/pkg/raspberry"
)

const (
	// MaxLEDs is the size of the LED table; descriptor entries beyond it
	// are silently discarded.
	MaxLEDs = 8
	// maxLineDigits is the accepted digit width of one descriptor entry.
	maxLineDigits = 3
)

var (
	// ErrBadDescriptor is the common ancestor of all descriptor parse
	// errors, for callers matching with errors.Is.
	ErrBadDescriptor = errors.New("malformed led descriptor")
	// ErrEmptyField marks an empty entry ("17,,23").
	ErrEmptyField = fmt.Errorf("empty gpio entry: %w", ErrBadDescriptor)
	// ErrNotANumber marks a non-numeric or negative entry.
	ErrNotANumber = fmt.Errorf("gpio entry is not a non-negative number: %w", ErrBadDescriptor)
	// ErrTooManyDigits marks an entry wider than maxLineDigits digits.
	ErrTooManyDigits = fmt.Errorf("gpio entry exceeds %d digits: %w", maxLineDigits, ErrBadDescriptor)

	// ErrAlreadyBound is returned by Bind while a binding exists; the
	// caller must Unbind first.
	ErrAlreadyBound = errors.New("leds already bound")
)

// LED is one bound digit: its line and the level it is currently driven to.
type LED struct {
	Gpio int  `json:"gpio"`
	On   bool `json:"on"`
}

// Bank is the LED side of the pin binding registry plus the projector.
//
// Bank does no locking; the owner serializes Bind/Unbind/Project with the
// counter mutations they accompany.
type Bank struct {
	gpio raspberry.GPIO
	leds []LED
	// lines holds the claimed output lines, parallel to leds.
	lines []raspberry.OutputLine
}

// New returns an unbound bank driving lines through gpio.
func New(gpio raspberry.GPIO) *Bank {
	return &Bank{gpio: gpio}
}

// ParseDescriptor splits a comma-separated list of GPIO numbers,
// LSB-first. An empty, non-numeric, negative or over-wide entry is a
// parse error; entries past MaxLEDs are dropped without error.
func ParseDescriptor(desc string) ([]int, error) {
	gpios := make([]int, 0, MaxLEDs)

	for _, field := range strings.Split(strings.TrimSpace(desc), ",") {
		if len(gpios) == MaxLEDs {
			debug.InfoLog.Print("too many LED gpios, skipping rest")
			break
		}

		switch {
		case field == "":
			return nil, ErrEmptyField
		case len(field) > maxLineDigits:
			return nil, ErrTooManyDigits
		}

		n, err := strconv.Atoi(field)
		if err != nil || n < 0 {
			return nil, ErrNotANumber
		}
		gpios = append(gpios, n)
	}

	return gpios, nil
}

// Bind parses the descriptor, recomputes the counter capacity for the new
// digit count and claims each line as an output, in ascending position.
//
// Callable only while unbound. A parse error leaves the bank and the
// counter untouched. If any line cannot be claimed, every line claimed so
// far is released again, the counter capacity is reset to zero and the
// device error is returned: all or nothing.
func (b *Bank) Bind(desc string, c *counter.Counter) error {
	if b.Bound() {
		return ErrAlreadyBound
	}

	gpios, err := ParseDescriptor(desc)
	if err != nil {
		return err
	}

	c.RecomputeCapacity(len(gpios))

	leds := make([]LED, 0, len(gpios))
	lines := make([]raspberry.OutputLine, 0, len(gpios))
	for _, g := range gpios {
		debug.InfoLog.Printf("initializing LED on gpio %d", g)

		line, err := b.gpio.OutputLine(g)
		if err != nil {
			debug.ErrorLog.Printf("bad LED gpio %d, releasing all: %v", g, err)
			for _, l := range lines {
				_ = l.Write(false)
				_ = l.Close()
			}
			c.ResetCapacity()
			return err
		}

		leds = append(leds, LED{Gpio: g})
		lines = append(lines, line)
	}

	b.leds = leds
	b.lines = lines
	return nil
}

// Unbind drives every bound line low, releases it and empties the table.
// The counter capacity drops to zero with the value; the historical
// maximum stays. Safe to call while unbound.
func (b *Bank) Unbind(c *counter.Counter) {
	for _, l := range b.lines {
		debug.InfoLog.Printf("releasing LED on gpio %d", l.Gpio())
		_ = l.Write(false)
		_ = l.Close()
	}
	b.leds = nil
	b.lines = nil
	c.ResetCapacity()
}

// Project drives the bank to show value in binary, position 0 carrying
// bit 0. Bits beyond the bound digits are not represented.
func (b *Bank) Project(value uint) {
	bits := value
	for i := range b.leds {
		on := bits&0x1 == 0x1
		bits >>= 1

		b.leds[i].On = on
		_ = b.lines[i].Write(on)
		debug.TraceLog.Printf("led %d (gpio %d) is %v", i, b.leds[i].Gpio, on)
	}
}

// Bound reports whether a binding exists.
func (b *Bank) Bound() bool {
	return len(b.leds) > 0
}

// Count returns the number of bound digits.
func (b *Bank) Count() int {
	return len(b.leds)
}

// Descriptor renders the bound lines back into the comma-separated,
// LSB-first form. Empty while unbound.
func (b *Bank) Descriptor() string {
	ids := make([]string, len(b.leds))
	for i, led := range b.leds {
		ids[i] = strconv.Itoa(led.Gpio)
	}
	return strings.Join(ids, ",")
}

// LEDs returns a snapshot of the bound digits and their levels.
func (b *Bank) LEDs() []LED {
	out := make([]LED, len(b.leds))
	copy(out, b.leds)
	return out
}
