// Package raspberry is the hardware layer for the counter: LED lines are
// driven as outputs, the increment button is watched for rising edges.
//
// Two implementations share one interface: Chip talks to the real GPIO
// header, Emulator keeps everything in memory for the hardware-free mode
// and for tests. Line ownership is exclusive; a line must be closed before
// it can be requested again, by any role.
package raspberry

import (
	"errors"
	"time"

	"gpiocount/pkg/port"
)

// maxLine is the highest BCM GPIO number on the SoC.
const maxLine = 53

var (
	// ErrInvalidLine is returned for a GPIO number outside the BCM range.
	ErrInvalidLine = errors.New("invalid gpio line")
	// ErrLineInUse is returned when a line is requested twice without an
	// intervening Close.
	ErrLineInUse = errors.New("gpio line already in use")
)

// GPIO hands out exclusive lines on the pin header.
type GPIO interface {
	// OutputLine claims a line and configures it as a driven-low output.
	OutputLine(gpio int) (OutputLine, error)
	// InputLine claims a line as an input and subscribes handler to
	// rising edges. bounce is a best-effort hardware debounce hint; an
	// implementation unable to honor it still delivers raw edges.
	InputLine(gpio int, bounce time.Duration, handler func(port.Event)) (InputLine, error)
	// Close releases the chip. Lines must be closed independently.
	Close() error
}

// OutputLine is a single claimed output.
type OutputLine interface {
	// Gpio returns the BCM number of the line.
	Gpio() int
	// Write drives the line high (true) or low (false).
	Write(on bool) error
	// Close drives the line low and releases it.
	Close() error
}

// InputLine is a single claimed input with an active edge subscription.
type InputLine interface {
	// Gpio returns the BCM number of the line.
	Gpio() int
	// Close cancels the edge subscription and releases the line. It must
	// not be called from the edge handler itself.
	Close() error
}

func validLine(gpio int) bool {
	return gpio >= 0 && gpio <= maxLine
}
