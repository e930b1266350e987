package raspberry

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/gpio"
	"github.com/warthog618/gpiod"
	"github.com/womat/debug"

	"gpiocount/pkg/port"
)

// Chip drives the real GPIO header. Outputs use the memory-mapped
// /dev/gpiomem interface, the button input uses the gpiochip character
// device so the kernel delivers edge events.
type Chip struct {
	gpiodChip *gpiod.Chip

	mu sync.Mutex
	// owned tracks claimed lines by BCM number, for exclusive ownership.
	owned map[int]bool
}

// Open maps the GPIO memory range and opens the gpiochip device.
func Open() (*Chip, error) {
	if err := gpio.Open(); err != nil {
		return nil, fmt.Errorf("opening gpio memory range: %w", err)
	}

	c, err := gpiod.NewChip("gpiochip0")
	if err != nil {
		_ = gpio.Close()
		return nil, fmt.Errorf("opening gpiochip0: %w", err)
	}

	return &Chip{gpiodChip: c, owned: map[int]bool{}}, nil
}

// Close releases the chip device and unmaps the GPIO memory.
//
// It does not release any lines which may be requested - they must be
// closed independently.
func (c *Chip) Close() error {
	err := c.gpiodChip.Close()
	if e := gpio.Close(); err == nil {
		err = e
	}
	return err
}

func (c *Chip) claim(g int) error {
	if !validLine(g) {
		return fmt.Errorf("gpio %d: %w", g, ErrInvalidLine)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.owned[g] {
		return fmt.Errorf("gpio %d: %w", g, ErrLineInUse)
	}
	c.owned[g] = true
	return nil
}

func (c *Chip) release(g int) {
	c.mu.Lock()
	delete(c.owned, g)
	c.mu.Unlock()
}

// OutputLine claims gpio and configures it as an output, driven low.
func (c *Chip) OutputLine(g int) (OutputLine, error) {
	if err := c.claim(g); err != nil {
		return nil, err
	}

	p := gpio.NewPin(g)
	p.Output()
	p.Low()

	return &chipOutput{chip: c, gpio: g, pin: p}, nil
}

// InputLine claims gpio as an input and subscribes handler to rising
// edges. The bounce hint is requested from the kernel first; if the uAPI
// does not support debouncing the line is requested again without it and
// the software gate upstream remains the only debounce.
func (c *Chip) InputLine(g int, bounce time.Duration, handler func(port.Event)) (InputLine, error) {
	if err := c.claim(g); err != nil {
		return nil, err
	}

	eh := func(evt gpiod.LineEvent) {
		if evt.Type != gpiod.LineEventRisingEdge {
			return
		}
		handler(port.Event{Timestamp: evt.Timestamp, Type: port.RisingEdge})
	}

	opts := []gpiod.LineReqOption{gpiod.WithEventHandler(eh), gpiod.WithRisingEdge, gpiod.AsInput}

	line, err := c.gpiodChip.RequestLine(g, append(opts, gpiod.WithDebounce(bounce))...)
	if err != nil {
		debug.DebugLog.Printf("gpio %d: debounce hint rejected (%v), requesting without", g, err)
		line, err = c.gpiodChip.RequestLine(g, opts...)
	}
	if err != nil {
		c.release(g)
		return nil, fmt.Errorf("gpio %d: requesting line: %w", g, err)
	}

	return &chipInput{chip: c, gpio: g, line: line}, nil
}

type chipOutput struct {
	chip *Chip
	gpio int
	pin  *gpio.Pin
}

func (l *chipOutput) Gpio() int {
	return l.gpio
}

func (l *chipOutput) Write(on bool) error {
	if on {
		l.pin.High()
	} else {
		l.pin.Low()
	}
	return nil
}

func (l *chipOutput) Close() error {
	l.pin.Low()
	l.pin.Input()
	l.chip.release(l.gpio)
	return nil
}

type chipInput struct {
	chip *Chip
	gpio int
	line *gpiod.Line
}

func (l *chipInput) Gpio() int {
	return l.gpio
}

// Close releases all resources held by the requested line.
//
// Note that this includes waiting for any running event handler to return,
// so Close must be called from a different goroutine than the handler.
func (l *chipInput) Close() error {
	err := l.line.Close()
	l.chip.release(l.gpio)
	return err
}
