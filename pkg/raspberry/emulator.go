package raspberry

import (
	"fmt"
	"sync"
	"time"

	"gpiocount/pkg/port"
)

// Emulator implements GPIO entirely in memory. It backs the hardware-free
// mode (enablegpio: false) and the tests: output levels are recorded
// instead of driven, and Trigger injects button edges.
type Emulator struct {
	mu sync.Mutex
	// owned tracks claimed lines, mirroring the exclusive ownership of
	// the real chip.
	owned map[int]bool
	// broken lines refuse to be claimed, to simulate unavailable gpios.
	broken map[int]bool
	// levels holds the last written level per output line.
	levels map[int]bool
	// handlers holds the edge subscription per input line.
	handlers map[int]func(port.Event)

	// handlerMu is held while a handler runs, so closing an input line
	// waits for an in-flight edge like the real chip does.
	handlerMu sync.Mutex

	epoch time.Time
}

// OpenEmulator returns an emulator with all lines available.
func OpenEmulator() *Emulator {
	return &Emulator{
		owned:    map[int]bool{},
		broken:   map[int]bool{},
		levels:   map[int]bool{},
		handlers: map[int]func(port.Event){},
		epoch:    time.Now(),
	}
}

// Close releases the emulator.
func (e *Emulator) Close() error {
	return nil
}

// SetBroken marks a line as unavailable; claiming it fails with
// ErrInvalidLine.
func (e *Emulator) SetBroken(gpio int) {
	e.mu.Lock()
	e.broken[gpio] = true
	e.mu.Unlock()
}

// Level returns the last level written to an output line.
func (e *Emulator) Level(gpio int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.levels[gpio]
}

// Claimed reports whether a line is currently owned.
func (e *Emulator) Claimed(gpio int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.owned[gpio]
}

// Trigger injects a rising edge on an input line, as if the button wired
// to it had been pressed. It is a no-op if the line has no subscription.
// A concurrent Close of the line waits until the handler has returned.
func (e *Emulator) Trigger(gpio int) {
	e.handlerMu.Lock()
	defer e.handlerMu.Unlock()

	e.mu.Lock()
	handler := e.handlers[gpio]
	ts := time.Since(e.epoch)
	e.mu.Unlock()

	if handler != nil {
		handler(port.Event{Timestamp: ts, Type: port.RisingEdge})
	}
}

func (e *Emulator) claim(g int) error {
	if !validLine(g) {
		return fmt.Errorf("gpio %d: %w", g, ErrInvalidLine)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.broken[g] {
		return fmt.Errorf("gpio %d: %w", g, ErrInvalidLine)
	}
	if e.owned[g] {
		return fmt.Errorf("gpio %d: %w", g, ErrLineInUse)
	}
	e.owned[g] = true
	return nil
}

// OutputLine claims gpio as a recorded output, level low.
func (e *Emulator) OutputLine(g int) (OutputLine, error) {
	if err := e.claim(g); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.levels[g] = false
	e.mu.Unlock()

	return &emuOutput{emu: e, gpio: g}, nil
}

// InputLine claims gpio and stores the edge subscription for Trigger.
// The bounce hint is ignored; the emulator delivers exactly the edges it
// is told to.
func (e *Emulator) InputLine(g int, _ time.Duration, handler func(port.Event)) (InputLine, error) {
	if err := e.claim(g); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.handlers[g] = handler
	e.mu.Unlock()

	return &emuInput{emu: e, gpio: g}, nil
}

type emuOutput struct {
	emu  *Emulator
	gpio int
}

func (l *emuOutput) Gpio() int {
	return l.gpio
}

func (l *emuOutput) Write(on bool) error {
	l.emu.mu.Lock()
	l.emu.levels[l.gpio] = on
	l.emu.mu.Unlock()
	return nil
}

func (l *emuOutput) Close() error {
	l.emu.mu.Lock()
	l.emu.levels[l.gpio] = false
	delete(l.emu.owned, l.gpio)
	l.emu.mu.Unlock()
	return nil
}

type emuInput struct {
	emu  *Emulator
	gpio int
}

func (l *emuInput) Gpio() int {
	return l.gpio
}

// Close waits for a running edge handler before releasing the line, like
// the chip's line close. It must not be called from the handler itself.
func (l *emuInput) Close() error {
	l.emu.handlerMu.Lock()
	defer l.emu.handlerMu.Unlock()

	l.emu.mu.Lock()
	delete(l.emu.handlers, l.gpio)
	delete(l.emu.owned, l.gpio)
	l.emu.mu.Unlock()
	return nil
}
