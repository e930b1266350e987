package app

import (
	"gpiocount/pkg/port"

	"github.com/womat/debug"
)

// handleEdge is the button edge dispatcher. It runs on the gpio event
// goroutine, so it must stay short and must not block: debounce check,
// counter advance, line writes, nothing else.
func (app *App) handleEdge(evt port.Event) {
	app.mu.Lock()

	if !app.gate.Accept() {
		app.mu.Unlock()
		debug.DebugLog.Printf("ignored bounce edge at %v", evt.Timestamp)
		return
	}

	value, wrapped := app.counter.AdvanceOrWrap()
	app.bank.Project(value)
	state := app.snapshot(wrapped)

	app.mu.Unlock()

	debug.InfoLog.Printf("button edge at %v: value %d (wrapped %v)", evt.Timestamp, value, wrapped)
	app.publishState(state)
}

// RebindButton replaces the increment button binding. The previous line
// is always released first; gpio 0 means unbound and only releases.
//
// Closing the old subscription may wait for a running edge handler, so it
// happens outside the counter lock; rebindMu keeps concurrent rebinds from
// interleaving their release and claim, which would leave a second line
// claimed with a live subscription behind the table.
func (app *App) RebindButton(gpio int) error {
	app.rebindMu.Lock()
	defer app.rebindMu.Unlock()

	app.mu.Lock()
	line := app.buttonLine
	app.buttonLine = nil
	app.buttonGpio = 0
	app.mu.Unlock()

	if line != nil {
		debug.InfoLog.Printf("releasing increment button on gpio %d", line.Gpio())
		if err := line.Close(); err != nil {
			debug.ErrorLog.Printf("releasing button line: %v", err)
		}
	}

	if gpio == 0 {
		return nil
	}

	newLine, err := app.gpio.InputLine(gpio, app.config.BounceTime, app.handleEdge)
	if err != nil {
		debug.ErrorLog.Printf("binding increment button on gpio %d: %v", gpio, err)
		return err
	}
	debug.InfoLog.Printf("increment button bound on gpio %d", gpio)

	app.mu.Lock()
	app.buttonGpio = gpio
	app.buttonLine = newLine
	app.mu.Unlock()

	return nil
}
