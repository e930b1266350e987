package app

import (
	"encoding/json"
	"time"

	"gpiocount/pkg/ledbank"
	"gpiocount/pkg/mqtt"

	"github.com/womat/debug"
)

// stateMessage is the counter state as published to mqtt and served by
// the state endpoint.
type stateMessage struct {
	Time        time.Time     `json:"time"`
	Value       uint          `json:"value"`
	MaxValue    uint          `json:"max_value"`
	MaxPossible uint          `json:"max_possible"`
	Wrapped     bool          `json:"wrapped"`
	GpioLeds    string        `json:"gpio_leds"`
	GpioButton  int           `json:"gpio_button_increment"`
	Leds        []ledbank.LED `json:"leds"`
}

// Increment is the manual increment trigger. It advances the counter on
// the same path as the button edge, but is not debounce gated.
func (app *App) Increment() {
	app.mu.Lock()
	value, wrapped := app.counter.AdvanceOrWrap()
	app.bank.Project(value)
	state := app.snapshot(wrapped)
	app.mu.Unlock()

	debug.InfoLog.Printf("incremented to %d (wrapped %v)", value, wrapped)
	app.publishState(state)
}

// SetValue overrides the displayed value. The write is not clamped to the
// LED capacity; the projection shows the low digit bits.
func (app *App) SetValue(v uint) {
	app.mu.Lock()
	app.counter.SetValue(v)
	app.bank.Project(v)
	state := app.snapshot(false)
	app.mu.Unlock()

	debug.InfoLog.Printf("'value' set to %d", v)
	app.publishState(state)
}

// SetMaxValue overrides the historical maximum. The display is untouched.
func (app *App) SetMaxValue(v uint) {
	app.mu.Lock()
	app.counter.SetMaxValue(v)
	state := app.snapshot(false)
	app.mu.Unlock()

	debug.InfoLog.Printf("'max_value' set to %d", v)
	app.publishState(state)
}

// RebindLeds replaces the LED binding: unbind everything, then bind the
// new descriptor. There is no partial patch; a parse failure after the
// unbind leaves the LEDs unbound.
func (app *App) RebindLeds(desc string) error {
	app.mu.Lock()
	defer func() {
		state := app.snapshot(false)
		app.mu.Unlock()
		app.publishState(state)
	}()

	debug.InfoLog.Print("reloading LED gpios")
	app.bank.Unbind(app.counter)

	if err := app.bank.Bind(desc, app.counter); err != nil {
		return err
	}

	app.bank.Project(app.counter.Value())
	return nil
}

// Value returns the displayed value.
func (app *App) Value() uint {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.counter.Value()
}

// MaxValue returns the historical maximum.
func (app *App) MaxValue() uint {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.counter.MaxValue()
}

// LedsDescriptor returns the bound LED lines, comma-separated, LSB first.
func (app *App) LedsDescriptor() string {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.bank.Descriptor()
}

// ButtonGpio returns the bound button line, 0 when unbound.
func (app *App) ButtonGpio() int {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.buttonGpio
}

// State returns a snapshot of the full counter state.
func (app *App) State() stateMessage {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.snapshot(false)
}

// snapshot must be called with app.mu held.
func (app *App) snapshot(wrapped bool) stateMessage {
	return stateMessage{
		Time:        time.Now(),
		Value:       app.counter.Value(),
		MaxValue:    app.counter.MaxValue(),
		MaxPossible: app.counter.MaxPossible(),
		Wrapped:     wrapped,
		GpioLeds:    app.bank.Descriptor(),
		GpioButton:  app.buttonGpio,
		Leds:        app.bank.LEDs(),
	}
}

// publishState sends the state to the mqtt broker, fire and forget, so no
// caller ever blocks on the broker.
func (app *App) publishState(state stateMessage) {
	if app.config.MQTT.Connection == "" {
		return
	}

	go func() {
		b, err := json.Marshal(state)
		if err != nil {
			debug.ErrorLog.Printf("marshalling state: %v", err)
			return
		}

		app.mqtt.C <- mqtt.Message{
			Qos:      0,
			Retained: true,
			Topic:    app.config.MQTT.Topic,
			Payload:  b,
		}
	}()
}
