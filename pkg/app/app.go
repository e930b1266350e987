package app

import (
	"net/url"
	"sync"

	"gpiocount/pkg/app/config"
	"gpiocount/pkg/counter"
	"gpiocount/pkg/debounce"
	"gpiocount/pkg/ledbank"
	"gpiocount/pkg/mqtt"
	"gpiocount/pkg/raspberry"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// App is the main application struct.
// App is where the application is wired up.
type App struct {
	// web is the fiber web framework instance
	web *fiber.App

	// config is the application configuration
	config *config.Config

	// urlParsed contains the parsed Config.Webserver.URL parameter
	urlParsed *url.URL

	// mqtt is the handler to the mqtt broker
	mqtt *mqtt.Handler

	// gpio is the pin header: the real chip or the in-memory emulator,
	// selected by config.EnableGpio
	gpio raspberry.GPIO

	// mu serializes every mutation of the counter, the bindings and the
	// debounce gate. The button edge path and the web request paths run
	// concurrently and share this one lock.
	mu sync.Mutex

	// counter holds value, max value and capacity
	counter *counter.Counter

	// bank is the LED binding table and projector
	bank *ledbank.Bank

	// gate drops bounce edges of the increment button
	gate *debounce.Gate

	// rebindMu serializes button rebinds end to end, so the release of
	// the old line and the claim of the new one are observed as a single
	// step. mu alone cannot cover the pair: closing a subscription waits
	// for a running edge handler, which takes mu itself.
	rebindMu sync.Mutex
	// buttonGpio is the bound increment button line, 0 when unbound
	buttonGpio int
	// buttonLine is the active edge subscription, nil when unbound
	buttonLine raspberry.InputLine

	// shutdown signals application shutdown
	shutdown chan struct{}
}

// New checks the web server URL and initializes the main app structure.
func New(cfg *config.Config) (*App, error) {
	u, err := url.Parse(cfg.Webserver.URL)
	if err != nil {
		debug.ErrorLog.Printf("Error parsing url %q: %s", cfg.Webserver.URL, err.Error())
		return &App{}, err
	}

	return &App{
		config:    cfg,
		urlParsed: u,

		web:     fiber.New(),
		mqtt:    mqtt.New(),
		counter: counter.New(),

		shutdown: make(chan struct{}),
	}, nil
}

// Run starts the application.
func (app *App) Run() error {
	if err := app.init(); err != nil {
		return err
	}

	go app.mqtt.Service()
	go app.runWebServer()

	return nil
}

// init opens the hardware, builds the bank and the gate, applies the
// startup bindings and registers the routes.
func (app *App) init() (err error) {
	if app.config.EnableGpio {
		if app.gpio, err = raspberry.Open(); err != nil {
			debug.ErrorLog.Printf("can't open gpio: %v", err)
			return err
		}
	} else {
		debug.InfoLog.Print("gpio disabled, running against the emulator")
		app.gpio = raspberry.OpenEmulator()
	}

	app.bank = ledbank.New(app.gpio)
	app.gate = debounce.NewGate(app.config.BounceTime)

	if err = app.mqtt.Connect(app.config.MQTT.Connection); err != nil {
		debug.ErrorLog.Printf("can't open mqtt broker: %v", err)
		return err
	}

	// startup bindings use the same paths as the web facade; a failure
	// leaves the role unbound but the daemon usable
	if app.config.GpioLeds != "" {
		if err := app.RebindLeds(app.config.GpioLeds); err != nil {
			debug.ErrorLog.Printf("binding startup leds %q: %v", app.config.GpioLeds, err)
		}
	}
	if app.config.GpioButton != 0 {
		if err := app.RebindButton(app.config.GpioButton); err != nil {
			debug.ErrorLog.Printf("binding startup button %d: %v", app.config.GpioButton, err)
		}
	}

	// initRoutes should always be called last because it may access
	// things which must be initialized before
	app.initDefaultRoutes()
	app.initCounterRoutes()

	return nil
}

// Shutdown returns the read only shutdown channel.
// Shutdown is used to be able to react on application shutdown. (see cmd/gpiocount.go)
func (app *App) Shutdown() <-chan struct{} {
	return app.shutdown
}

// Close releases the bindings, the hardware and the broker connection.
func (app *App) Close() error {
	if app.gpio != nil {
		_ = app.RebindButton(0)
	}

	if app.bank != nil {
		app.mu.Lock()
		app.bank.Unbind(app.counter)
		app.mu.Unlock()
	}

	if app.gpio != nil {
		_ = app.gpio.Close()
	}

	if app.mqtt != nil {
		_ = app.mqtt.Disconnect()
	}

	return nil
}
