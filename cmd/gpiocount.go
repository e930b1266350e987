package main

import (
	"os"
	"os/signal"
	"sort"
	"syscall"

	"gpiocount/pkg/app"
	"gpiocount/pkg/app/config"

	"github.com/urfave/cli/v2"
	"github.com/womat/debug"
)

const defaultConfigFile = "/opt/womat/config/" + app.MODULE + ".yaml"

func main() {
	exitCode := 1
	defer func() {
		os.Exit(exitCode)
	}()

	// cfg holds the application configuration
	cfg := config.NewConfig()

	cliApp := &cli.App{
		Name:    app.MODULE,
		Usage:   "Binary counter on GPIO LEDs with a push-button increment",
		Version: app.VERSION,
		Description: "Drive a bank of LEDs as a binary counter and advance it on a debounced GPIO push-button." +
			"\n The counter attributes (value, max_value, gpio_leds, gpio_button_increment, increment)" +
			"\n are readable and writable over the web facade, and state changes are published to mqtt." +
			"\n Without enablegpio the counter runs hardware-free against an in-memory emulator.",
		UsageText: "gpiocount [--config <file>] [--log error|debug|trace]" +
			"\n\nEXAMPLE:" +
			"\n\tstart the counter and use the configuration file gpiocount.yaml" +
			"\n\t\tgpiocount --config /opt/womat/gpiocount.yaml",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Destination: &cfg.Flag.ConfigFile, Value: defaultConfigFile, Usage: "load configuration from `FILE`"},
			&cli.StringFlag{Name: "log", Aliases: []string{"l"}, Destination: &cfg.Flag.LogLevel, Value: "standard", Usage: "`LEVEL` defines the log level (fatal|info|warning|error|debug|trace)"},
		},
		Action: func(ctx *cli.Context) error {
			if err := cfg.LoadConfig(); err != nil {
				return err
			}

			debug.SetDebug(cfg.Debug.File, cfg.Debug.Flag)
			defer func() {
				debug.InfoLog.Printf("closing debug file %s", cfg.Debug.FileString)
				_ = cfg.Debug.File.Close()
			}()

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer func() {
				debug.InfoLog.Printf("closing app %s", app.Version())
				_ = a.Close()
			}()

			debug.InfoLog.Printf("starting app %s", app.Version())
			if err = a.Run(); err != nil {
				return err
			}

			// capture exit signals to ensure resources are released on exit.
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case sig := <-quit:
				debug.InfoLog.Printf("Got %s signal. Aborting...", sig)
			case <-a.Shutdown():
				debug.InfoLog.Print("App shutdown. Aborting...")
			}

			return nil
		},
	}

	// we expect to have more command line flags in the future - sort them
	sort.Sort(cli.FlagsByName(cliApp.Flags))
	sort.Sort(cli.CommandsByName(cliApp.Commands))

	if err := cliApp.Run(os.Args); err != nil {
		debug.FatalLog.Print(err)
		exitCode = 1
		return
	}

	exitCode = 0
}
