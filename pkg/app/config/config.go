package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/womat/debug"
	"gopkg.in/yaml.v2"
)

// Config holds the application configuration.
// Config defines the struct of global config and the struct of the configuration file
type Config struct {
	// EnableGpio selects real hardware access; disabled, all binding and
	// projection logic runs against the in-memory emulator.
	EnableGpio bool `yaml:"enablegpio"`
	// BounceTimeInt is the debounce window in milliseconds.
	BounceTimeInt int           `yaml:"bouncetime"`
	BounceTime    time.Duration `yaml:"-"`
	// GpioLeds is an optional LED descriptor bound at startup,
	// comma-separated BCM numbers, least significant bit first.
	GpioLeds string `yaml:"gpioleds"`
	// GpioButton is an optional increment button bound at startup,
	// 0 means none.
	GpioButton int             `yaml:"gpiobutton"`
	Flag       FlagConfig      `yaml:"-"`
	Debug      DebugConfig     `yaml:"debug"`
	Webserver  WebserverConfig `yaml:"webserver"`
	MQTT       MQTTConfig      `yaml:"mqtt"`
}

// FlagConfig defines the configured flags (parameters)
type FlagConfig struct {
	LogLevel   string
	ConfigFile string
}

// WebserverConfig defines the struct of the webserver and webservice configuration and configuration file
type WebserverConfig struct {
	URL         string          `yaml:"url"`
	Webservices map[string]bool `yaml:"webservices"`
}

// MQTTConfig defines the struct of the mqtt client configuration and configuration file
type MQTTConfig struct {
	Connection string `yaml:"connection"`
	Topic      string `yaml:"topic"`
}

// DebugConfig defines the struct of the debug configuration and configuration file
type DebugConfig struct {
	File       io.WriteCloser `yaml:"-"`
	Flag       int            `yaml:"-"`
	FlagString string         `yaml:"flag"`
	FileString string         `yaml:"file"`
}

func NewConfig() *Config {
	return &Config{
		EnableGpio:    false,
		BounceTimeInt: 200,
		Flag:          FlagConfig{},
		Debug: DebugConfig{
			FileString: "stderr",
			FlagString: "standard",
		},
		Webserver: WebserverConfig{
			URL: "http://0.0.0.0:4000",
			Webservices: map[string]bool{
				"version": true,
				"health":  true,
				"state":   true,
			},
		},
		MQTT: MQTTConfig{
			Connection: "",
			Topic:      "/gpiocount/state",
		},
	}
}

func (c *Config) LoadConfig() error {
	if err := c.readConfigFile(); err != nil {
		return fmt.Errorf("error reading config file %q: %w", c.Flag.ConfigFile, err)
	}

	if c.Flag.LogLevel != "" {
		c.Debug.FlagString = c.Flag.LogLevel
	}
	if err := c.setDebugConfig(); err != nil {
		return fmt.Errorf("unable to open debug file %q: %w", c.Debug.FileString, err)
	}

	c.BounceTime = time.Duration(c.BounceTimeInt) * time.Millisecond

	return nil
}

func (c *Config) readConfigFile() error {
	file, err := os.Open(c.Flag.ConfigFile)
	if err != nil {
		// run on defaults without a config file
		if os.IsNotExist(err) {
			debug.InfoLog.Printf("config file %q not found, using defaults", c.Flag.ConfigFile)
			return nil
		}
		return err
	}
	defer func() { _ = file.Close() }()

	decoder := yaml.NewDecoder(file)
	if err = decoder.Decode(c); err != nil {
		return err
	}

	return nil
}

func (c *Config) setDebugConfig() (err error) {
	switch c.Debug.FlagString {
	case "trace", "full":
		c.Debug.Flag = debug.Full
	case "debug":
		c.Debug.Flag = debug.Warning | debug.Info | debug.Error | debug.Fatal | debug.Debug
	case "standard":
		c.Debug.Flag = debug.Standard
	}

	switch c.Debug.FileString {
	case "stderr":
		c.Debug.File = os.Stderr
	case "stdout":
		c.Debug.File = os.Stdout
	default:
		if c.Debug.File, err = os.OpenFile(c.Debug.FileString, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666); err != nil {
			return
		}
	}

	return
}
