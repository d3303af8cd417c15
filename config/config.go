// SPDX-License-Identifier: Unlicense OR MIT

// Package config reads the settings of the hosted commands.
package config

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"gopkg.in/yaml.v3"

	"eliasnaur.com/freestand/console"
	"eliasnaur.com/freestand/ioport"
	"eliasnaur.com/freestand/uart"
	"eliasnaur.com/freestand/vga"
)

// Config is the top-level configuration file.
type Config struct {
	// Backend selects the port bus: sim, devport or native.
	Backend string  `yaml:"backend"`
	Log     string  `yaml:"log"`
	Serial  Serial  `yaml:"serial"`
	VGA     VGA     `yaml:"vga"`
	Retry   Retry   `yaml:"retry"`
	Metrics Metrics `yaml:"metrics"`
}

type Serial struct {
	Base uint16 `yaml:"base"`
	Baud int    `yaml:"baud"`
	// Echo copies simulated serial output to standard output.
	Echo bool `yaml:"echo"`
}

type VGA struct {
	Address    uint64 `yaml:"address"`
	Foreground string `yaml:"foreground"`
	Background string `yaml:"background"`
	// Hardware maps the real text buffer instead of a private one.
	Hardware bool `yaml:"hardware"`
}

type Retry struct {
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
	MaxDelay time.Duration `yaml:"max-delay"`
}

type Metrics struct {
	// Listen is the address of the metrics endpoint. Empty disables it.
	Listen string `yaml:"listen"`
}

// Default returns the configuration used for missing keys.
func Default() Config {
	return Config{
		Backend: ioport.BackendSim,
		Log:     "<root>=INFO",
		Serial: Serial{
			Base: uart.COM1,
			Baud: console.DefaultBaud,
			Echo: true,
		},
		VGA: VGA{
			Address:    uint64(vga.BufferAddr),
			Foreground: vga.White.String(),
			Background: vga.Black.String(),
		},
		Retry: Retry{
			Attempts: 8,
			Delay:    time.Millisecond,
			MaxDelay: 50 * time.Millisecond,
		},
	}
}

// Parse decodes a YAML document over the defaults and validates the
// result. Unknown keys are errors.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, errors.Annotate(err, "parsing config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Trace(err)
	}
	return cfg, nil
}

// Load parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Trace(err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, errors.Annotatef(err, "%s", path)
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch c.Backend {
	case ioport.BackendSim, ioport.BackendDevPort, ioport.BackendNative:
	default:
		return errors.NotValidf("backend %q", c.Backend)
	}
	if _, err := loggo.ParseConfigString(c.Log); err != nil {
		return errors.Annotate(err, "log")
	}
	if c.Serial.Base == 0 {
		return errors.NotValidf("serial base 0")
	}
	if _, err := uart.Divisor(c.Serial.Baud); err != nil {
		return errors.Trace(err)
	}
	if _, err := c.VGA.ColorCode(); err != nil {
		return errors.Trace(err)
	}
	if c.VGA.Address == 0 {
		return errors.NotValidf("vga address 0")
	}
	return errors.Trace(c.Retry.Policy().Validate())
}

// ColorCode returns the attribute of the configured colours.
func (v VGA) ColorCode() (vga.ColorCode, error) {
	fg, err := vga.ParseColor(v.Foreground)
	if err != nil {
		return 0, errors.Annotate(err, "foreground")
	}
	bg, err := vga.ParseColor(v.Background)
	if err != nil {
		return 0, errors.Annotate(err, "background")
	}
	if fg == bg {
		return 0, errors.NotValidf("%s text on %s background", fg, bg)
	}
	return vga.NewColorCode(fg, bg), nil
}

// Policy returns the retry policy for printing.
func (r Retry) Policy() console.Policy {
	return console.Policy{
		Attempts: r.Attempts,
		Delay:    r.Delay,
		MaxDelay: r.MaxDelay,
	}
}
