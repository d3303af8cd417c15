// SPDX-License-Identifier: Unlicense OR MIT

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"eliasnaur.com/freestand/config"
	"eliasnaur.com/freestand/vga"
)

func TestDefaultIsValid(t *testing.T) {
	c := qt.New(t)
	cfg := config.Default()
	c.Assert(cfg.Validate(), qt.IsNil)
	code, err := cfg.VGA.ColorCode()
	c.Assert(err, qt.IsNil)
	c.Assert(code, qt.Equals, vga.NewColorCode(vga.White, vga.Black))
}

func TestParse(t *testing.T) {
	c := qt.New(t)
	cfg, err := config.Parse([]byte(`
backend: devport
serial:
  base: 0x2f8
  baud: 9600
vga:
  foreground: light-green
retry:
  attempts: 3
  delay: 2ms
  max-delay: 10ms
metrics:
  listen: localhost:9100
`))
	c.Assert(err, qt.IsNil)
	want := config.Default()
	want.Backend = "devport"
	want.Serial.Base = 0x2f8
	want.Serial.Baud = 9600
	want.VGA.Foreground = "light-green"
	want.Retry = config.Retry{Attempts: 3, Delay: 2 * time.Millisecond, MaxDelay: 10 * time.Millisecond}
	want.Metrics.Listen = "localhost:9100"
	c.Assert(cfg, qt.DeepEquals, want)

	p := cfg.Retry.Policy()
	c.Assert(p.Attempts, qt.Equals, 3)
	c.Assert(p.Delay, qt.Equals, 2*time.Millisecond)
}

func TestParseEmpty(t *testing.T) {
	c := qt.New(t)
	cfg, err := config.Parse(nil)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg, qt.DeepEquals, config.Default())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		about string
		yaml  string
		err   string
	}{{
		about: "unknown backend",
		yaml:  "backend: serial",
		err:   `backend "serial" not valid`,
	}, {
		about: "unknown key",
		yaml:  "colour: red",
		err:   `parsing config: .*field colour not found.*`,
	}, {
		about: "bad baud",
		yaml:  "serial: {baud: 1000}",
		err:   `baud rate 1000 not valid`,
	}, {
		about: "bad colour",
		yaml:  "vga: {background: mauve}",
		err:   `background: colour "mauve" not valid`,
	}, {
		about: "invisible text",
		yaml:  "vga: {foreground: black}",
		err:   `black text on black background not valid`,
	}, {
		about: "no attempts",
		yaml:  "retry: {attempts: 0}",
		err:   `retry attempts 0 not valid`,
	}, {
		about: "bad log level",
		yaml:  "log: '<root>=LOUD'",
		err:   `log: .*`,
	}}
	for _, test := range tests {
		t.Run(test.about, func(t *testing.T) {
			c := qt.New(t)
			_, err := config.Parse([]byte(test.yaml))
			c.Assert(err, qt.ErrorMatches, test.err)
		})
	}
}

func TestLoad(t *testing.T) {
	c := qt.New(t)
	path := filepath.Join(c.TempDir(), "freestand.yaml")
	c.Assert(os.WriteFile(path, []byte("vga: {hardware: true}\n"), 0o644), qt.IsNil)
	cfg, err := config.Load(path)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.VGA.Hardware, qt.IsTrue)

	_, err = config.Load(filepath.Join(c.TempDir(), "missing.yaml"))
	c.Assert(err, qt.ErrorMatches, `open .*missing.yaml: no such file or directory`)
}
