// SPDX-License-Identifier: Unlicense OR MIT

// Package kernel brings up the shared devices of a machine and owns the
// process-wide console.
package kernel

import (
	"context"
	"time"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"eliasnaur.com/freestand/arch"
	"eliasnaur.com/freestand/cmos"
	"eliasnaur.com/freestand/config"
	"eliasnaur.com/freestand/console"
	"eliasnaur.com/freestand/ioport"
	"eliasnaur.com/freestand/lock"
	"eliasnaur.com/freestand/pci"
	"eliasnaur.com/freestand/vga"
)

var logger = loggo.GetLogger("freestand.kernel")

// Machine is the set of devices shared by every context of the kernel.
type Machine struct {
	Console *console.Console
	Clock   *lock.GatedCell[cmos.Clock]
	PCI     *lock.Cell[pci.Config]
	// Policy is the retry policy for callers that may sleep.
	Policy console.Policy

	bus  ioport.Bus
	idle func()
}

// Boot builds the machine and prints the greetings: "Hello COM1!" on
// the serial port and "Hello VGA!", a blank line and "Btw, 42" on the
// screen.
func Boot(ctx context.Context, cfg config.Config, bus ioport.Bus, screen *lock.Region[vga.Buffer], stats console.Stats) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	color, err := cfg.VGA.ColorCode()
	if err != nil {
		return nil, errors.Trace(err)
	}
	m := &Machine{
		Clock:  cmos.NewGuarded(bus),
		PCI:    pci.NewConfig(bus),
		Policy: cfg.Retry.Policy(),
		bus:    bus,
		idle:   arch.Idle,
	}
	m.Console, err = console.New(console.Options{
		Bus:        bus,
		SerialBase: cfg.Serial.Base,
		Baud:       cfg.Serial.Baud,
		Screen:     screen,
		Color:      color,
		Stats:      stats,
		Idle:       func() { m.idle() },
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if err := m.Console.COM1.PrintRetry(ctx, m.Policy, "Hello COM1!\n"); err != nil {
		return nil, errors.Trace(err)
	}
	if err := m.Console.VGA.PrintRetry(ctx, m.Policy, "Hello VGA!\n\n"); err != nil {
		return nil, errors.Trace(err)
	}
	if err := m.Console.VGA.PrintfRetry(ctx, m.Policy, "Btw, %d\n", 42); err != nil {
		return nil, errors.Trace(err)
	}
	logger.Infof("booted with %s port backend", cfg.Backend)
	return m, nil
}

// Idle waits for the next interrupt, or yields when hosted.
func (m *Machine) Idle() {
	m.idle()
}

// Now reads the real time clock. It reports false if the clock is in use,
// updating, or stuck in an update.
func (m *Machine) Now() (time.Time, bool) {
	var (
		t    time.Time
		read bool
	)
	locked := m.Clock.Try(func(c *cmos.Clock) {
		t, read = c.Read()
	})
	return t, locked && read
}

// Devices lists the PCI functions of the machine.
func (m *Machine) Devices() ([]pci.Address, error) {
	addrs, err := pci.Detect(m.PCI)
	return addrs, errors.Trace(err)
}
