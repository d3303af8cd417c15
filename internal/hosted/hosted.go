// SPDX-License-Identifier: Unlicense OR MIT

// Package hosted sets up the devices of a machine for the commands that
// run as ordinary processes.
package hosted

import (
	"fmt"
	"io"
	"os"
	"time"
	"unsafe"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"eliasnaur.com/freestand/cmos"
	"eliasnaur.com/freestand/config"
	"eliasnaur.com/freestand/ioport"
	"eliasnaur.com/freestand/lock"
	"eliasnaur.com/freestand/pci"
	"eliasnaur.com/freestand/uart"
	"eliasnaur.com/freestand/vga"
)

var logger = loggo.GetLogger("freestand.hosted")

// SetupLogging sends log output to stderr and applies the logger
// configuration levels, such as "<root>=INFO;freestand.pci=TRACE".
func SetupLogging(levels string) error {
	writer := loggo.NewSimpleWriter(os.Stderr, logFormatter)
	loggo.ReplaceDefaultWriter(writer)
	return errors.Trace(loggo.ConfigureLoggers(levels))
}

func logFormatter(entry loggo.Entry) string {
	ts := entry.Timestamp.In(time.UTC).Format("15:04:05.000")
	return fmt.Sprintf("%s %s %s %s", ts, entry.Level, entry.Module, entry.Message)
}

// Env is the port bus and screen of a hosted machine.
type Env struct {
	Bus ioport.Bus
	// Terminal is the far end of the serial port on the sim backend.
	Terminal *uart.Terminal
	// Buffer backs Screen.
	Buffer *vga.Buffer
	Screen *lock.Region[vga.Buffer]

	closers []func() error
}

// Open opens the port backend and the screen named by cfg. On the sim
// backend the serial port, clock and configuration space are emulated
// and serial output is copied to echo if cfg.Serial.Echo is set.
func Open(cfg config.Config, echo io.Writer) (_ *Env, err error) {
	bus, closer, err := ioport.Open(cfg.Backend)
	if err != nil {
		return nil, errors.Trace(err)
	}
	env := &Env{Bus: bus, closers: []func() error{closer.Close}}
	defer func() {
		if err != nil {
			env.Close()
		}
	}()
	if sim, ok := bus.(*ioport.Sim); ok {
		if !cfg.Serial.Echo {
			echo = nil
		}
		env.Terminal = simulate(sim, cfg.Serial.Base, echo)
	}
	if cfg.VGA.Hardware {
		buf, unmap, err := vga.MapHardware(vga.MemPath, uintptr(cfg.VGA.Address))
		if err != nil {
			return nil, errors.Trace(err)
		}
		env.Buffer = buf
		env.closers = append(env.closers, unmap)
	} else {
		env.Buffer = new(vga.Buffer)
	}
	env.Screen = lock.UnsafeRegion[vga.Buffer](unsafe.Pointer(env.Buffer))
	logger.Debugf("opened %s backend, hardware screen %v", cfg.Backend, cfg.VGA.Hardware)
	return env, nil
}

// Close releases the backend and unmaps the screen. The screen must not
// be used afterwards.
func (e *Env) Close() error {
	var first error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	e.closers = nil
	return errors.Trace(first)
}

// simulate installs the devices of a small PC on sim.
func simulate(sim *ioport.Sim, serialBase uint16, echo io.Writer) *uart.Terminal {
	term := uart.Emulate(sim, serialBase, echo)
	cmos.Emulate(sim, time.Now)
	sp := pci.Emulate(sim)
	// Host bridge, ISA bridge and IDE controller of the i440FX.
	sp.AddFunction(pci.Address{}, 0x8086, 0x1237, 0x00)
	sp.AddFunction(pci.Address{Device: 1}, 0x8086, 0x7000, 0x80)
	sp.AddFunction(pci.Address{Device: 1, Function: 1}, 0x8086, 0x7010, 0x00)
	// A VGA controller.
	vgaCtl := pci.Address{Device: 2}
	sp.AddFunction(vgaCtl, 0x1234, 0x1111, 0x00)
	sp.Set(vgaCtl, 0x08, 0x0300<<16)
	sp.Set(vgaCtl, 0x10, 0xfd000008)
	return term
}
