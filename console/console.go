// SPDX-License-Identifier: Unlicense OR MIT

// Package console provides best-effort printing to the serial port and
// the text screen from any context, including ones that must never
// block.
//
// Every print tries each lock it needs exactly once. A print that cannot
// get its locks does nothing and reports false; the Print family turns
// that into a panic for callers that treat contention as a bug.
package console

import (
	"fmt"
	"io"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"eliasnaur.com/freestand/arch"
	"eliasnaur.com/freestand/ioport"
	"eliasnaur.com/freestand/lock"
	"eliasnaur.com/freestand/uart"
	"eliasnaur.com/freestand/vga"
)

var logger = loggo.GetLogger("freestand.console")

// ErrBusy is returned when a target stayed locked for every attempt.
const ErrBusy = errors.ConstError("console busy")

// DefaultBaud is the serial line speed used when Options.Baud is zero.
const DefaultBaud = 38400

// Stats receives one call per lock attempt made by a target.
type Stats interface {
	Acquired(resource string)
	Contended(resource string)
}

type nopStats struct{}

func (nopStats) Acquired(string)  {}
func (nopStats) Contended(string) {}

// Options configure a Console.
type Options struct {
	// Bus reaches the serial port.
	Bus ioport.Bus
	// SerialBase is the port base of the serial target, uart.COM1 if zero.
	SerialBase uint16
	// Baud is the serial line speed, DefaultBaud if zero.
	Baud int
	// Screen is the text buffer of the screen target.
	Screen *lock.Region[vga.Buffer]
	// Color is the attribute of cleared and written cells, used as
	// given.
	Color vga.ColorCode
	// Stats, if set, counts lock attempts.
	Stats Stats
	// Idle is called while waiting for the serial transmitter. It
	// defaults to arch.Idle.
	Idle func()
}

// Console is a pair of print targets.
type Console struct {
	COM1 *Target
	VGA  *Target
}

// Target is one lockable output.
type Target struct {
	name  string
	stats Stats
	// try runs fn with the target's locks held and reports whether they
	// could all be acquired.
	try func(fn func(w io.Writer)) bool
}

// New returns a console over the given devices. Nothing is touched until
// the first print: the serial port is initialized by the first print to
// COM1 and the screen is cleared by the first print to VGA.
func New(opts Options) (*Console, error) {
	if opts.Bus == nil {
		return nil, errors.NotValidf("nil port bus")
	}
	if opts.Screen == nil {
		return nil, errors.NotValidf("nil screen")
	}
	if opts.SerialBase == 0 {
		opts.SerialBase = uart.COM1
	}
	if opts.Baud == 0 {
		opts.Baud = DefaultBaud
	}
	if _, err := uart.Divisor(opts.Baud); err != nil {
		return nil, errors.Trace(err)
	}
	if opts.Stats == nil {
		opts.Stats = nopStats{}
	}
	if opts.Idle == nil {
		opts.Idle = arch.Idle
	}
	return &Console{
		COM1: newSerial(opts),
		VGA:  newScreen(opts),
	}, nil
}

func newSerial(opts Options) *Target {
	serial := lock.NewCell(lock.NewLazy(func() uart.Port {
		p := uart.New(opts.Bus, opts.SerialBase).WithIdle(opts.Idle)
		if err := p.Init(opts.Baud); err != nil {
			panic(err)
		}
		logger.Debugf("serial port %#x initialized at %d baud", opts.SerialBase, opts.Baud)
		return p
	}))
	return &Target{
		name:  "COM1",
		stats: opts.Stats,
		try: func(fn func(w io.Writer)) bool {
			return serial.Try(func(port **lock.Lazy[uart.Port]) {
				fn((*port).Get())
			})
		},
	}
}

func newScreen(opts Options) *Target {
	screen := opts.Screen
	cursor := lock.NewPrimedCell(vga.NewCursor(opts.Color), func(c *vga.Cursor) {
		if !screen.Try(func(b *vga.Buffer) { b.Clear(c.Color) }) {
			logger.Warningf("screen busy, not cleared")
		}
	})
	return &Target{
		name:  "VGA",
		stats: opts.Stats,
		try: func(fn func(w io.Writer)) bool {
			acquired := false
			cursor.Try(func(c *vga.Cursor) {
				acquired = screen.Try(func(b *vga.Buffer) {
					fn(vga.Screen{Cursor: c, Buffer: b})
				})
			})
			return acquired
		},
	}
}

// Name returns the name of the target, such as "COM1".
func (t *Target) Name() string {
	return t.name
}

// TryWrite runs fn with exclusive access to the target and reports
// whether the target could be locked. It never waits.
func (t *Target) TryWrite(fn func(w io.Writer)) bool {
	ok := t.try(fn)
	if ok {
		t.stats.Acquired(t.name)
	} else {
		t.stats.Contended(t.name)
	}
	return ok
}

// TryPrint formats its arguments like fmt.Print and writes them if the
// target is free.
func (t *Target) TryPrint(a ...any) bool {
	return t.TryWrite(func(w io.Writer) { fmt.Fprint(w, a...) })
}

// TryPrintf is like TryPrint with a format.
func (t *Target) TryPrintf(format string, a ...any) bool {
	return t.TryWrite(func(w io.Writer) { fmt.Fprintf(w, format, a...) })
}

// TryPrintln is like TryPrint followed by a newline.
func (t *Target) TryPrintln(a ...any) bool {
	return t.TryWrite(func(w io.Writer) { fmt.Fprintln(w, a...) })
}

// Print is like TryPrint but panics if the target is busy.
func (t *Target) Print(a ...any) {
	t.must(t.TryPrint(a...))
}

// Printf is like TryPrintf but panics if the target is busy.
func (t *Target) Printf(format string, a ...any) {
	t.must(t.TryPrintf(format, a...))
}

// Println is like TryPrintln but panics if the target is busy.
func (t *Target) Println(a ...any) {
	t.must(t.TryPrintln(a...))
}

func (t *Target) must(ok bool) {
	if !ok {
		panic(errors.Annotatef(ErrBusy, "failed to lock %s", t.name))
	}
}
