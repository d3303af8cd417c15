// SPDX-License-Identifier: Unlicense OR MIT

package console_test

import (
	"io"
	"strings"
	"sync"
	"testing"
	"unsafe"

	qt "github.com/frankban/quicktest"
	"golang.org/x/sync/errgroup"

	"eliasnaur.com/freestand/console"
	"eliasnaur.com/freestand/ioport"
	"eliasnaur.com/freestand/lock"
	"eliasnaur.com/freestand/uart"
	"eliasnaur.com/freestand/vga"
)

type counts struct {
	mu        sync.Mutex
	acquired  map[string]int
	contended map[string]int
}

func newCounts() *counts {
	return &counts{acquired: make(map[string]int), contended: make(map[string]int)}
}

func (s *counts) Acquired(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquired[name]++
}

func (s *counts) Contended(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contended[name]++
}

func (s *counts) contentions(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contended[name]
}

type fixture struct {
	sim    *ioport.Sim
	term   *uart.Terminal
	buf    *vga.Buffer
	screen *lock.Region[vga.Buffer]
	stats  *counts
	cons   *console.Console
}

func newFixture(c *qt.C) *fixture {
	f := &fixture{
		sim:   ioport.NewSim(),
		buf:   new(vga.Buffer),
		stats: newCounts(),
	}
	f.term = uart.Emulate(f.sim, uart.COM1, nil)
	f.screen = lock.UnsafeRegion[vga.Buffer](unsafe.Pointer(f.buf))
	cons, err := console.New(console.Options{
		Bus:    f.sim,
		Baud:   38400,
		Screen: f.screen,
		Color:  vga.NewColorCode(vga.LightGray, vga.Black),
		Stats:  f.stats,
		Idle:   func() {},
	})
	c.Assert(err, qt.IsNil)
	f.cons = cons
	return f
}

func TestSerialPrint(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)

	c.Assert(f.sim.Writes(uart.COM1+3), qt.HasLen, 0, qt.Commentf("port touched before first print"))
	f.cons.COM1.Println("Hello COM1!")
	f.cons.COM1.Printf("%d-%s\n", 42, "x")
	c.Assert(f.term.Output(), qt.Equals, "Hello COM1!\n42-x\n")

	divisor, lcr, fcr, mcr := f.term.LineSettings()
	c.Assert(divisor, qt.Equals, uint16(3))
	c.Assert(lcr, qt.Equals, uint8(0x03))
	c.Assert(fcr, qt.Equals, uint8(0xc7))
	c.Assert(mcr, qt.Equals, uint8(0x0b))
	c.Assert(f.stats.acquired["COM1"], qt.Equals, 2)
}

func TestSerialInitializedOnce(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)

	var g errgroup.Group
	var mu sync.Mutex
	printed := 0
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			for j := 0; j < 50; j++ {
				if f.cons.COM1.TryPrint("x") {
					mu.Lock()
					printed++
					mu.Unlock()
				}
			}
			return nil
		})
	}
	c.Assert(g.Wait(), qt.IsNil)

	dlab := 0
	for _, v := range f.sim.Writes(uart.COM1 + 3) {
		if v&0x80 != 0 {
			dlab++
		}
	}
	c.Assert(dlab, qt.Equals, 1)
	c.Assert(printed > 0, qt.IsTrue)
	c.Assert(f.term.Output(), qt.Equals, strings.Repeat("x", printed))
	c.Assert(f.stats.acquired["COM1"], qt.Equals, printed)
	c.Assert(f.stats.acquired["COM1"]+f.stats.contended["COM1"], qt.Equals, 16*50)
}

func TestScreenPrint(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)
	for i := 0; i < vga.Width*vga.Height; i++ {
		f.buf.Set(i, vga.Char{ASCII: '#', Color: 0x4f})
	}

	f.cons.VGA.Println("Hello VGA!")
	f.cons.VGA.Println()
	f.cons.VGA.Printf("Btw, %d\n", 42)
	c.Assert(f.buf.String(), qt.Equals, "Hello VGA!\n\nBtw, 42")
	c.Assert(f.buf.At(vga.Width*vga.Height-1), qt.Equals,
		vga.Char{ASCII: ' ', Color: vga.NewColorCode(vga.LightGray, vga.Black)})

	// The screen is cleared only once.
	f.buf.Set(vga.Width*vga.Height-1, vga.Char{ASCII: '#', Color: 0x4f})
	f.cons.VGA.Print("again")
	c.Assert(f.buf.At(vga.Width*vga.Height-1).ASCII, qt.Equals, byte('#'))
	c.Assert(f.buf.Row(3), qt.Equals, "again")
}

func TestScreenBusy(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)

	g, ok := f.screen.TryLock()
	c.Assert(ok, qt.IsTrue)
	c.Assert(f.cons.VGA.TryPrint("lost"), qt.IsFalse)
	c.Assert(func() { f.cons.VGA.Print("lost") }, qt.PanicMatches, `failed to lock VGA: console busy`)
	// The serial port is independent of the screen.
	c.Assert(f.cons.COM1.TryPrint("kept"), qt.IsTrue)
	g.Unlock()

	c.Assert(f.cons.VGA.TryPrint("shown"), qt.IsTrue)
	c.Assert(f.buf.Row(0), qt.Equals, "shown")
	c.Assert(f.stats.contended["VGA"], qt.Equals, 2)
	c.Assert(f.stats.acquired["VGA"], qt.Equals, 1)
}

func TestScreenColorUsedAsGiven(t *testing.T) {
	c := qt.New(t)
	var buf vga.Buffer
	for i := 0; i < vga.Width*vga.Height; i++ {
		buf.Set(i, vga.Char{ASCII: '#', Color: 0x4f})
	}
	cons, err := console.New(console.Options{
		Bus:    ioport.NewSim(),
		Screen: lock.UnsafeRegion[vga.Buffer](unsafe.Pointer(&buf)),
		Color:  vga.NewColorCode(vga.Black, vga.Black),
	})
	c.Assert(err, qt.IsNil)
	cons.VGA.Print("x")
	c.Assert(buf.At(0), qt.Equals, vga.Char{ASCII: 'x', Color: 0})
	c.Assert(buf.At(1), qt.Equals, vga.Char{ASCII: ' ', Color: 0})
}

func TestTryWriteNested(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c)

	ok := f.cons.VGA.TryWrite(func(w io.Writer) {
		io.WriteString(w, "outer")
		c.Check(f.cons.VGA.TryPrint("inner"), qt.IsFalse)
	})
	c.Assert(ok, qt.IsTrue)
	c.Assert(f.buf.String(), qt.Equals, "outer")
	c.Assert(f.cons.VGA.TryPrint("!"), qt.IsTrue)
	c.Assert(f.buf.String(), qt.Equals, "outer!")
}

func TestNewValidates(t *testing.T) {
	c := qt.New(t)
	var buf vga.Buffer
	screen := lock.UnsafeRegion[vga.Buffer](unsafe.Pointer(&buf))

	_, err := console.New(console.Options{Screen: screen})
	c.Assert(err, qt.ErrorMatches, `nil port bus not valid`)
	_, err = console.New(console.Options{Bus: ioport.NewSim()})
	c.Assert(err, qt.ErrorMatches, `nil screen not valid`)
	_, err = console.New(console.Options{Bus: ioport.NewSim(), Screen: screen, Baud: 7})
	c.Assert(err, qt.ErrorMatches, `baud rate 7 not valid`)
}
