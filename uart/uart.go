// SPDX-License-Identifier: Unlicense OR MIT

// Package uart drives 16550-compatible serial controllers through port
// I/O. A Port is a plain value and does no locking of its own; share it
// through a lock.Cell.
package uart

import (
	"github.com/juju/errors"

	"eliasnaur.com/freestand/arch"
	"eliasnaur.com/freestand/ioport"
)

// Base ports of the standard PC serial controllers.
const (
	COM1 uint16 = 0x3f8
	COM2 uint16 = 0x2f8
	COM3 uint16 = 0x3e8
	COM4 uint16 = 0x2e8
)

// ClockRate is the baud rate produced by a divisor of 1.
const ClockRate = 115200

// Register offsets from the base port.
const (
	regData    = 0 // THR/RBR, DLL while DLAB is set.
	regIER     = 1 // DLM while DLAB is set.
	regFCR     = 2
	regLCR     = 3
	regMCR     = 4
	regLSR     = 5
	regScratch = 7
)

const (
	lcrDLAB = 1 << 7
	lcr8N1  = 0x03

	// Enable and clear both FIFOs, 14 byte receive threshold.
	fcrEnable14 = 0xc7
	// DTR, RTS and OUT2 so the controller can raise its IRQ.
	mcrDTRRTSOut2 = 0x0b
	// Received data available interrupt.
	ierRxAvailable = 0x01

	lsrDataReady = 1 << 0
	lsrTHREmpty  = 1 << 5
)

// Port is one serial controller.
type Port struct {
	bus  ioport.Bus
	base uint16
	idle func()
}

// New returns the controller at base. Writes wait for the transmitter
// with arch.Idle.
func New(bus ioport.Bus, base uint16) Port {
	return Port{bus: bus, base: base, idle: arch.Idle}
}

// WithIdle returns a copy of p that calls idle while waiting for the
// transmitter.
func (p Port) WithIdle(idle func()) Port {
	p.idle = idle
	return p
}

// Base returns the controller's base port.
func (p Port) Base() uint16 {
	return p.base
}

// Divisor returns the divisor latch value for baud.
func Divisor(baud int) (uint16, error) {
	if baud <= 0 || baud > ClockRate || ClockRate%baud != 0 {
		return 0, errors.NotValidf("baud rate %d", baud)
	}
	return uint16(ClockRate / baud), nil
}

// Init programs the controller for baud, 8 data bits, no parity and one
// stop bit with FIFOs and the receive interrupt enabled. It must run
// once, before the port is shared.
func (p Port) Init(baud int) error {
	div, err := Divisor(baud)
	if err != nil {
		return errors.Trace(err)
	}
	p.out(regIER, 0x00)
	p.out(regLCR, lcrDLAB)
	p.out(regData, uint8(div))
	p.out(regIER, uint8(div>>8))
	p.out(regLCR, lcr8N1)
	p.out(regFCR, fcrEnable14)
	p.out(regMCR, mcrDTRRTSOut2)
	p.out(regIER, ierRxAvailable)
	return nil
}

// Present reports whether a controller answers at the base port. An empty
// slot reads as a floating bus.
func (p Port) Present() bool {
	return p.in(regLSR) != 0xff
}

// TransmitEmpty reports whether the transmit holding register can take
// another byte.
func (p Port) TransmitEmpty() bool {
	return p.in(regLSR)&lsrTHREmpty != 0
}

// WriteByte waits for the transmitter and sends b. It never fails.
func (p Port) WriteByte(b byte) error {
	for !p.TransmitEmpty() {
		p.idle()
	}
	p.out(regData, b)
	return nil
}

// Write sends b byte by byte.
func (p Port) Write(b []byte) (int, error) {
	for _, c := range b {
		p.WriteByte(c)
	}
	return len(b), nil
}

// WriteString sends s byte by byte.
func (p Port) WriteString(s string) (int, error) {
	for i := 0; i < len(s); i++ {
		p.WriteByte(s[i])
	}
	return len(s), nil
}

// TryReadByte returns a received byte if one is waiting.
func (p Port) TryReadByte() (byte, bool) {
	if p.in(regLSR)&lsrDataReady == 0 {
		return 0, false
	}
	return p.in(regData), true
}

// Scratch writes v to the scratch register and returns what reads back.
// Controllers older than the 16450 have no scratch register.
func (p Port) Scratch(v uint8) uint8 {
	p.out(regScratch, v)
	return p.in(regScratch)
}

func (p Port) in(reg uint16) uint8 {
	return p.bus.Inb(p.base + reg)
}

func (p Port) out(reg uint16, v uint8) {
	p.bus.Outb(p.base+reg, v)
}
