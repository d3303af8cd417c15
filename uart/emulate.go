// SPDX-License-Identifier: Unlicense OR MIT

package uart

import (
	"bytes"
	"io"
	"sync"

	"eliasnaur.com/freestand/ioport"
)

// Terminal is the far end of an emulated serial line. It collects what
// the driver transmits and feeds it received bytes.
type Terminal struct {
	mu      sync.Mutex
	out     bytes.Buffer
	echo    io.Writer
	pending []byte

	dlab    bool
	divisor uint16
	lcr     uint8
	ier     uint8
	fcr     uint8
	mcr     uint8
}

// Emulate installs a 16550 at base on s. Transmitted bytes are
// collected and, if echo is not nil, copied to echo.
func Emulate(s *ioport.Sim, base uint16, echo io.Writer) *Terminal {
	t := &Terminal{echo: echo}
	s.Handle(base+regData, func(uint16, int) uint32 {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.dlab {
			return uint32(uint8(t.divisor))
		}
		if len(t.pending) == 0 {
			return 0
		}
		b := t.pending[0]
		t.pending = t.pending[1:]
		return uint32(b)
	}, func(_ uint16, _ int, v uint32) {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.dlab {
			t.divisor = t.divisor&0xff00 | uint16(uint8(v))
			return
		}
		t.out.WriteByte(byte(v))
		if t.echo != nil {
			t.echo.Write([]byte{byte(v)})
		}
	})
	s.Handle(base+regIER, func(uint16, int) uint32 {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.dlab {
			return uint32(t.divisor >> 8)
		}
		return uint32(t.ier)
	}, func(_ uint16, _ int, v uint32) {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.dlab {
			t.divisor = t.divisor&0x00ff | uint16(uint8(v))<<8
			return
		}
		t.ier = uint8(v)
	})
	s.Handle(base+regFCR, nil, func(_ uint16, _ int, v uint32) {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.fcr = uint8(v)
	})
	s.Handle(base+regLCR, func(uint16, int) uint32 {
		t.mu.Lock()
		defer t.mu.Unlock()
		return uint32(t.lcr)
	}, func(_ uint16, _ int, v uint32) {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.lcr = uint8(v)
		t.dlab = t.lcr&lcrDLAB != 0
	})
	s.Handle(base+regMCR, nil, func(_ uint16, _ int, v uint32) {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.mcr = uint8(v)
	})
	s.Handle(base+regLSR, func(uint16, int) uint32 {
		t.mu.Lock()
		defer t.mu.Unlock()
		// The emulated transmitter drains instantly.
		lsr := uint32(lsrTHREmpty | 1<<6)
		if len(t.pending) > 0 {
			lsr |= lsrDataReady
		}
		return lsr
	}, nil)
	return t
}

// Output returns everything transmitted so far.
func (t *Terminal) Output() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.out.String()
}

// Type queues b for the driver to receive.
func (t *Terminal) Type(b []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = append(t.pending, b...)
}

// LineSettings returns the programmed divisor, line control, FIFO control
// and modem control registers.
func (t *Terminal) LineSettings() (divisor uint16, lcr, fcr, mcr uint8) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.divisor, t.lcr, t.fcr, t.mcr
}

// InterruptEnable returns the interrupt enable register.
func (t *Terminal) InterruptEnable() uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ier
}
