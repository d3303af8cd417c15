// SPDX-License-Identifier: Unlicense OR MIT

package ioport

import (
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ReadFunc supplies the value read from an emulated port.
type ReadFunc func(port uint16, size int) uint32

// WriteFunc receives a value written to an emulated port.
type WriteFunc func(port uint16, size int, val uint32)

// Access records one port access made through a Sim.
type Access struct {
	Write bool
	Port  uint16
	// Size is the access width in bytes: 1, 2 or 4.
	Size int
	Val  uint32
}

// maxLog bounds the access log of a long-running Sim.
const maxLog = 1 << 16

// Sim is an emulated port space for tests and hosted runs. Ports without
// a handler behave like plain registers that read back the last value
// written; untouched ports read as a floating bus (all ones).
type Sim struct {
	mu       sync.Mutex
	regs     map[uint16]uint32
	handlers map[uint16]handler
	// log is a ring of at most maxLog accesses; head is the oldest once
	// the ring is full.
	log  []Access
	head int
}

type handler struct {
	read  ReadFunc
	write WriteFunc
}

// NewSim returns an empty port space.
func NewSim() *Sim {
	return &Sim{
		regs:     make(map[uint16]uint32),
		handlers: make(map[uint16]handler),
	}
}

// Handle installs device emulation for port. A nil read or write
// function keeps the plain register behaviour for that direction.
// Handlers run without the Sim's internal lock and may call Set and Get.
func (s *Sim) Handle(port uint16, read ReadFunc, write WriteFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[port] = handler{read: read, write: write}
}

// Set stores val in the register at port without logging an access.
func (s *Sim) Set(port uint16, val uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[port] = val
}

// Get returns the register at port without logging an access.
func (s *Sim) Get(port uint16) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(port)
}

func (s *Sim) get(port uint16) uint32 {
	v, ok := s.regs[port]
	if !ok {
		return 0xffffffff
	}
	return v
}

// Log returns a copy of the recorded accesses, oldest first. Only the
// most recent accesses are kept.
func (s *Sim) Log() []Access {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ordered()
}

func (s *Sim) ordered() []Access {
	return append(slices.Clone(s.log[s.head:]), s.log[:s.head]...)
}

// Writes returns the values written to port, oldest first.
func (s *Sim) Writes(port uint16) []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var vals []uint32
	for _, a := range s.ordered() {
		if a.Write && a.Port == port {
			vals = append(vals, a.Val)
		}
	}
	return vals
}

// ResetLog discards the recorded accesses.
func (s *Sim) ResetLog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = s.log[:0]
	s.head = 0
}

// Ports returns the ports holding a register value, in ascending order.
func (s *Sim) Ports() []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ports := maps.Keys(s.regs)
	slices.Sort(ports)
	return ports
}

func (s *Sim) record(a Access) {
	if len(s.log) < maxLog {
		s.log = append(s.log, a)
		return
	}
	s.log[s.head] = a
	s.head = (s.head + 1) % maxLog
}

func (s *Sim) in(port uint16, size int) uint32 {
	s.mu.Lock()
	h := s.handlers[port]
	val := s.get(port)
	s.mu.Unlock()
	if h.read != nil {
		val = h.read(port, size)
	}
	val &= sizeMask(size)
	s.mu.Lock()
	s.record(Access{Port: port, Size: size, Val: val})
	s.mu.Unlock()
	return val
}

func (s *Sim) out(port uint16, size int, val uint32) {
	val &= sizeMask(size)
	s.mu.Lock()
	h := s.handlers[port]
	if h.write == nil {
		s.regs[port] = val
	}
	s.record(Access{Write: true, Port: port, Size: size, Val: val})
	s.mu.Unlock()
	if h.write != nil {
		h.write(port, size, val)
	}
}

func sizeMask(size int) uint32 {
	return uint32(uint64(1)<<(8*size) - 1)
}

func (s *Sim) Inb(port uint16) uint8        { return uint8(s.in(port, 1)) }
func (s *Sim) Outb(port uint16, val uint8)  { s.out(port, 1, uint32(val)) }
func (s *Sim) Inw(port uint16) uint16       { return uint16(s.in(port, 2)) }
func (s *Sim) Outw(port uint16, val uint16) { s.out(port, 2, uint32(val)) }
func (s *Sim) Inl(port uint16) uint32       { return s.in(port, 4) }
func (s *Sim) Outl(port uint16, val uint32) { s.out(port, 4, val) }
