// SPDX-License-Identifier: Unlicense OR MIT

package pci

import (
	"fmt"
	"sync"

	"eliasnaur.com/freestand/ioport"
)

// Space emulates configuration space on a simulated port bus. Absent
// functions read as all ones.
type Space struct {
	mu      sync.Mutex
	addr    uint32
	devices map[Address]*[64]uint32
}

// Emulate installs an empty configuration space on s.
func Emulate(s *ioport.Sim) *Space {
	sp := &Space{devices: make(map[Address]*[64]uint32)}
	s.Handle(pciConfigAddrPort, func(uint16, int) uint32 {
		sp.mu.Lock()
		defer sp.mu.Unlock()
		return sp.addr
	}, func(_ uint16, _ int, v uint32) {
		sp.mu.Lock()
		defer sp.mu.Unlock()
		sp.addr = v
	})
	s.Handle(pciConfigDataPort, func(uint16, int) uint32 {
		sp.mu.Lock()
		defer sp.mu.Unlock()
		regs, reg := sp.selected()
		if regs == nil {
			return 0xffffffff
		}
		return regs[reg]
	}, func(_ uint16, _ int, v uint32) {
		sp.mu.Lock()
		defer sp.mu.Unlock()
		if regs, reg := sp.selected(); regs != nil {
			regs[reg] = v
		}
	})
	return sp
}

func (sp *Space) selected() (*[64]uint32, int) {
	if sp.addr&0x80000000 == 0 {
		return nil, 0
	}
	a := Address{
		Bus:      uint8(sp.addr >> 16),
		Device:   uint8(sp.addr>>11) & 0x1f,
		Function: uint8(sp.addr>>8) & 0x7,
	}
	return sp.devices[a], int(uint8(sp.addr)) / 4
}

// AddFunction adds a function with the given identity and header type.
func (sp *Space) AddFunction(a Address, vendor, device uint16, header uint8) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	regs := new([64]uint32)
	regs[0] = uint32(device)<<16 | uint32(vendor)
	regs[0xc/4] = uint32(header) << 16
	sp.devices[a] = regs
}

// Set stores val in register reg of a function added with AddFunction.
// It panics for any other address.
func (sp *Space) Set(a Address, reg uint8, val uint32) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	regs := sp.devices[a]
	if regs == nil {
		panic(fmt.Sprintf("pci: register %#x set on absent function %v", reg, a))
	}
	regs[reg/4] = val
}
