// SPDX-License-Identifier: Unlicense OR MIT

// Package pci enumerates devices through the legacy configuration
// mechanism: an address written to port 0xcf8 selects the register that
// port 0xcfc then reads or writes.
package pci

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"golang.org/x/exp/slices"

	"eliasnaur.com/freestand/ioport"
	"eliasnaur.com/freestand/lock"
)

var logger = loggo.GetLogger("freestand.pci")

// ErrBusy is returned when the configuration ports are held elsewhere.
const ErrBusy = errors.ConstError("pci configuration space busy")

// Address represents a PCI device.
type Address struct {
	Bus, Device, Function uint8
}

func (a Address) String() string {
	return fmt.Sprintf("%02x:%02x.%d", a.Bus, a.Device, a.Function)
}

func (a Address) compare(b Address) int {
	switch {
	case a.Bus != b.Bus:
		return int(a.Bus) - int(b.Bus)
	case a.Device != b.Device:
		return int(a.Device) - int(b.Device)
	default:
		return int(a.Function) - int(b.Function)
	}
}

const (
	pciConfigAddrPort = 0xcf8
	pciConfigDataPort = 0xcfc
)

// Capability IDs.
const (
	CapMSI  = 0x05
	CapMSIX = 0x11
)

// noDevice is the vendor ID read from empty slots.
const noDevice = 0xffff

// Config is the address/data port pair. Both ports form one register
// window, so a Config must be locked for the whole of any access
// sequence; NewConfig returns it in a cell for that purpose.
type Config struct {
	bus ioport.Bus
}

// NewConfig returns the configuration space reached through bus, guarded
// by a cell.
func NewConfig(bus ioport.Bus) *lock.Cell[Config] {
	return lock.NewCell(Config{bus: bus})
}

// Detect lists every function on every bus reachable from the host
// controllers, bridges included, sorted by address. The configuration
// ports stay locked for the whole walk.
func Detect(cfg *lock.Cell[Config]) ([]Address, error) {
	var addrs []Address
	if !cfg.Try(func(c *Config) { addrs = c.detect() }) {
		return nil, ErrBusy
	}
	slices.SortFunc(addrs, Address.compare)
	logger.Debugf("found %d functions", len(addrs))
	return addrs, nil
}

func (c Config) detect() []Address {
	var addrs []Address
	seen := make(map[uint8]bool)
	// Run through all possible PCI host controllers.
	for function := uint8(0); function <= 7; function++ {
		if (Address{Function: function}).ReadVendorID(c) == noDevice {
			break
		}
		c.searchBus(&addrs, seen, function)
	}
	return addrs
}

func (c Config) searchBus(addrs *[]Address, seen map[uint8]bool, bus uint8) {
	if seen[bus] {
		logger.Warningf("bus %d reached twice", bus)
		return
	}
	seen[bus] = true
	for device := uint8(0); device <= 31; device++ {
		c.searchDevice(addrs, seen, bus, device)
	}
}

func (c Config) searchDevice(addrs *[]Address, seen map[uint8]bool, bus, device uint8) {
	addr := Address{Bus: bus, Device: device}
	if addr.ReadVendorID(c) == noDevice {
		return
	}
	maxFunc := uint8(0)
	if addr.ReadHeaderType(c)&0x80 != 0 {
		// Multi-function device.
		maxFunc = 7
	}
	for function := uint8(0); function <= maxFunc; function++ {
		addr := addr
		addr.Function = function
		if addr.ReadVendorID(c) == noDevice {
			continue
		}
		switch addr.ReadHeaderType(c) & 0x7f {
		case 0x00:
			*addrs = append(*addrs, addr)
		case 0x01:
			// PCI-to-PCI bridge.
			*addrs = append(*addrs, addr)
			c.searchBus(addrs, seen, addr.readSecondaryBus(c))
		default:
			logger.Tracef("%v: skipping header type %#x", addr, addr.ReadHeaderType(c))
		}
	}
}

// Read returns the 32-bit register reg of a.
func (c Config) Read(a Address, reg uint8) uint32 {
	c.bus.Outl(pciConfigAddrPort, configAddress(a, reg))
	return c.bus.Inl(pciConfigDataPort)
}

// Write stores val in the 32-bit register reg of a.
func (c Config) Write(a Address, reg uint8, val uint32) {
	c.bus.Outl(pciConfigAddrPort, configAddress(a, reg))
	c.bus.Outl(pciConfigDataPort, val)
}

func configAddress(a Address, reg uint8) uint32 {
	if reg&0x3 != 0 {
		panic("unaligned PCI register access")
	}
	return 0x80000000 | uint32(a.Bus)<<16 | uint32(a.Device&0x1f)<<11 | uint32(a.Function&0x7)<<8 | uint32(reg)
}

// ReadBAR decodes base address register bar.
func (a Address) ReadBAR(c Config, bar uint8) (addr uint64, prefetch, isMem bool) {
	if bar > 0x5 {
		panic("invalid BAR")
	}
	addr0 := c.Read(a, 0x10+bar*4)
	if addr0&1 != 0 {
		// I/O address.
		return uint64(addr0 &^ 0b11), false, false
	}
	// Mask off flags.
	addr = uint64(addr0 &^ 0xf)
	switch (addr0 >> 1) & 0b11 {
	case 0b01:
		// 16-bit address. Not used.
		return addr, false, false
	case 0b10:
		// 64-bit address.
		if bar == 0x5 {
			panic("64-bit BAR in last slot")
		}
		addr |= uint64(c.Read(a, 0x10+(bar+1)*4)) << 32
	}
	prefetch = addr0&0b1000 != 0
	return addr, prefetch, true
}

func (a Address) ReadCapOffset(c Config) uint8 {
	return uint8(c.Read(a, 0x34)) &^ 0x3
}

func (a Address) ReadStatus(c Config) uint16 {
	return uint16(c.Read(a, 0x4) >> 16)
}

func (a Address) ReadDeviceID(c Config) uint16 {
	return uint16(c.Read(a, 0x0) >> 16)
}

func (a Address) ReadVendorID(c Config) uint16 {
	return uint16(c.Read(a, 0x0))
}

func (a Address) ReadHeaderType(c Config) uint8 {
	return uint8(c.Read(a, 0xc) >> 16)
}

// ReadClass returns the class and subclass codes.
func (a Address) ReadClass(c Config) uint16 {
	return uint16(c.Read(a, 0x8) >> 16)
}

func (a Address) readSecondaryBus(c Config) uint8 {
	return uint8(c.Read(a, 0x18) >> 8)
}

// Capability is one entry of a function's capability list.
type Capability struct {
	ID     uint8
	Offset uint8
}

// maxCaps bounds capability list walks; the list fits in the 192 bytes
// after the standard header.
const maxCaps = 48

// Capabilities walks the capability list of a. It returns nil for
// functions without one.
func (a Address) Capabilities(c Config) []Capability {
	const statusCapList = 1 << 4
	if a.ReadStatus(c)&statusCapList == 0 {
		return nil
	}
	var caps []Capability
	next := a.ReadCapOffset(c)
	for next != 0 && len(caps) < maxCaps {
		w0 := c.Read(a, next)
		caps = append(caps, Capability{ID: uint8(w0), Offset: next})
		next = uint8(w0>>8) &^ 0x3
	}
	return caps
}
