// SPDX-License-Identifier: Unlicense OR MIT

package ioport

// Native executes IN and OUT instructions directly. On bare metal it
// always works; under Linux the process must first be granted access
// with EnableNative.
type Native struct{}

//go:nosplit
func (Native) Inb(port uint16) uint8 { return inb(port) }

//go:nosplit
func (Native) Outb(port uint16, val uint8) { outb(port, val) }

//go:nosplit
func (Native) Inw(port uint16) uint16 { return inw(port) }

//go:nosplit
func (Native) Outw(port uint16, val uint16) { outw(port, val) }

//go:nosplit
func (Native) Inl(port uint16) uint32 { return inl(port) }

//go:nosplit
func (Native) Outl(port uint16, val uint32) { outl(port, val) }

func inb(port uint16) uint8
func outb(port uint16, val uint8)
func inw(port uint16) uint16
func outw(port uint16, val uint16)
func inl(port uint16) uint32
func outl(port uint16, val uint32)
