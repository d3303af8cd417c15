// SPDX-License-Identifier: Unlicense OR MIT

//go:build !amd64

package ioport

// Native is unavailable on architectures without a port address space.
// EnableNative always fails there, so Open never returns it.
type Native struct{}

func (Native) Inb(port uint16) uint8        { panic(errNoPorts) }
func (Native) Outb(port uint16, val uint8)  { panic(errNoPorts) }
func (Native) Inw(port uint16) uint16       { panic(errNoPorts) }
func (Native) Outw(port uint16, val uint16) { panic(errNoPorts) }
func (Native) Inl(port uint16) uint32       { panic(errNoPorts) }
func (Native) Outl(port uint16, val uint32) { panic(errNoPorts) }

const errNoPorts = "ioport: no port address space on this architecture"
