// SPDX-License-Identifier: Unlicense OR MIT

package arch

// halt stops the processor until the next interrupt.
func halt()

// StoreUint16 stores val at addr with a single 16-bit move, so a device
// watching the memory never sees half of the value.
//
//go:noescape
func StoreUint16(addr *uint16, val uint16)

//go:nosplit
func LoadUint16(addr *uint16) uint16 {
	return *addr
}
