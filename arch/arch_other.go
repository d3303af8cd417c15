// SPDX-License-Identifier: Unlicense OR MIT

//go:build !amd64

package arch

// StoreUint16 stores val at addr.
//
//go:nosplit
func StoreUint16(addr *uint16, val uint16) {
	*addr = val
}

//go:nosplit
func LoadUint16(addr *uint16) uint16 {
	return *addr
}
