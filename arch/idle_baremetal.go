// SPDX-License-Identifier: Unlicense OR MIT

//go:build baremetal && amd64

package arch

// Hosted reports whether the package runs under an operating system.
const Hosted = false

// Idle halts the processor until the next interrupt.
//
//go:nosplit
func Idle() {
	halt()
}
