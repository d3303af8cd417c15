// SPDX-License-Identifier: Unlicense OR MIT

//go:build !baremetal || !amd64

package arch

import "runtime"

// Hosted reports whether the package runs under an operating system.
const Hosted = true

// Idle gives other goroutines a chance to run. Under an operating system
// the HLT instruction is privileged, so yielding is the closest
// equivalent of waiting for the next interrupt.
func Idle() {
	runtime.Gosched()
}
