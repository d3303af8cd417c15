// SPDX-License-Identifier: Unlicense OR MIT

// Package arch contains the few processor operations the drivers need:
// idling until the next interrupt and single-instruction stores to
// memory-mapped device memory.
//
// Building with the baremetal tag on amd64 selects the freestanding
// implementations. Otherwise the package runs hosted, where halting the
// processor is not permitted and Idle yields to the Go scheduler instead.
package arch
