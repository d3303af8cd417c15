// SPDX-License-Identifier: Unlicense OR MIT

// Package lock provides non-blocking mutual exclusion for resources that
// are shared between interrupt handlers, cores and re-entrant callers in
// an environment without a scheduler.
//
// No operation in this package waits. An acquisition either succeeds
// immediately or reports failure, and the caller decides whether to
// retry, idle or drop its work. Because of that an interrupt handler
// racing with the code it interrupted can never deadlock against it.
//
// Cell guards a value it owns, Region guards memory it does not own
// (such as a memory-mapped device buffer) and Lazy constructs a value on
// first use. A Lazy stored inside a Cell initializes under the cell's
// lock:
//
//	var serial = lock.NewCell(lock.NewLazy(openSerial))
//
//	g, ok := serial.TryLock()
//	if !ok {
//		return false
//	}
//	defer g.Unlock()
//	port := (*g.Get()).Get()
package lock
