// SPDX-License-Identifier: Unlicense OR MIT

package lock

import "sync/atomic"

// GatedCell is a Cell whose acquisition additionally requires the locked
// value to pass a check. It suits devices that must not be touched in
// some states, such as a clock in the middle of an update.
type GatedCell[T any] struct {
	cell   Cell[T]
	accept func(*T) bool
}

// NewGatedCell returns an unlocked cell holding v. Every acquisition runs
// accept with the lock held; when accept reports false the lock is
// released again and the acquisition fails.
func NewGatedCell[T any](v T, accept func(*T) bool) *GatedCell[T] {
	return &GatedCell[T]{cell: Cell[T]{value: v}, accept: accept}
}

// TryLock attempts to acquire the cell and reports false on contention or
// when the value is rejected.
func (c *GatedCell[T]) TryLock() (Guard[T], bool) {
	g, ok := c.cell.TryLock()
	if !ok {
		return g, false
	}
	accepted := false
	defer func() {
		if !accepted {
			g.Unlock()
		}
	}()
	if accepted = c.accept(g.Get()); !accepted {
		return Guard[T]{}, false
	}
	return g, true
}

// Try runs fn with exclusive access to an accepted value; see Cell.Try.
func (c *GatedCell[T]) Try(fn func(v *T)) bool {
	g, ok := c.TryLock()
	if !ok {
		return false
	}
	defer g.Unlock()
	fn(g.Get())
	return true
}

// Locked reports whether the cell is held. Diagnostics only.
func (c *GatedCell[T]) Locked() bool {
	return c.cell.Locked()
}

// PrimedCell is a Cell that runs a preparation step on its value the
// first time it is acquired.
type PrimedCell[T any] struct {
	cell   Cell[T]
	primed atomic.Bool
	prime  func(*T)
}

// NewPrimedCell returns an unlocked cell holding v. The first successful
// TryLock runs prime on the value, with the lock held, before returning
// the guard.
func NewPrimedCell[T any](v T, prime func(*T)) *PrimedCell[T] {
	return &PrimedCell[T]{cell: Cell[T]{value: v}, prime: prime}
}

// TryLock attempts to acquire the cell; see Cell.TryLock.
func (c *PrimedCell[T]) TryLock() (Guard[T], bool) {
	g, ok := c.cell.TryLock()
	if !ok {
		return g, false
	}
	done := false
	defer func() {
		// Release if prime panicked.
		if !done {
			g.Unlock()
		}
	}()
	if c.primed.CompareAndSwap(false, true) {
		c.prime(g.Get())
	}
	done = true
	return g, true
}

// Try runs fn with exclusive access to the primed value; see Cell.Try.
func (c *PrimedCell[T]) Try(fn func(v *T)) bool {
	g, ok := c.TryLock()
	if !ok {
		return false
	}
	defer g.Unlock()
	fn(g.Get())
	return true
}

// Locked reports whether the cell is held. Diagnostics only.
func (c *PrimedCell[T]) Locked() bool {
	return c.cell.Locked()
}
