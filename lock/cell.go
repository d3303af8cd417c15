// SPDX-License-Identifier: Unlicense OR MIT

package lock

// Cell is an exclusive-access wrapper around a value it owns. The zero
// Cell is unlocked and holds the zero value of T.
//
// A Cell is not reentrant: TryLock fails while any guard for the cell is
// held, including one held by the caller itself.
type Cell[T any] struct {
	state flag
	value T
}

// NewCell returns an unlocked cell holding v.
func NewCell[T any](v T) *Cell[T] {
	return &Cell[T]{value: v}
}

// TryLock attempts to acquire the cell with a single compare-and-set. It
// never spins or waits; on contention it returns false and the caller
// decides what to do next.
func (c *Cell[T]) TryLock() (Guard[T], bool) {
	token, ok := c.state.tryAcquire()
	if !ok {
		return Guard[T]{}, false
	}
	return Guard[T]{f: &c.state, token: token, v: &c.value}, true
}

// Try runs fn with exclusive access to the value and reports whether the
// lock could be acquired. The lock is released when fn returns or
// panics.
func (c *Cell[T]) Try(fn func(v *T)) bool {
	return try(&c.state, &c.value, fn)
}

// Locked reports whether the cell is held. The result is stale as soon as
// it is returned and is meant for diagnostics only.
func (c *Cell[T]) Locked() bool {
	return c.state.locked()
}
