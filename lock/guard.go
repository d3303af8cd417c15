// SPDX-License-Identifier: Unlicense OR MIT

package lock

// Guard is proof of exclusive access to a value guarded by a Cell,
// Region, GatedCell or PrimedCell. It is obtained from a successful
// TryLock and must be released exactly once with Unlock, normally with
// defer right after acquisition:
//
//	g, ok := c.TryLock()
//	if !ok {
//		return
//	}
//	defer g.Unlock()
//
// A Guard must not be copied and must not outlive the value it guards.
// Releasing or reading through a stale copy panics instead of touching
// a later holder's lock.
type Guard[T any] struct {
	f     *flag
	token uint32
	v     *T
}

// Get returns the guarded value. The pointer is valid until Unlock.
// Get panics if the guard has been released.
func (g *Guard[T]) Get() *T {
	if g.f == nil || !g.f.owns(g.token) {
		panic("lock: use of released guard")
	}
	return g.v
}

// Unlock releases the lock. The next TryLock of the same value
// observes every write made through the guard.
func (g *Guard[T]) Unlock() {
	f := g.f
	if f == nil {
		panic("lock: unlock of released guard")
	}
	token := g.token
	g.f, g.token, g.v = nil, 0, nil
	if !f.release(token) {
		panic("lock: unlock of released guard")
	}
}

// Held reports whether the guard has not been released yet.
func (g *Guard[T]) Held() bool {
	return g.f != nil && g.f.owns(g.token)
}

// try runs fn with exclusive access to v. The lock is released on every
// exit path of fn, including a panic.
func try[T any](f *flag, v *T, fn func(*T)) bool {
	token, ok := f.tryAcquire()
	if !ok {
		return false
	}
	defer f.release(token)
	fn(v)
	return true
}
