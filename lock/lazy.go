// SPDX-License-Identifier: Unlicense OR MIT

package lock

import "sync/atomic"

// Lazy holds a value that is constructed on first access by a
// zero-argument constructor. The constructor runs at most once, no
// matter how many contexts race to initialize the value.
//
// Lazy never waits for a construction in progress elsewhere. Store a Lazy
// inside a Cell when readers may race with the initializer: the cell's
// lock then serializes claiming, constructing and reading.
type Lazy[T any] struct {
	// claimed is set by the one TryInit call that runs init.
	claimed atomic.Bool
	// ready is set once value holds the constructed value.
	ready atomic.Bool
	// failed is set if the constructor panicked.
	failed atomic.Bool
	init   func() T
	value  T
}

// NewLazy returns a Lazy that constructs its value with f.
func NewLazy[T any](f func() T) *Lazy[T] {
	return &Lazy[T]{init: f}
}

// TryInit claims the value with a single compare-and-set and, if the
// claim succeeds, runs the constructor and publishes its result. It
// reports whether this call ran the constructor.
func (l *Lazy[T]) TryInit() bool {
	if !l.claimed.CompareAndSwap(false, true) {
		return false
	}
	f := l.init
	l.init = nil
	defer func() {
		if !l.ready.Load() {
			l.failed.Store(true)
		}
	}()
	l.value = f()
	l.ready.Store(true)
	return true
}

// Get initializes the value if needed and returns it.
//
// Get panics if another context has claimed the value but not finished
// constructing it. That race cannot happen when the Lazy is only reached
// through a locked Cell. Get also panics if the constructor panicked on
// an earlier call; the value is never constructed again.
func (l *Lazy[T]) Get() *T {
	v, ok := l.TryGet()
	if !ok {
		if l.failed.Load() {
			panic("lock: lazy constructor failed")
		}
		panic("lock: lazy value read during construction")
	}
	return v
}

// TryGet initializes the value if needed and returns it. It reports false
// while another context is still running the constructor, and after the
// constructor panicked.
func (l *Lazy[T]) TryGet() (*T, bool) {
	l.TryInit()
	if !l.ready.Load() {
		return nil, false
	}
	return &l.value, true
}

// Ready reports whether the value has been constructed.
func (l *Lazy[T]) Ready() bool {
	return l.ready.Load()
}
