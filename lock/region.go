// SPDX-License-Identifier: Unlicense OR MIT

package lock

import "unsafe"

// Region serializes access to memory that the region does not own, such
// as a memory-mapped device buffer. The memory outlives the Region and
// is never freed by it.
type Region[T any] struct {
	state flag
	ptr   *T
}

// UnsafeRegion wraps the T at p. The caller must guarantee that p is
// valid and aligned for T, that the memory stays valid for the life of
// the process, and that nothing writes it except through the returned
// Region. None of this can be checked.
func UnsafeRegion[T any](p unsafe.Pointer) *Region[T] {
	if p == nil {
		panic("lock: nil region address")
	}
	return &Region[T]{ptr: (*T)(p)}
}

// UnsafeRegionAt is like UnsafeRegion for a fixed physical or virtual
// address such as a hardware text buffer.
func UnsafeRegionAt[T any](addr uintptr) *Region[T] {
	return UnsafeRegion[T](unsafe.Pointer(addr))
}

// TryLock attempts to acquire the region; see Cell.TryLock.
func (r *Region[T]) TryLock() (Guard[T], bool) {
	token, ok := r.state.tryAcquire()
	if !ok {
		return Guard[T]{}, false
	}
	return Guard[T]{f: &r.state, token: token, v: r.ptr}, true
}

// Try runs fn with exclusive access to the region; see Cell.Try.
func (r *Region[T]) Try(fn func(v *T)) bool {
	return try(&r.state, r.ptr, fn)
}

// Locked reports whether the region is held. Diagnostics only.
func (r *Region[T]) Locked() bool {
	return r.state.locked()
}
