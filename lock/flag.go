// SPDX-License-Identifier: Unlicense OR MIT

package lock

import "sync/atomic"

// flag is the lock state shared by all guarded types. The top bit is set
// while the lock is held; the low bits count acquisitions, so each
// acquisition hands out a distinct token and only the holder of the
// current token can release.
//
// The Go memory model gives atomic operations sequentially consistent
// semantics, which subsumes the acquire ordering required on a
// successful claim and the release ordering required on relinquish.
type flag struct {
	state atomic.Uint32
}

const (
	heldBit = 1 << 31
	genMask = heldBit - 1
)

// tryAcquire claims the lock with a single compare-and-set and returns
// the token that releases it.
//
//go:nosplit
func (f *flag) tryAcquire() (uint32, bool) {
	old := f.state.Load()
	if old&heldBit != 0 {
		return 0, false
	}
	token := (old+1)&genMask | heldBit
	if !f.state.CompareAndSwap(old, token) {
		return 0, false
	}
	return token, true
}

// release frees the lock if token is the current one and reports
// whether it was.
//
//go:nosplit
func (f *flag) release(token uint32) bool {
	return f.state.CompareAndSwap(token, token&genMask)
}

// owns reports whether token is the current holder's.
//
//go:nosplit
func (f *flag) owns(token uint32) bool {
	return f.state.Load() == token
}

//go:nosplit
func (f *flag) locked() bool {
	return f.state.Load()&heldBit != 0
}
