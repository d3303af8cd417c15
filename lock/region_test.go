// SPDX-License-Identifier: Unlicense OR MIT

package lock_test

import (
	"testing"
	"unsafe"

	qt "github.com/frankban/quicktest"

	"eliasnaur.com/freestand/lock"
)

type textCells [8]uint16

func TestRegionRoundTrip(t *testing.T) {
	c := qt.New(t)

	// The region covers the middle of the backing memory; the canaries
	// around it catch writes that land outside.
	var backing struct {
		before [4]uint16
		cells  textCells
		after  [4]uint16
	}
	const canary = 0xdead
	for i := range backing.before {
		backing.before[i] = canary
		backing.after[i] = canary
	}
	r := lock.UnsafeRegion[textCells](unsafe.Pointer(&backing.cells))

	g, ok := r.TryLock()
	c.Assert(ok, qt.IsTrue)
	for i := range g.Get() {
		g.Get()[i] = 0x0f00 | uint16('a'+i)
	}
	g.Unlock()

	g, ok = r.TryLock()
	c.Assert(ok, qt.IsTrue)
	defer g.Unlock()
	want := textCells{0x0f61, 0x0f62, 0x0f63, 0x0f64, 0x0f65, 0x0f66, 0x0f67, 0x0f68}
	c.Assert(*g.Get(), qt.Equals, want)
	c.Assert(backing.cells, qt.Equals, want)
	c.Assert(backing.before, qt.Equals, [4]uint16{canary, canary, canary, canary})
	c.Assert(backing.after, qt.Equals, [4]uint16{canary, canary, canary, canary})
}

func TestRegionExclusion(t *testing.T) {
	c := qt.New(t)
	var word uint32
	r := lock.UnsafeRegion[uint32](unsafe.Pointer(&word))

	g, ok := r.TryLock()
	c.Assert(ok, qt.IsTrue)
	_, ok = r.TryLock()
	c.Assert(ok, qt.IsFalse)
	c.Assert(r.Try(func(*uint32) {}), qt.IsFalse)
	*g.Get() = 0xcafe
	g.Unlock()

	c.Assert(r.Try(func(v *uint32) { *v++ }), qt.IsTrue)
	c.Assert(word, qt.Equals, uint32(0xcaff))
	c.Assert(r.Locked(), qt.IsFalse)
}

func TestRegionTryReleasedOnPanic(t *testing.T) {
	c := qt.New(t)
	var word uint32
	r := lock.UnsafeRegion[uint32](unsafe.Pointer(&word))

	c.Assert(func() {
		r.Try(func(*uint32) { panic("bad cell") })
	}, qt.PanicMatches, "bad cell")
	c.Assert(r.Locked(), qt.IsFalse)
}

func TestRegionNilAddress(t *testing.T) {
	c := qt.New(t)
	c.Assert(func() { lock.UnsafeRegion[uint32](nil) }, qt.PanicMatches, "lock: nil region address")
	c.Assert(func() { lock.UnsafeRegionAt[uint32](0) }, qt.PanicMatches, "lock: nil region address")
}
