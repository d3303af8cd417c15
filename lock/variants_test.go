// SPDX-License-Identifier: Unlicense OR MIT

package lock_test

import (
	"sync/atomic"
	"testing"

	qt "github.com/frankban/quicktest"
	"golang.org/x/sync/errgroup"

	"eliasnaur.com/freestand/lock"
)

func TestGatedCell(t *testing.T) {
	c := qt.New(t)
	var busy atomic.Bool
	busy.Store(true)
	cell := lock.NewGatedCell(0, func(*int) bool { return !busy.Load() })

	_, ok := cell.TryLock()
	c.Assert(ok, qt.IsFalse)
	c.Assert(cell.Locked(), qt.IsFalse, qt.Commentf("rejected acquisition must release"))
	c.Assert(cell.Try(func(*int) {}), qt.IsFalse)

	busy.Store(false)
	g, ok := cell.TryLock()
	c.Assert(ok, qt.IsTrue)
	_, ok = cell.TryLock()
	c.Assert(ok, qt.IsFalse)
	*g.Get() = 5
	g.Unlock()

	c.Assert(cell.Try(func(v *int) { c.Check(*v, qt.Equals, 5) }), qt.IsTrue)
}

func TestGatedCellAcceptPanics(t *testing.T) {
	c := qt.New(t)
	cell := lock.NewGatedCell(0, func(*int) bool { panic("accept failed") })
	c.Assert(func() { cell.TryLock() }, qt.PanicMatches, "accept failed")
	c.Assert(cell.Locked(), qt.IsFalse)
}

func TestPrimedCell(t *testing.T) {
	c := qt.New(t)
	var (
		primes atomic.Int32
		cell   *lock.PrimedCell[[]string]
	)
	cell = lock.NewPrimedCell([]string(nil), func(v *[]string) {
		primes.Add(1)
		c.Check(cell.Locked(), qt.IsTrue)
		*v = append(*v, "primed")
	})

	var eg errgroup.Group
	for w := 0; w < 8; w++ {
		eg.Go(func() error {
			for i := 0; i < 100; i++ {
				cell.Try(func(v *[]string) {
					if len(*v) == 0 || (*v)[0] != "primed" {
						panic("value used before priming")
					}
				})
			}
			return nil
		})
	}
	c.Assert(eg.Wait(), qt.IsNil)
	c.Assert(primes.Load(), qt.Equals, int32(1))
}

func TestPrimedCellPrimePanics(t *testing.T) {
	c := qt.New(t)
	cell := lock.NewPrimedCell(0, func(*int) { panic("no screen") })
	c.Assert(func() { cell.TryLock() }, qt.PanicMatches, "no screen")
	c.Assert(cell.Locked(), qt.IsFalse)

	// Priming is attempted once only.
	g, ok := cell.TryLock()
	c.Assert(ok, qt.IsTrue)
	g.Unlock()
}
