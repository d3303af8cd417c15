// SPDX-License-Identifier: Unlicense OR MIT

package lockstat_test

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"eliasnaur.com/freestand/console"
	"eliasnaur.com/freestand/lockstat"
)

var _ console.Stats = (*lockstat.Collector)(nil)

func TestCounts(t *testing.T) {
	c := qt.New(t)
	col := lockstat.New()
	col.Acquired("COM1")
	col.Acquired("COM1")
	col.Contended("VGA")
	col.Record("VGA", true)
	col.Record("VGA", false)

	reg := prometheus.NewPedanticRegistry()
	c.Assert(reg.Register(col), qt.IsNil)

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP freestand_lock_acquired_total The number of successful lock attempts.
# TYPE freestand_lock_acquired_total counter
freestand_lock_acquired_total{resource="COM1"} 2
freestand_lock_acquired_total{resource="VGA"} 1
# HELP freestand_lock_contended_total The number of lock attempts that found the lock held.
# TYPE freestand_lock_contended_total counter
freestand_lock_contended_total{resource="VGA"} 2
`))
	c.Assert(err, qt.IsNil)
	c.Assert(testutil.CollectAndCount(col), qt.Equals, 3)
}
