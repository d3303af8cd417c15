// SPDX-License-Identifier: Unlicense OR MIT

// Command lockstress hammers a single lock cell from many goroutines and
// checks that no two of them ever hold it at once.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"

	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/juju/loggo"
	"golang.org/x/sync/errgroup"

	"eliasnaur.com/freestand/internal/hosted"
	"eliasnaur.com/freestand/lock"
	"eliasnaur.com/freestand/lockstat"
)

var logger = loggo.GetLogger("freestand.lockstress")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "lockstress: %v\n", err)
		os.Exit(1)
	}
}

// counter is the guarded value. Holders bump inside on entry and check
// that nobody else is in.
type counter struct {
	inside atomic.Int32
	total  int
}

// result summarizes a stress run.
type result struct {
	acquired  int64
	contended int64
	total     int
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := gnuflag.NewFlagSet("lockstress", gnuflag.ContinueOnError)
	workers := fs.Int("workers", runtime.GOMAXPROCS(0)*2, "number of concurrent workers")
	attempts := fs.Int("attempts", 100000, "lock attempts per worker")
	logConfig := fs.String("log", "<root>=INFO", "logger configuration")
	if err := fs.Parse(true, args); err != nil {
		return errors.Trace(err)
	}
	if *workers < 1 || *attempts < 1 {
		return errors.NotValidf("workers %d, attempts %d", *workers, *attempts)
	}
	if err := hosted.SetupLogging(*logConfig); err != nil {
		return errors.Trace(err)
	}
	stats := lockstat.New()
	res, err := stress(ctx, *workers, *attempts, stats)
	if err != nil {
		return errors.Trace(err)
	}
	fmt.Fprintf(stdout, "workers=%d attempts=%d acquired=%d contended=%d\n",
		*workers, *attempts, res.acquired, res.contended)
	return nil
}

func stress(ctx context.Context, workers, attempts int, stats *lockstat.Collector) (result, error) {
	const resource = "stress"
	cell := lock.NewCell(counter{})
	var acquired, contended atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < attempts; i++ {
				if i%1024 == 0 && ctx.Err() != nil {
					return errors.Trace(ctx.Err())
				}
				var overlap bool
				ok := cell.Try(func(c *counter) {
					if c.inside.Add(1) != 1 {
						overlap = true
					}
					c.total++
					c.inside.Add(-1)
				})
				stats.Record(resource, ok)
				if !ok {
					contended.Add(1)
					runtime.Gosched()
					continue
				}
				acquired.Add(1)
				if overlap {
					return errors.New("two holders inside the cell")
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result{}, errors.Trace(err)
	}
	res := result{acquired: acquired.Load(), contended: contended.Load()}
	if !cell.Try(func(c *counter) { res.total = c.total }) {
		return result{}, errors.New("cell still held after all workers finished")
	}
	if int64(res.total) != res.acquired {
		return result{}, errors.Errorf("cell counted %d increments for %d acquisitions", res.total, res.acquired)
	}
	logger.Debugf("%d of %d attempts contended", res.contended, res.acquired+res.contended)
	return res, nil
}
