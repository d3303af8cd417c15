// SPDX-License-Identifier: Unlicense OR MIT

package console

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/retry"
)

// Policy bounds how long a caller that may sleep keeps trying a busy
// target. Contexts that must not sleep use the Try methods instead.
type Policy struct {
	// Attempts is the number of tries, at least one.
	Attempts int
	// Delay is the pause after the first failed try. It doubles after
	// every further failure, up to MaxDelay if set.
	Delay    time.Duration
	MaxDelay time.Duration
	// Clock defaults to the wall clock.
	Clock clock.Clock
}

// DefaultPolicy tries five times over roughly a tenth of a second.
var DefaultPolicy = Policy{
	Attempts: 5,
	Delay:    5 * time.Millisecond,
	MaxDelay: 50 * time.Millisecond,
}

// Validate reports whether p can be used.
func (p Policy) Validate() error {
	if p.Attempts < 1 {
		return errors.NotValidf("retry attempts %d", p.Attempts)
	}
	if p.Delay <= 0 {
		return errors.NotValidf("retry delay %v", p.Delay)
	}
	if p.MaxDelay != 0 && p.MaxDelay < p.Delay {
		return errors.NotValidf("max retry delay %v shorter than delay", p.MaxDelay)
	}
	return nil
}

// Retry calls TryWrite until it succeeds, the policy runs out or ctx is
// done. The returned error satisfies errors.Is(err, ErrBusy) when the
// target stayed busy.
func (t *Target) Retry(ctx context.Context, p Policy, fn func(w io.Writer)) error {
	if err := p.Validate(); err != nil {
		return errors.Trace(err)
	}
	if p.Clock == nil {
		p.Clock = clock.WallClock
	}
	err := retry.Call(retry.CallArgs{
		Func: func() error {
			if !t.TryWrite(fn) {
				return ErrBusy
			}
			return nil
		},
		IsFatalError: func(err error) bool {
			return !errors.Is(err, ErrBusy)
		},
		NotifyFunc: func(err error, attempt int) {
			logger.Tracef("%s: attempt %d: %v", t.name, attempt, err)
		},
		Attempts:    p.Attempts,
		Delay:       p.Delay,
		MaxDelay:    p.MaxDelay,
		BackoffFunc: retry.DoubleDelay,
		Clock:       p.Clock,
		Stop:        ctx.Done(),
	})
	switch {
	case err == nil:
		return nil
	case retry.IsRetryStopped(err):
		return errors.Annotatef(ctx.Err(), "printing to %s", t.name)
	default:
		return errors.Annotatef(retry.LastError(err), "printing to %s", t.name)
	}
}

// PrintRetry is like Retry for fmt.Print style arguments.
func (t *Target) PrintRetry(ctx context.Context, p Policy, a ...any) error {
	return t.Retry(ctx, p, func(w io.Writer) { fmt.Fprint(w, a...) })
}

// PrintfRetry is like Retry for fmt.Printf style arguments.
func (t *Target) PrintfRetry(ctx context.Context, p Policy, format string, a ...any) error {
	return t.Retry(ctx, p, func(w io.Writer) { fmt.Fprintf(w, format, a...) })
}
