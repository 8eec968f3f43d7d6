package reconcile

import (
	"context"
	"time"
)

// RetryPolicy bounds how hard a single order status query is retried within
// one pass. An order whose query still fails is left untouched and polled
// again on the next pass.
type RetryPolicy struct {
	MaxAttempts    int // <= 0 means 1
	InitialBackoff time.Duration
	MaxBackoff     time.Duration // 0 means uncapped
	Multiplier     float64       // <= 0 means 2
}

// Backoff is the wait before attempt n+1, after n failed attempts.
func (p RetryPolicy) Backoff(n int) time.Duration {
	if n < 1 || p.InitialBackoff <= 0 {
		return 0
	}
	mult := p.Multiplier
	if mult <= 0 {
		mult = 2
	}
	d := float64(p.InitialBackoff)
	for i := 1; i < n; i++ {
		d *= mult
		if p.MaxBackoff > 0 && d >= float64(p.MaxBackoff) {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && time.Duration(d) > p.MaxBackoff {
		return p.MaxBackoff
	}
	return time.Duration(d)
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// do calls fn until it succeeds, retry reports false, or attempts run out.
// It returns the last error.
func (p RetryPolicy) do(ctx context.Context, sleep sleepFunc, retry func(error) bool, fn func() error) error {
	var err error
	for n := 1; n <= p.attempts(); n++ {
		if err = fn(); err == nil || !retry(err) || n == p.attempts() {
			return err
		}
		if serr := sleep(ctx, p.Backoff(n)); serr != nil {
			return serr
		}
	}
	return err
}

// Throttle paces the loop. CheckInterval is slept after every single order
// check, so a pass takes at least CheckInterval times the ladder size.
// PassInterval is slept once between passes.
type Throttle struct {
	CheckInterval time.Duration
	PassInterval  time.Duration
}

type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
