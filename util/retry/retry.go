package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry describes a bounded connection-retry policy, used for one-shot
// operations like opening a database connection where a fixed number of
// linear-ish attempts is enough.
type Retry struct {
	MinWait    int
	MaxWait    int
	MaxRetries int
}

// RetryFunc runs f, retrying up to r.MaxRetries times while shouldRetry(err)
// is true, sleeping an increasing number of seconds (bounded by MaxWait)
// between attempts.
func RetryFunc(ctx context.Context, f func(context.Context) error, shouldRetry func(error) bool, r Retry) error {
	var err error
	wait := r.MinWait
	if wait <= 0 {
		wait = 1
	}
	for attempt := 0; attempt <= r.MaxRetries; attempt++ {
		err = f(ctx)
		if err == nil || !shouldRetry(err) {
			return err
		}
		if attempt == r.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(wait) * time.Second):
		}
		if wait < r.MaxWait {
			wait *= 2
			if wait > r.MaxWait {
				wait = r.MaxWait
			}
		}
	}
	return err
}

// RPCRetry is the exponential backoff policy for RPC calls that can hit a
// rate-limited or temporarily unavailable node: a 2s initial delay that
// doubles on each attempt, up to 5 attempts total.
func RPCRetry(ctx context.Context, f func() error, shouldRetry func(error) bool) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	bctx := backoff.WithContext(b, ctx)

	attempt := 0
	op := func() error {
		attempt++
		err := f()
		if err == nil {
			return nil
		}
		if attempt >= 5 || !shouldRetry(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(op, bctx)
}
