package errorpolicy

import (
	"context"
	"time"

	"github.com/apex/log"
	"github.com/cenkalti/backoff/v4"

	"github.com/krisalay/showcase-imagecache/types"
)

// Retry reruns a failing computation up to Attempts times in total with exponential
// backoff starting at Backoff, and hands the last attempt to Then.
type Retry struct {
	Attempts int
	Backoff  time.Duration
	Then     Policy
}

func NewRetry(attempts int, backoff time.Duration, then Policy) *Retry {
	if attempts < 1 {
		attempts = 1
	}
	if then == nil {
		then = FallbackOnError{}
	}
	return &Retry{Attempts: attempts, Backoff: backoff, Then: then}
}

// schedule builds a fresh backoff for one resolution. Every attempt after the first is
// a retry, so Attempts-1 retries are allowed.
func (r *Retry) schedule(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.Backoff
	exp.Multiplier = 2
	exp.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(max(r.Attempts-1, 0))), ctx)
}

func (r *Retry) Resolve(ctx context.Context, key string, compute types.ComputeFunc) Outcome {
	retrying := func(ctx context.Context) (string, error) {
		attempt := 0
		op := func() (string, error) {
			attempt++
			return run(ctx, key, compute)
		}
		notify := func(err error, wait time.Duration) {
			log.WithError(err).WithFields(log.Fields{
				"url":     key,
				"attempt": attempt,
				"wait":    wait,
			}).Debug("retrying image computation")
		}
		return backoff.RetryNotifyWithData(op, r.schedule(ctx), notify)
	}
	return r.Then.Resolve(ctx, key, retrying)
}
