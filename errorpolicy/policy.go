package errorpolicy

import (
	"context"
	"fmt"
	"time"

	"github.com/krisalay/showcase-imagecache/types"
)

/*
A failure policy decides what a failed computation turns into.

The cache never inspects errors itself. It hands the computation to a Policy and stores
whatever Outcome comes back, so swallowing, surfacing or retrying failures can be swapped
without touching the cache.
*/

// Outcome is what the cache stores for a key once its computation is over.
type Outcome struct {
	State types.State
	Value string

	// Err is kept on the entry and returned by Wait. Nil means "nothing to report".
	Err error
}

// Policy is the contract all failure policies follow.
type Policy interface {

	// Resolve runs compute for key and returns the terminal outcome.
	// It must never return a Pending outcome or an empty Value.
	Resolve(ctx context.Context, key string, compute types.ComputeFunc) Outcome
}

// Type names a policy in configuration.
type Type string

const (
	// FallbackMode swallows failures: the key resolves to its original URL, no error.
	FallbackMode Type = "fallback"

	// PropagateMode resolves to the original URL too but keeps the error on the entry.
	PropagateMode Type = "propagate"

	// RetryMode retries the computation, then falls back.
	RetryMode Type = "retry"
)

// New builds the policy for t. attempts and backoff only matter for RetryMode.
func New(t Type, attempts int, backoff time.Duration) (Policy, error) {
	switch t {
	case FallbackMode, "":
		return FallbackOnError{}, nil
	case PropagateMode:
		return Propagate{}, nil
	case RetryMode:
		return NewRetry(attempts, backoff, FallbackOnError{}), nil
	default:
		return nil, fmt.Errorf("unknown error policy %q", t)
	}
}

// run executes compute and normalises an empty success into a failure.
func run(ctx context.Context, key string, compute types.ComputeFunc) (string, error) {
	v, err := compute(ctx)
	if err == nil && v == "" {
		err = fmt.Errorf("empty display value for %s", key)
	}
	return v, err
}
