package cache

import (
	"context"

	"github.com/krisalay/showcase-imagecache/types"
)

/*
Cache is the contract between the orchestrator and the memo of display values.
The orchestrator only talks to this interface, so tests can hand it a fake.
*/
type Cache interface {

	/*
		GetOrCompute returns the current display value of key without blocking.

		BEHAVIOR:
		---------
		1. Resolved entry (Ready or Fallback): its value is returned.
		2. Pending entry: the interim value (the original URL) is returned and
		   compute is NOT launched again.
		3. No entry: a Pending entry is created, compute is started in the
		   background and the interim value is returned.

		Failures of compute never reach the caller, the configured error policy
		turns them into a terminal Fallback entry.
	*/
	GetOrCompute(key string, compute types.ComputeFunc) string

	/*
		Wait blocks until key is resolved or ctx is done and returns its value.
		The error is ctx.Err(), ErrNotFound, or the failure kept by a
		propagating error policy.
	*/
	Wait(ctx context.Context, key string) (string, error)

	/*
		Await claims key like GetOrCompute and blocks until that entry is resolved
		or ctx is done. The value is the one the entry resolved to, even if a
		bounded cache has evicted it since. Errors are as for Wait, minus ErrNotFound.
	*/
	Await(ctx context.Context, key string, compute types.ComputeFunc) (string, error)

	// Lookup returns the current snapshot of key.
	Lookup(key string) (types.CacheEntry, bool)

	// Len is the number of entries, pending ones included.
	Len() int

	// Close cancels in-flight computations and waits for them to settle.
	Close()
}
