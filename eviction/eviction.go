package eviction

import "fmt"

/*
Policy picks which resolved image to drop once a bounded cache is full.

Only resolved entries may go: a Pending entry is the dedup guard for an in-flight
computation, so the cache passes a pinned predicate and the policy skips those keys.
Implementations are not safe for concurrent use, the owning shard serialises calls.
*/
type Policy interface {

	// OnGet records a read of key.
	OnGet(key string)

	// OnPut starts tracking key. Tracking an already known key is a no-op.
	OnPut(key string)

	// Evict picks a victim that is not pinned, stops tracking it and returns it.
	// ok is false when every tracked key is pinned (or nothing is tracked).
	Evict(pinned func(key string) bool) (key string, ok bool)

	// Len is the number of tracked keys.
	Len() int
}

// PolicyType names a policy in configuration.
type PolicyType string

const (
	// LRU drops the image that was displayed least recently.
	LRU PolicyType = "LRU"

	// FIFO drops the image that was first seen earliest, whatever its reads.
	FIFO PolicyType = "FIFO"
)

// NewEvictionPolicy creates the policy for t.
func NewEvictionPolicy(t PolicyType) (Policy, error) {
	switch t {
	case LRU, "":
		return newLRU(), nil
	case FIFO:
		return newFIFO(), nil
	default:
		return nil, fmt.Errorf("unknown eviction policy %q", t)
	}
}
