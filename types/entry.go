package types

import (
	"context"
	"time"
)

// State is the lifecycle position of a cache entry.
//
//	Absent --request--> Pending --success--> Ready
//	                            --failure--> Fallback
//
// Ready and Fallback are terminal.
type State int

const (
	Pending State = iota
	Ready
	Fallback
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Fallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Resolved reports whether the state is terminal.
func (s State) Resolved() bool { return s == Ready || s == Fallback }

// flight is shared between a pending entry and everybody waiting on it.
type flight struct {
	done  chan struct{}
	final *CacheEntry
}

/*
CacheEntry is an immutable snapshot of one key.

A resolved entry never changes. Resolution does not mutate the pending entry, the cache
stores a NEW entry built with Resolve and then calls Settle on the pending one, which wakes
up every Await caller.
*/
type CacheEntry struct {
	Key   string
	State State

	// Value is the display value. While Pending it is the original URL (the interim value).
	Value string

	// Err is only set when the configured error policy chose to keep the failure.
	Err error

	CreatedAt  time.Time
	ResolvedAt time.Time

	flight *flight
}

// NewPendingEntry creates the entry for a key seen for the first time.
func NewPendingEntry(key string, now time.Time) *CacheEntry {
	return &CacheEntry{
		Key:       key,
		State:     Pending,
		Value:     key,
		CreatedAt: now,
		flight:    &flight{done: make(chan struct{})},
	}
}

// Resolve builds the terminal entry for a pending one. An empty value is never stored,
// it degrades to Fallback with the original URL.
func (e *CacheEntry) Resolve(state State, value string, err error, now time.Time) *CacheEntry {
	if value == "" || !state.Resolved() {
		state, value = Fallback, e.Key
	}
	return &CacheEntry{
		Key:        e.Key,
		State:      state,
		Value:      value,
		Err:        err,
		CreatedAt:  e.CreatedAt,
		ResolvedAt: now,
	}
}

// Settle publishes the terminal entry to waiters. Must be called exactly once, by the
// goroutine that owns the computation.
func (e *CacheEntry) Settle(final *CacheEntry) {
	if e.flight == nil {
		return
	}
	e.flight.final = final
	close(e.flight.done)
}

// Await blocks until the entry is resolved or ctx is done.
func (e *CacheEntry) Await(ctx context.Context) (*CacheEntry, error) {
	if e.State.Resolved() || e.flight == nil {
		return e, nil
	}
	select {
	case <-e.flight.done:
		return e.flight.final, nil
	case <-ctx.Done():
		return e, ctx.Err()
	}
}
