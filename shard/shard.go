package shard

import (
	"sync"

	"github.com/krisalay/showcase-imagecache/eviction"
)

/*
Shard is one independent slice of the cache: its own entries, its own eviction
bookkeeping and its own write lock. Keys of different shards never contend.
*/
type Shard struct {
	Store ShardStore

	// Eviction is nil for unbounded caches.
	Eviction eviction.Policy

	// Mu serialises writes to Store and every call into Eviction. Reads of Store are lock-free.
	Mu sync.Mutex
}

func NewShard(ev eviction.Policy) *Shard {
	return &Shard{
		Store:    NewCOWStore(),
		Eviction: ev,
	}
}
