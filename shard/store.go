package shard

import (
	"sync/atomic"

	"github.com/krisalay/showcase-imagecache/types"
)

/*
Entries are read on every GetOrCompute but written only twice per key (Pending, then
resolved), so the store is copy-on-write: readers load an immutable map snapshot without
locking, writers build a new map under the shard mutex and swap it in.
*/

// ShardStore holds the entries of one shard.
type ShardStore interface {
	Get(key string) (*types.CacheEntry, bool)

	// Put inserts or replaces an entry. Callers hold the shard mutex.
	Put(key string, ent *types.CacheEntry)

	// Delete removes an entry. Callers hold the shard mutex.
	Delete(key string)

	Size() int64

	// Range calls fn for every entry of the current snapshot.
	Range(fn func(key string, ent *types.CacheEntry))
}

type cowStore struct {
	data atomic.Pointer[map[string]*types.CacheEntry]
	size atomic.Int64
}

func NewCOWStore() *cowStore {
	s := &cowStore{}
	m := make(map[string]*types.CacheEntry)
	s.data.Store(&m)
	return s
}

func (s *cowStore) Get(key string) (*types.CacheEntry, bool) {
	ent, ok := (*s.data.Load())[key]
	return ent, ok
}

func (s *cowStore) Put(key string, ent *types.CacheEntry) {
	old := *s.data.Load()
	n := make(map[string]*types.CacheEntry, len(old)+1)
	for k, v := range old {
		n[k] = v
	}
	n[key] = ent
	s.swap(n)
}

func (s *cowStore) Delete(key string) {
	old := *s.data.Load()
	if _, ok := old[key]; !ok {
		return
	}
	n := make(map[string]*types.CacheEntry, len(old))
	for k, v := range old {
		if k != key {
			n[k] = v
		}
	}
	s.swap(n)
}

func (s *cowStore) Size() int64 {
	return s.size.Load()
}

func (s *cowStore) Range(fn func(string, *types.CacheEntry)) {
	for k, v := range *s.data.Load() {
		fn(k, v)
	}
}

func (s *cowStore) swap(n map[string]*types.CacheEntry) {
	s.data.Store(&n)
	s.size.Store(int64(len(n)))
}
