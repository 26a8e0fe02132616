package cache

import (
	"context"
	"sync"
	"time"

	"github.com/apex/log"

	api "github.com/krisalay/showcase-imagecache/api"
	"github.com/krisalay/showcase-imagecache/errorpolicy"
	evict "github.com/krisalay/showcase-imagecache/eviction"
	"github.com/krisalay/showcase-imagecache/shard"
	"github.com/krisalay/showcase-imagecache/types"
)

var _ api.Cache = (*ShardedCache)(nil)

/*
ShardedCache memoizes original URL -> display value.

It connects:
- shards (copy-on-write entry stores with their own write lock)
- the failure policy deciding what a failed computation becomes
- the optional capacity bound and its eviction policy
- metrics

Every key has at most one computation in flight: the Pending entry written under the
shard lock is the claim, whoever finds it simply returns the interim value.
*/
type ShardedCache struct {
	shards   []*shard.Shard
	selector shard.Selector

	// capacity is the per-shard bound, 0 means unbounded.
	capacity int

	policy  errorpolicy.Policy
	metrics types.Metrics

	// ctx is the lifetime of computations. It is independent of whoever triggered
	// them, a superseded reconciliation pass must not cancel work another pass reuses.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

/*
NewShardedCache creates a cache.

capacity is the total number of entries kept (0 = never evict, entries live as long as the
cache). It is split evenly across shards. Pending entries are never evicted, so a shard
may temporarily exceed its share while every entry in it is in flight.
*/
func NewShardedCache(
	shards int,
	capacity int,
	eviction evict.PolicyType,
	policy errorpolicy.Policy,
	metrics types.Metrics,
) (*ShardedCache, error) {
	if shards < 1 {
		shards = 1
	}
	if policy == nil {
		policy = errorpolicy.FallbackOnError{}
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}

	perShard := 0
	if capacity > 0 {
		perShard = max(capacity/shards, 1)
	}

	s := make([]*shard.Shard, shards)
	for i := range s {
		var ev evict.Policy
		if perShard > 0 {
			p, err := evict.NewEvictionPolicy(eviction)
			if err != nil {
				return nil, err
			}
			ev = p
		}
		s[i] = shard.NewShard(ev)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ShardedCache{
		shards:   s,
		selector: shard.HashSelector{},
		capacity: perShard,
		policy:   policy,
		metrics:  metrics,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

func (c *ShardedCache) GetOrCompute(key string, compute types.ComputeFunc) string {
	return c.claim(key, compute).Value
}

/*
Await is GetOrCompute followed by waiting on the very entry it returned. Unlike a separate
Wait it cannot lose the result to an eviction that happens between the two calls.
*/
func (c *ShardedCache) Await(ctx context.Context, key string, compute types.ComputeFunc) (string, error) {
	return settled(ctx, c.claim(key, compute))
}

// claim returns the entry of key, creating and launching a Pending one if there is none.
func (c *ShardedCache) claim(key string, compute types.ComputeFunc) *types.CacheEntry {
	sh := c.selector.Select(key, c.shards)

	// Fast path, no lock.
	if ent, ok := sh.Store.Get(key); ok {
		c.hit(sh, key)
		return ent
	}

	sh.Mu.Lock()
	// Somebody may have claimed the key between the snapshot read and the lock.
	if ent, ok := sh.Store.Get(key); ok {
		sh.Mu.Unlock()
		c.hit(sh, key)
		return ent
	}

	c.makeRoom(sh)

	pending := types.NewPendingEntry(key, time.Now())
	sh.Store.Put(key, pending)
	if sh.Eviction != nil {
		sh.Eviction.OnPut(key)
	}
	sh.Mu.Unlock()

	c.metrics.Miss()
	c.launch(sh, pending, compute)

	return pending
}

func (c *ShardedCache) hit(sh *shard.Shard, key string) {
	c.metrics.Hit()
	if sh.Eviction != nil {
		sh.Mu.Lock()
		sh.Eviction.OnGet(key)
		sh.Mu.Unlock()
	}
}

// makeRoom evicts resolved entries until the shard is below capacity. Caller holds sh.Mu.
func (c *ShardedCache) makeRoom(sh *shard.Shard) {
	if c.capacity == 0 || sh.Eviction == nil {
		return
	}
	pinned := func(k string) bool {
		ent, ok := sh.Store.Get(k)
		return ok && ent.State == types.Pending
	}
	for sh.Store.Size() >= int64(c.capacity) {
		victim, ok := sh.Eviction.Evict(pinned)
		if !ok {
			return
		}
		sh.Store.Delete(victim)
		c.metrics.Eviction()
	}
}

// launch runs compute in the background and stores its terminal entry.
func (c *ShardedCache) launch(sh *shard.Shard, pending *types.CacheEntry, compute types.ComputeFunc) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		out := c.policy.Resolve(c.ctx, pending.Key, compute)
		final := pending.Resolve(out.State, out.Value, out.Err, time.Now())

		if final.State == types.Fallback {
			c.metrics.Fallback()
		}

		sh.Mu.Lock()
		sh.Store.Put(final.Key, final)
		sh.Mu.Unlock()

		pending.Settle(final)

		log.WithFields(log.Fields{
			"url":   final.Key,
			"state": final.State,
			"took":  final.ResolvedAt.Sub(final.CreatedAt),
		}).Debug("cache entry resolved")
	}()
}

func (c *ShardedCache) Wait(ctx context.Context, key string) (string, error) {
	sh := c.selector.Select(key, c.shards)
	ent, ok := sh.Store.Get(key)
	if !ok {
		return "", types.ErrNotFound
	}
	return settled(ctx, ent)
}

func settled(ctx context.Context, ent *types.CacheEntry) (string, error) {
	final, err := ent.Await(ctx)
	if err != nil {
		return final.Value, err
	}
	return final.Value, final.Err
}

func (c *ShardedCache) Lookup(key string) (types.CacheEntry, bool) {
	sh := c.selector.Select(key, c.shards)
	ent, ok := sh.Store.Get(key)
	if !ok {
		return types.CacheEntry{}, false
	}
	return *ent, true
}

func (c *ShardedCache) Len() int {
	n := 0
	for _, sh := range c.shards {
		n += int(sh.Store.Size())
	}
	return n
}

/*
Close cancels the lifetime context and waits until every in-flight computation has
settled. Cancelled computations resolve through the error policy like any failure, so
waiters are never left hanging.
*/
func (c *ShardedCache) Close() {
	c.cancel()
	c.wg.Wait()
}
