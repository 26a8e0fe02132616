package cache_test

import (
	"context"
	"fmt"
	"testing"

	cache "github.com/krisalay/showcase-imagecache"
	"github.com/krisalay/showcase-imagecache/errorpolicy"
	"github.com/krisalay/showcase-imagecache/eviction"
)

func newBenchmarkCache(b *testing.B, capacity int) *cache.ShardedCache {
	c, err := cache.NewShardedCache(8, capacity, eviction.LRU, errorpolicy.FallbackOnError{}, nil)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(c.Close)
	return c
}

func instant(context.Context) (string, error) {
	return "data:image/jpeg;base64,AAAA", nil
}

//
// ================= SINGLE THREAD BENCH =================
//

func BenchmarkGetOrComputeHit(b *testing.B) {
	c := newBenchmarkCache(b, 0)
	c.GetOrCompute("https://img/hit.jpg", instant)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.GetOrCompute("https://img/hit.jpg", instant)
	}
}

func BenchmarkGetOrComputeMissBounded(b *testing.B) {
	c := newBenchmarkCache(b, 1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.GetOrCompute(fmt.Sprintf("https://img/miss-%d.jpg", i), instant)
	}
}

//
// ================= PARALLEL BENCH =================
//

func BenchmarkGetOrComputeParallel(b *testing.B) {
	c := newBenchmarkCache(b, 0)

	keys := make([]string, 256)
	for i := range keys {
		keys[i] = fmt.Sprintf("https://img/%d.jpg", i)
		c.GetOrCompute(keys[i], instant)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			c.GetOrCompute(keys[i%len(keys)], instant)
			i++
		}
	})
}
