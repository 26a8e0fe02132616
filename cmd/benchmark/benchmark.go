package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	cache "github.com/krisalay/showcase-imagecache"
	"github.com/krisalay/showcase-imagecache/errorpolicy"
	"github.com/krisalay/showcase-imagecache/eviction"
	"github.com/krisalay/showcase-imagecache/logging"
)

// ================= BENCHMARK =================

func main() {
	logging.InitLogger()

	const (
		shards     = 8
		capacity   = 0
		keys       = 2000
		goroutines = 200
		opsPerG    = 5000
		computeFor = 2 * time.Millisecond
	)

	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")
	fmt.Println("Shards       :", shards)
	fmt.Println("Capacity     :", capacity, "(unbounded)")
	fmt.Println("Distinct URLs:", keys)
	fmt.Println("Goroutines   :", goroutines)
	fmt.Println("Ops/Goroutine:", opsPerG)
	fmt.Println("Compute time :", computeFor)
	fmt.Println("---------------------------------")

	c, err := cache.NewShardedCache(shards, capacity, eviction.LRU, errorpolicy.FallbackOnError{}, nil)
	if err != nil {
		panic(err)
	}

	var computations atomic.Int64
	compute := func(ctx context.Context) (string, error) {
		computations.Add(1)
		time.Sleep(computeFor)
		return "data:image/jpeg;base64,AAAA", nil
	}

	urls := make([]string, keys)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://example.com/images/%d.jpg", i)
	}

	start := time.Now()

	wg := sync.WaitGroup{}
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerG; j++ {
				c.GetOrCompute(urls[(id+j)%keys], compute)
			}
		}(i)
	}
	wg.Wait()

	duration := time.Since(start)
	c.Close()

	totalOps := goroutines * opsPerG

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %s\n", humanize.Comma(int64(totalOps)))
	fmt.Printf("Computations     : %d (expected %d)\n", computations.Load(), keys)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Println("=========================================")
}
