// Package orchestrator keeps a showcase grid's image mapping in step with its item
// collection.
//
// Each Mount or Update with a new collection starts a reconciliation pass: the distinct,
// unresolved image keys are pushed through the cache one at a time in collection order,
// and once all of them are resolved the merged key -> display value mapping is published
// in a single batch. Every pass carries a generation; starting a pass cancels the previous
// one, and only the pass whose generation is still current may publish.
package orchestrator

import (
	"context"
	"sync"

	"github.com/apex/log"
	"github.com/google/uuid"

	api "github.com/krisalay/showcase-imagecache/api"
	"github.com/krisalay/showcase-imagecache/publish"
	"github.com/krisalay/showcase-imagecache/types"
)

type Orchestrator struct {
	cache    api.Cache
	computer types.Computer
	limits   types.Limits
	out      *publish.Detachable
	metrics  types.Metrics

	mu         sync.Mutex
	current    *types.Collection
	mounted    bool
	closed     bool
	generation uint64
	cancel     context.CancelFunc

	wg sync.WaitGroup
}

/*
New creates an orchestrator.

The cache is injected and stays owned by the caller (Close does not close it). p must not
call back into the orchestrator: it is invoked with the orchestrator's lock held so that a
publish can never race with Close or with a newer pass.
*/
func New(
	c api.Cache,
	computer types.Computer,
	limits types.Limits,
	p publish.Publisher,
	metrics types.Metrics,
) *Orchestrator {
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	return &Orchestrator{
		cache:    c,
		computer: computer,
		limits:   limits,
		out:      publish.NewDetachable(p),
		metrics:  metrics,
	}
}

// Mount is the initial composition: it always starts a pass, even for an empty or nil
// collection. It reports whether a pass was started (false once closed).
func (o *Orchestrator) Mount(items *types.Collection) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return false
	}
	o.mounted = true
	o.current = items
	o.start(items, plan(items, o.cache, o.limits))
	return true
}

/*
Update starts a pass when items is a different collection from the current one.
Passing the same *Collection again is a no-op even if its items were edited in place.
Before Mount, Update behaves like Mount.
*/
func (o *Orchestrator) Update(items *types.Collection) bool {
	o.mu.Lock()
	if !o.mounted {
		o.mu.Unlock()
		return o.Mount(items)
	}
	defer o.mu.Unlock()

	if o.closed {
		return false
	}
	p, changed := Reconcile(o.current, items, o.cache, o.limits)
	if !changed {
		return false
	}
	o.current = items
	o.start(items, p)
	return true
}

// start supersedes the running pass. Caller holds o.mu.
func (o *Orchestrator) start(items *types.Collection, p Plan) {
	if o.cancel != nil {
		o.cancel()
	}
	o.generation++

	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel

	o.wg.Add(1)
	go o.pass(ctx, o.generation, items, p)
}

func (o *Orchestrator) pass(ctx context.Context, gen uint64, items *types.Collection, p Plan) {
	defer o.wg.Done()

	logger := log.WithFields(log.Fields{
		"pass":       uuid.NewString(),
		"generation": gen,
		"items":      items.Len(),
		"tasks":      len(p.Tasks),
	})
	logger.Debug("reconciliation pass started")

	// The mapping is built from what this pass observed, never re-read from the cache:
	// a bounded cache may already have evicted keys resolved earlier in the pass.
	m := make(types.Mapping, len(p.Resolved)+len(p.Tasks))
	for k, v := range p.Resolved {
		m[k] = v
	}

	// Strictly sequential, in collection order.
	for _, req := range p.Tasks {
		v, err := o.cache.Await(ctx, req.Key, o.compute(req))
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("reconciliation pass superseded")
				return
			}
			logger.WithError(err).WithField("url", req.Key).Warn("image resolved with error")
		}
		m[req.Key] = v
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || gen != o.generation {
		logger.Debug("discarding stale reconciliation pass")
		return
	}
	if o.out.TryPublish(m) {
		o.metrics.Publish()
		logger.WithField("keys", len(m)).Debug("mapping published")
	}
}

func (o *Orchestrator) compute(req types.ResampleRequest) types.ComputeFunc {
	return func(ctx context.Context) (string, error) {
		return o.computer.Compute(ctx, req)
	}
}

// Generation is the number of passes started so far.
func (o *Orchestrator) Generation() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation
}

// Wait blocks until every started pass has finished or been discarded.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

/*
Close is the unmount. It cancels the running pass, detaches the publisher and waits for
passes to return. Nothing is published after Close returns, computations already running
in the cache keep going and still populate it.
*/
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	if o.cancel != nil {
		o.cancel()
	}
	o.out.Detach()
	o.mu.Unlock()

	o.wg.Wait()
}
