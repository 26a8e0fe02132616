package orchestrator

import (
	api "github.com/krisalay/showcase-imagecache/api"
	"github.com/krisalay/showcase-imagecache/types"
)

// Plan is what one pass has to do: the keys it must still resolve, in collection order,
// and the values of the keys that were already resolved when it was made.
type Plan struct {
	Tasks    []types.ResampleRequest
	Resolved types.Mapping
}

/*
Reconcile decides what a collection change means for the cache.

It returns changed=false when next is the very same collection as prev (identity, not
content: in-place edits to an already submitted collection are NOT detected). Otherwise it
returns the plan for next: one task per distinct image ref the cache has not resolved yet,
in collection order, plus the current value of every ref that is resolved. Items without
an image ref are skipped.

Reconcile has no side effects, it never launches computations.
*/
func Reconcile(prev, next *types.Collection, c api.Cache, limits types.Limits) (p Plan, changed bool) {
	if prev == next {
		return Plan{}, false
	}
	return plan(next, c, limits), true
}

func plan(coll *types.Collection, c api.Cache, limits types.Limits) Plan {
	p := Plan{Resolved: make(types.Mapping, coll.Len())}
	queued := make(map[string]struct{})
	for _, key := range Keys(coll) {
		if _, dup := queued[key]; dup {
			continue
		}
		if _, dup := p.Resolved[key]; dup {
			continue
		}
		if ent, ok := c.Lookup(key); ok && ent.State.Resolved() {
			p.Resolved[key] = ent.Value
			continue
		}
		queued[key] = struct{}{}
		p.Tasks = append(p.Tasks, limits.Request(key))
	}
	return p
}

// Keys extracts the image keys of coll in order. Duplicates are kept, empty refs are not.
func Keys(coll *types.Collection) []string {
	if coll == nil {
		return nil
	}
	keys := make([]string, 0, len(coll.Items))
	for _, it := range coll.Items {
		if it.ImageRef != "" {
			keys = append(keys, it.ImageRef)
		}
	}
	return keys
}
