package publish

import (
	"sync"

	"github.com/krisalay/showcase-imagecache/types"
)

// Detachable guards a consumer that can go away (an unmounted grid). After Detach,
// Publish is a no-op, so a late pass cannot write into a destroyed renderer.
type Detachable struct {
	mu       sync.RWMutex
	next     Publisher
	detached bool
}

func NewDetachable(next Publisher) *Detachable {
	return &Detachable{next: next}
}

// Publish forwards m unless the consumer is gone.
func (d *Detachable) Publish(m types.Mapping) {
	d.TryPublish(m)
}

// TryPublish is Publish with delivery feedback.
func (d *Detachable) TryPublish(m types.Mapping) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.detached || d.next == nil {
		return false
	}
	d.next.Publish(m)
	return true
}

func (d *Detachable) Detach() {
	d.mu.Lock()
	d.detached = true
	d.mu.Unlock()
}
