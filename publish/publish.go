// Package publish is the boundary to the rendering collaborator: the orchestrator hands
// it one batched Mapping per completed reconciliation pass.
package publish

import (
	"sync"

	"github.com/krisalay/showcase-imagecache/types"
)

// Publisher receives the merged key -> display value mapping after a pass.
// Publish must be fast and must not retain m after returning unless it owns it;
// the orchestrator always hands over a fresh map.
type Publisher interface {
	Publish(m types.Mapping)
}

// Func adapts a plain function.
type Func func(types.Mapping)

func (f Func) Publish(m types.Mapping) { f(m) }

/*
Channel delivers mappings over a channel with latest-wins semantics: when the consumer
has not picked up the previous mapping yet, it is replaced rather than queued. A renderer
only ever cares about the newest state.
*/
type Channel struct {
	mu sync.Mutex
	ch chan types.Mapping
}

func NewChannel() *Channel {
	return &Channel{ch: make(chan types.Mapping, 1)}
}

// C is the receive side.
func (c *Channel) C() <-chan types.Mapping { return c.ch }

func (c *Channel) Publish(m types.Mapping) {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.ch:
	default:
	}
	c.ch <- m
}
