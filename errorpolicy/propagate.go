package errorpolicy

import (
	"context"

	"github.com/krisalay/showcase-imagecache/types"
)

// Propagate still resolves failed keys to their original URL, so the grid renders,
// but the error stays on the entry for whoever waits on it.
type Propagate struct{}

func (Propagate) Resolve(ctx context.Context, key string, compute types.ComputeFunc) Outcome {
	v, err := run(ctx, key, compute)
	if err != nil {
		return Outcome{State: types.Fallback, Value: key, Err: err}
	}
	return Outcome{State: types.Ready, Value: v}
}
