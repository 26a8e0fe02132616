package errorpolicy

import (
	"context"

	"github.com/apex/log"

	"github.com/krisalay/showcase-imagecache/types"
)

// FallbackOnError is the default policy. A failed key shows its original, possibly
// oversized, image. The failure is logged and otherwise invisible.
type FallbackOnError struct{}

func (FallbackOnError) Resolve(ctx context.Context, key string, compute types.ComputeFunc) Outcome {
	v, err := run(ctx, key, compute)
	if err != nil {
		log.WithError(err).WithField("url", key).Warn("falling back to original image")
		return Outcome{State: types.Fallback, Value: key}
	}
	return Outcome{State: types.Ready, Value: v}
}
