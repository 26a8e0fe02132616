package engine

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"

	"github.com/krisalay/showcase-imagecache/loader"
	"github.com/krisalay/showcase-imagecache/resample"
	"github.com/krisalay/showcase-imagecache/types"
)

var _ types.Computer = (*Engine)(nil)

/*
Engine is the compute side of the pipeline: it turns one ResampleRequest into a display
value by loading the image and resampling it.

It does NOT:
- store results (that is the cache)
- decide what a failure becomes (that is the cache's error policy)
- know about items or passes (that is the orchestrator)

One Engine is usually shared by several caches (one per mounted grid), singleflight makes
sure identical requests from different caches share a single fetch and encode.
*/
type Engine struct {
	Loader    loader.Loader
	Resampler *resample.Resampler
	Metrics   types.Metrics

	sf singleflight.Group
}

// NewEngine creates an Engine. A nil resampler gets the defaults, nil metrics become NoopMetrics.
// The display box travels with every request, the engine holds no limits of its own.
func NewEngine(l loader.Loader, r *resample.Resampler, metrics types.Metrics) *Engine {
	if r == nil {
		r = resample.NewResampler(0, nil, nil)
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	return &Engine{
		Loader:    l,
		Resampler: r,
		Metrics:   metrics,
	}
}

/*
Compute loads req.Key and returns its display value: the original URL when the image fits,
a JPEG data URL when it had to be downscaled. Errors are *types.LoadError or
*types.EncodeError (or a context error) and are returned as-is.

The shared flight runs detached from the caller that started it, so closing one cache never
fails the work another cache joined. ctx only bounds how long this caller waits.
*/
func (e *Engine) Compute(ctx context.Context, req types.ResampleRequest) (string, error) {
	flightKey := fmt.Sprintf("%s@%dx%d", req.Key, req.MaxWidth, req.MaxHeight)
	flightCtx := context.WithoutCancel(ctx)

	ch := e.sf.DoChan(flightKey, func() (any, error) {
		return e.compute(flightCtx, req)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			log.WithField("url", req.Key).Debug("joined in-flight computation")
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		log.WithField("url", req.Key).Debug("stopped waiting for in-flight computation")
		return "", ctx.Err()
	}
}

func (e *Engine) compute(ctx context.Context, req types.ResampleRequest) (string, error) {
	img, err := e.Loader.Load(ctx, req.Key)
	if err != nil {
		return "", err
	}

	res, err := e.Resampler.Resample(ctx, img, img.Width, img.Height, req)
	if err != nil {
		return "", err
	}

	fields := log.Fields{
		"url":    req.Key,
		"source": fmt.Sprintf("%dx%d", img.Width, img.Height),
	}
	if !res.Resampled {
		e.Metrics.Passthrough()
		log.WithFields(fields).Debug("image fits, using original")
		return res.Value, nil
	}

	e.Metrics.Resampled()
	fields["target"] = fmt.Sprintf("%dx%d", res.Width, res.Height)
	fields["before"] = humanize.Bytes(uint64(img.Size()))
	fields["after"] = humanize.Bytes(uint64(res.Bytes))
	log.WithFields(fields).Debug("image resampled")

	return res.Value, nil
}
