package types

import "context"

// Limits is the maximum display box. Fixed at composition time.
type Limits struct {
	MaxWidth  int
	MaxHeight int
}

// Request builds the resample request for a key under these limits.
func (l Limits) Request(key string) ResampleRequest {
	return ResampleRequest{Key: key, MaxWidth: l.MaxWidth, MaxHeight: l.MaxHeight}
}

// ResampleRequest is consumed once by the loader+resampler pair and never stored.
type ResampleRequest struct {
	Key       string
	MaxWidth  int
	MaxHeight int
}

// ComputeFunc produces the display value for one key.
type ComputeFunc func(ctx context.Context) (string, error)

// Computer is anything able to turn a ResampleRequest into a display value.
// engine.Engine is the production implementation.
type Computer interface {
	Compute(ctx context.Context, req ResampleRequest) (string, error)
}
