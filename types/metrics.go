package types

// This file defines how the pipeline reports what it is doing.

/*
Metrics receives one call per pipeline event.
Implementations must be safe for concurrent use, the cache and the engine call them from
computation goroutines.
*/
type Metrics interface {

	// Hit is called when GetOrCompute finds an entry (pending or resolved).
	Hit()

	// Miss is called when GetOrCompute creates a Pending entry and launches a computation.
	Miss()

	// Eviction is called when a resolved entry is dropped to respect the capacity bound.
	Eviction()

	// Resampled is called when an oversized image was downscaled and re-encoded.
	Resampled()

	// Passthrough is called when an image already fit and its URL is used unchanged.
	Passthrough()

	// Fallback is called when a computation failed and the entry fell back to the original URL.
	Fallback()

	// Publish is called once per mapping handed to the renderer.
	Publish()
}

// NoopMetrics lets callers skip metrics without nil checks everywhere.
type NoopMetrics struct{}

func (NoopMetrics) Hit()         {}
func (NoopMetrics) Miss()        {}
func (NoopMetrics) Eviction()    {}
func (NoopMetrics) Resampled()   {}
func (NoopMetrics) Passthrough() {}
func (NoopMetrics) Fallback()    {}
func (NoopMetrics) Publish()     {}
