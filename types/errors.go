package types

import (
	"errors"
	"fmt"
)

// ErrSurfaceUnavailable is wrapped by EncodeError when no off-screen surface could be acquired.
var ErrSurfaceUnavailable = errors.New("rendering surface unavailable")

// ErrNotFound is returned when waiting on a key the cache has never seen.
var ErrNotFound = errors.New("key not in cache")

// LoadError means the image source was unreachable or undecodable
// (network failure, HTTP error status, unsupported format).
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.URL, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// EncodeError means the downscaled image could not be rendered or encoded.
type EncodeError struct {
	Width  int
	Height int
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %dx%d: %v", e.Width, e.Height, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
