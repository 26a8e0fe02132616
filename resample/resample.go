// Package resample downscales images to fit a maximum display box and re-encodes them
// as a JPEG data URL.
//
// Images that already fit are passed through untouched: the display value is then the
// original URL and no pixels are decoded.
package resample

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"strings"

	"golang.org/x/image/draw"

	"github.com/krisalay/showcase-imagecache/types"
)

const (
	// DefaultQuality is the JPEG quality of re-encoded images (0.85 on a 0..1 scale).
	DefaultQuality = 85

	// DefaultMaxSurfacePixels bounds the off-screen surface the default SurfaceFunc hands out.
	DefaultMaxSurfacePixels = 16 << 20

	dataURLPrefix = "data:image/jpeg;base64,"
)

// Source is a decodable image handle, *loader.Image satisfies it.
type Source interface {
	Decode() (image.Image, error)
}

// SurfaceFunc acquires the off-screen bitmap the source is rendered into.
type SurfaceFunc func(width, height int) (draw.Image, error)

// NewSurfaceFunc returns a SurfaceFunc allocating RGBA bitmaps of at most maxPixels pixels.
func NewSurfaceFunc(maxPixels int) SurfaceFunc {
	return func(width, height int) (draw.Image, error) {
		if width <= 0 || height <= 0 || width*height > maxPixels {
			return nil, types.ErrSurfaceUnavailable
		}
		return image.NewRGBA(image.Rect(0, 0, width, height)), nil
	}
}

// Result describes the display value produced for one image.
type Result struct {
	Value     string
	Width     int
	Height    int
	Bytes     int
	Resampled bool
}

type Resampler struct {
	quality int
	scaler  draw.Scaler
	surface SurfaceFunc
}

// NewResampler creates a resampler. Zero values pick the defaults: quality 85,
// Catmull-Rom scaling and RGBA surfaces bounded by DefaultMaxSurfacePixels.
func NewResampler(quality int, scaler draw.Scaler, surface SurfaceFunc) *Resampler {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	if scaler == nil {
		scaler = draw.CatmullRom
	}
	if surface == nil {
		surface = NewSurfaceFunc(DefaultMaxSurfacePixels)
	}
	return &Resampler{quality: quality, scaler: scaler, surface: surface}
}

/*
Fit computes the display dimensions of a width x height image inside maxWidth x maxHeight.

  - fitting images keep their size
  - otherwise scale = min(maxWidth/width, maxHeight/height), never above 1,
    and both sides are rounded to the nearest pixel (at least 1)

A non-positive limit means "unbounded" on that axis.
*/
func Fit(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 || fits(width, height, maxWidth, maxHeight) {
		return width, height
	}

	scale := 1.0
	if maxWidth > 0 {
		scale = math.Min(scale, float64(maxWidth)/float64(width))
	}
	if maxHeight > 0 {
		scale = math.Min(scale, float64(maxHeight)/float64(height))
	}

	w := clamp(int(math.Round(float64(width)*scale)), maxWidth)
	h := clamp(int(math.Round(float64(height)*scale)), maxHeight)
	return w, h
}

func fits(width, height, maxWidth, maxHeight int) bool {
	return (maxWidth <= 0 || width <= maxWidth) && (maxHeight <= 0 || height <= maxHeight)
}

func clamp(v, limit int) int {
	if limit > 0 && v > limit {
		v = limit
	}
	if v < 1 {
		v = 1
	}
	return v
}

/*
Resample produces the display value for src, whose dimensions are width x height.

Returns *types.EncodeError when no surface can be acquired or encoding fails, and the
*types.LoadError of src.Decode when the pixels cannot be decoded. Turning those into a
fallback value is the caller's policy decision.
*/
func (r *Resampler) Resample(ctx context.Context, src Source, width, height int, req types.ResampleRequest) (Result, error) {
	if fits(width, height, req.MaxWidth, req.MaxHeight) {
		return Result{Value: req.Key, Width: width, Height: height}, nil
	}

	w, h := Fit(width, height, req.MaxWidth, req.MaxHeight)

	dst, err := r.surface(w, h)
	if err != nil {
		return Result{}, &types.EncodeError{Width: w, Height: h, Err: err}
	}

	pixels, err := src.Decode()
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// JPEG has no alpha, transparent areas become white instead of black.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	r.scaler.Scale(dst, dst.Bounds(), pixels, pixels.Bounds(), draw.Over, nil)

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: r.quality}); err != nil {
		return Result{}, &types.EncodeError{Width: w, Height: h, Err: err}
	}

	return Result{
		Value:     dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:     w,
		Height:    h,
		Bytes:     buf.Len(),
		Resampled: true,
	}, nil
}

// DecodeDataURL returns the JPEG bytes of a value produced by Resample.
func DecodeDataURL(value string) ([]byte, error) {
	if !strings.HasPrefix(value, dataURLPrefix) {
		return nil, errors.New("not a jpeg data url")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(value, dataURLPrefix))
}

// ScalerByName maps a config name to an interpolator.
func ScalerByName(name string) (draw.Scaler, error) {
	switch name {
	case "", "catmullrom":
		return draw.CatmullRom, nil
	case "bilinear":
		return draw.BiLinear, nil
	case "approx-bilinear":
		return draw.ApproxBiLinear, nil
	case "nearest":
		return draw.NearestNeighbor, nil
	default:
		return nil, fmt.Errorf("unknown scaler %q", name)
	}
}
