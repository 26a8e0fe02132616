package resample_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"

	"github.com/krisalay/showcase-imagecache/resample"
	"github.com/krisalay/showcase-imagecache/types"
)

// fakeSource hands out a solid image and counts decodes.
type fakeSource struct {
	w, h    int
	decodes int
	err     error
	fill    color.Color
}

func (f *fakeSource) Decode() (image.Image, error) {
	f.decodes++
	if f.err != nil {
		return nil, f.err
	}
	img := image.NewNRGBA(image.Rect(0, 0, f.w, f.h))
	if f.fill != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(f.fill), image.Point{}, draw.Src)
	}
	return img, nil
}

func request(key string, maxW, maxH int) types.ResampleRequest {
	return types.ResampleRequest{Key: key, MaxWidth: maxW, MaxHeight: maxH}
}

func decodeResult(t *testing.T, value string) image.Image {
	t.Helper()
	data, err := resample.DecodeDataURL(value)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

//
// ================= FIT =================
//

func TestFit(t *testing.T) {
	tests := []struct {
		name             string
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{"landscape limited by width", 2000, 1000, 1000, 800, 1000, 500},
		{"portrait limited by height", 1000, 2000, 1000, 800, 400, 800},
		{"already fits", 500, 300, 1000, 800, 500, 300},
		{"exactly at limit", 1000, 800, 1000, 800, 1000, 800},
		{"never upscales", 10, 10, 1000, 800, 10, 10},
		{"rounds to nearest", 1001, 333, 1000, 800, 1000, 333},
		{"unbounded height", 3000, 100, 1000, 0, 1000, 33},
		{"zero size passes through", 0, 0, 1000, 800, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := resample.Fit(tt.w, tt.h, tt.maxW, tt.maxH)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestFitProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		w, h := 1+rng.Intn(8000), 1+rng.Intn(8000)
		maxW, maxH := 50+rng.Intn(2000), 50+rng.Intn(2000)

		nw, nh := resample.Fit(w, h, maxW, maxH)

		assert.LessOrEqual(t, nw, w, "width grew for %dx%d", w, h)
		assert.LessOrEqual(t, nh, h, "height grew for %dx%d", w, h)

		if w <= maxW && h <= maxH {
			assert.Equal(t, w, nw)
			assert.Equal(t, h, nh)
			continue
		}

		assert.LessOrEqual(t, nw, maxW)
		assert.LessOrEqual(t, nh, maxH)

		scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
		if float64(w)*scale < 1 || float64(h)*scale < 1 {
			// clamped to one pixel, ratio no longer meaningful
			continue
		}
		assert.InDelta(t, float64(w)*scale, float64(nw), 0.5+1e-9)
		assert.InDelta(t, float64(h)*scale, float64(nh), 0.5+1e-9)
	}
}

//
// ================= RESAMPLE =================
//

func TestResampleOversizedImage(t *testing.T) {
	r := resample.NewResampler(0, draw.ApproxBiLinear, nil)
	src := &fakeSource{w: 2000, h: 1000, fill: color.RGBA{R: 200, A: 255}}

	res, err := r.Resample(context.Background(), src, 2000, 1000, request("https://img/wide.jpg", 1000, 800))
	require.NoError(t, err)

	assert.True(t, res.Resampled)
	assert.Equal(t, 1000, res.Width)
	assert.Equal(t, 500, res.Height)
	assert.Contains(t, res.Value, "data:image/jpeg;base64,")
	assert.Positive(t, res.Bytes)

	out := decodeResult(t, res.Value)
	assert.Equal(t, image.Rect(0, 0, 1000, 500), out.Bounds())
}

func TestResampleSmallImagePassesThrough(t *testing.T) {
	r := resample.NewResampler(0, nil, nil)
	src := &fakeSource{w: 500, h: 300}

	res, err := r.Resample(context.Background(), src, 500, 300, request("https://img/small.png", 1000, 800))
	require.NoError(t, err)

	assert.False(t, res.Resampled)
	assert.Equal(t, "https://img/small.png", res.Value)
	assert.Zero(t, src.decodes, "fitting images must not be decoded")
}

func TestResampleTransparentBecomesWhite(t *testing.T) {
	r := resample.NewResampler(95, draw.ApproxBiLinear, nil)
	src := &fakeSource{w: 200, h: 200}

	res, err := r.Resample(context.Background(), src, 200, 200, request("https://img/alpha.png", 100, 100))
	require.NoError(t, err)

	red, green, blue, _ := decodeResult(t, res.Value).At(50, 50).RGBA()
	assert.Greater(t, red>>8, uint32(240))
	assert.Greater(t, green>>8, uint32(240))
	assert.Greater(t, blue>>8, uint32(240))
}

func TestResampleSurfaceUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		surface resample.SurfaceFunc
	}{
		{"surface func fails", func(int, int) (draw.Image, error) { return nil, types.ErrSurfaceUnavailable }},
		{"surface over pixel budget", resample.NewSurfaceFunc(100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := resample.NewResampler(0, nil, tt.surface)
			src := &fakeSource{w: 2000, h: 1000}

			_, err := r.Resample(context.Background(), src, 2000, 1000, request("https://img/x.jpg", 1000, 800))

			var encErr *types.EncodeError
			require.ErrorAs(t, err, &encErr)
			assert.Equal(t, 1000, encErr.Width)
			assert.Equal(t, 500, encErr.Height)
			assert.ErrorIs(t, err, types.ErrSurfaceUnavailable)
			assert.Zero(t, src.decodes)
		})
	}
}

func TestResampleDecodeFailure(t *testing.T) {
	r := resample.NewResampler(0, nil, nil)
	decodeErr := &types.LoadError{URL: "https://img/corrupt.jpg", Err: errors.New("bad huffman")}
	src := &fakeSource{w: 4000, h: 4000, err: decodeErr}

	_, err := r.Resample(context.Background(), src, 4000, 4000, request("https://img/corrupt.jpg", 1000, 800))
	assert.ErrorIs(t, err, decodeErr)
}

func TestResampleCancelled(t *testing.T) {
	r := resample.NewResampler(0, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resample(ctx, &fakeSource{w: 300, h: 300}, 300, 300, request("k", 100, 100))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScalerByName(t *testing.T) {
	for _, name := range []string{"", "catmullrom", "bilinear", "approx-bilinear", "nearest"} {
		s, err := resample.ScalerByName(name)
		require.NoError(t, err, name)
		assert.NotNil(t, s)
	}

	_, err := resample.ScalerByName("lanczos")
	assert.Error(t, err)
}

func TestDecodeDataURLRejectsOtherValues(t *testing.T) {
	_, err := resample.DecodeDataURL("https://img/a.jpg")
	assert.Error(t, err)
}
