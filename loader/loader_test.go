package loader_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/showcase-imagecache/loader"
	"github.com/krisalay/showcase-imagecache/types"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func newImageServer(t *testing.T) *httptest.Server {
	t.Helper()
	wide := pngBytes(t, 640, 320)

	mux := http.NewServeMux()
	mux.HandleFunc("/sites/showcase/wide.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(wide)
	})
	mux.HandleFunc("/garbage.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not an image</html>"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func requireLoadError(t *testing.T, err error, url string) {
	t.Helper()
	var loadErr *types.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, url, loadErr.URL)
}

func TestLoadOverHTTP(t *testing.T) {
	srv := newImageServer(t)
	l, err := loader.NewHTTPLoader("", srv.Client(), 0)
	require.NoError(t, err)

	img, err := l.Load(context.Background(), srv.URL+"/sites/showcase/wide.png")
	require.NoError(t, err)

	assert.Equal(t, 640, img.Width)
	assert.Equal(t, 320, img.Height)
	assert.Equal(t, "png", img.Format)

	pixels, err := img.Decode()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 640, 320), pixels.Bounds())
}

func TestLoadResolvesRelativeRefs(t *testing.T) {
	srv := newImageServer(t)
	l, err := loader.NewHTTPLoader(srv.URL+"/sites/showcase/", nil, 0)
	require.NoError(t, err)

	img, err := l.Load(context.Background(), "wide.png")
	require.NoError(t, err)

	assert.Equal(t, "wide.png", img.URL)
	assert.Equal(t, srv.URL+"/sites/showcase/wide.png", img.Resolved)
}

func TestLoadFailures(t *testing.T) {
	srv := newImageServer(t)
	l, err := loader.NewHTTPLoader("", srv.Client(), 0)
	require.NoError(t, err)

	tests := []struct {
		name string
		url  string
	}{
		{"not found", srv.URL + "/missing.png"},
		{"not an image", srv.URL + "/garbage.png"},
		{"unsupported scheme", "ftp://example.com/a.png"},
		{"unreachable host", "http://127.0.0.1:1/a.png"},
		{"missing file", "file:///definitely/not/here.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Load(context.Background(), tt.url)
			requireLoadError(t, err, tt.url)
		})
	}
}

func TestLoadFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tile.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 12, 34), 0o600))

	l, err := loader.NewHTTPLoader("", nil, 0)
	require.NoError(t, err)

	img, err := l.Load(context.Background(), "file://"+filepath.ToSlash(path))
	require.NoError(t, err)
	assert.Equal(t, 12, img.Width)
	assert.Equal(t, 34, img.Height)
}

func TestLoadNeverReadsBarePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tile.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 12, 34), 0o600))

	l, err := loader.NewHTTPLoader("", nil, 0)
	require.NoError(t, err)

	for _, ref := range []string{filepath.ToSlash(path), "tile.png", "../tile.png"} {
		_, err := l.Load(context.Background(), ref)
		requireLoadError(t, err, ref)
		assert.ErrorIs(t, err, loader.ErrNoBaseURL, ref)
	}
}

func TestLoadEnforcesSizeLimit(t *testing.T) {
	srv := newImageServer(t)
	l, err := loader.NewHTTPLoader("", srv.Client(), 64)
	require.NoError(t, err)

	url := srv.URL + "/sites/showcase/wide.png"
	_, err = l.Load(context.Background(), url)
	requireLoadError(t, err, url)
}

func TestLoadCancelled(t *testing.T) {
	srv := newImageServer(t)
	l, err := loader.NewHTTPLoader("", srv.Client(), 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = l.Load(ctx, srv.URL+"/sites/showcase/wide.png")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewImageRejectsGarbage(t *testing.T) {
	_, err := loader.NewImage("blob", []byte("nope"))
	requireLoadError(t, err, "blob")
}
