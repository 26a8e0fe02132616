package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/showcase-imagecache/errorpolicy"
	"github.com/krisalay/showcase-imagecache/eviction"
	"github.com/krisalay/showcase-imagecache/types"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "showcase.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, types.Limits{MaxWidth: 1000, MaxHeight: 800}, cfg.Limits())
	assert.Equal(t, 85, cfg.Quality)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Equal(t, eviction.LRU, cfg.Cache.Eviction)
	assert.Zero(t, cfg.Cache.Capacity)

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.IsType(t, errorpolicy.FallbackOnError{}, p)
	assert.False(t, cfg.Collection().HasContent())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
maxDisplayWidth: 640
scaler: bilinear
baseUrl: https://cdn.example.com/showcase/
fetchTimeout: 3s
cache:
  capacity: 64
  eviction: FIFO
errorPolicy:
  mode: retry
  attempts: 3
  backoff: 250ms
gridItems:
  - imageUrl: hero.jpg
    title: Hero
    linkUrl: https://example.com
    linkText: Visit
  - imageUrl:
      fileAbsoluteUrl: https://cdn.example.com/picked.png
  - title: Text only
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	// untouched keys keep their defaults
	assert.Equal(t, types.Limits{MaxWidth: 640, MaxHeight: 800}, cfg.Limits())
	assert.Equal(t, 85, cfg.Quality)
	assert.Equal(t, DefaultShards, cfg.Cache.Shards)

	assert.Equal(t, "bilinear", cfg.Scaler)
	assert.Equal(t, "https://cdn.example.com/showcase/", cfg.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 64, cfg.Cache.Capacity)
	assert.Equal(t, eviction.FIFO, cfg.Cache.Eviction)

	p, err := cfg.Policy()
	require.NoError(t, err)
	retry, ok := p.(*errorpolicy.Retry)
	require.True(t, ok, "got %T", p)
	assert.Equal(t, 3, retry.Attempts)
	assert.Equal(t, 250*time.Millisecond, retry.Backoff)

	coll := cfg.Collection()
	require.Equal(t, 3, coll.Len())
	assert.Equal(t, types.ShowcaseItem{
		ImageRef: "hero.jpg",
		Title:    "Hero",
		LinkURL:  "https://example.com",
		LinkText: "Visit",
	}, coll.Items[0])
	assert.Equal(t, "https://cdn.example.com/picked.png", coll.Items[1].ImageRef)
	assert.Empty(t, coll.Items[2].ImageRef)
	assert.True(t, coll.HasContent())
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"zero width", "maxDisplayWidth: 0", "display limits"},
		{"quality", "quality: 101", "quality"},
		{"capacity", "cache: {capacity: -1}", "capacity"},
		{"scaler", "scaler: lanczos", "unknown scaler"},
		{"eviction", "cache: {eviction: LFU}", "unknown eviction policy"},
		{"policy", "errorPolicy: {mode: ignore}", "unknown error policy"},
		{"yaml", "gridItems: {", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Quality = 0
	cfg.Scaler = "bogus"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quality")
	assert.Contains(t, err.Error(), "bogus")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
