package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"

	"github.com/krisalay/showcase-imagecache/errorpolicy"
	"github.com/krisalay/showcase-imagecache/eviction"
	"github.com/krisalay/showcase-imagecache/resample"
	"github.com/krisalay/showcase-imagecache/types"
)

const (
	DefaultMaxDisplayWidth  = 1000
	DefaultMaxDisplayHeight = 800
	DefaultFetchTimeout     = 15 * time.Second
	DefaultShards           = 4
)

// Config is everything fixed at composition time. Nothing here is hot-reloadable.
type Config struct {
	MaxDisplayWidth  int           `yaml:"maxDisplayWidth"`
	MaxDisplayHeight int           `yaml:"maxDisplayHeight"`
	Quality          int           `yaml:"quality"`
	Scaler           string        `yaml:"scaler"`
	BaseURL          string        `yaml:"baseUrl"`
	FetchTimeout     time.Duration `yaml:"fetchTimeout"`
	MaxImageBytes    int64         `yaml:"maxImageBytes"`

	Cache       CacheConfig       `yaml:"cache"`
	ErrorPolicy ErrorPolicyConfig `yaml:"errorPolicy"`

	Items []types.ShowcaseItem `yaml:"gridItems"`
}

type CacheConfig struct {
	Shards int `yaml:"shards"`

	// Capacity 0 keeps every entry for the lifetime of the cache.
	Capacity int                 `yaml:"capacity"`
	Eviction eviction.PolicyType `yaml:"eviction"`
}

type ErrorPolicyConfig struct {
	Mode     errorpolicy.Type `yaml:"mode"`
	Attempts int              `yaml:"attempts"`
	Backoff  time.Duration    `yaml:"backoff"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		MaxDisplayWidth:  DefaultMaxDisplayWidth,
		MaxDisplayHeight: DefaultMaxDisplayHeight,
		Quality:          resample.DefaultQuality,
		FetchTimeout:     DefaultFetchTimeout,
		Cache: CacheConfig{
			Shards:   DefaultShards,
			Eviction: eviction.LRU,
		},
		ErrorPolicy: ErrorPolicyConfig{
			Mode: errorpolicy.FallbackMode,
		},
	}
}

// Load reads path on top of Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	log.WithFields(log.Fields{
		"path":  path,
		"items": len(cfg.Items),
	}).Debug("config loaded")

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.MaxDisplayWidth <= 0 || c.MaxDisplayHeight <= 0 {
		errs = append(errs, fmt.Errorf("display limits must be positive, got %dx%d", c.MaxDisplayWidth, c.MaxDisplayHeight))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, fmt.Errorf("quality must be in 1..100, got %d", c.Quality))
	}
	if c.Cache.Capacity < 0 {
		errs = append(errs, errors.New("cache capacity must not be negative"))
	}
	if _, err := resample.ScalerByName(c.Scaler); err != nil {
		errs = append(errs, err)
	}
	if _, err := eviction.NewEvictionPolicy(c.Cache.Eviction); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Policy(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Limits is the display box.
func (c Config) Limits() types.Limits {
	return types.Limits{MaxWidth: c.MaxDisplayWidth, MaxHeight: c.MaxDisplayHeight}
}

// Policy builds the configured failure policy.
func (c Config) Policy() (errorpolicy.Policy, error) {
	return errorpolicy.New(c.ErrorPolicy.Mode, c.ErrorPolicy.Attempts, c.ErrorPolicy.Backoff)
}

// Collection wraps the configured items.
func (c Config) Collection() *types.Collection {
	return types.NewCollection(c.Items...)
}
