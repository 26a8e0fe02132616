package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/urfave/cli/v3"

	cache "github.com/krisalay/showcase-imagecache"
	"github.com/krisalay/showcase-imagecache/config"
	"github.com/krisalay/showcase-imagecache/engine"
	"github.com/krisalay/showcase-imagecache/loader"
	"github.com/krisalay/showcase-imagecache/logging"
	"github.com/krisalay/showcase-imagecache/orchestrator"
	"github.com/krisalay/showcase-imagecache/publish"
	"github.com/krisalay/showcase-imagecache/resample"
	"github.com/krisalay/showcase-imagecache/types"
)

// ================= METRICS =================

type Metrics struct {
	hits, misses, evictions, resampled, passthrough, fallbacks, publishes atomic.Int64
}

func (m *Metrics) Hit()         { m.hits.Add(1) }
func (m *Metrics) Miss()        { m.misses.Add(1) }
func (m *Metrics) Eviction()    { m.evictions.Add(1) }
func (m *Metrics) Resampled()   { m.resampled.Add(1) }
func (m *Metrics) Passthrough() { m.passthrough.Add(1) }
func (m *Metrics) Fallback()    { m.fallbacks.Add(1) }
func (m *Metrics) Publish()     { m.publishes.Add(1) }

func (m *Metrics) Print() {
	fmt.Println("\n==================== METRICS ====================")
	fmt.Printf("HITS        : %d\n", m.hits.Load())
	fmt.Printf("MISSES      : %d\n", m.misses.Load())
	fmt.Printf("EVICTIONS   : %d\n", m.evictions.Load())
	fmt.Printf("RESAMPLED   : %d\n", m.resampled.Load())
	fmt.Printf("PASSTHROUGH : %d\n", m.passthrough.Load())
	fmt.Printf("FALLBACKS   : %d\n", m.fallbacks.Load())
	fmt.Printf("PUBLISHES   : %d\n", m.publishes.Load())
}

// ================= MAIN =================

func main() {
	os.Exit(realMain())
}

func realMain() int {
	logging.InitLogger()

	app := &cli.Command{
		Name:  "showcase",
		Usage: "resolve showcase grid images into display values",
		Commands: []*cli.Command{
			resolveCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func resolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "run one reconciliation pass over the configured grid items",
		ArgsUsage: "[image-url...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
			&cli.IntFlag{Name: "max-width", Usage: "maximum display width (overrides config)"},
			&cli.IntFlag{Name: "max-height", Usage: "maximum display height (overrides config)"},
			&cli.IntFlag{Name: "quality", Usage: "JPEG quality 1..100 (overrides config)"},
			&cli.StringFlag{Name: "base-url", Usage: "base for relative image references"},
			&cli.BoolFlag{Name: "full", Usage: "print display values untruncated"},
		},
		Action: runResolve,
	}
}

func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg := config.Default()
	if path := cmd.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if v := cmd.Int("max-width"); v > 0 {
		cfg.MaxDisplayWidth = int(v)
	}
	if v := cmd.Int("max-height"); v > 0 {
		cfg.MaxDisplayHeight = int(v)
	}
	if v := cmd.Int("quality"); v > 0 {
		cfg.Quality = int(v)
	}
	if v := cmd.String("base-url"); v != "" {
		cfg.BaseURL = v
	}
	for _, ref := range cmd.Args().Slice() {
		cfg.Items = append(cfg.Items, types.ShowcaseItem{ImageRef: ref})
	}
	return cfg, cfg.Validate()
}

func runResolve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	items := cfg.Collection()
	if !items.HasContent() {
		fmt.Println("No Content Added Yet")
		return nil
	}

	fmt.Println("\n==================== SYSTEM BOOT ====================")
	fmt.Printf("LIMITS       : %dx%d\n", cfg.MaxDisplayWidth, cfg.MaxDisplayHeight)
	fmt.Printf("QUALITY      : %d\n", cfg.Quality)
	fmt.Printf("ERROR POLICY : %s\n", cfg.ErrorPolicy.Mode)
	fmt.Printf("ITEMS        : %d\n", items.Len())

	metrics := &Metrics{}

	client := cleanhttp.DefaultPooledClient()
	client.Timeout = cfg.FetchTimeout
	l, err := loader.NewHTTPLoader(cfg.BaseURL, client, cfg.MaxImageBytes)
	if err != nil {
		return err
	}

	scaler, err := resample.ScalerByName(cfg.Scaler)
	if err != nil {
		return err
	}
	eng := engine.NewEngine(l, resample.NewResampler(cfg.Quality, scaler, nil), metrics)

	policy, err := cfg.Policy()
	if err != nil {
		return err
	}
	c, err := cache.NewShardedCache(cfg.Cache.Shards, cfg.Cache.Capacity, cfg.Cache.Eviction, policy, metrics)
	if err != nil {
		return err
	}
	defer c.Close()

	out := publish.NewChannel()
	o := orchestrator.New(c, eng, cfg.Limits(), out, metrics)
	defer o.Close()

	o.Mount(items)

	var m types.Mapping
	select {
	case m = <-out.C():
	case <-ctx.Done():
		return ctx.Err()
	}

	fmt.Println("\n==================== MAPPING ====================")
	printMapping(m, cmd.Bool("full"))

	metrics.Print()
	return nil
}

func printMapping(m types.Mapping, full bool) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := m[k]
		switch {
		case v == k:
			fmt.Printf("%s\n  → original\n", k)
		case full:
			fmt.Printf("%s\n  → %s\n", k, v)
		default:
			size := "?"
			if b, err := resample.DecodeDataURL(v); err == nil {
				size = humanize.Bytes(uint64(len(b)))
			} else {
				log.WithError(err).WithField("url", k).Debug("unexpected display value")
			}
			fmt.Printf("%s\n  → %s… (%s jpeg)\n", k, truncate(v, 48), size)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n])
}
