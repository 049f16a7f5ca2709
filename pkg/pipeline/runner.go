package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pointlabel/pkg/cache"
	"github.com/matzehuels/pointlabel/pkg/observability"
	"github.com/matzehuels/pointlabel/pkg/placement"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so that cache keys and events match.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs place → export with caching.
func (r *Runner) Execute(ctx context.Context, specs []placement.LabelSpec, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	cfg, err := opts.ValidateForPlace()
	if err != nil {
		return nil, err
	}
	if err := opts.ValidateForExport(); err != nil {
		return nil, err
	}

	result := &Result{Config: cfg}

	// Stage 1: Place
	placeStart := time.Now()
	res, inputHash, placeHit, err := r.place(ctx, specs, cfg, opts.Refresh)
	if err != nil {
		return nil, fmt.Errorf("place: %w", err)
	}
	result.Placement = res
	result.InputHash = inputHash
	result.Stats = Stats{
		Input:     len(specs),
		Placed:    res.PlacedCount(),
		Dropped:   res.DroppedCount(),
		PlaceTime: time.Since(placeStart),
	}
	result.CacheInfo.PlaceHit = placeHit

	r.Logger.Info("placed labels",
		"input", result.Stats.Input,
		"placed", result.Stats.Placed,
		"dropped", result.Stats.Dropped,
		"cached", placeHit,
		"duration", result.Stats.PlaceTime)

	// Stage 2: Export
	exportStart := time.Now()
	artifacts, exportHit, err := r.ExportWithCacheInfo(ctx, res, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.ExportTime = time.Since(exportStart)
	result.CacheInfo.ExportHit = exportHit

	r.Logger.Info("exported results",
		"formats", opts.Formats,
		"duration", result.Stats.ExportTime)

	return result, nil
}

// PlaceWithCacheInfo places labels with caching and returns cache hit info.
func (r *Runner) PlaceWithCacheInfo(ctx context.Context, specs []placement.LabelSpec, opts Options) (placement.Result, bool, error) {
	r.applyLogger(&opts)
	cfg, err := opts.ValidateForPlace()
	if err != nil {
		return placement.Result{}, false, err
	}
	res, _, hit, err := r.place(ctx, specs, cfg, opts.Refresh)
	return res, hit, err
}

// Place is a convenience wrapper that calls PlaceWithCacheInfo and discards the cache hit info.
func (r *Runner) Place(ctx context.Context, specs []placement.LabelSpec, opts Options) (placement.Result, error) {
	res, _, err := r.PlaceWithCacheInfo(ctx, specs, opts)
	return res, err
}

func (r *Runner) place(ctx context.Context, specs []placement.LabelSpec, cfg placement.Config, refresh bool) (placement.Result, string, bool, error) {
	if err := placement.ValidateSpecs(specs); err != nil {
		return placement.Result{}, "", false, err
	}
	inputHash, err := cache.HashJSON(specs)
	if err != nil {
		return placement.Result{}, "", false, err
	}
	cacheKey := r.Keyer.PlacementKey(inputHash, PlacementKeyOpts(cfg))

	// Try cache first (unless refresh requested)
	if !refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached placement.Result
			if err := json.Unmarshal(data, &cached); err == nil && len(cached.Outcomes) == len(specs) {
				observability.Cache().OnCacheHit(ctx, "placement")
				return cached, inputHash, true, nil
			}
			// If deserialization fails, fall through to recompute
		} else if err != nil {
			r.Logger.Warn("cache read failed", "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, "placement")
	}

	if err := ctx.Err(); err != nil {
		return placement.Result{}, "", false, err
	}

	hooks := observability.Placement()
	hooks.OnPlaceStart(ctx, len(specs))
	start := time.Now()
	res, err := placement.Place(specs, cfg)
	hooks.OnPlaceComplete(ctx, res.PlacedCount(), res.DroppedCount(), time.Since(start), err)
	if err != nil {
		return placement.Result{}, "", false, err
	}

	if data, err := json.Marshal(res); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLPlacement); err != nil {
			r.Logger.Warn("cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "placement", len(data))
		}
	}

	return res, inputHash, false, nil
}

// ExportWithCacheInfo encodes a result with caching and returns cache hit info.
// The hit flag is true only when every format came from cache.
func (r *Runner) ExportWithCacheInfo(ctx context.Context, res placement.Result, cfg placement.Config, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForExport(); err != nil {
		return nil, false, err
	}

	resultHash, err := cache.HashJSON(struct {
		Config placement.Config `json:"config"`
		Result placement.Result `json:"result"`
	}{cfg, res})
	if err != nil {
		return nil, false, fmt.Errorf("hash result for cache key: %w", err)
	}

	// Try to get all formats from cache
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(resultHash, ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	hooks := observability.Placement()
	hooks.OnExportStart(ctx, opts.Formats)
	start := time.Now()
	exported, err := Export(res, cfg, opts.Formats)
	hooks.OnExportComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range exported {
		key := r.Keyer.ArtifactKey(resultHash, ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return exported, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
