// Package pipeline runs label placement end to end for the CLI and the API.
//
// The pipeline has two stages:
//
//  1. Place: greedy first-fit placement of the input specs
//  2. Export: encode the result as JSON, GeoJSON and/or CSV
//
// Both stages are cached through a [cache.Cache], keyed by content hashes,
// so re-running the same input with the same options is a cache hit.
// Every entry point goes through [Runner] to get identical keys, logging
// and observability events.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	specs, _ := pkgio.ReadSpecsFile("cities.csv", pkgio.ReadOptions{})
//	result, err := runner.Execute(ctx, specs, pipeline.Options{
//	    Width:   8,
//	    Formats: []string{"geojson"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	geo := result.Artifacts["geojson"]
//
// Run a single stage:
//
//	res, hit, err := runner.PlaceWithCacheInfo(ctx, specs, opts)
//	artifacts, err := pipeline.Export(res, cfg, []string{"csv"})
package pipeline

import (
	"io"
	"math"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pointlabel/pkg/cache"
	"github.com/matzehuels/pointlabel/pkg/errors"
	pkgio "github.com/matzehuels/pointlabel/pkg/io"
	"github.com/matzehuels/pointlabel/pkg/placement"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// DefaultFormat is the export format used when Options.Formats is empty.
const DefaultFormat = string(pkgio.FormatJSON)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// Zero values select defaults. This struct supports JSON for API requests.
type Options struct {
	// Placement options
	Width   float64            `json:"width,omitempty"`
	Height  float64            `json:"height,omitempty"`
	Gap     *float64           `json:"gap,omitempty"`     // nil means placement.DefaultGap
	Offsets []placement.Offset `json:"offsets,omitempty"` // overrides Gap when set
	Index   string             `json:"index,omitempty"`
	Refresh bool               `json:"refresh,omitempty"` // ignore cached placements

	// Export options
	Formats []string `json:"formats,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Config is the resolved placement config.
	Config placement.Config

	// InputHash is the content hash of the input specs.
	InputHash string

	// Placement is the placement outcome.
	Placement placement.Result

	// Artifacts contains exported documents keyed by format.
	Artifacts map[string][]byte

	// Stats contains counts and timings.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Input      int
	Placed     int
	Dropped    int
	PlaceTime  time.Duration
	ExportTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	PlaceHit  bool // Whether the placement came from cache
	ExportHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that an export format is valid.
func ValidateFormat(format string) error {
	_, err := pkgio.ParseFormat(format)
	return err
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// SetPlacementDefaults fills in zero-valued placement options.
func (o *Options) SetPlacementDefaults() {
	if o.Width == 0 {
		o.Width = placement.DefaultWidth
	}
	if o.Height == 0 {
		o.Height = placement.DefaultHeight
	}
	if o.Gap == nil {
		gap := placement.DefaultGap
		o.Gap = &gap
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForPlace sets defaults and returns the placement config the
// options describe.
func (o *Options) ValidateForPlace() (placement.Config, error) {
	o.SetPlacementDefaults()
	if g := *o.Gap; math.IsNaN(g) || math.IsInf(g, 0) || g < 0 {
		return placement.Config{}, errors.New(errors.ErrCodeInvalidConfig, "gap must be a non-negative finite number, got %g", g)
	}
	kind, err := placement.ParseIndexKind(o.Index)
	if err != nil {
		return placement.Config{}, err
	}

	cfg := placement.Config{
		Width:   o.Width,
		Height:  o.Height,
		Offsets: o.Offsets,
		Index:   kind,
	}
	if len(cfg.Offsets) == 0 {
		cfg.Offsets = placement.DefaultOffsets(*o.Gap, o.Width, o.Height)
	}
	if err := cfg.Validate(); err != nil {
		return placement.Config{}, err
	}
	return cfg, nil
}

// SetExportDefaults fills in zero-valued export options.
func (o *Options) SetExportDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForExport sets defaults, checks the export formats and rewrites
// them in canonical lower-case form without duplicates.
func (o *Options) ValidateForExport() error {
	o.SetExportDefaults()
	seen := make(map[string]bool, len(o.Formats))
	formats := make([]string, 0, len(o.Formats))
	for _, name := range o.Formats {
		f, err := pkgio.ParseFormat(name)
		if err != nil {
			return err
		}
		if !seen[string(f)] {
			seen[string(f)] = true
			formats = append(formats, string(f))
		}
	}
	o.Formats = formats
	return nil
}

// PlacementKeyOpts returns cache key options for a placement config.
func PlacementKeyOpts(cfg placement.Config) cache.PlacementKeyOpts {
	offsets := make([][2]float64, len(cfg.Offsets))
	for i, off := range cfg.Offsets {
		offsets[i] = [2]float64{off.DX, off.DY}
	}
	return cache.PlacementKeyOpts{
		Width:   cfg.Width,
		Height:  cfg.Height,
		Offsets: offsets,
	}
}

// ArtifactKeyOpts returns cache key options for an exported format.
func ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: format}
}
