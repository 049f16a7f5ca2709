package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"

	"github.com/matzehuels/pointlabel/pkg/cache"
	"github.com/matzehuels/pointlabel/pkg/errors"
	"github.com/matzehuels/pointlabel/pkg/observability"
	"github.com/matzehuels/pointlabel/pkg/placement"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"geojson", false},
		{"csv", false},
		{"CSV", false},
		{"svg", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"json", "csv"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"json", "png"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestSetPlacementDefaults(t *testing.T) {
	opts := Options{}
	opts.SetPlacementDefaults()

	if opts.Width != placement.DefaultWidth {
		t.Errorf("Width should be %g, got %g", placement.DefaultWidth, opts.Width)
	}
	if opts.Height != placement.DefaultHeight {
		t.Errorf("Height should be %g, got %g", placement.DefaultHeight, opts.Height)
	}
	if opts.Gap == nil || *opts.Gap != placement.DefaultGap {
		t.Errorf("Gap should be %g, got %v", placement.DefaultGap, opts.Gap)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestValidateForPlace(t *testing.T) {
	zero := 0.0
	negative := -1.0
	nan := math.NaN()

	tests := []struct {
		name    string
		opts    Options
		wantErr bool
		check   func(t *testing.T, cfg placement.Config)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, cfg placement.Config) {
				want := placement.DefaultConfig()
				if cfg.Width != want.Width || cfg.Height != want.Height || cfg.Index != want.Index {
					t.Errorf("cfg = %+v, want %+v", cfg, want)
				}
				for i := range want.Offsets {
					if cfg.Offsets[i] != want.Offsets[i] {
						t.Errorf("offset %d = %v, want %v", i, cfg.Offsets[i], want.Offsets[i])
					}
				}
			},
		},
		{
			name: "zero gap",
			opts: Options{Gap: &zero},
			check: func(t *testing.T, cfg placement.Config) {
				if cfg.Offsets[0] != (placement.Offset{}) {
					t.Errorf("first offset = %v, want origin", cfg.Offsets[0])
				}
			},
		},
		{
			name: "explicit offsets win over gap",
			opts: Options{Gap: &zero, Offsets: []placement.Offset{{DX: 5, DY: 5}}},
			check: func(t *testing.T, cfg placement.Config) {
				if len(cfg.Offsets) != 1 || cfg.Offsets[0].DX != 5 {
					t.Errorf("offsets = %v", cfg.Offsets)
				}
			},
		},
		{
			name: "index is case-insensitive",
			opts: Options{Index: "GRID"},
			check: func(t *testing.T, cfg placement.Config) {
				if cfg.Index != placement.IndexGrid {
					t.Errorf("index = %q", cfg.Index)
				}
			},
		},
		{name: "negative gap", opts: Options{Gap: &negative}, wantErr: true},
		{name: "nan gap", opts: Options{Gap: &nan}, wantErr: true},
		{name: "negative width", opts: Options{Width: -2}, wantErr: true},
		{name: "unknown index", opts: Options{Index: "rtree"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := tt.opts.ValidateForPlace()
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidConfig) {
					t.Fatalf("err = %v, want INVALID_CONFIG", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestValidateForExport(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateForExport(); err != nil {
		t.Fatal(err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != DefaultFormat {
		t.Errorf("Formats should be [%s], got %v", DefaultFormat, opts.Formats)
	}

	opts = Options{Formats: []string{"CSV", "json", "csv"}}
	if err := opts.ValidateForExport(); err != nil {
		t.Fatal(err)
	}
	if len(opts.Formats) != 2 || opts.Formats[0] != "csv" || opts.Formats[1] != "json" {
		t.Errorf("Formats should be normalized, got %v", opts.Formats)
	}

	opts = Options{Formats: []string{"pdf"}}
	if err := opts.ValidateForExport(); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

// =============================================================================
// Runner
// =============================================================================

var sampleSpecs = []placement.LabelSpec{
	{Point: orb.Point{0, 0}, Label: "A"},
	{Point: orb.Point{3, 1}, Label: "B"},
	{Point: orb.Point{20, 20}, Label: "C"},
}

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, log.NewWithOptions(io.Discard, log.Options{}))
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if _, ok := r.Cache.(*cache.NullCache); !ok {
		t.Errorf("Cache = %T, want *cache.NullCache", r.Cache)
	}
	if r.Keyer == nil || r.Logger == nil {
		t.Error("Keyer and Logger should be defaulted")
	}
}

func TestPlaceWithCacheInfo(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)

	first, hit, err := r.PlaceWithCacheInfo(ctx, sampleSpecs, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("first run should miss the cache")
	}

	second, hit, err := r.PlaceWithCacheInfo(ctx, sampleSpecs, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !hit {
		t.Error("second run should hit the cache")
	}
	if len(second.Labels) != len(first.Labels) {
		t.Fatalf("cached result has %d labels, want %d", len(second.Labels), len(first.Labels))
	}
	for i := range first.Labels {
		if first.Labels[i] != second.Labels[i] {
			t.Errorf("label %d = %+v, want %+v", i, second.Labels[i], first.Labels[i])
		}
	}

	// Index kind does not change the result, so it shares the entry.
	if _, hit, _ := r.PlaceWithCacheInfo(ctx, sampleSpecs, Options{Index: "linear"}); !hit {
		t.Error("different index should still hit the cache")
	}

	// Size does change the result.
	if _, hit, _ := r.PlaceWithCacheInfo(ctx, sampleSpecs, Options{Width: 3}); hit {
		t.Error("different width should miss the cache")
	}

	if _, hit, _ := r.PlaceWithCacheInfo(ctx, sampleSpecs, Options{Refresh: true}); hit {
		t.Error("refresh should bypass the cache")
	}
}

func TestPlaceWithCacheInfoInvalidInput(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	specs := []placement.LabelSpec{{Point: orb.Point{math.Inf(1), 0}, Label: "bad"}}
	if _, _, err := r.PlaceWithCacheInfo(context.Background(), specs, Options{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestPlaceCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(nil, nil, nil)
	if _, err := r.Place(ctx, sampleSpecs, Options{}); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)

	opts := Options{Formats: []string{"json", "geojson", "csv"}}
	result, err := r.Execute(ctx, sampleSpecs, opts)
	if err != nil {
		t.Fatal(err)
	}

	if result.Stats.Input != 3 || result.Stats.Placed+result.Stats.Dropped != 3 {
		t.Errorf("stats = %+v", result.Stats)
	}
	if result.InputHash == "" {
		t.Error("InputHash should be set")
	}
	for _, f := range opts.Formats {
		if len(result.Artifacts[f]) == 0 {
			t.Errorf("missing artifact %q", f)
		}
	}
	var doc map[string]any
	if err := json.Unmarshal(result.Artifacts["json"], &doc); err != nil {
		t.Errorf("json artifact is not valid JSON: %v", err)
	}
	if result.CacheInfo.PlaceHit || result.CacheInfo.ExportHit {
		t.Errorf("first run should miss: %+v", result.CacheInfo)
	}

	again, err := r.Execute(ctx, sampleSpecs, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheInfo.PlaceHit || !again.CacheInfo.ExportHit {
		t.Errorf("second run should hit: %+v", again.CacheInfo)
	}
	if string(again.Artifacts["csv"]) != string(result.Artifacts["csv"]) {
		t.Error("cached csv differs from fresh csv")
	}
}

func TestExecuteInvalidFormat(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if _, err := r.Execute(context.Background(), sampleSpecs, Options{Formats: []string{"svg"}}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestExport(t *testing.T) {
	cfg := placement.DefaultConfig()
	res, err := placement.Place(sampleSpecs, cfg)
	if err != nil {
		t.Fatal(err)
	}
	artifacts, err := Export(res, cfg, []string{"csv"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := artifacts["csv"]; !ok || len(artifacts) != 1 {
		t.Errorf("artifacts = %v", artifacts)
	}
	if _, err := Export(res, cfg, []string{"svg"}); err == nil {
		t.Error("unknown format should fail")
	}
}

type recordingHooks struct {
	observability.NoopPlacementHooks
	starts, completes int
	placed, dropped   int
}

func (h *recordingHooks) OnPlaceStart(context.Context, int) { h.starts++ }

func (h *recordingHooks) OnPlaceComplete(_ context.Context, placed, dropped int, _ time.Duration, _ error) {
	h.completes++
	h.placed, h.dropped = placed, dropped
}

func TestRunnerEmitsPlacementHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPlacementHooks(hooks)
	t.Cleanup(observability.Reset)

	r := NewRunner(nil, nil, nil)
	res, err := r.Place(context.Background(), sampleSpecs, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if hooks.starts != 1 || hooks.completes != 1 {
		t.Errorf("hooks called start=%d complete=%d", hooks.starts, hooks.completes)
	}
	if hooks.placed != res.PlacedCount() || hooks.dropped != res.DroppedCount() {
		t.Errorf("hooks saw placed=%d dropped=%d", hooks.placed, hooks.dropped)
	}
}
