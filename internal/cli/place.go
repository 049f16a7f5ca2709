package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/pointlabel/pkg/io"
	"github.com/matzehuels/pointlabel/pkg/pipeline"
	"github.com/matzehuels/pointlabel/pkg/placement"
)

// placeFlags holds the flag values of the place command. Placement flags
// that were not given keep the config file's value.
type placeFlags struct {
	output        string
	formats       string
	noCache       bool
	refresh       bool
	width         float64
	height        float64
	gap           float64
	index         string
	labelProperty string
	project       int

	// changed records which placement flags were given explicitly.
	changed map[string]bool
}

// placeCommand creates the place command for labelling a point file.
func (c *CLI) placeCommand() *cobra.Command {
	var f placeFlags

	cmd := &cobra.Command{
		Use:   "place [points.json|points.geojson|points.csv]",
		Short: "Place non-overlapping labels for a point file",
		Long: `Place non-overlapping labels for a point file.

Points are processed in file order. Each point tries its candidate offsets in
order (top-right, top-left, bottom-right, bottom-left by default) and keeps the
first box that does not overlap a label placed before it. Points where every
candidate collides are dropped and reported.

With --project, input coordinates are WGS84 longitude/latitude and are
projected before placement, so --width, --height and --gap are in the target
system's units. Output coordinates stay projected.

Output is written to <input>.labels.<format> for each --format unless
--output is given. Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.changed = make(map[string]bool)
			for _, name := range []string{"width", "height", "gap", "index"} {
				f.changed[name] = cmd.Flags().Changed(name)
			}
			return c.runPlace(cmd.Context(), args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: <input>.labels.<format>)")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "output formats: json (default), geojson, csv (comma-separated)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute the placement even when cached")
	cmd.Flags().StringVar(&f.labelProperty, "label-property", pkgio.DefaultLabelProperty, "GeoJSON property holding the label text")
	cmd.Flags().IntVar(&f.project, "project", 0, "read lon/lat and project to this EPSG code (e.g. 32633) before placing")

	cmd.Flags().Float64Var(&f.width, "width", 0, "label width (default from config)")
	cmd.Flags().Float64Var(&f.height, "height", 0, "label height (default from config)")
	cmd.Flags().Float64Var(&f.gap, "gap", 0, "distance between point and label (default from config)")
	cmd.Flags().StringVar(&f.index, "index", "", "collision index: grid, quadtree, linear (default from config)")

	return cmd
}

// options merges the config file with flags that were set.
func (f placeFlags) options(base pipeline.Options) pipeline.Options {
	opts := base
	if f.changed["width"] {
		opts.Width = f.width
	}
	if f.changed["height"] {
		opts.Height = f.height
	}
	if f.changed["gap"] {
		gap := f.gap
		opts.Gap = &gap
		// Explicit offsets from the config would ignore the new gap.
		opts.Offsets = nil
	}
	if f.changed["index"] {
		opts.Index = f.index
	}
	opts.Refresh = f.refresh
	opts.Formats = parseFormats(f.formats)
	return opts
}

// runPlace reads the points, runs the pipeline, and writes output files.
func (c *CLI) runPlace(ctx context.Context, input string, f placeFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	opts := f.options(cfg.PipelineOptions())
	opts.Logger = c.Logger
	// Normalizes format names so they match the artifact keys.
	if err := opts.ValidateForExport(); err != nil {
		return err
	}
	if f.output != "" && len(opts.Formats) > 1 {
		return fmt.Errorf("--output needs a single --format, got %d", len(opts.Formats))
	}

	ctx = withLogger(ctx, c.Logger)
	specs, err := readSpecs(ctx, input, pkgio.ReadOptions{
		LabelProperty: f.labelProperty,
		Project:       f.project,
	})
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg, f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Placing %d labels...", len(specs)))
	spinner.Start()

	result, err := runner.Execute(ctx, specs, opts)
	if err != nil {
		spinner.StopWithError("Placement failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	var written []string
	for _, format := range opts.Formats {
		path := outputPath(input, f.output, format)
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		written = append(written, path)
	}

	printSuccess("Placement complete")
	for _, path := range written {
		printFile(path)
	}
	printStats(result.Stats.Input, result.Stats.Placed, result.Stats.Dropped, result.CacheInfo.PlaceHit)
	if result.Stats.Dropped > 0 {
		printWarning("%d points had no free candidate", result.Stats.Dropped)
		for _, s := range firstDropped(result.Placement, 3) {
			printDetail("%s at (%g, %g)", displayLabel(s.Label), s.Point.X(), s.Point.Y())
		}
	}
	printNewline()
	if jsonOut := jsonOutput(written, opts.Formats); jsonOut != "" {
		printNextStep("Verify", appName+" check "+jsonOut)
	}

	return nil
}

// readSpecs loads specs from a file, logging how long it took.
func readSpecs(ctx context.Context, path string, opts pkgio.ReadOptions) ([]placement.LabelSpec, error) {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	specs, err := pkgio.ReadSpecsFile(path, opts)
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Read %d points from %s", len(specs), filepath.Base(path)))
	return specs, nil
}

// outputPath derives <input base>.labels.<format> unless output is set.
func outputPath(input, output, format string) string {
	if output != "" {
		return output
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	base = strings.TrimSuffix(base, ".geo")
	return base + ".labels." + format
}

// jsonOutput returns the written JSON result path, if any.
func jsonOutput(written, formats []string) string {
	for i, f := range formats {
		if f == string(pkgio.FormatJSON) {
			return written[i]
		}
	}
	return ""
}

func firstDropped(res placement.Result, n int) []placement.LabelSpec {
	dropped := res.Dropped()
	if len(dropped) > n {
		dropped = dropped[:n]
	}
	return dropped
}

func displayLabel(s string) string {
	if s == "" {
		return "(unlabelled)"
	}
	return fmt.Sprintf("%q", s)
}
