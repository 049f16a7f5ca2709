package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pointlabel/pkg/errors"
	pkgio "github.com/matzehuels/pointlabel/pkg/io"
	"github.com/matzehuels/pointlabel/pkg/placement"
)

// errOverlap is returned by check when a result file violates the
// no-overlap guarantee, so the process exits non-zero.
var errOverlap = errors.New(errors.ErrCodeInvalidInput, "placed labels overlap")

// checkCommand creates the check command for verifying a result file.
func (c *CLI) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check [points.labels.json]",
		Short: "Verify that no two placed labels overlap",
		Long: `Verify that no two placed labels overlap.

The check command reads a JSON result written by 'place' and tests every pair
of placed boxes. Boxes that only share an edge do not overlap. The command
exits non-zero when a pair overlaps.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd.Context(), args[0])
		},
	}
}

// runCheck loads a result file and reports the first overlapping pair.
func (c *CLI) runCheck(ctx context.Context, path string) error {
	prog := newProgress(c.Logger)
	doc, err := pkgio.ReadResultFile(path)
	if err != nil {
		return err
	}
	labels := doc.PlacedLabels()

	i, j, found := placement.FindOverlap(labels)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	prog.done(fmt.Sprintf("Checked %d labels", len(labels)))

	if found {
		a, b := labels[i], labels[j]
		printError("%s and %s overlap", StyleError.Render(displayLabel(a.Label)), StyleError.Render(displayLabel(b.Label)))
		printDetail("input %d box %s", a.Input, formatBox(a))
		printDetail("input %d box %s", b.Input, formatBox(b))
		return errOverlap
	}

	printSuccess("No overlaps")
	printFile(path)
	printKeyValue("Points", fmt.Sprint(doc.Summary.Input))
	printKeyValue("Placed", fmt.Sprint(len(labels)))
	printKeyValue("Dropped", fmt.Sprint(doc.Summary.Dropped))
	return nil
}

func formatBox(l placement.PlacedLabel) string {
	return fmt.Sprintf("[%g %g, %g %g]", l.Box.Min.X(), l.Box.Min.Y(), l.Box.Max.X(), l.Box.Max.Y())
}
