package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mtxspy/pkg/binning"
	"github.com/matzehuels/mtxspy/pkg/mtx"
	"github.com/matzehuels/mtxspy/pkg/pipeline"
	"github.com/matzehuels/mtxspy/pkg/stats"
)

// infoReport is the JSON output of the info command.
type infoReport struct {
	Name     string        `json:"name"`
	Input    string        `json:"input"`
	Field    string        `json:"field,omitempty"`
	Symmetry string        `json:"symmetry,omitempty"`
	Entries  int64         `json:"entries,omitempty"`
	Summary  stats.Summary `json:"summary"`

	// RowProfile holds the nonzero count of every grid row.
	RowProfile []float64 `json:"row_profile"`
}

// infoCommand creates the info command for printing density statistics.
func (c *CLI) infoCommand() *cobra.Command {
	var (
		flags   pipelineFlags
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "info [file]",
		Short: "Print shape and density statistics of a matrix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.applyConfig(cmd, c.config)
			report, err := c.runInfo(cmd.Context(), args[0], &flags)
			if err != nil {
				return err
			}
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print statistics as JSON")
	cmd.Flags().BoolVar(&flags.nominal, "nominal", false, "divide counts by the nominal block area")
	flags.registerBin(cmd)

	return cmd
}

// runInfo bins the input without caching and summarizes the grid.
func (c *CLI) runInfo(ctx context.Context, input string, flags *pipelineFlags) (infoReport, error) {
	opts := flags.options(input)
	opts.Logger = c.Logger
	if err := opts.ValidateForBin(); err != nil {
		return infoReport{}, err
	}
	report := infoReport{Name: opts.Name, Input: input}

	var (
		g   *binning.Grid
		err error
	)
	if opts.Bins {
		g, err = pipeline.ReadBins(opts)
	} else {
		var m *mtx.Matrix
		m, err = pipeline.Load(ctx, opts)
		if err != nil {
			return report, err
		}
		defer m.Close()
		report.Field = string(m.Field)
		report.Symmetry = string(m.Symmetry)
		report.Entries = m.Entries
		g, err = pipeline.Bin(ctx, m, opts)
	}
	if err != nil {
		return report, err
	}

	report.Summary = stats.Summarize(g, flags.nominal)
	report.RowProfile = stats.RowProfile(g)
	return report, nil
}

func printReport(r infoReport) {
	s := r.Summary
	printSuccess("%s", StyleTitle.Render(r.Name))
	if r.Field != "" {
		printKeyValue("storage", fmt.Sprintf("%s %s, %d entries", r.Field, r.Symmetry, r.Entries))
	}
	printKeyValue("shape", fmt.Sprintf("%d × %d", s.Rows, s.Cols))
	printKeyValue("nonzeros", StyleNumber.Render(fmt.Sprintf("%d", s.NNZ)))
	printKeyValue("density", fmt.Sprintf("%.3g", s.Density))
	printKeyValue("grid", fmt.Sprintf("%d × %d (blocks of %d × %d)", s.GridRows, s.GridCols, s.MRate, s.NRate))
	printKeyValue("occupancy", fmt.Sprintf("%.1f%% of cells", 100*s.Occupancy))
	printKeyValue("local", fmt.Sprintf("min %.3g  median %.3g  max %.3g", s.Min, s.P50, s.Max))
	printKeyValue("mean", fmt.Sprintf("%.3g ± %.3g", s.Mean, s.StdDev))
	printKeyValue("diagonal", fmt.Sprintf("%.1f%% of nonzeros", 100*s.DiagonalShare))
	printKeyValue("peak", fmt.Sprintf("cell (%d, %d)", s.PeakRow, s.PeakCol))
}
