package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mtxspy/pkg/exchange"
)

// binCommand creates the bin command, which writes the grid of a matrix in
// exchange format.
func (c *CLI) binCommand() *cobra.Command {
	var (
		flags  pipelineFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "bin [file]",
		Short: "Bin a matrix and write the grid in exchange format",
		Long: `Bin a matrix and write the grid in exchange format.

The first line holds the matrix shape, the block rates and the number of
grid columns; every following line holds the row, column and nonzero count
of one non-empty cell. The output can be rendered later with
'mtxspy render --bins'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.applyConfig(cmd, c.config)
			return c.runBin(cmd, args[0], output, &flags)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	flags.registerBin(cmd)
	flags.registerCache(cmd)

	return cmd
}

func (c *CLI) runBin(cmd *cobra.Command, input, output string, flags *pipelineFlags) error {
	ctx := cmd.Context()

	runner, err := c.newRunner(ctx, flags.cache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := flags.options(input)
	opts.Logger = c.Logger
	g, cached, err := runner.BinWithCacheInfo(ctx, opts, nil)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := exchange.Write(&buf, g); err != nil {
		return err
	}

	if output == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}

	printSuccess("Binned %s", input)
	printFile(output)
	c.Logger.Debug("grid", "rows", g.Rows, "cols", g.Cols, "nnz", g.NNZ, "cached", cached)
	printNewline()
	printNextStep("Render", "mtxspy render --bins "+output)
	return nil
}
