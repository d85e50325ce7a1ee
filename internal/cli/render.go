package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mtxspy/pkg/errors"
	"github.com/matzehuels/mtxspy/pkg/pipeline"
	"github.com/matzehuels/mtxspy/pkg/render/sink"
)

// renderCommand creates the render command for drawing matrix fingerprints.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		flags  pipelineFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "render [files...]",
		Short: "Render sparsity fingerprints of one or more matrices",
		Long: `Render sparsity fingerprints of one or more matrices.

Every matrix is binned into a grid of at most --resolution blocks along its
longer axis. Local densities are normalized on a log scale around the global
density and mapped through a white, cyan, blue, black gradient.

With a single input, -o names the output file and its extension selects the
format. With several inputs, -o names the output directory. A matrix that
fails is reported and the batch continues.

Inputs may be gzip (.gz) or zstd (.zst) compressed. With --bins the inputs
are grids in exchange format, as written by 'mtxspy bin'.`,
		Example: `  mtxspy render bcsstk01.mtx
  mtxspy render -o fingerprint.svg --legend bcsstk01.mtx.gz
  mtxspy render -f png,json -o out/ data/*.mtx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.applyConfig(cmd, c.config)
			if err := errors.ValidateDelta(flags.delta); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args, output, &flags)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single input) or directory (several inputs)")
	flags.registerBin(cmd)
	flags.registerCache(cmd)
	flags.registerRender(cmd)

	return cmd
}

// runRender renders every input and writes its artifacts. It fails only
// after the whole batch ran if any matrix failed.
func (c *CLI) runRender(ctx context.Context, inputs []string, output string, flags *pipelineFlags) error {
	batch := len(inputs) > 1
	formats, err := resolveFormats(flags.formats, output, batch)
	if err != nil {
		return err
	}
	if err := checkOutputCollisions(inputs, output, formats, batch); err != nil {
		return err
	}
	if batch && output != "" {
		if err := os.MkdirAll(output, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	runner, err := c.newRunner(ctx, flags.cache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	items := make([]pipeline.Options, len(inputs))
	for i, input := range inputs {
		opts := flags.options(input)
		opts.Name = pipeline.NameOf(input)
		opts.Formats = formats
		opts.Logger = c.Logger
		items[i] = opts
	}

	// Artifacts are written as each matrix finishes and then dropped, so
	// memory does not grow with the batch.
	written := make([][]string, len(inputs))
	writeErrs := make([]error, len(inputs))
	runner.Done = func(i, _ int, item *pipeline.BatchResult) {
		if item.Err != nil {
			return
		}
		written[i], writeErrs[i] = writeArtifacts(item, output, batch)
		item.Result.Artifacts = nil
	}

	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, renderMessage(inputs))
	if batch {
		runner.Progress = func(i, total int, opts pipeline.Options) {
			spinner.SetMessage(batchMessage(i, total, opts.Input))
		}
	}
	spinner.Start()
	results := runner.ExecuteBatch(ctx, items)
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	failed := 0
	for i, item := range results {
		switch {
		case item.Err != nil:
			failed++
			printError("%s: %s", item.Options.Input, errors.UserMessage(item.Err))
		case writeErrs[i] != nil:
			failed++
			printError("%s: %v", item.Options.Input, writeErrs[i])
		default:
			res := item.Result
			printSuccess("%s", item.Options.Name)
			for _, p := range written[i] {
				printFile(p)
			}
			printMatrixStats(res.Stats, res.Grid.Rows, res.Grid.Cols, res.CacheInfo.GridHit && res.CacheInfo.RenderHit)
		}
	}

	printNewline()
	if failed > 0 {
		return fmt.Errorf("%d of %d matrices failed", failed, len(inputs))
	}
	prog.done(fmt.Sprintf("Rendered %d matrices", len(inputs)))
	return nil
}

// writeArtifacts writes every artifact of one result. Each file is first
// written under a temporary name next to its target; the set is renamed
// into place only when all writes succeeded, and nothing is left behind
// otherwise.
func writeArtifacts(item *pipeline.BatchResult, output string, batch bool) ([]string, error) {
	formats := item.Options.Formats
	paths := make([]string, 0, len(formats))
	temps := make([]string, 0, len(formats))
	cleanup := func(files []string) {
		for _, f := range files {
			_ = os.Remove(f)
		}
	}

	for _, name := range formats {
		path := outputPath(item.Options.Input, output, sink.Format(name), batch, len(formats) > 1)
		tmp, err := writeTemp(path, item.Result.Artifacts[name])
		if err != nil {
			cleanup(temps)
			return nil, fmt.Errorf("write output %s: %w", path, err)
		}
		paths = append(paths, path)
		temps = append(temps, tmp)
	}

	for i, tmp := range temps {
		if err := os.Rename(tmp, paths[i]); err != nil {
			cleanup(temps[i:])
			cleanup(paths[:i])
			return nil, fmt.Errorf("write output %s: %w", paths[i], err)
		}
	}
	return paths, nil
}

// writeTemp writes data to a new temporary file in the directory of path
// and returns its name.
func writeTemp(path string, data []byte) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	if err := os.Chmod(f.Name(), 0o644); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// checkOutputCollisions fails with INVALID_OPTION when two inputs would
// write the same file, as a/m.mtx and b/m.mtx.gz do in one -o directory.
func checkOutputCollisions(inputs []string, output string, formats []string, batch bool) error {
	owner := make(map[string]string, len(inputs)*len(formats))
	for _, input := range inputs {
		for _, name := range formats {
			path := filepath.Clean(outputPath(input, output, sink.Format(name), batch, len(formats) > 1))
			if prev, ok := owner[path]; ok && prev != input {
				return errors.New(errors.ErrCodeInvalidOption, "%s and %s both write %s", prev, input, path)
			}
			owner[path] = input
		}
	}
	return nil
}

// resolveFormats canonicalizes the requested formats. Without --format the
// extension of a single output file decides, then the default.
func resolveFormats(flag, output string, batch bool) ([]string, error) {
	formats := parseFormats(flag)
	if len(formats) == 0 && output != "" && !batch {
		if f, err := sink.FormatFromPath(output); err == nil {
			formats = []string{string(f)}
		}
	}
	if len(formats) == 0 {
		formats = []string{pipeline.DefaultFormat}
	}

	seen := make(map[sink.Format]bool, len(formats))
	out := formats[:0]
	for _, s := range formats {
		f, err := sink.ParseFormat(s)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, string(f))
		}
	}
	return out, nil
}

// outputPath derives the file an artifact is written to.
//
// In a batch, output is a directory (default: next to the input). For a
// single input, output is used as is when only one format is produced;
// otherwise its format extension is replaced per artifact.
func outputPath(input, output string, format sink.Format, batch, multi bool) string {
	name := pipeline.NameOf(input)
	if batch || output == "" {
		dir := output
		if dir == "" {
			dir = filepath.Dir(input)
		}
		return filepath.Join(dir, name+format.Ext())
	}
	if !multi {
		return output
	}
	ext := filepath.Ext(output)
	if _, err := sink.ParseFormat(ext); err == nil {
		output = strings.TrimSuffix(output, ext)
	}
	return output + format.Ext()
}

func renderMessage(inputs []string) string {
	if len(inputs) == 1 {
		return fmt.Sprintf("Rendering %s...", filepath.Base(inputs[0]))
	}
	return fmt.Sprintf("Rendering %d matrices...", len(inputs))
}

func batchMessage(i, total int, input string) string {
	return fmt.Sprintf("Rendering %s (%d/%d)...", filepath.Base(input), i+1, total)
}
