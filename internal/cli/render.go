package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	inputFlags
	output    string  // output file (single format) or base path (several)
	formats   string  // comma-separated output formats
	noTooltip bool    // omit hover tooltips from the SVG
	noLegend  bool    // omit the magnitude legend
	scale     float64 // PNG pixel density
	highlight string  // flow key emphasised in PNG output
}

// renderCommand creates the render command.
//
// Default settings:
//   - format: svg
//   - tooltips and legend: on
//   - output: <data>-<location>-<direction>-<display>.<format> next to the data file
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the selected flows to SVG, PNG or JSON",
		Example: `  flowmap render --data migration.csv --topology states-10m.json
  flowmap render -l TX -d inbound --display all -f svg,png -o texas
  flowmap render -l "New York" -f json -o -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formats, err := pipeline.ParseFormats(opts.formats)
			if err != nil {
				return err
			}
			popts, _, err := c.options(cmd, &opts.inputFlags)
			if err != nil {
				return err
			}
			popts.Formats = formats
			popts.Tooltips = !opts.noTooltip
			popts.Legend = !opts.noLegend
			popts.Scale = opts.scale
			popts.Highlight = opts.highlight
			return c.runRender(cmd.Context(), popts, &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format), base path (several), or - for stdout")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", pipeline.FormatSVG, "output format(s): svg, png, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.noTooltip, "no-tooltips", false, "omit hover tooltips")
	cmd.Flags().BoolVar(&opts.noLegend, "no-legend", false, "omit the magnitude legend")
	cmd.Flags().Float64Var(&opts.scale, "scale", pipeline.DefaultScale, "PNG pixel density")
	cmd.Flags().StringVar(&opts.highlight, "highlight", "", "flow to emphasise in PNG output, e.g. 06-48")

	return cmd
}

// runRender executes the pipeline and writes one file per format.
func (c *CLI) runRender(ctx context.Context, popts pipeline.Options, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	result, err := runner.Execute(ctx, popts)
	if err != nil {
		return err
	}
	for _, sk := range result.Scene.Skipped {
		logger.Warn("flow not drawn", "flow", sk.Key, "reason", sk.Reason)
	}

	paths := outputPaths(opts.output, defaultBase(popts.DataPath, result.Scene.Selection), popts.Formats)
	for _, format := range popts.Formats {
		if err := writeOutput(paths[format], result.Artifacts[format]); err != nil {
			return err
		}
	}
	prog.done("Rendered " + result.Scene.Selection.Key())

	if opts.output == "-" {
		return nil
	}
	printSuccess("Rendered %s", StyleHighlight.Render(result.Scene.Selection.Key()))
	printStats(result.Stats.Locations, result.Stats.Flows, result.CacheInfo.RenderHit)
	for _, format := range popts.Formats {
		printFile(paths[format])
	}
	return nil
}

// defaultBase derives the output base path from the data file and the
// resolved selection.
func defaultBase(data string, sel flow.Selection) string {
	dir, name := filepath.Split(data)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(dir, fmt.Sprintf("%s-%s-%s-%s", name, sel.Location, sel.Direction, sel.Display))
}

// basePath strips a known format extension from output, or returns def
// when output is empty.
func basePath(output, def string) string {
	if output == "" {
		return def
	}
	ext := filepath.Ext(output)
	if slices.Contains(pipeline.Formats, strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPaths maps each format to its file. A single format with an
// explicit output is written there unchanged; "-" is stdout.
func outputPaths(output, def string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, def)
	for _, f := range formats {
		if output == "-" {
			paths[f] = "-"
			continue
		}
		paths[f] = base + "." + f
	}
	return paths
}

// openOutput opens path for writing, creating parent directories; "-" is
// stdout.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

func writeOutput(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
