package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowboard/pkg/flow"
	"github.com/matzehuels/flowboard/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output string // output file path (derived from input when empty)
	format string // output format: "dot" or "svg"
}

// renderCommand creates the render command for exporting flowchart files.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: render.FormatSVG}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a flowchart to DOT or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (defaults to input name with new extension)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), dot")

	return cmd
}

// validateFormat checks that the format is either "dot" or "svg".
func validateFormat(f string) error {
	if f != render.FormatDOT && f != render.FormatSVG {
		return fmt.Errorf("invalid format: %s (must be 'dot' or 'svg')", f)
	}
	return nil
}

// outputPath derives the output file path from the flags and input path.
func outputPath(output, input, format string) string {
	if output != "" {
		return output
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
}

func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	fc, err := flow.ReadFile(input)
	if err != nil {
		return err
	}
	logger.Infof("Loaded flowchart: %d nodes, %d edges", len(fc.Nodes), len(fc.Edges))

	dot := render.ToDOT(fc)

	var data []byte
	switch opts.format {
	case render.FormatDOT:
		data = []byte(dot)
	case render.FormatSVG:
		sp := newSpinnerWithContext(ctx, "rendering SVG")
		sp.Start()
		data, err = render.SVG(ctx, dot)
		if err != nil {
			sp.StopWithError(fmt.Sprintf("rendering failed: %v", err))
			return err
		}
		sp.Stop()
	}

	path := outputPath(opts.output, input, opts.format)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	printSuccess("rendered %s", input)
	printFile(path)
	return nil
}
