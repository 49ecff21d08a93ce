package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	nterrors "github.com/matzehuels/njtree/pkg/errors"
	"github.com/matzehuels/njtree/pkg/pipeline"
)

type renderOpts struct {
	bootstrapFlags
	output     string
	formats    string
	layout     string
	lengths    bool
	bootstrap  bool
	noCache    bool
	noProgress bool
}

// renderCommand creates the render command for drawing a tree.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <alignment.fna>",
		Short: "Draw the neighbor-joining tree of an alignment",
		Long: `Draw the neighbor-joining tree of an alignment.

Tips are labeled with their sequence names. With --bootstrap each internal
node is annotated with its support, and with --lengths each edge with its
branch length. Layouts are Graphviz engines; neato (default) draws the
unrooted tree with edge lengths proportional to branch lengths.

SVG is rendered in-process. PDF and PNG are converted from the SVG with
rsvg-convert, which must be on PATH.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): svg (default), dot, pdf, png (comma-separated)")
	cmd.Flags().StringVar(&opts.layout, "layout", pipeline.DefaultLayout, "graphviz layout engine: neato, twopi, circo, fdp, sfdp, dot")
	cmd.Flags().BoolVar(&opts.lengths, "lengths", false, "label edges with branch lengths")
	cmd.Flags().BoolVar(&opts.bootstrap, "bootstrap", false, "estimate and show bootstrap support")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "disable the interactive progress view")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()

	popts, err := c.pipelineOptions(cmd, &opts.bootstrapFlags)
	if err != nil {
		return err
	}
	popts.Formats = parseFormats(opts.formats)
	popts.Layout = opts.layout
	popts.Lengths = opts.lengths
	popts.SkipBootstrap = !opts.bootstrap
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	aln, err := readAlignment(input, stdinOf(cmd))
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	interactive := opts.bootstrap && !opts.noProgress && isTerminal(os.Stderr)
	if interactive {
		popts.Logger = quietLogger(popts.Logger)
	}

	var res *pipeline.Result
	err = c.withProgress(ctx, filepath.Base(input), interactive, os.Stderr, func(ctx context.Context, report progressFunc) error {
		popts.OnReplicate = report
		var err error
		res, err = runner.Execute(ctx, aln, popts)
		return err
	})
	if err != nil {
		return err
	}

	paths, err := writeDrawings(res.Artifacts, popts.Formats, input, opts.output)
	if err != nil {
		return err
	}
	printSuccess("Rendered %s", StyleTitle.Render(filepath.Base(input)))
	printStats(res)
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// writeDrawings writes each requested format. A single format goes to output
// as given; several formats share the base path output (or the input name)
// with one extension each.
func writeDrawings(artifacts map[string][]byte, formats []string, input, output string) ([]string, error) {
	var paths []string
	for _, f := range formats {
		data, ok := artifacts[f]
		if !ok {
			return paths, nterrors.New(nterrors.ErrCodeInternal, "no %s output was produced", f)
		}
		path := output
		if len(formats) > 1 || path == "" {
			path = basePath(output, input) + "." + f
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, nterrors.Wrap(nterrors.ErrCodeInvalidPath, err, "write %s", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// basePath strips a drawing extension from output, or derives the base from
// input when output is empty. Reading from stdin yields "tree".
func basePath(output, input string) string {
	if output == "" {
		if input == "-" {
			return "tree"
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if nterrors.ValidateRenderFormat(strings.TrimPrefix(ext, ".")) == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
