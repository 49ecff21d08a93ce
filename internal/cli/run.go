package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/njtree/pkg/pipeline"
)

type runOpts struct {
	bootstrapFlags
	outputDir   string
	noBootstrap bool
	noCache     bool
	refresh     bool
	noProgress  bool
}

// runCommand creates the run command for the full pipeline.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run <alignment.fna>",
		Short: "Build a neighbor-joining tree with bootstrap support",
		Long: `Build a neighbor-joining tree with bootstrap support.

The run command reads a FASTA alignment (or stdin for "-") and writes four
files to the output directory:

  genetic-distances.txt  pairwise p-distance matrix
  edges.txt              parent, child and branch length per edge
  tree.txt               the tree in Newick notation
  bootstrap.txt          support of each internal node, in edge order

Trees and bootstrap estimates are cached, so repeating a run with the same
alignment, replicate count and seed is instant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPipeline(cmd, args[0], &opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "output directory (default from config, else .)")
	cmd.Flags().BoolVar(&opts.noBootstrap, "no-bootstrap", false, "skip bootstrap support")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute cached results")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "disable the interactive progress view")

	return cmd
}

func (c *CLI) runPipeline(cmd *cobra.Command, input string, opts *runOpts) error {
	ctx := cmd.Context()

	aln, err := readAlignment(input, stdinOf(cmd))
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts, err := c.pipelineOptions(cmd, &opts.bootstrapFlags)
	if err != nil {
		return err
	}
	popts.SkipBootstrap = opts.noBootstrap
	popts.Refresh = opts.refresh

	interactive := !opts.noProgress && isTerminal(os.Stderr)
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

	paths, err := res.WriteFiles(c.outputDir(opts.outputDir), c.Config.Output.FileNames)
	if err != nil {
		return err
	}

	printSuccess("Built tree for %s", StyleTitle.Render(filepath.Base(input)))
	printStats(res)
	for _, p := range paths {
		printFile(p)
	}
	printNextStep("Draw it", fmt.Sprintf("%s render %s -f svg", appName, input))
	return nil
}
