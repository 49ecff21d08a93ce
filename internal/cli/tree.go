package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/njtree/pkg/distance"
	nterrors "github.com/matzehuels/njtree/pkg/errors"
	"github.com/matzehuels/njtree/pkg/pipeline"
)

// treeCommand creates the tree command, which builds a tree without
// bootstrap support.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		matrix    string
		outputDir string
		noCache   bool
		newick    bool
	)

	cmd := &cobra.Command{
		Use:   "tree [alignment.fna]",
		Short: "Build a neighbor-joining tree without bootstrap support",
		Long: `Build a neighbor-joining tree without bootstrap support.

The input is either a FASTA alignment or, with --matrix, a distance matrix
in the format written by 'njtree distances'. The distances, edge list and
Newick tree are written to the output directory; with --newick only the
Newick tree is printed to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (matrix == "") {
				return nterrors.New(nterrors.ErrCodeInvalidInput, "give either an alignment or --matrix")
			}
			ctx := cmd.Context()

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts, err := c.pipelineOptions(cmd, nil)
			if err != nil {
				return err
			}
			opts.SkipBootstrap = true

			prog := newProgress(opts.Logger)
			var (
				res   *pipeline.Result
				input string
			)
			if matrix != "" {
				input = matrix
				m, err := distance.ImportTSV(matrix)
				if err != nil {
					return pipeline.Classify(err, "read matrix "+matrix)
				}
				res, err = runner.BuildFromMatrix(ctx, m, opts)
				if err != nil {
					return err
				}
			} else {
				input = args[0]
				aln, err := readAlignment(input, stdinOf(cmd))
				if err != nil {
					return err
				}
				res, err = runner.Execute(ctx, aln, opts)
				if err != nil {
					return err
				}
			}

			if newick {
				_, err := cmd.OutOrStdout().Write(append(res.Artifacts[pipeline.ArtifactTree], '\n'))
				return err
			}
			prog.done("Built tree")

			paths, err := res.WriteFiles(c.outputDir(outputDir), c.Config.Output.FileNames)
			if err != nil {
				return err
			}
			printSuccess("Built tree for %s", StyleTitle.Render(filepath.Base(input)))
			printStats(res)
			for _, p := range paths {
				printFile(p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&matrix, "matrix", "", "build from a distance matrix file instead of an alignment")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "output directory (default from config, else .)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&newick, "newick", false, "print the Newick tree to stdout instead of writing files")

	return cmd
}
