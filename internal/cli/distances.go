package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/matzehuels/njtree/pkg/distance"
	"github.com/matzehuels/njtree/pkg/pipeline"
)

// distancesCommand creates the distances command.
func (c *CLI) distancesCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "distances <alignment.fna>",
		Short: "Compute the pairwise p-distance matrix",
		Long: `Compute the pairwise p-distance matrix of an alignment.

The matrix is written as tab-separated text with a header row of labels,
to stdout or to the file given with -o. It can be fed back to
'njtree tree --matrix'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			aln, err := readAlignment(args[0], stdinOf(cmd))
			if err != nil {
				return err
			}

			prog := newProgress(loggerFromContext(cmd.Context()))
			workers := c.Config.Bootstrap.Workers
			if workers == 0 {
				workers = runtime.NumCPU()
			}
			m, err := distance.ComputeParallel(aln, workers)
			if err != nil {
				return pipeline.Classify(err, "compute distances")
			}
			prog.done("Computed distances")

			if output == "" {
				return m.WriteTSV(cmd.OutOrStdout())
			}
			if err := m.ExportTSV(output); err != nil {
				return pipeline.Classify(err, "write distances")
			}
			printSuccess("Wrote %d×%d matrix", m.N(), m.N())
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
