package cli

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	nterrors "github.com/matzehuels/njtree/pkg/errors"
	"github.com/matzehuels/njtree/pkg/pipeline"
	"github.com/matzehuels/njtree/pkg/seq"
)

// bootstrapFlags are shared by every command that resamples.
type bootstrapFlags struct {
	replicates int
	seed       uint64
	workers    int
}

func (f *bootstrapFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.replicates, "replicates", "n", pipeline.DefaultReplicates, "number of bootstrap replicates")
	cmd.Flags().Uint64Var(&f.seed, "seed", pipeline.DefaultSeed, "random seed for column resampling (positive)")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "parallel workers (0 = one per CPU)")
}

// pipelineOptions starts from the config file and applies the flags the
// user set explicitly.
func (c *CLI) pipelineOptions(cmd *cobra.Command, f *bootstrapFlags) (pipeline.Options, error) {
	b := c.Config.Bootstrap
	opts := pipeline.Options{
		Replicates: b.Replicates,
		Seed:       b.Seed,
		Workers:    b.Workers,
		Logger:     loggerFromContext(cmd.Context()),
	}
	if f == nil {
		return opts, nil
	}
	if cmd.Flags().Changed("replicates") {
		opts.Replicates = f.replicates
	}
	if cmd.Flags().Changed("seed") {
		if err := nterrors.ValidateSeed(f.seed); err != nil {
			return opts, err
		}
		opts.Seed = f.seed
	}
	if cmd.Flags().Changed("workers") {
		opts.Workers = f.workers
	}
	return opts, nil
}

// outputDir returns the -o flag value, or the configured directory.
func (c *CLI) outputDir(flag string) string {
	if flag != "" {
		return flag
	}
	return c.Config.Output.Dir
}

// readAlignment reads FASTA from path, or from stdin when path is "-".
func readAlignment(path string, stdin io.Reader) (seq.Alignment, error) {
	var (
		aln seq.Alignment
		err error
	)
	if path == "-" {
		aln, err = seq.ReadFASTA(stdin)
	} else {
		aln, err = seq.ImportFASTA(path)
	}
	if err != nil {
		return nil, pipeline.Classify(err, "read alignment "+path)
	}
	if err := pipeline.ValidateAlignment(aln); err != nil {
		return nil, err
	}
	return aln, nil
}

// quietLogger returns a copy of l that only reports warnings and errors,
// used while the progress view owns the terminal.
func quietLogger(l *log.Logger) *log.Logger {
	q := l.With()
	q.SetLevel(log.WarnLevel)
	return q
}

// parseFormats splits a comma-separated format list.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// stdinOf returns the command's input stream.
func stdinOf(cmd *cobra.Command) io.Reader {
	if r := cmd.InOrStdin(); r != nil {
		return r
	}
	return os.Stdin
}
