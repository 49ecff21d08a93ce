package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/njtree/internal/server"
	"github.com/matzehuels/njtree/pkg/cache"
)

// apiKeyPrefix keeps API entries apart from CLI runs on a shared cache.
const apiKeyPrefix = "njtree:api:"

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr          string
		maxReplicates int
		maxConcurrent int
		noCache       bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tree pipeline over HTTP",
		Long: `Serve the tree pipeline over HTTP.

  POST /v1/trees       FASTA body; query replicates, seed (positive), bootstrap, format, layout, lengths
  POST /v1/distances   FASTA body; returns the distance matrix as TSV
  GET  /healthz        liveness probe
  GET  /version        build information
  GET  /metrics        Prometheus metrics

The cache backend comes from the config file; use backend = "redis" to share
results between replicas.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()
			runner.Keyer = cache.NewScopedKeyer(runner.Keyer, apiKeyPrefix)

			srv := server.New(runner, server.Options{
				Addr:          addr,
				MaxReplicates: maxReplicates,
				MaxConcurrent: maxConcurrent,
				Workers:       c.Config.Bootstrap.Workers,
				Logger:        c.Logger,
			})
			printInfo("Serving on %s", StyleNumber.Render(addr))
			printKeyValue("cache", c.Config.Cache.Backend)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, else :8080)")
	cmd.Flags().IntVar(&maxReplicates, "max-replicates", server.DefaultMaxReplicates, "largest replicate count a request may ask for")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", server.DefaultMaxConcurrent, "pipeline requests served at once")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
