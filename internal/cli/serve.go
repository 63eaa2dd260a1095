package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/worldmap/internal/metrics"
	"github.com/matzehuels/worldmap/internal/server"
)

// serveCommand creates the serve command running the HTTP facade.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		noStore   bool
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP layout server",
		Long: `Run the HTTP server used by the browser map editor.

Endpoints:
  POST   /v1/layout                      lay out a world document
  POST   /v1/route                       route exits between client positions
  GET    /v1/worlds                      list stored layouts
  GET    /v1/worlds/{world}/overrides    read a stored layout
  PUT    /v1/worlds/{world}/overrides    replace a stored layout
  DELETE /v1/worlds/{world}/overrides    delete a stored layout
  GET    /healthz                        build information
  GET    /metrics                        Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			runner, err := c.newRunner(ctx, cfg)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := server.Options{
				Runner:         runner,
				Logger:         c.Logger,
				Layout:         cfg.PipelineOptions(),
				RequestTimeout: cfg.Server.RequestTimeout.Duration,
				MaxBodyBytes:   cfg.Server.MaxBodyBytes,
			}
			if !noStore {
				st, err := c.newStore(ctx, cfg)
				if err != nil {
					return err
				}
				defer st.Close()
				opts.Store = st
			}
			if !noMetrics {
				m := metrics.New()
				m.Install()
				opts.Metrics = m
			}

			c.Logger.Info("starting server",
				"addr", cfg.Server.Addr,
				"engine", cfg.Layout.Engine,
				"cache", cfg.Cache.Backend,
				"store", cfg.Store.Backend)
			return server.New(opts).ListenAndServe(ctx, cfg.Server.Addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "disable the layout document routes")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable Prometheus metrics")

	return cmd
}
