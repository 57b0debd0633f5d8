package cli

import (
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/harshithgowdakt/granulekey/internal/server"
	"github.com/harshithgowdakt/granulekey/internal/storage"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &tableOptions{}
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve index analysis for a table over HTTP",
		Long: `Serve /explain, /select, /ping and /metrics for one table. Queries are
passed in the query parameter or the request body.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.load()
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())
			selector := storage.NewSelector(rootOpts.settings,
				storage.WithLogger(rootOpts.logger),
				storage.WithMetrics(storage.NewMetrics(reg)))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.NewServer(addr, table, selector, reg, rootOpts.logger).Start(ctx)
		},
	}
	opts.register(cmd.Flags())
	cmd.Flags().StringVar(&addr, "addr", ":8123", "HTTP listen address")
	return cmd
}
