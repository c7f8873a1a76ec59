package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apphttp "expensetracker/internal/http"
)

const shutdownTimeout = 30 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve expenses, categories and budgets as a JSON API",
		Long: `Serve the store and ledger over HTTP until interrupted. Requests are
handled one at a time against the same data the other commands use.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rootOpts.App()
			if addr == "" {
				addr = app.Config.HTTPAddr
			}

			srv := apphttp.NewServer(app.Store, app.Ledger, apphttp.Options{
				Addr:              addr,
				RequestsPerMinute: app.Config.HTTPRateLimit,
				Logger:            app.Logger,
				Now:               rootOpts.now,
			})

			ctx, stop := SignalContext(cmd.Context())
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s\n", addr)
			return srv.Run(ctx, shutdownTimeout)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default HTTP_ADDR)")

	return cmd
}
