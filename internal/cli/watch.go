package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"expensetracker/internal/amqp"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print change events published by other expensetracker processes",
		Long: `Consume change events from the AMQP queue and print one line per event
until interrupted. Requires AMQP_URL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := rootOpts.App().Publisher()
			if client == nil {
				return fmt.Errorf("change notifications are not available: set AMQP_URL to a reachable broker")
			}

			ctx, stop := SignalContext(cmd.Context())
			defer stop()

			out := cmd.OutOrStdout()
			err := client.ConsumeChanges(ctx, func(msg *amqp.ChangeMessage) error {
				_, err := fmt.Fprintln(out, formatChange(msg))
				return err
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func formatChange(msg *amqp.ChangeMessage) string {
	line := fmt.Sprintf("%s  %s", msg.Timestamp.Local().Format("2006-01-02 15:04:05"), heading(msg.Op))
	if msg.Category != "" {
		line += "  " + msg.Category
	}
	if msg.From != "" || msg.To != "" {
		line += fmt.Sprintf("  %s -> %s", msg.From, msg.To)
	}
	if msg.RecordID != 0 {
		line += fmt.Sprintf("  #%d", msg.RecordID)
	}
	return line
}
