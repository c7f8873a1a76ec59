package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"expensetracker/internal/core"
)

// NewBudgetCommand creates the budget command group.
func NewBudgetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage monthly budget limits",
	}

	cmd.AddCommand(newBudgetSetCommand(rootOpts))
	cmd.AddCommand(newBudgetRemoveCommand(rootOpts))
	cmd.AddCommand(newBudgetListCommand(rootOpts))

	return cmd
}

func newBudgetSetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <category> <limit>",
		Short: "Set the monthly limit for a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rootOpts.App()
			limit, err := core.ParseLimit(args[1])
			if err != nil {
				return err
			}
			if !app.Ledger.SetBudget(args[0], limit) {
				return fmt.Errorf("cannot set budget for %q", args[0])
			}
			stored, _ := app.Ledger.BudgetProgress(args[0])
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Budget for %s set to %s\n", stored.Category, core.FormatAmount(limit))
			reportAlerts(out, app)
			return nil
		},
	}
}

func newBudgetRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <category>",
		Short: "Remove the limit for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !rootOpts.App().Ledger.RemoveBudget(args[0]) {
				return fmt.Errorf("no budget set for %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Budget for %s removed\n", args[0])
			return nil
		},
	}
}

func newBudgetListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show this month's progress against every budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			progress := rootOpts.App().Ledger.AllProgress()
			if len(progress) == 0 {
				fmt.Fprintln(out, "No budgets set")
				return nil
			}

			fmt.Fprintln(out, heading(progress[0].Period))
			tw := newTable(out)
			fmt.Fprintln(tw, "CATEGORY\tSPENT\tLIMIT\tREMAINING\tUSED\tSTATUS")
			for _, p := range progress {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s%%\t%s\n",
					p.Category,
					core.FormatAmount(p.Spent),
					core.FormatAmount(p.Limit),
					core.FormatAmount(p.Remaining),
					p.Percentage.StringFixed(0),
					severityText(p.Severity))
			}
			return tw.Flush()
		},
	}
}

// NewAlertsCommand creates the alerts command.
func NewAlertsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "Show budgets that are close to or over their limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger := rootOpts.App().Ledger
			out := cmd.OutOrStdout()
			if ledger.Count() == 0 {
				fmt.Fprintln(out, "No budgets set")
				return nil
			}
			alerts := ledger.Alerts()
			if len(alerts) == 0 {
				fmt.Fprintln(out, success("All budgets are within limits"))
				return nil
			}
			printAlerts(out, alerts)
			return nil
		},
	}
}
