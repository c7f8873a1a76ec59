package cli

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"expensetracker/internal/core"
	"expensetracker/internal/expenses"
)

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	var category, date, description string

	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Record an expense",
		Long: `Record an expense. The amount accepts a dot or comma decimal separator.
The date defaults to today.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rootOpts.App()
			amount, err := core.ParseAmount(args[0])
			if err != nil {
				return err
			}
			if date == "" {
				date = rootOpts.today()
			}

			id, err := app.Store.AddExpense(category, amount, date, description)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added expense #%d: %s in %s on %s\n",
				id, core.FormatAmount(amount), storedName(app.Store, category), date)
			reportAlerts(out, app)
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", core.Uncategorized, "category name")
	cmd.Flags().StringVarP(&date, "date", "d", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&description, "description", "m", "", "free-text description")

	return cmd
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses by category, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := rootOpts.App().Store
			out := cmd.OutOrStdout()

			sorted := store.SortedExpenses()
			cats := slices.Sorted(maps.Keys(sorted))
			if category != "" {
				cats = slices.DeleteFunc(cats, func(c string) bool {
					return core.CategoryKey(c) != core.CategoryKey(category)
				})
			}
			if len(cats) == 0 {
				fmt.Fprintln(out, "No expenses recorded")
				return nil
			}

			tw := newTable(out)
			for _, cat := range cats {
				fmt.Fprintf(tw, "%s (%d)\n", heading(cat), len(sorted[cat]))
				for _, r := range sorted[cat] {
					writeRecord(tw, "  ", r)
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if category == "" {
				fmt.Fprintf(out, "Total: %s\n", core.FormatAmount(store.GrandTotal()))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "only list this category")

	return cmd
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	var amount, date, description, category string

	cmd := &cobra.Command{
		Use:   "edit <category> <id>",
		Short: "Change an expense's amount, date, description or category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rootOpts.App()
			rec, err := findExpense(app.Store, args[0], args[1])
			if err != nil {
				return err
			}

			upd := expenses.ExpenseUpdate{Category: category}
			if cmd.Flags().Changed("amount") {
				a, err := core.ParseAmount(amount)
				if err != nil {
					return err
				}
				upd.Amount = &a
			}
			if cmd.Flags().Changed("date") {
				upd.Date = &date
			}
			if cmd.Flags().Changed("description") {
				upd.Description = &description
			}

			ok, err := app.Store.UpdateExpense(args[0], rec, upd)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("expense #%d not found in %s", rec.ID, args[0])
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Updated expense #%d\n", rec.ID)
			reportAlerts(out, app)
			return nil
		},
	}

	cmd.Flags().StringVarP(&amount, "amount", "a", "", "new amount")
	cmd.Flags().StringVarP(&date, "date", "d", "", "new date as YYYY-MM-DD")
	cmd.Flags().StringVarP(&description, "description", "m", "", "new description")
	cmd.Flags().StringVarP(&category, "category", "c", "", "move to this category")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <category> <id>",
		Short: "Delete an expense (undo restores it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rootOpts.App()
			rec, err := findExpense(app.Store, args[0], args[1])
			if err != nil {
				return err
			}
			if !app.Store.DeleteExpense(args[0], rec) {
				return fmt.Errorf("expense #%d not found in %s", rec.ID, args[0])
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Deleted expense #%d from %s\n", rec.ID, storedName(app.Store, args[0]))
			reportAlerts(out, app)
			return nil
		},
	}
}

// NewUndoCommand creates the undo command.
func NewUndoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Undo the last delete or clear",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rootOpts.App()
			out := cmd.OutOrStdout()
			if !app.Store.UndoDelete() {
				fmt.Fprintln(out, "Nothing to undo")
				return nil
			}
			fmt.Fprintln(out, "Restored")
			reportAlerts(out, app)
			return nil
		},
	}
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every expense (undo restores them)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear all expenses without --yes")
			}
			store := rootOpts.App().Store
			n := store.Len()
			store.ClearAll()
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d expense(s)\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm clearing all expenses")

	return cmd
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword>",
		Short: "Find expenses whose description contains keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matches := rootOpts.App().Store.SearchByDescription(args[0])
			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				fmt.Fprintf(out, "No matches for %q\n", args[0])
				return nil
			}
			tw := newTable(out)
			for _, m := range matches {
				writeRecord(tw, m.Category+"\t", m.Record)
			}
			return tw.Flush()
		},
	}
}

// NewTotalsCommand creates the totals command.
func NewTotalsCommand(rootOpts *RootOptions) *cobra.Command {
	var monthly bool

	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Show spending per category, or per month with --monthly",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := rootOpts.App().Store
			tw := newTable(cmd.OutOrStdout())

			if monthly {
				totals := store.MonthlySpendTotals()
				for _, month := range slices.Sorted(maps.Keys(totals)) {
					fmt.Fprintf(tw, "%s\t%s\n", month, core.FormatAmount(totals[month]))
				}
			} else {
				for _, ca := range store.CategorySubtotals() {
					fmt.Fprintf(tw, "%s\t%s\n", ca.Name, core.FormatAmount(ca.Amount))
				}
			}
			fmt.Fprintf(tw, "Total\t%s\n", core.FormatAmount(store.GrandTotal()))
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&monthly, "monthly", false, "group by YYYY-MM instead of category")

	return cmd
}

// findExpense looks up a record by id within category.
func findExpense(store *expenses.Store, category, rawID string) (core.ExpenseRecord, error) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("invalid expense id %q", rawID)
	}
	for _, r := range store.ExpensesFor(category) {
		if r.ID == id {
			return r, nil
		}
	}
	return core.ExpenseRecord{}, fmt.Errorf("expense #%d not found in %s", id, category)
}

// storedName returns the spelling the store uses for name.
func storedName(store *expenses.Store, name string) string {
	if existing, ok := core.CategoryExists(name, store.Categories(), store.ExpenseCategories()); ok {
		return existing
	}
	return core.NormalizeCategory(name)
}
