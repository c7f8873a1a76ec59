package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewCategoryCommand creates the category command group.
func NewCategoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage the category registry",
	}

	cmd.AddCommand(newCategoryListCommand(rootOpts))
	cmd.AddCommand(newCategoryAddCommand(rootOpts))
	cmd.AddCommand(newCategoryRemoveCommand(rootOpts))
	cmd.AddCommand(newCategoryMigrateCommand(rootOpts))

	return cmd
}

func newCategoryListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range rootOpts.App().Store.Categories() {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
}

func newCategoryAddCommand(rootOpts *RootOptions) *cobra.Command {
	var mergeInto string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a category, or merge it into another with --merge-into",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rootOpts.App()
			msg, err := app.Store.AddCategory(args[0], mergeInto)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, msg)
			reportAlerts(out, app)
			return nil
		},
	}

	cmd.Flags().StringVar(&mergeInto, "merge-into", "", "move this category's expenses into another category")

	return cmd
}

func newCategoryRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	var moveTo string

	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a category, moving its expenses to Uncategorized or --move-to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rootOpts.App()
			msg, err := app.Store.RemoveCategory(args[0], moveTo)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, msg)
			reportAlerts(out, app)
			return nil
		},
	}

	cmd.Flags().StringVar(&moveTo, "move-to", "", "category that receives the expenses")

	return cmd
}

func newCategoryMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Normalize category spellings, merge duplicates and realign budget keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rootOpts.App()
			renamed := app.Store.MigrateCategoriesToProperCase()
			merged := app.Store.AutoMergeDuplicateCategories()
			keys := app.Ledger.MigrateBudgetKeys()

			fmt.Fprintf(cmd.OutOrStdout(),
				"Renamed %d category name(s), merged %d duplicate group(s), migrated %d budget key(s)\n",
				renamed, merged, keys)
			return nil
		},
	}
}
