package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags and the app opened for the running command.
type RootOptions struct {
	EnvFile  string
	LogLevel string
	NoColor  bool

	now func() time.Time
	app *App
}

// App returns the app opened by the root command's pre-run hook.
func (o *RootOptions) App() *App {
	return o.app
}

// Close releases the app, if one was opened.
func (o *RootOptions) Close() error {
	if o.app == nil {
		return nil
	}
	err := o.app.Close()
	o.app = nil
	return err
}

func (o *RootOptions) today() string {
	now := time.Now
	if o.now != nil {
		now = o.now
	}
	return now().Format("2006-01-02")
}

// NewRootCommand creates the root command. Every subcommand runs against
// the app opened from the environment in PersistentPreRunE; callers must
// call opts.Close once the command returns.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "expensetracker",
		Short:         "Track expenses by category against monthly budgets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.app != nil {
				return nil
			}
			if opts.NoColor {
				color.NoColor = true
			}
			if err := LoadEnvFile(opts.EnvFile); err != nil {
				return err
			}
			cfg, err := LoadAndValidateConfig()
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if opts.LogLevel != "" {
				level = opts.LogLevel
			}
			logger := SetupLogger(level)

			app, err := OpenApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			opts.app = app
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "load environment from this file instead of .env")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error), overrides LOG_LEVEL")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewUndoCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewTotalsCommand(opts))
	cmd.AddCommand(NewCategoryCommand(opts))
	cmd.AddCommand(NewBudgetCommand(opts))
	cmd.AddCommand(NewAlertsCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewShellCommand(opts))

	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	opts := &RootOptions{}
	cmd := NewRootCommand(opts)

	err := cmd.Execute()
	if closeErr := opts.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		return 1
	}
	return 0
}
