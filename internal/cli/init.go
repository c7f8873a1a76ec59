// Package cli provides the expensetracker command line and the
// initialization it shares: logging, .env loading, configuration and
// wiring of the store, ledger and storage backend.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"expensetracker/internal/amqp"
	"expensetracker/internal/backend"
	"expensetracker/internal/budget"
	"expensetracker/internal/config"
	"expensetracker/internal/expenses"
	applog "expensetracker/internal/log"
)

// SetupLogger initializes structured logging at the given level.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(level string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: applog.ComponentCLI,
	})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads path, or .env when path is empty.
// A missing default file is not an error; an explicit one must exist.
func LoadEnvFile(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App is a fully wired expense store and budget ledger.
type App struct {
	Config *config.Config
	Store  *expenses.Store
	Ledger *budget.Ledger
	Logger *applog.Logger

	backend *backend.BackendResult
}

// OpenApp builds the storage backend selected by cfg and loads the store and
// ledger from it, normalizing category spellings left by older data. When
// AMQP is configured every change event is published.
func OpenApp(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*App, error) {
	logger = applog.OrNop(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", backendCfg.Type, err)
	}

	store := expenses.New(ctx, expenses.Options{
		DefaultCategories: cfg.DefaultCategories,
		Gateway:           result.Expenses,
		Logger:            logger,
	})
	ledger := budget.New(ctx, store, budget.Options{
		Gateway:      result.Budgets,
		Logger:       logger,
		WarningRatio: cfg.WarningThreshold,
	})
	if result.Publisher != nil {
		store.Subscribe(amqp.Subscriber(result.Publisher, logger))
	}
	migrateCategories(store, ledger, logger)

	return &App{
		Config:  cfg,
		Store:   store,
		Ledger:  ledger,
		Logger:  logger,
		backend: result,
	}, nil
}

// migrateCategories brings legacy data in line with the normalized registry:
// proper-case names, one spelling per category and budget keys that follow.
func migrateCategories(store *expenses.Store, ledger *budget.Ledger, logger *applog.Logger) {
	renamed := store.MigrateCategoriesToProperCase()
	merged := store.AutoMergeDuplicateCategories()
	keys := ledger.MigrateBudgetKeys()
	if renamed+merged+keys == 0 {
		return
	}
	logger.Info("Migrated categories on startup",
		"renamed", renamed,
		"merged", merged,
		"budget_keys", keys)
}

// Publisher returns the AMQP client, or nil when change notifications are off.
func (a *App) Publisher() *amqp.Client {
	if a == nil || a.backend == nil {
		return nil
	}
	return a.backend.Publisher
}

// Close releases the backend resources.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	return a.backend.Close()
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
