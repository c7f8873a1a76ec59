package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	DefaultWarningThreshold = 0.8
	DefaultHTTPAddr         = ":8081"
	DefaultRateLimit        = 60
)

type Config struct {
	// Storage
	DataBackend  string
	DataDir      string
	ExpensesFile string
	BudgetsFile  string
	SQLiteDBPath string

	// AMQP change notifications, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// HTTP API served by the serve command
	HTTPAddr      string
	HTTPRateLimit int

	// Logging
	LogLevel string

	// Domain
	DefaultCategories []string
	WarningThreshold  float64

	// ConfigFile is the optional TOML overlay that was applied, if any.
	ConfigFile string
}

// fileConfig is the TOML overlay layout.
type fileConfig struct {
	Store  storeSection  `toml:"store"`
	Budget budgetSection `toml:"budget"`
}

type storeSection struct {
	DefaultCategories []string `toml:"default_categories"`
}

type budgetSection struct {
	WarningThreshold *float64 `toml:"warning_threshold,omitempty"`
}

// Load reads the configuration from the environment. When CONFIG_FILE names
// a TOML file its values override the environment.
func Load() (*Config, error) {
	dataDir := getEnv("DATA_DIR", "./data")

	cfg := &Config{
		DataBackend:  getEnv("DATA_BACKEND", BackendJSON),
		DataDir:      dataDir,
		ExpensesFile: getEnv("EXPENSES_FILE", filepath.Join(dataDir, "expenses.json")),
		BudgetsFile:  getEnv("BUDGETS_FILE", filepath.Join(dataDir, "budgets.json")),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", filepath.Join(dataDir, "expenses.db")),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "expensetracker"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "expense_changes"),

		HTTPAddr:      getEnv("HTTP_ADDR", DefaultHTTPAddr),
		HTTPRateLimit: getEnvInt("HTTP_RATE_LIMIT", DefaultRateLimit),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		DefaultCategories: getEnvList("DEFAULT_CATEGORIES", nil),
		WarningThreshold:  getEnvFloat("BUDGET_WARNING_THRESHOLD", DefaultWarningThreshold),

		ConfigFile: getEnv("CONFIG_FILE", ""),
	}

	if cfg.ConfigFile != "" {
		if err := cfg.applyFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	if len(fc.Store.DefaultCategories) > 0 {
		c.DefaultCategories = fc.Store.DefaultCategories
	}
	if fc.Budget.WarningThreshold != nil {
		c.WarningThreshold = *fc.Budget.WarningThreshold
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate data backend
	validBackends := []string{BackendJSON, BackendSQLite, BackendMemory}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendJSON {
		if c.ExpensesFile == "" {
			errors = append(errors, "expenses file cannot be empty when using json backend")
		}
		if c.BudgetsFile == "" {
			errors = append(errors, "budgets file cannot be empty when using json backend")
		}
		if c.ExpensesFile != "" && c.ExpensesFile == c.BudgetsFile {
			errors = append(errors, fmt.Sprintf("expenses and budgets cannot share the file '%s'", c.ExpensesFile))
		}
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.HTTPRateLimit <= 0 {
		errors = append(errors, fmt.Sprintf("invalid HTTP rate limit %d: must be positive", c.HTTPRateLimit))
	}

	if c.WarningThreshold <= 0 || c.WarningThreshold > 1 {
		errors = append(errors, fmt.Sprintf("invalid budget warning threshold %v: must be greater than 0 and at most 1", c.WarningThreshold))
	}

	for _, name := range c.DefaultCategories {
		if strings.TrimSpace(name) == "" {
			errors = append(errors, "default categories cannot contain empty names")
			break
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blank items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
