// Package jsonfile persists expense and budget snapshots as indented JSON
// documents on the local filesystem.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	applog "expensetracker/internal/log"
	"expensetracker/internal/persistence"
)

// Store reads and writes two JSON files: one for expenses and categories,
// one for budgets.
type Store struct {
	expensesPath string
	budgetsPath  string
	logger       *applog.Logger
}

var (
	_ persistence.ExpenseGateway = (*Store)(nil)
	_ persistence.BudgetGateway  = (*Store)(nil)
)

// New returns a store for the given file paths. The files are created on
// the first save.
func New(expensesPath, budgetsPath string, logger *applog.Logger) *Store {
	return &Store{
		expensesPath: expensesPath,
		budgetsPath:  budgetsPath,
		logger:       applog.OrNop(logger).WithComponent(applog.ComponentPersistence),
	}
}

// ExpensesPath returns the expense snapshot location.
func (s *Store) ExpensesPath() string { return s.expensesPath }

// BudgetsPath returns the budget snapshot location.
func (s *Store) BudgetsPath() string { return s.budgetsPath }

// readJSON decodes path into v. A missing file reports found=false with no
// error.
func readJSON(path string, v any) (found bool, err error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(content, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}

// writeJSON replaces path atomically: the document is written to a temp
// file in the same directory, synced, then renamed over the target.
func writeJSON(path string, v any) error {
	payload, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
