package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/persistence"

	_ "modernc.org/sqlite"
)

const (
	metaExpensesSavedAt    = "expenses_saved_at"
	metaBudgetsLastUpdated = "budgets_last_updated"
	metaBudgetPeriod       = "budget_period"
	metaVersion            = "version"
)

// SQLiteRepository stores expense and budget snapshots in a SQLite file.
// Every save replaces the previous snapshot inside one transaction.
type SQLiteRepository struct {
	db     *sql.DB
	logger *applog.Logger
	now    func() time.Time
}

var (
	_ persistence.ExpenseGateway = (*SQLiteRepository)(nil)
	_ persistence.BudgetGateway  = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		logger: applog.OrNop(logger).WithComponent(applog.ComponentStorage),
		now:    time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadExpenses implements persistence.ExpenseGateway. A database that has
// never been saved to yields defaults.
func (r *SQLiteRepository) LoadExpenses(ctx context.Context, defaults []string) core.Snapshot {
	snap, err := r.loadExpenses(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to load expenses from SQLite, starting empty",
			applog.NewFields().
				WithOperation(applog.OpLoad).
				WithErrorType(applog.ErrorTypePersistence).
				WithError(err).
				ToSlice()...)
	}
	if err != nil || snap == nil {
		return core.Snapshot{
			Expenses:   map[string][]core.ExpenseRecord{},
			Categories: slices.Clone(defaults),
		}
	}
	return *snap
}

func (r *SQLiteRepository) loadExpenses(ctx context.Context) (*core.Snapshot, error) {
	if _, ok, err := r.meta(ctx, metaExpensesSavedAt); err != nil || !ok {
		return nil, err
	}

	snap := &core.Snapshot{
		Expenses:   map[string][]core.ExpenseRecord{},
		Categories: []string{},
	}

	rows, err := r.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan category: %w", err)
		}
		snap.Categories = append(snap.Categories, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT id, category, amount, date, description FROM expenses ORDER BY category, position`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			rec              core.ExpenseRecord
			category, amount string
			date             string
		)
		if err := rows.Scan(&rec.ID, &category, &amount, &date, &rec.Description); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if rec.Amount, err = decimal.NewFromString(amount); err != nil || !rec.Amount.IsPositive() {
			r.logger.WarnContext(ctx, "Dropping expense with invalid amount",
				applog.NewFields().
					WithOperation(applog.OpLoad).
					WithCategory(category).
					WithErrorType(applog.ErrorTypeValidation).
					ToSlice()...)
			continue
		}
		if date != "" {
			rec.Date, _ = core.ParseDate(date)
		}
		snap.Expenses[category] = append(snap.Expenses[category], rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	r.logger.DebugContext(ctx, "Loaded expenses from SQLite",
		applog.NewFields().WithOperation(applog.OpLoad).WithCount(snap.RecordCount()).ToSlice()...)
	return snap, nil
}

// SaveExpenses implements persistence.ExpenseGateway.
func (r *SQLiteRepository) SaveExpenses(ctx context.Context, snap core.Snapshot) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
			return fmt.Errorf("clear expenses: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}

		for i, name := range snap.Categories {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO categories (name, position) VALUES (?, ?)`, name, i); err != nil {
				return fmt.Errorf("insert category %s: %w", name, err)
			}
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO expenses (id, category, position, amount, date, description) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare expense insert: %w", err)
		}
		defer stmt.Close()
		for category, records := range snap.Expenses {
			for i, rec := range records {
				if _, err := stmt.ExecContext(ctx,
					rec.ID, category, i, rec.Amount.String(), rec.Date.String(), rec.Description); err != nil {
					return fmt.Errorf("insert expense %d: %w", rec.ID, err)
				}
			}
		}

		return setMeta(ctx, tx, metaExpensesSavedAt, r.now().UTC().Format(time.RFC3339))
	})
}

// LoadBudgets implements persistence.BudgetGateway.
func (r *SQLiteRepository) LoadBudgets(ctx context.Context) core.BudgetSnapshot {
	snap := core.BudgetSnapshot{
		Budgets: map[string]decimal.Decimal{},
		Period:  persistence.BudgetPeriodMonthly,
		Version: persistence.BudgetVersion,
	}
	if err := r.loadBudgets(ctx, &snap); err != nil {
		r.logger.ErrorContext(ctx, "Failed to load budgets from SQLite, starting empty",
			applog.NewFields().
				WithOperation(applog.OpLoad).
				WithErrorType(applog.ErrorTypePersistence).
				WithError(err).
				ToSlice()...)
		snap.Budgets = map[string]decimal.Decimal{}
	}
	return snap
}

func (r *SQLiteRepository) loadBudgets(ctx context.Context, snap *core.BudgetSnapshot) error {
	rows, err := r.db.QueryContext(ctx, `SELECT category, monthly_limit FROM budgets`)
	if err != nil {
		return fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category, limit string
		if err := rows.Scan(&category, &limit); err != nil {
			return fmt.Errorf("scan budget: %w", err)
		}
		d, err := decimal.NewFromString(limit)
		if err != nil {
			r.logger.WarnContext(ctx, "Dropping budget with invalid limit",
				applog.NewFields().WithOperation(applog.OpLoad).WithCategory(category).ToSlice()...)
			continue
		}
		snap.Budgets[category] = d
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate budgets: %w", err)
	}

	if v, ok, err := r.meta(ctx, metaBudgetsLastUpdated); err != nil {
		return err
	} else if ok {
		snap.LastUpdated, _ = time.Parse(time.RFC3339, v)
	}
	if v, ok, err := r.meta(ctx, metaBudgetPeriod); err != nil {
		return err
	} else if ok {
		snap.Period = v
	}
	if v, ok, err := r.meta(ctx, metaVersion); err != nil {
		return err
	} else if ok {
		snap.Version = v
	}
	return nil
}

// SaveBudgets implements persistence.BudgetGateway.
func (r *SQLiteRepository) SaveBudgets(ctx context.Context, snap core.BudgetSnapshot) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM budgets`); err != nil {
			return fmt.Errorf("clear budgets: %w", err)
		}
		for category, limit := range snap.Budgets {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO budgets (category, monthly_limit) VALUES (?, ?)`, category, limit.String()); err != nil {
				return fmt.Errorf("insert budget %s: %w", category, err)
			}
		}

		period, version := snap.Period, snap.Version
		if period == "" {
			period = persistence.BudgetPeriodMonthly
		}
		if version == "" {
			version = persistence.BudgetVersion
		}
		if err := setMeta(ctx, tx, metaBudgetPeriod, period); err != nil {
			return err
		}
		if err := setMeta(ctx, tx, metaVersion, version); err != nil {
			return err
		}
		if snap.LastUpdated.IsZero() {
			return nil
		}
		return setMeta(ctx, tx, metaBudgetsLastUpdated, snap.LastUpdated.Format(time.RFC3339))
	})
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) meta(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read meta %s: %w", key, err)
	}
	return v, true, nil
}

func setMeta(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("write meta %s: %w", key, err)
	}
	return nil
}
