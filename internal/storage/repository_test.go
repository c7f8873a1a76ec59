package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

func newTestRepository(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "data", "expenses.db")
	repo, err := NewSQLiteRepository(dbPath, applog.Nop())
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, dbPath
}

func TestMigrationsApplied(t *testing.T) {
	_, dbPath := newTestRepository(t)

	version, dirty, err := SchemaVersion(dbPath)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if version != 1 || dirty {
		t.Fatalf("expected clean version 1, got %d dirty=%v", version, dirty)
	}

	// Running again is a no-op.
	if err := RunMigrations(dbPath); err != nil {
		t.Fatalf("rerun migrations: %v", err)
	}
}

func TestLoadExpensesFreshDatabaseUsesDefaults(t *testing.T) {
	repo, _ := newTestRepository(t)

	snap := repo.LoadExpenses(context.Background(), []string{"Food", "Uncategorized"})

	if len(snap.Categories) != 2 || snap.Categories[0] != "Food" {
		t.Fatalf("expected defaults, got %v", snap.Categories)
	}
	if snap.Expenses == nil || snap.RecordCount() != 0 {
		t.Fatalf("expected empty expenses, got %+v", snap.Expenses)
	}
}

func TestSaveAndLoadExpenses(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	in := core.Snapshot{
		Expenses: map[string][]core.ExpenseRecord{
			"Food": {
				{ID: 3, Amount: decimal.RequireFromString("12.50"), Date: core.NewDate(2024, 3, 2), Description: "lunch"},
				{ID: 1, Amount: decimal.RequireFromString("28.75"), Date: core.NewDate(2024, 3, 1), Description: "groceries"},
			},
			"Travel": {
				{ID: 2, Amount: decimal.RequireFromString("80"), Description: "undated"},
			},
		},
		Categories: []string{"Food", "Travel", "Uncategorized"},
	}

	if err := repo.SaveExpenses(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out := repo.LoadExpenses(ctx, nil)

	if len(out.Categories) != 3 || out.Categories[2] != "Uncategorized" {
		t.Fatalf("unexpected categories: %v", out.Categories)
	}
	for cat, records := range in.Expenses {
		got := out.Expenses[cat]
		if len(got) != len(records) {
			t.Fatalf("%s: expected %d records, got %d", cat, len(records), len(got))
		}
		for i := range records {
			if !records[i].Equal(got[i]) {
				t.Fatalf("%s[%d]: want %+v got %+v", cat, i, records[i], got[i])
			}
		}
	}

	// A second save replaces the first one.
	in.Expenses = map[string][]core.ExpenseRecord{}
	in.Categories = []string{"Uncategorized"}
	if err := repo.SaveExpenses(ctx, in); err != nil {
		t.Fatalf("second save: %v", err)
	}
	out = repo.LoadExpenses(ctx, []string{"Ignored"})
	if out.RecordCount() != 0 || len(out.Categories) != 1 {
		t.Fatalf("expected replaced snapshot, got %+v", out)
	}
}

func TestSaveAndLoadBudgets(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	empty := repo.LoadBudgets(ctx)
	if len(empty.Budgets) != 0 || empty.Period != "monthly" {
		t.Fatalf("unexpected initial budgets: %+v", empty)
	}

	updated := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	err := repo.SaveBudgets(ctx, core.BudgetSnapshot{
		Budgets:     map[string]decimal.Decimal{"Food": decimal.NewFromInt(500), "Travel": decimal.RequireFromString("99.90")},
		LastUpdated: updated,
		Period:      "monthly",
		Version:     "1.0",
	})
	if err != nil {
		t.Fatalf("save budgets: %v", err)
	}

	snap := repo.LoadBudgets(ctx)
	if len(snap.Budgets) != 2 {
		t.Fatalf("expected 2 budgets, got %v", snap.Budgets)
	}
	if !snap.Budgets["Travel"].Equal(decimal.RequireFromString("99.9")) {
		t.Fatalf("unexpected travel limit: %s", snap.Budgets["Travel"])
	}
	if !snap.LastUpdated.Equal(updated) {
		t.Fatalf("expected last updated %v, got %v", updated, snap.LastUpdated)
	}
	if snap.Version != "1.0" {
		t.Fatalf("unexpected version %q", snap.Version)
	}
}

func TestLoadExpensesDropsNonPositiveAmounts(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()
	in := core.Snapshot{
		Expenses: map[string][]core.ExpenseRecord{
			"Food": {
				{ID: 1, Amount: decimal.RequireFromString("-3"), Description: "negative"},
				{ID: 2, Amount: decimal.Zero, Description: "zero"},
				{ID: 3, Amount: decimal.RequireFromString("4.20"), Description: "kept"},
			},
		},
		Categories: []string{"Food"},
	}
	if err := repo.SaveExpenses(ctx, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	records := repo.LoadExpenses(ctx, nil).Expenses["Food"]
	if len(records) != 1 {
		t.Fatalf("expected 1 record after load, got %d: %+v", len(records), records)
	}
	if records[0].ID != 3 || records[0].Description != "kept" {
		t.Fatalf("unexpected record kept: %+v", records[0])
	}
}

func TestSaveExpensesCancelledContext(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := repo.SaveExpenses(ctx, core.Snapshot{}); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
