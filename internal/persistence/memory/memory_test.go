package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

func TestMemoryStoreSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := New([]string{"A", "B", "A"})

	snap := s.LoadExpenses(ctx, []string{"Ignored"})
	if len(snap.Categories) != 2 || len(snap.Expenses) != 0 {
		t.Fatalf("unexpected initial snapshot: %+v", snap)
	}

	snap.Expenses["A"] = []core.ExpenseRecord{{
		ID:     1,
		Amount: decimal.RequireFromString("1.23"),
		Date:   core.NewDate(2024, 1, 1),
	}}
	if err := s.SaveExpenses(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the caller's copy must not leak into the stored snapshot.
	snap.Expenses["A"][0].ID = 99

	got := s.LoadExpenses(ctx, nil)
	if got.Expenses["A"][0].ID != 1 {
		t.Fatalf("stored snapshot was aliased: %+v", got.Expenses["A"])
	}
	if n, _ := s.Saves(); n != 1 {
		t.Fatalf("expected 1 expense save, got %d", n)
	}
}

func TestMemoryStoreDefaultsWithoutSeed(t *testing.T) {
	s := New(nil)
	snap := s.LoadExpenses(context.Background(), []string{"Food", "Uncategorized"})
	if len(snap.Categories) != 2 || snap.Categories[0] != "Food" {
		t.Fatalf("expected defaults, got %v", snap.Categories)
	}
}

func TestMemoryStoreBudgets(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	if b := s.LoadBudgets(ctx); b.Budgets == nil || len(b.Budgets) != 0 {
		t.Fatalf("expected empty non-nil budgets, got %+v", b)
	}

	err := s.SaveBudgets(ctx, core.BudgetSnapshot{
		Budgets: map[string]decimal.Decimal{"Food": decimal.NewFromInt(500)},
		Period:  "monthly",
	})
	if err != nil {
		t.Fatalf("save budgets: %v", err)
	}
	b := s.LoadBudgets(ctx)
	if !b.Budgets["Food"].Equal(decimal.NewFromInt(500)) || b.Period != "monthly" {
		t.Fatalf("unexpected budgets: %+v", b)
	}
}

func TestMemoryStoreFailSaves(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	boom := errors.New("disk full")
	s.FailSaves(boom)

	if err := s.SaveExpenses(ctx, core.Snapshot{}); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if err := s.SaveBudgets(ctx, core.BudgetSnapshot{}); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}

	s.FailSaves(nil)
	if err := s.SaveExpenses(ctx, core.Snapshot{}); err != nil {
		t.Fatalf("expected save to succeed, got %v", err)
	}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	// No file -> caller defaults
	s := NewFromFiles(dir)
	snap := s.LoadExpenses(context.Background(), []string{"Default"})
	if len(snap.Categories) != 1 || snap.Categories[0] != "Default" {
		t.Fatalf("expected defaults when file missing, got %v", snap.Categories)
	}

	content := "# header\nA\nB\nA\n\n"
	if err := os.WriteFile(filepath.Join(dir, "seed_categories.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	s = NewFromFiles(dir)
	snap = s.LoadExpenses(context.Background(), []string{"Default"})
	if len(snap.Categories) != 2 || snap.Categories[0] != "A" || snap.Categories[1] != "B" {
		t.Fatalf("unexpected cats: %v", snap.Categories)
	}
}
