// Package memory provides in-process expense and budget gateways.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"expensetracker/internal/core"
)

// Store keeps the last saved snapshots in memory.
type Store struct {
	mu       sync.Mutex
	seed     []string
	expenses *core.Snapshot
	budgets  *core.BudgetSnapshot
	saveErr  error

	expenseSaves int
	budgetSaves  int
}

// New returns a store whose first load yields cats as the registry. With no
// seed categories the caller's defaults are used.
func New(cats []string) *Store {
	return &Store{seed: dedupe(cats)}
}

// NewFromFiles seeds the registry from base/seed_categories.txt, one name per
// line; blank lines and # comments are skipped.
func NewFromFiles(base string) *Store {
	return New(readLines(filepath.Join(base, "seed_categories.txt")))
}

// LoadExpenses returns the last saved snapshot, or the seed registry.
func (s *Store) LoadExpenses(_ context.Context, defaults []string) core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expenses != nil {
		return s.expenses.Clone()
	}
	cats := s.seed
	if len(cats) == 0 {
		cats = defaults
	}
	return core.Snapshot{
		Expenses:   map[string][]core.ExpenseRecord{},
		Categories: slices.Clone(cats),
	}
}

// SaveExpenses replaces the stored snapshot.
func (s *Store) SaveExpenses(_ context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	c := snap.Clone()
	s.expenses = &c
	s.expenseSaves++
	return nil
}

// LoadBudgets returns the last saved budgets, or none.
func (s *Store) LoadBudgets(_ context.Context) core.BudgetSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.budgets != nil {
		return s.budgets.Clone()
	}
	return core.BudgetSnapshot{}.Clone()
}

// SaveBudgets replaces the stored budgets.
func (s *Store) SaveBudgets(_ context.Context, snap core.BudgetSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	c := snap.Clone()
	s.budgets = &c
	s.budgetSaves++
	return nil
}

// FailSaves makes every following save return err. Nil restores saving.
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// Saves reports how many expense and budget saves succeeded.
func (s *Store) Saves() (expenses, budgets int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expenseSaves, s.budgetSaves
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
