package jsonfile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/persistence"
)

type budgetFile struct {
	Budgets      map[string]json.RawMessage `json:"budgets"`
	LastUpdated  string                     `json:"last_updated"`
	BudgetPeriod string                     `json:"budget_period"`
	Version      string                     `json:"version"`
}

// Older files carry a timestamp without zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// LoadBudgets reads the budget file. A missing or undecodable file yields
// no budgets; unreadable limits are skipped.
func (s *Store) LoadBudgets(_ context.Context) core.BudgetSnapshot {
	snap := core.BudgetSnapshot{
		Budgets: map[string]decimal.Decimal{},
		Period:  persistence.BudgetPeriodMonthly,
		Version: persistence.BudgetVersion,
	}

	var doc budgetFile
	found, err := readJSON(s.budgetsPath, &doc)
	if err != nil {
		s.logger.Error("Failed to load budgets, starting empty",
			applog.NewFields().
				WithOperation(applog.OpLoad).
				WithPath(s.budgetsPath).
				WithErrorType(applog.ErrorTypePersistence).
				WithError(err).
				ToSlice()...)
		return snap
	}
	if !found {
		return snap
	}

	for cat, raw := range doc.Budgets {
		limit, err := parseNumber(raw)
		if err != nil {
			s.logger.Warn("Dropping budget with invalid limit",
				applog.NewFields().WithOperation(applog.OpLoad).WithCategory(cat).ToSlice()...)
			continue
		}
		snap.Budgets[cat] = limit
	}
	if doc.BudgetPeriod != "" {
		snap.Period = doc.BudgetPeriod
	}
	if doc.Version != "" {
		snap.Version = doc.Version
	}
	snap.LastUpdated = parseTimestamp(doc.LastUpdated)
	return snap
}

// SaveBudgets overwrites the budget file with snap.
func (s *Store) SaveBudgets(ctx context.Context, snap core.BudgetSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := budgetFile{
		Budgets:      make(map[string]json.RawMessage, len(snap.Budgets)),
		BudgetPeriod: snap.Period,
		Version:      snap.Version,
	}
	for cat, limit := range snap.Budgets {
		doc.Budgets[cat] = json.RawMessage(limit.String())
	}
	if doc.BudgetPeriod == "" {
		doc.BudgetPeriod = persistence.BudgetPeriodMonthly
	}
	if doc.Version == "" {
		doc.Version = persistence.BudgetVersion
	}
	if !snap.LastUpdated.IsZero() {
		doc.LastUpdated = snap.LastUpdated.Format(time.RFC3339)
	}
	return writeJSON(s.budgetsPath, doc)
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
