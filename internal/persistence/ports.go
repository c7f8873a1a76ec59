// Package persistence defines the gateways the expense store and budget
// ledger use to load and save their state.
package persistence

import (
	"context"

	"expensetracker/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseGateway loads and saves the full expense snapshot.
	ExpenseGateway interface {
		// LoadExpenses never fails. A missing or unreadable source yields the
		// given default categories and no expenses.
		LoadExpenses(ctx context.Context, defaults []string) core.Snapshot
		SaveExpenses(ctx context.Context, snap core.Snapshot) error
	}

	// BudgetGateway loads and saves the full budget snapshot.
	BudgetGateway interface {
		// LoadBudgets never fails; a missing source yields no budgets.
		LoadBudgets(ctx context.Context) core.BudgetSnapshot
		SaveBudgets(ctx context.Context, snap core.BudgetSnapshot) error
	}
)

// Budget snapshot markers written with every save.
const (
	BudgetPeriodMonthly = "monthly"
	BudgetVersion       = "1.0"
)
