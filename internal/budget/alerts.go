package budget

import (
	"fmt"
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

var hundred = decimal.NewFromInt(100)

// Severity is derived from spend / limit; it is never stored.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "ok"
	}
}

// Classify maps spending against a limit to a severity. Spending above the
// limit is critical, spending above ratio × limit is a warning. Zero
// spending is always OK.
func Classify(spent, limit, ratio decimal.Decimal) Severity {
	switch {
	case !spent.IsPositive():
		return SeverityOK
	case spent.GreaterThan(limit):
		return SeverityCritical
	case spent.GreaterThan(limit.Mul(ratio)):
		return SeverityWarning
	default:
		return SeverityOK
	}
}

// Alert is one budget that needs attention this month.
type Alert struct {
	Category   string
	Severity   Severity
	Spent      decimal.Decimal
	Limit      decimal.Decimal
	Overspend  decimal.Decimal
	Percentage decimal.Decimal
	Message    string
}

// Progress reports how much of a budget has been used this month.
type Progress struct {
	Category   string
	Limit      decimal.Decimal
	Spent      decimal.Decimal
	Remaining  decimal.Decimal
	Percentage decimal.Decimal
	Severity   Severity
	// Period names the month, e.g. "March 2024".
	Period string
}

// Alerts evaluates every budget against the current month, in category
// order, and returns the ones at warning or critical level.
func (l *Ledger) Alerts() []Alert {
	month := core.MonthOf(l.now())
	var out []Alert
	for _, cat := range slices.Sorted(maps.Keys(l.budgets)) {
		limit := l.budgets[cat]
		spent := l.MonthlySpend(cat, month)
		sev := Classify(spent, limit, l.ratio)
		if sev == SeverityOK {
			continue
		}

		a := Alert{
			Category:   cat,
			Severity:   sev,
			Spent:      spent,
			Limit:      limit,
			Percentage: percentage(spent, limit),
		}
		fields := applog.NewFields().
			WithOperation(applog.OpAlerts).
			WithBudget(cat, limit, spent)
		fields[applog.FieldSeverity] = sev.String()

		if sev == SeverityCritical {
			a.Overspend = spent.Sub(limit)
			a.Message = fmt.Sprintf("Budget exceeded for %s! Spent %s of %s (%s over budget)",
				cat, core.FormatAmount(spent), core.FormatAmount(limit), core.FormatAmount(a.Overspend))
			l.logger.Warn(a.Message, fields.ToSlice()...)
		} else {
			a.Message = fmt.Sprintf("Close to budget limit for %s. Spent %s of %s (%s%%)",
				cat, core.FormatAmount(spent), core.FormatAmount(limit), a.Percentage.StringFixed(0))
			l.logger.Info(a.Message, fields.ToSlice()...)
		}
		out = append(out, a)
	}
	return out
}

// CheckBudgetAlerts returns the alert messages for the current month. The
// result is empty both when no budget is set and when every budget is
// fine; use Count to tell the two apart.
func (l *Ledger) CheckBudgetAlerts() []string {
	alerts := l.Alerts()
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Message)
	}
	return out
}

// BudgetProgress reports this month's usage of category's budget. The
// boolean is false when no budget is set; spending is still reported.
func (l *Ledger) BudgetProgress(category string) (Progress, bool) {
	month := core.MonthOf(l.now())
	p := Progress{
		Category: category,
		Limit:    decimal.Zero,
		Period:   month.Label(),
	}
	key, ok := l.budgetKey(category)
	if ok {
		p.Category = key
		p.Limit = l.budgets[key]
	}
	p.Spent = l.MonthlySpend(p.Category, month)
	p.Remaining = decimal.Max(decimal.Zero, p.Limit.Sub(p.Spent))
	p.Percentage = percentage(p.Spent, p.Limit)
	if ok {
		p.Severity = Classify(p.Spent, p.Limit, l.ratio)
	}
	return p, ok
}

// AllProgress reports progress for every budget, ordered by category.
func (l *Ledger) AllProgress() []Progress {
	out := make([]Progress, 0, len(l.budgets))
	for _, cat := range slices.Sorted(maps.Keys(l.budgets)) {
		p, _ := l.BudgetProgress(cat)
		out = append(out, p)
	}
	return out
}

func percentage(spent, limit decimal.Decimal) decimal.Decimal {
	if !limit.IsPositive() {
		return decimal.Zero
	}
	return spent.Div(limit).Mul(hundred).Round(2)
}
