// Package budget keeps per-category monthly spending limits and derives
// alerts from the spending recorded in an expense store.
package budget

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/persistence"
)

const (
	defaultSaveTimeout = 5 * time.Second
	defaultCacheSize   = 256
)

// DefaultWarningRatio is the share of a limit at which spending starts to
// raise a warning.
var DefaultWarningRatio = decimal.RequireFromString("0.8")

// Source is the read-only view of the expense store the ledger needs.
type Source interface {
	ExpensesFor(category string) []core.ExpenseRecord
	Categories() []string
	ExpenseCategories() []string
	Subscribe(fn core.Subscriber)
}

// Options configures a Ledger.
type Options struct {
	// Gateway persists every budget change. Nil keeps budgets in memory.
	Gateway persistence.BudgetGateway
	Logger  *applog.Logger
	// Now is the clock used to pick the current month.
	Now func() time.Time
	// WarningRatio must lie in (0, 1]; other values fall back to 0.8.
	WarningRatio float64
	SaveTimeout  time.Duration
	CacheSize    int
}

// Ledger owns the budget limits. It reads from its Source and never
// mutates it. Not safe for concurrent use.
type Ledger struct {
	source      Source
	budgets     map[string]decimal.Decimal
	lastUpdated time.Time

	gateway persistence.BudgetGateway
	logger  *applog.Logger
	now     func() time.Time
	ratio   decimal.Decimal
	timeout time.Duration
	spend   cache.Cache[decimal.Decimal]
}

// New loads the persisted budgets and subscribes to source so cached spend
// figures and budget keys follow expense changes.
func New(ctx context.Context, source Source, opts Options) *Ledger {
	l := &Ledger{
		source:  source,
		budgets: map[string]decimal.Decimal{},
		gateway: opts.Gateway,
		logger:  applog.OrNop(opts.Logger).WithComponent(applog.ComponentBudget),
		now:     opts.Now,
		ratio:   DefaultWarningRatio,
		timeout: opts.SaveTimeout,
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.timeout <= 0 {
		l.timeout = defaultSaveTimeout
	}
	if r := opts.WarningRatio; r > 0 && r <= 1 {
		l.ratio = decimal.NewFromFloat(r)
	}
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	l.spend = cache.NewLRUCache[decimal.Decimal](size)

	if l.gateway != nil {
		snap := l.gateway.LoadBudgets(ctx)
		for cat, limit := range snap.Budgets {
			if limit.IsNegative() || strings.TrimSpace(cat) == "" {
				l.logger.Warn("Dropping invalid budget",
					applog.NewFields().WithOperation(applog.OpLoad).WithCategory(cat).ToSlice()...)
				continue
			}
			l.budgets[cat] = limit
		}
		l.lastUpdated = snap.LastUpdated
	}

	source.Subscribe(l.onChange)
	return l
}

// SetBudget sets the monthly limit for category. The key reuses an existing
// spelling from the budgets, then the registry, then expense categories. It
// returns false for a negative limit or a blank name.
func (l *Ledger) SetBudget(category string, limit decimal.Decimal) bool {
	if limit.IsNegative() {
		l.logger.Warn("Rejected negative budget",
			applog.NewFields().
				WithOperation(applog.OpSetBudget).
				WithCategory(category).
				WithErrorType(applog.ErrorTypeValidation).
				ToSlice()...)
		return false
	}
	if strings.TrimSpace(category) == "" {
		return false
	}

	key := l.resolveKey(category)
	l.budgets[key] = limit
	l.touch()

	l.logger.Info("Budget set",
		applog.NewFields().
			WithOperation(applog.OpSetBudget).
			WithCategory(key).
			ToSlice()...,
	)
	return true
}

// RemoveBudget deletes the budget for category, matching case-insensitively.
func (l *Ledger) RemoveBudget(category string) bool {
	key, ok := l.budgetKey(category)
	if !ok {
		return false
	}
	delete(l.budgets, key)
	l.touch()

	l.logger.Info("Budget removed",
		applog.NewFields().WithOperation(applog.OpRemove).WithCategory(key).ToSlice()...)
	return true
}

// Limit returns the monthly limit set for category.
func (l *Ledger) Limit(category string) (decimal.Decimal, bool) {
	key, ok := l.budgetKey(category)
	if !ok {
		return decimal.Zero, false
	}
	return l.budgets[key], true
}

// Budgets returns a copy of all limits keyed by category.
func (l *Ledger) Budgets() map[string]decimal.Decimal {
	return maps.Clone(l.budgets)
}

// Count returns the number of budgets configured. It tells "no budgets"
// apart from "no alerts".
func (l *Ledger) Count() int {
	return len(l.budgets)
}

// LastUpdated is the time of the last budget change.
func (l *Ledger) LastUpdated() time.Time {
	return l.lastUpdated
}

// MonthlySpend sums the amounts of every record filed under a category
// matching category case-insensitively and dated within month.
func (l *Ledger) MonthlySpend(category string, month core.Month) decimal.Decimal {
	key := core.CategoryKey(category) + "|" + month.String()
	if v, ok := l.spend.Get(key); ok {
		return v
	}
	total := decimal.Zero
	for _, r := range l.source.ExpensesFor(category) {
		if month.Contains(r.Date) {
			total = total.Add(r.Amount)
		}
	}
	l.spend.Set(key, total)
	return total
}

// MigrateBudgetKeys rewrites every budget key to the spelling the expense
// store uses for it. When two keys collapse into one, the limit already
// stored under the target spelling wins. It returns the number of keys
// rewritten.
func (l *Ledger) MigrateBudgetKeys() int {
	migrated := 0
	for _, key := range slices.Sorted(maps.Keys(l.budgets)) {
		target := l.canonicalKey(key)
		if target == key {
			continue
		}
		if _, exists := l.budgets[target]; !exists {
			l.budgets[target] = l.budgets[key]
		}
		delete(l.budgets, key)
		migrated++
	}
	if migrated > 0 {
		l.touch()
		l.logger.Info("Migrated budget keys",
			applog.NewFields().WithOperation(applog.OpMigrate).WithCount(migrated).ToSlice()...)
	}
	return migrated
}

func (l *Ledger) onChange(ev core.ChangeEvent) {
	l.spend.Purge()
	if ev.Op == core.OpCategoryRenamed {
		l.renameKey(ev.From, ev.To)
	}
}

// renameKey moves the budget stored under the exact spelling from to to.
// An existing limit under to is kept.
func (l *Ledger) renameKey(from, to string) {
	limit, ok := l.budgets[from]
	if !ok || from == to {
		return
	}
	if _, exists := l.budgets[to]; !exists {
		l.budgets[to] = limit
	}
	delete(l.budgets, from)
	l.touch()

	l.logger.Debug("Budget key renamed",
		applog.NewFields().WithOperation(applog.OpMigrate).WithRename(from, to).ToSlice()...)
}

func (l *Ledger) resolveKey(category string) string {
	if key, ok := l.budgetKey(category); ok {
		return key
	}
	return l.canonicalKey(category)
}

func (l *Ledger) canonicalKey(category string) string {
	if existing, ok := core.CategoryExists(category, l.source.Categories(), l.source.ExpenseCategories()); ok {
		return existing
	}
	return core.NormalizeCategory(category)
}

func (l *Ledger) budgetKey(category string) (string, bool) {
	if _, ok := l.budgets[category]; ok {
		return category, true
	}
	return core.CategoryExists(category, slices.Sorted(maps.Keys(l.budgets)), nil)
}

func (l *Ledger) touch() {
	l.lastUpdated = l.now()
	l.persist()
}

func (l *Ledger) persist() {
	if l.gateway == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	snap := core.BudgetSnapshot{
		Budgets:     maps.Clone(l.budgets),
		LastUpdated: l.lastUpdated,
		Period:      persistence.BudgetPeriodMonthly,
		Version:     persistence.BudgetVersion,
	}
	if err := l.gateway.SaveBudgets(ctx, snap); err != nil {
		l.logger.Error("Failed to save budgets",
			applog.NewFields().
				WithOperation(applog.OpSave).
				WithErrorType(applog.ErrorTypePersistence).
				WithError(err).
				ToSlice()...)
	}
}
