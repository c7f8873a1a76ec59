package expenses

import (
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
)

// Categories returns a copy of the registry.
func (s *Store) Categories() []string {
	return slices.Clone(s.categories)
}

// ExpenseCategories returns the sorted keys that have at least one record.
func (s *Store) ExpenseCategories() []string {
	return slices.Sorted(maps.Keys(s.expenses))
}

// ExpensesFor returns copies of the records in every category whose name
// matches category case-insensitively.
func (s *Store) ExpensesFor(category string) []core.ExpenseRecord {
	key := core.CategoryKey(category)
	var out []core.ExpenseRecord
	for _, k := range s.ExpenseCategories() {
		if core.CategoryKey(k) == key {
			out = append(out, s.expenses[k]...)
		}
	}
	return out
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() core.Snapshot {
	return core.Snapshot{
		Expenses:   s.expenses,
		Categories: s.categories,
	}.Clone()
}

// Len returns the number of records in the store.
func (s *Store) Len() int {
	n := 0
	for _, records := range s.expenses {
		n += len(records)
	}
	return n
}

func (s *Store) HasExpenses() bool {
	return s.Len() > 0
}

// SortedExpenses returns every category's records ordered by date. Records
// without a date sort last; ties keep insertion order.
func (s *Store) SortedExpenses() map[string][]core.ExpenseRecord {
	out := make(map[string][]core.ExpenseRecord, len(s.expenses))
	for cat, records := range s.expenses {
		sorted := slices.Clone(records)
		slices.SortStableFunc(sorted, compareByDate)
		out[cat] = sorted
	}
	return out
}

func compareByDate(a, b core.ExpenseRecord) int {
	switch {
	case a.Date.IsEmpty() && b.Date.IsEmpty():
		return 0
	case a.Date.IsEmpty():
		return 1
	case b.Date.IsEmpty():
		return -1
	}
	return a.Date.Compare(b.Date.Time)
}

// CategorySubtotals sums each category's records, ordered by category name.
func (s *Store) CategorySubtotals() []core.CategoryAmount {
	out := make([]core.CategoryAmount, 0, len(s.expenses))
	for _, cat := range s.ExpenseCategories() {
		out = append(out, core.CategoryAmount{Name: cat, Amount: sum(s.expenses[cat])})
	}
	return out
}

// GrandTotal sums every record in the store.
func (s *Store) GrandTotal() decimal.Decimal {
	total := decimal.Zero
	for _, records := range s.expenses {
		total = total.Add(sum(records))
	}
	return total
}

// MonthlySpendTotals sums spending per YYYY-MM across all categories.
// Records without a date are skipped.
func (s *Store) MonthlySpendTotals() map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{}
	for _, records := range s.expenses {
		for _, r := range records {
			if r.Date.IsEmpty() {
				continue
			}
			month := core.MonthOf(r.Date.Time).String()
			out[month] = out[month].Add(r.Amount)
		}
	}
	return out
}

// SearchByDescription returns records whose description contains keyword,
// ignoring case. An empty keyword matches every record. Results are grouped
// by category name, records in stored order.
func (s *Store) SearchByDescription(keyword string) []core.Match {
	needle := strings.ToLower(keyword)
	var out []core.Match
	for _, cat := range s.ExpenseCategories() {
		for _, r := range s.expenses[cat] {
			if strings.Contains(strings.ToLower(r.Description), needle) {
				out = append(out, core.Match{Category: cat, Record: r})
			}
		}
	}
	return out
}

func sum(records []core.ExpenseRecord) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}
