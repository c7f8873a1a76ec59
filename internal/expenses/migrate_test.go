package expenses

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
)

func messyStore(t *testing.T) *Store {
	t.Helper()
	s, _ := seededStore(t, core.Snapshot{
		Expenses: map[string][]core.ExpenseRecord{
			"FOOD":   {{ID: 1, Amount: amount("10"), Date: core.NewDate(2024, 3, 1)}},
			"food":   {{ID: 2, Amount: amount("20"), Date: core.NewDate(2024, 3, 2)}},
			"travel": {{ID: 3, Amount: amount("30"), Date: core.NewDate(2024, 3, 3)}},
		},
		Categories: []string{"food", "Travel", "Uncategorized"},
	})
	return s
}

func TestMigrateCategoriesToProperCase(t *testing.T) {
	s := messyStore(t)
	var renames []core.ChangeEvent
	s.Subscribe(func(ev core.ChangeEvent) {
		if ev.Op == core.OpCategoryRenamed {
			renames = append(renames, ev)
		}
	})

	assert.Equal(t, 3, s.MigrateCategoriesToProperCase())

	assert.Equal(t, []string{"Food", "Travel", "Uncategorized"}, s.Categories())
	assert.Equal(t, []string{"Food", "Travel"}, s.ExpenseCategories())
	assert.Len(t, s.ExpensesFor("Food"), 2)
	assert.Equal(t, 3, s.Len())
	require.Len(t, renames, 3)
	assert.Equal(t, "FOOD", renames[0].From)
	assert.Equal(t, "Food", renames[0].To)

	assert.Zero(t, s.MigrateCategoriesToProperCase(), "second run is a no-op")
	assert.Zero(t, s.AutoMergeDuplicateCategories())
}

func TestAutoMergeDuplicateCategories(t *testing.T) {
	s, _ := seededStore(t, core.Snapshot{
		Expenses: map[string][]core.ExpenseRecord{
			"Food": {{ID: 1, Amount: amount("10"), Date: core.NewDate(2024, 3, 1)}},
			"food": {{ID: 2, Amount: amount("20"), Date: core.NewDate(2024, 3, 2)}},
			"Rent": {{ID: 3, Amount: amount("900"), Date: core.NewDate(2024, 3, 3)}},
		},
		Categories: []string{"Food", "Rent"},
	})

	assert.Equal(t, 1, s.AutoMergeDuplicateCategories())

	assert.Equal(t, []string{"Food", "Rent"}, s.ExpenseCategories())
	records := s.ExpensesFor("Food")
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].ID)
	assert.Equal(t, int64(2), records[1].ID)

	assert.Zero(t, s.AutoMergeDuplicateCategories())
}

func TestAutoMergePrefersRegistrySpelling(t *testing.T) {
	s, _ := seededStore(t, core.Snapshot{
		Expenses: map[string][]core.ExpenseRecord{
			"mcdonald's": {{ID: 1, Amount: amount("8"), Date: core.NewDate(2024, 3, 1)}},
		},
		Categories: []string{"McDonald's"},
	})

	assert.Equal(t, 1, s.AutoMergeDuplicateCategories())
	assert.Equal(t, []string{"McDonald's"}, s.ExpenseCategories())
	assert.Equal(t, []string{"McDonald's"}, s.Categories())
}
