package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"food", "Food"},
		{"FAST FOOD", "Fast Food"},
		{"work equipment", "Work Equipment"},
		{"  eating   out \t", "Eating Out"},
		{"Uncategorized", "Uncategorized"},
		{"o'neil", "O'neil"},
		{"", ""},
		{"   ", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCategory(tt.in))
		})
	}
}

func TestNormalizeCategory_Idempotent(t *testing.T) {
	inputs := []string{
		"food", "FOOD", "fOoD", "fast   food", " x ", "ÉCOLE primaire", "straße",
		"o'neil's pub", "fast-food", "123 main st", "\tmixed\nwhitespace ",
		"ǆungla", "ΑΘΗΝΑ", "", " ",
	}
	for _, s := range inputs {
		once := NormalizeCategory(s)
		assert.Equal(t, once, NormalizeCategory(once), "input %q", s)
	}
}

func TestCategoryExists(t *testing.T) {
	registry := []string{"Food", "Travel"}
	fromExpenses := []string{"Food", "groceries"}

	got, ok := CategoryExists("FOOD", registry, fromExpenses)
	require.True(t, ok)
	assert.Equal(t, "Food", got)

	got, ok = CategoryExists("Groceries", registry, fromExpenses)
	require.True(t, ok, "collisions visible only through expense data must be found")
	assert.Equal(t, "groceries", got)

	_, ok = CategoryExists("Medical", registry, fromExpenses)
	assert.False(t, ok)

	_, ok = CategoryExists("  ", registry, fromExpenses)
	assert.False(t, ok)
}

func TestCategoryExists_RegistryWins(t *testing.T) {
	got, ok := CategoryExists("dining out", []string{"Dining Out"}, []string{"dining out"})
	require.True(t, ok)
	assert.Equal(t, "Dining Out", got)
}

func TestMonth(t *testing.T) {
	m, err := ParseMonth("2023-01")
	require.NoError(t, err)
	assert.Equal(t, "2023-01", m.String())
	assert.Equal(t, "January 2023", m.Label())
	assert.True(t, m.Contains(NewDate(2023, 1, 31)))
	assert.False(t, m.Contains(NewDate(2023, 2, 1)))
	assert.False(t, m.Contains(Date{}))
	assert.Equal(t, Month{Year: 2026, Month: time.October}, MonthOf(time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)))

	_, err = ParseMonth("2023/01")
	assert.Error(t, err)
}
