package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MonthLayout is the YYYY-MM key used for monthly aggregates.
const MonthLayout = "2006-01"

// Match pairs a record with the category it is filed under.
type Match struct {
	Category string
	Record   ExpenseRecord
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// Month identifies a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
	}
	return MonthOf(t), nil
}

// String returns the YYYY-MM key.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Label returns a human period label such as "October 2026".
func (m Month) Label() string {
	return fmt.Sprintf("%s %d", m.Month.String(), m.Year)
}

// Contains reports whether d falls inside the month. Missing dates never do.
func (m Month) Contains(d Date) bool {
	if d.IsEmpty() {
		return false
	}
	return d.Year() == m.Year && d.Month() == m.Month
}
