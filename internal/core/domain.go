package core

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the ISO-8601 calendar date layout used for every persisted date.
const DateLayout = "2006-01-02"

type (
	// Date is a calendar date. The zero value means the date is missing
	// (or could not be parsed when a snapshot was loaded).
	Date struct {
		time.Time
	}

	// ExpenseRecord is a single spending entry. The category it belongs to
	// is the key under which the store files it.
	ExpenseRecord struct {
		ID          int64
		Amount      decimal.Decimal
		Date        Date
		Description string
	}

	// Snapshot is the complete persisted state of an expense store.
	Snapshot struct {
		Expenses   map[string][]ExpenseRecord
		Categories []string
	}

	// BudgetSnapshot is the complete persisted state of a budget ledger.
	BudgetSnapshot struct {
		Budgets     map[string]decimal.Decimal
		LastUpdated time.Time
		Period      string
		Version     string
	}
)

var (
	ErrInvalidAmount       = errors.New("amount must be a positive number")
	ErrInvalidLimit        = errors.New("budget limit must be a non-negative number")
	ErrInvalidDate         = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidCategoryName = errors.New("invalid category name")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrDuplicateCategory   = errors.New("category already exists")
	ErrProtectedCategory   = errors.New("category cannot be removed")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. Out-of-range days such as
// 2023-02-30 are rejected.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// IsEmpty returns true if the date is missing.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String formats the date as YYYY-MM-DD, or "" when missing.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date is missing", ErrInvalidDate)
	}
	return nil
}

// Equal reports whether two records are identical, id included.
func (r ExpenseRecord) Equal(o ExpenseRecord) bool {
	return r.ID == o.ID && r.SameFields(o)
}

// SameFields compares amount, date and description only. It finds records
// whose id no longer matches what a caller holds.
func (r ExpenseRecord) SameFields(o ExpenseRecord) bool {
	return r.Amount.Equal(o.Amount) &&
		r.Date.Equal(o.Date.Time) &&
		r.Description == o.Description
}

func (r ExpenseRecord) Validate() error {
	if !r.Amount.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, r.Amount.String())
	}
	return r.Date.Validate()
}

// Clone returns a deep copy; record slices are never shared.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Expenses:   make(map[string][]ExpenseRecord, len(s.Expenses)),
		Categories: slices.Clone(s.Categories),
	}
	for cat, records := range s.Expenses {
		out.Expenses[cat] = slices.Clone(records)
	}
	return out
}

// RecordCount returns the number of records across all categories.
func (s Snapshot) RecordCount() int {
	n := 0
	for _, records := range s.Expenses {
		n += len(records)
	}
	return n
}

func (s BudgetSnapshot) Clone() BudgetSnapshot {
	out := s
	out.Budgets = maps.Clone(s.Budgets)
	if out.Budgets == nil {
		out.Budgets = map[string]decimal.Decimal{}
	}
	return out
}
