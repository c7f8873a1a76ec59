// Package expenses owns expense records, the category registry and the
// single-slot undo buffer.
package expenses

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/persistence"
)

const defaultSaveTimeout = 5 * time.Second

// Options configures a Store.
type Options struct {
	// DefaultCategories seeds the registry when the gateway has no state.
	// core.DefaultCategories() is used when empty.
	DefaultCategories []string
	// Gateway persists every mutation. Nil keeps the store in memory only.
	Gateway persistence.ExpenseGateway
	Logger  *applog.Logger
	// SaveTimeout bounds each gateway call.
	SaveTimeout time.Duration
	Now         func() time.Time
}

// ExpenseUpdate carries the replacement fields for UpdateExpense. Nil
// pointers and an empty Category keep the old value.
type ExpenseUpdate struct {
	Category    string
	Amount      *decimal.Decimal
	Date        *string
	Description *string
}

// Store is the in-memory expense model. It is not safe for concurrent use;
// callers serialize mutations.
type Store struct {
	expenses    map[string][]core.ExpenseRecord
	categories  []string
	undo        undoEntry
	gateway     persistence.ExpenseGateway
	logger      *applog.Logger
	timeout     time.Duration
	now         func() time.Time
	subscribers []core.Subscriber
}

// New builds a store from the gateway's snapshot.
func New(ctx context.Context, opts Options) *Store {
	s := &Store{
		expenses: map[string][]core.ExpenseRecord{},
		gateway:  opts.Gateway,
		logger:   applog.OrNop(opts.Logger).WithComponent(applog.ComponentStore),
		timeout:  opts.SaveTimeout,
		now:      opts.Now,
	}
	if s.timeout <= 0 {
		s.timeout = defaultSaveTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}

	defaults := opts.DefaultCategories
	if len(defaults) == 0 {
		defaults = core.DefaultCategories()
	}

	snap := core.Snapshot{Categories: slices.Clone(defaults)}
	if s.gateway != nil {
		snap = s.gateway.LoadExpenses(ctx, defaults)
	}
	s.restore(snap)

	s.logger.Info("Expense store ready",
		applog.FieldCount, s.Len(),
		"categories", len(s.categories))
	return s
}

// Subscribe registers fn to receive an event after every mutation.
func (s *Store) Subscribe(fn core.Subscriber) {
	if fn != nil {
		s.subscribers = append(s.subscribers, fn)
	}
}

// AddExpense validates and files a new record, returning its id.
func (s *Store) AddExpense(category string, amount decimal.Decimal, date, description string) (int64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("%w: got %s", core.ErrInvalidAmount, amount.String())
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return 0, err
	}
	cat, err := s.resolveCategory(category)
	if err != nil {
		return 0, err
	}

	rec := core.ExpenseRecord{
		ID:          s.nextID(),
		Amount:      amount,
		Date:        d,
		Description: description,
	}
	s.expenses[cat] = append(s.expenses[cat], rec)
	s.register(cat)
	s.persist()

	s.logger.Info("Added expense",
		applog.NewFields().
			WithOperation(applog.OpAdd).
			WithExpense(cat, rec.ID, rec.Amount, rec.Date.String()).
			ToSlice()...)
	s.notify(core.ChangeEvent{Op: core.OpExpenseAdded, Category: cat, RecordID: rec.ID})
	return rec.ID, nil
}

// DeleteExpenseAt removes the record at index within category. The removed
// record replaces whatever the undo slot held.
func (s *Store) DeleteExpenseAt(category string, index int) bool {
	key, ok := s.expenseKey(category)
	if !ok || index < 0 || index >= len(s.expenses[key]) {
		return false
	}
	s.deleteAt(key, index)
	return true
}

// DeleteExpense removes the record equal to rec, falling back to a record
// with the same amount, date and description when the id does not match.
func (s *Store) DeleteExpense(category string, rec core.ExpenseRecord) bool {
	key, ok := s.expenseKey(category)
	if !ok {
		return false
	}
	index := findRecord(s.expenses[key], rec)
	if index < 0 {
		return false
	}
	s.deleteAt(key, index)
	return true
}

func (s *Store) deleteAt(key string, index int) {
	rec := s.expenses[key][index]
	s.expenses[key] = slices.Delete(s.expenses[key], index, index+1)
	if len(s.expenses[key]) == 0 {
		delete(s.expenses, key)
	}
	s.undo = deletedRecord{category: key, index: index, record: rec}
	s.persist()

	s.logger.Warn("Deleted expense",
		applog.NewFields().
			WithOperation(applog.OpDelete).
			WithExpense(key, rec.ID, rec.Amount, rec.Date.String()).
			ToSlice()...)
	s.notify(core.ChangeEvent{Op: core.OpExpenseDeleted, Category: key, RecordID: rec.ID})
}

// UpdateExpense replaces old (found in oldCategory) with a record built from
// upd. The record keeps its id and moves to the end of its new category.
// It returns false without touching the store when old cannot be found.
func (s *Store) UpdateExpense(oldCategory string, old core.ExpenseRecord, upd ExpenseUpdate) (bool, error) {
	next := core.ExpenseRecord{
		Amount:      old.Amount,
		Date:        old.Date,
		Description: old.Description,
	}
	if upd.Amount != nil {
		next.Amount = *upd.Amount
	}
	if upd.Date != nil {
		d, err := core.ParseDate(*upd.Date)
		if err != nil {
			return false, err
		}
		next.Date = d
	}
	if upd.Description != nil {
		next.Description = *upd.Description
	}
	if err := next.Validate(); err != nil {
		return false, err
	}

	target := oldCategory
	if strings.TrimSpace(upd.Category) != "" {
		target = upd.Category
	}
	cat, err := s.resolveCategory(target)
	if err != nil {
		return false, err
	}

	key, ok := s.expenseKey(oldCategory)
	if !ok {
		return false, nil
	}
	index := findRecord(s.expenses[key], old)
	if index < 0 {
		return false, nil
	}

	next.ID = s.expenses[key][index].ID
	s.expenses[key] = slices.Delete(s.expenses[key], index, index+1)
	if len(s.expenses[key]) == 0 {
		delete(s.expenses, key)
	}
	s.expenses[cat] = append(s.expenses[cat], next)
	s.register(cat)
	s.persist()

	s.logger.Info("Updated expense",
		applog.NewFields().
			WithOperation(applog.OpUpdate).
			WithExpense(cat, next.ID, next.Amount, next.Date.String()).
			WithRename(key, cat).
			ToSlice()...)
	s.notify(core.ChangeEvent{Op: core.OpExpenseUpdated, Category: cat, From: key, To: cat, RecordID: next.ID})
	return true, nil
}

// findRecord returns the index of the record equal to rec, or of the first
// record with the same fields, or -1.
func findRecord(records []core.ExpenseRecord, rec core.ExpenseRecord) int {
	if i := slices.IndexFunc(records, rec.Equal); i >= 0 {
		return i
	}
	return slices.IndexFunc(records, rec.SameFields)
}

// resolveCategory normalizes name and returns the spelling already in use
// for it, if any.
func (s *Store) resolveCategory(name string) (string, error) {
	norm := core.NormalizeCategory(name)
	if strings.TrimSpace(norm) == "" {
		return "", fmt.Errorf("%w: name is empty", core.ErrInvalidCategoryName)
	}
	if existing, ok := core.CategoryExists(norm, s.categories, s.ExpenseCategories()); ok {
		return existing, nil
	}
	return norm, nil
}

// expenseKey finds the key category is filed under. An exact key wins over
// a case-insensitive match.
func (s *Store) expenseKey(category string) (string, bool) {
	if _, ok := s.expenses[category]; ok {
		return category, true
	}
	key := core.CategoryKey(category)
	for _, k := range s.ExpenseCategories() {
		if core.CategoryKey(k) == key {
			return k, true
		}
	}
	return "", false
}

// register adds name to the registry unless its equivalence class is
// already present. The registry stays sorted.
func (s *Store) register(name string) {
	key := core.CategoryKey(name)
	for _, c := range s.categories {
		if core.CategoryKey(c) == key {
			return
		}
	}
	s.categories = append(s.categories, name)
	slices.Sort(s.categories)
}

func (s *Store) nextID() int64 {
	var maxID int64
	for _, records := range s.expenses {
		for _, r := range records {
			maxID = max(maxID, r.ID)
		}
	}
	for _, id := range s.undoIDs() {
		maxID = max(maxID, id)
	}
	return maxID + 1
}

func (s *Store) restore(snap core.Snapshot) {
	snap = snap.Clone()
	s.expenses = map[string][]core.ExpenseRecord{}
	for cat, records := range snap.Expenses {
		if len(records) > 0 {
			s.expenses[cat] = records
		}
	}
	s.categories = snap.Categories
	slices.Sort(s.categories)
}

func (s *Store) persist() {
	if s.gateway == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.gateway.SaveExpenses(ctx, s.Snapshot()); err != nil {
		s.logger.Error("Failed to save expenses",
			applog.NewFields().
				WithOperation(applog.OpSave).
				WithErrorType(applog.ErrorTypePersistence).
				WithError(err).
				ToSlice()...)
	}
}

func (s *Store) notify(ev core.ChangeEvent) {
	ev.At = s.now()
	for _, fn := range s.subscribers {
		fn(ev)
	}
}
