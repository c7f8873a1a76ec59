package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

type expenseFile struct {
	Expenses   map[string][]expenseEntry `json:"expenses"`
	Categories []string                  `json:"categories"`
}

// expenseEntry keeps id and amount raw so that hand-edited files with
// quoted numbers, missing ids or bad amounts degrade per record instead of
// failing the whole document.
type expenseEntry struct {
	ID          json.RawMessage `json:"id,omitempty"`
	Amount      json.RawMessage `json:"amount"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
}

var errNotANumber = errors.New("not a number")

// maxRecordID is the largest id kept from a file; larger ids are reassigned
// so that later ids cannot overflow.
var maxRecordID = decimal.NewFromInt(1 << 53)

// LoadExpenses reads the expense file. A missing or undecodable file yields
// defaults and no expenses. Records with an unusable amount are dropped;
// records with an unparsable date keep a missing date; records without a
// usable id get fresh ids above the highest one in the file.
func (s *Store) LoadExpenses(_ context.Context, defaults []string) core.Snapshot {
	empty := core.Snapshot{
		Expenses:   map[string][]core.ExpenseRecord{},
		Categories: slices.Clone(defaults),
	}

	var doc expenseFile
	found, err := readJSON(s.expensesPath, &doc)
	if err != nil {
		s.logger.Error("Failed to load expenses, starting empty",
			applog.NewFields().
				WithOperation(applog.OpLoad).
				WithPath(s.expensesPath).
				WithErrorType(applog.ErrorTypePersistence).
				WithError(err).
				ToSlice()...)
		return empty
	}
	if !found {
		s.logger.Info("No expense file yet, starting empty",
			applog.NewFields().WithOperation(applog.OpLoad).WithPath(s.expensesPath).ToSlice()...)
		return empty
	}

	snap := core.Snapshot{
		Expenses:   make(map[string][]core.ExpenseRecord, len(doc.Expenses)),
		Categories: doc.Categories,
	}
	if snap.Categories == nil {
		snap.Categories = slices.Clone(defaults)
	}

	type slot struct {
		category string
		index    int
	}
	var (
		needID []slot
		seen   = map[int64]bool{}
		maxID  int64
	)
	for _, cat := range slices.Sorted(maps.Keys(doc.Expenses)) {
		records := make([]core.ExpenseRecord, 0, len(doc.Expenses[cat]))
		for _, e := range doc.Expenses[cat] {
			rec, ok := s.decodeEntry(cat, e)
			if !ok {
				continue
			}
			id, err := parseID(e.ID)
			if err != nil || seen[id] {
				needID = append(needID, slot{category: cat, index: len(records)})
			} else {
				rec.ID = id
				seen[id] = true
				maxID = max(maxID, id)
			}
			records = append(records, rec)
		}
		if len(records) > 0 {
			snap.Expenses[cat] = records
		}
	}
	for _, sl := range needID {
		maxID++
		snap.Expenses[sl.category][sl.index].ID = maxID
	}

	s.logger.Debug("Loaded expenses",
		applog.NewFields().
			WithOperation(applog.OpLoad).
			WithPath(s.expensesPath).
			WithCount(snap.RecordCount()).
			ToSlice()...)
	return snap
}

func (s *Store) decodeEntry(category string, e expenseEntry) (core.ExpenseRecord, bool) {
	amount, err := parseNumber(e.Amount)
	if err != nil || !amount.IsPositive() {
		s.logger.Warn("Dropping expense with invalid amount",
			applog.NewFields().
				WithOperation(applog.OpLoad).
				WithCategory(category).
				WithErrorType(applog.ErrorTypeValidation).
				ToSlice()...)
		return core.ExpenseRecord{}, false
	}

	rec := core.ExpenseRecord{Amount: amount, Description: e.Description}
	if strings.TrimSpace(e.Date) != "" {
		d, err := core.ParseDate(e.Date)
		if err != nil {
			s.logger.Warn("Expense date unreadable, treating as missing",
				applog.NewFields().
					WithOperation(applog.OpLoad).
					WithCategory(category).
					WithError(err).
					ToSlice()...)
		}
		rec.Date = d
	}
	return rec, true
}

// SaveExpenses overwrites the expense file with snap.
func (s *Store) SaveExpenses(ctx context.Context, snap core.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := expenseFile{
		Expenses:   make(map[string][]expenseEntry, len(snap.Expenses)),
		Categories: snap.Categories,
	}
	if doc.Categories == nil {
		doc.Categories = []string{}
	}
	for cat, records := range snap.Expenses {
		entries := make([]expenseEntry, 0, len(records))
		for _, r := range records {
			entries = append(entries, expenseEntry{
				ID:          json.RawMessage(strconv.FormatInt(r.ID, 10)),
				Amount:      json.RawMessage(r.Amount.String()),
				Date:        r.Date.String(),
				Description: r.Description,
			})
		}
		doc.Expenses[cat] = entries
	}
	return writeJSON(s.expensesPath, doc)
}

// parseNumber accepts a JSON number or a string holding one.
func parseNumber(raw json.RawMessage) (decimal.Decimal, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return decimal.Zero, errNotANumber
	}
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, err
		}
		text = strings.TrimSpace(s)
	}
	return decimal.NewFromString(text)
}

func parseID(raw json.RawMessage) (int64, error) {
	n, err := parseNumber(raw)
	if err != nil {
		return 0, err
	}
	if !n.IsInteger() || !n.IsPositive() || n.GreaterThan(maxRecordID) {
		return 0, errNotANumber
	}
	return n.IntPart(), nil
}
