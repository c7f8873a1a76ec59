package expenses

import (
	"slices"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

// undoEntry is the content of the single undo slot.
type undoEntry interface {
	undoEntry()
}

type deletedRecord struct {
	category string
	index    int
	record   core.ExpenseRecord
}

type clearedSnapshot struct {
	snap core.Snapshot
}

func (deletedRecord) undoEntry()   {}
func (clearedSnapshot) undoEntry() {}

// UndoPending reports whether a delete or clear can be undone.
func (s *Store) UndoPending() bool {
	return s.undo != nil
}

// ClearAll removes every expense. The registry is kept. The previous state
// replaces whatever the undo slot held.
func (s *Store) ClearAll() {
	n := s.Len()
	s.undo = clearedSnapshot{snap: s.Snapshot()}
	s.expenses = map[string][]core.ExpenseRecord{}
	s.persist()

	s.logger.Warn("Cleared all expenses",
		applog.NewFields().WithOperation(applog.OpClear).WithCount(n).ToSlice()...)
	s.notify(core.ChangeEvent{Op: core.OpExpensesCleared})
}

// UndoClear restores the state saved by ClearAll. It returns false when the
// undo slot does not hold a clear.
func (s *Store) UndoClear() bool {
	if _, ok := s.undo.(clearedSnapshot); !ok {
		return false
	}
	return s.UndoDelete()
}

// UndoDelete reverts the most recent delete or clear and empties the slot.
// A deleted record goes back to its old position, recreating its category
// if it has since been removed.
func (s *Store) UndoDelete() bool {
	var category string
	switch u := s.undo.(type) {
	case nil:
		return false
	case clearedSnapshot:
		s.restore(u.snap)
	case deletedRecord:
		category = u.category
		if key, ok := s.expenseKey(u.category); ok {
			category = key
		}
		records := s.expenses[category]
		index := min(u.index, len(records))
		s.expenses[category] = slices.Insert(records, index, u.record)
		s.register(category)
	}
	s.undo = nil
	s.persist()

	s.logger.Info("Undid last operation",
		applog.NewFields().WithOperation(applog.OpUndo).WithCategory(category).ToSlice()...)
	s.notify(core.ChangeEvent{Op: core.OpUndo, Category: category})
	return true
}

func (s *Store) undoIDs() []int64 {
	switch u := s.undo.(type) {
	case deletedRecord:
		return []int64{u.record.ID}
	case clearedSnapshot:
		var ids []int64
		for _, records := range u.snap.Expenses {
			for _, r := range records {
				ids = append(ids, r.ID)
			}
		}
		return ids
	}
	return nil
}
