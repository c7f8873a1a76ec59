package core

import "time"

// ChangeOp names a mutation reported to store subscribers.
type ChangeOp string

const (
	OpExpenseAdded    ChangeOp = "expense_added"
	OpExpenseUpdated  ChangeOp = "expense_updated"
	OpExpenseDeleted  ChangeOp = "expense_deleted"
	OpExpensesCleared ChangeOp = "expenses_cleared"
	OpUndo            ChangeOp = "undo"
	OpCategoryAdded   ChangeOp = "category_added"
	OpCategoryRemoved ChangeOp = "category_removed"
	OpCategoryMerged  ChangeOp = "category_merged"
	// OpCategoryRenamed is emitted by the normalization migrations. Budget
	// keys follow From -> To.
	OpCategoryRenamed ChangeOp = "category_renamed"
)

// ChangeEvent describes one completed mutation.
type ChangeEvent struct {
	Op       ChangeOp
	Category string
	From     string
	To       string
	RecordID int64
	At       time.Time
}

// Subscriber receives change events after the mutation has been applied.
type Subscriber func(ChangeEvent)
