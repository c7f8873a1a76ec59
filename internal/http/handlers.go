package http

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"expensetracker/internal/core"
	"expensetracker/internal/expenses"
	applog "expensetracker/internal/log"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	filter := sanitizeInput(r.URL.Query().Get("category"))

	sorted := s.store.SortedExpenses()
	body := make(map[string][]recordJSON, len(sorted))
	for cat, records := range sorted {
		if filter != "" && core.CategoryKey(cat) != core.CategoryKey(filter) {
			continue
		}
		list := make([]recordJSON, 0, len(records))
		for _, rec := range records {
			list = append(list, toRecordJSON(rec))
		}
		body[cat] = list
	}

	NewResponse().JSON(map[string]any{
		"expenses": body,
		"total":    core.FormatAmount(s.store.GrandTotal()),
	}).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if !req.Amount.Set {
		writeError(w, r, applog.OpAdd, fmt.Errorf("%w: amount is required", core.ErrInvalidAmount))
		return
	}
	amount, err := core.ParseAmount(req.Amount.Value)
	if err != nil {
		writeError(w, r, applog.OpAdd, err)
		return
	}

	category := sanitizeInput(req.Category)
	if category == "" {
		category = core.Uncategorized
	}
	date := sanitizeInput(req.Date)
	if date == "" {
		date = s.today()
	}

	id, err := s.store.AddExpense(category, amount, date, sanitizeInput(req.Description))
	if err != nil {
		writeError(w, r, applog.OpAdd, err)
		return
	}

	NewResponse().Status(http.StatusCreated).JSON(map[string]any{
		"id":       id,
		"category": s.storedName(category),
		"alerts":   toAlertsJSON(s.ledger.Alerts()),
	}).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	rec, ok := s.findExpense(w, r, category)
	if !ok {
		return
	}

	var req updateExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	upd := expenses.ExpenseUpdate{Category: sanitizeInput(req.Category)}
	if req.Amount.Set {
		amount, err := core.ParseAmount(req.Amount.Value)
		if err != nil {
			writeError(w, r, applog.OpUpdate, err)
			return
		}
		upd.Amount = &amount
	}
	if req.Date != nil {
		date := sanitizeInput(*req.Date)
		upd.Date = &date
	}
	if req.Description != nil {
		desc := sanitizeInput(*req.Description)
		upd.Description = &desc
	}

	updated, err := s.store.UpdateExpense(category, rec, upd)
	if err != nil {
		writeError(w, r, applog.OpUpdate, err)
		return
	}
	if !updated {
		NotFoundError(fmt.Sprintf("expense #%d not found in %s", rec.ID, category)).Write(w)
		return
	}

	target := category
	if upd.Category != "" {
		target = upd.Category
	}
	NewResponse().JSON(map[string]any{
		"id":       rec.ID,
		"category": s.storedName(target),
		"alerts":   toAlertsJSON(s.ledger.Alerts()),
	}).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	rec, ok := s.findExpense(w, r, category)
	if !ok {
		return
	}
	if !s.store.DeleteExpense(category, rec) {
		NotFoundError(fmt.Sprintf("expense #%d not found in %s", rec.ID, category)).Write(w)
		return
	}

	NewResponse().JSON(map[string]any{
		"deleted": rec.ID,
		"alerts":  toAlertsJSON(s.ledger.Alerts()),
	}).Write(w)
}

func (s *Server) handleClearExpenses(w http.ResponseWriter, r *http.Request) {
	if !queryBool(r, "confirm") {
		BadRequestError("clearing all expenses requires confirm=true").Write(w)
		return
	}
	n := s.store.Len()
	s.store.ClearAll()
	NewResponse().JSON(map[string]any{"cleared": n}).Write(w)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	restored := s.store.UndoDelete()
	NewResponse().JSON(map[string]any{
		"restored": restored,
		"alerts":   toAlertsJSON(s.ledger.Alerts()),
	}).Write(w)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	keyword := sanitizeInput(r.URL.Query().Get("q"))
	matches := s.store.SearchByDescription(keyword)

	out := make([]matchJSON, 0, len(matches))
	for _, m := range matches {
		out = append(out, matchJSON{Category: m.Category, recordJSON: toRecordJSON(m.Record)})
	}
	NewResponse().JSON(map[string]any{"matches": out}).Write(w)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	categories := make(map[string]string)
	for _, ca := range s.store.CategorySubtotals() {
		categories[ca.Name] = core.FormatAmount(ca.Amount)
	}
	monthly := make(map[string]string)
	for month, total := range s.store.MonthlySpendTotals() {
		monthly[month] = core.FormatAmount(total)
	}

	NewResponse().JSON(map[string]any{
		"categories": categories,
		"monthly":    monthly,
		"total":      core.FormatAmount(s.store.GrandTotal()),
	}).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{"categories": s.store.Categories()}).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	op := applog.OpAdd
	if strings.TrimSpace(req.MergeInto) != "" {
		op = applog.OpMerge
	}
	msg, err := s.store.AddCategory(sanitizeInput(req.Name), sanitizeInput(req.MergeInto))
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	NewResponse().JSON(map[string]any{
		"message":    msg,
		"categories": s.store.Categories(),
	}).Write(w)
}

func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	msg, err := s.store.RemoveCategory(r.PathValue("name"), sanitizeInput(r.URL.Query().Get("move_to")))
	if err != nil {
		writeError(w, r, applog.OpRemove, err)
		return
	}
	NewResponse().JSON(map[string]any{
		"message":    msg,
		"categories": s.store.Categories(),
	}).Write(w)
}

func (s *Server) handleMigrateCategories(w http.ResponseWriter, r *http.Request) {
	renamed := s.store.MigrateCategoriesToProperCase()
	merged := s.store.AutoMergeDuplicateCategories()
	keys := s.ledger.MigrateBudgetKeys()

	NewResponse().JSON(map[string]any{
		"renamed":     renamed,
		"merged":      merged,
		"budget_keys": keys,
	}).Write(w)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	progress := s.ledger.AllProgress()
	out := make([]progressJSON, 0, len(progress))
	period := ""
	for _, p := range progress {
		out = append(out, toProgressJSON(p))
		period = p.Period
	}
	NewResponse().JSON(map[string]any{
		"period":  period,
		"budgets": out,
	}).Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	var req setBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if !req.Limit.Set {
		writeError(w, r, applog.OpSetBudget, fmt.Errorf("%w: limit is required", core.ErrInvalidLimit))
		return
	}
	limit, err := core.ParseLimit(req.Limit.Value)
	if err != nil {
		writeError(w, r, applog.OpSetBudget, err)
		return
	}
	if !s.ledger.SetBudget(category, limit) {
		writeError(w, r, applog.OpSetBudget, fmt.Errorf("%w: '%s'", core.ErrInvalidCategoryName, category))
		return
	}

	p, _ := s.ledger.BudgetProgress(category)
	NewResponse().JSON(map[string]any{
		"budget": toProgressJSON(p),
		"alerts": toAlertsJSON(s.ledger.Alerts()),
	}).Write(w)
}

func (s *Server) handleRemoveBudget(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	if !s.ledger.RemoveBudget(category) {
		NotFoundError(fmt.Sprintf("no budget set for %s", category)).Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"budgets": s.ledger.Count(),
		"alerts":  toAlertsJSON(s.ledger.Alerts()),
	}).Write(w)
}

// findExpense resolves the {id} path segment within category, writing the
// error response when it cannot.
func (s *Server) findExpense(w http.ResponseWriter, r *http.Request, category string) (core.ExpenseRecord, bool) {
	id, err := parseID(r.PathValue("id"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return core.ExpenseRecord{}, false
	}
	records := s.store.ExpensesFor(category)
	if i := slices.IndexFunc(records, func(rec core.ExpenseRecord) bool { return rec.ID == id }); i >= 0 {
		return records[i], true
	}
	NotFoundError(fmt.Sprintf("expense #%d not found in %s", id, category)).Write(w)
	return core.ExpenseRecord{}, false
}

// storedName returns the spelling the store uses for name.
func (s *Server) storedName(name string) string {
	if existing, ok := core.CategoryExists(name, s.store.Categories(), s.store.ExpenseCategories()); ok {
		return existing
	}
	return core.NormalizeCategory(name)
}

func (s *Server) today() string {
	return s.now().Format(core.DateLayout)
}
