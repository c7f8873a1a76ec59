package expenses

import (
	"fmt"
	"slices"
	"strings"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

// AddCategory registers name. With a non-empty mergeTarget it instead moves
// every record filed under name into mergeTarget and drops name from the
// registry. The returned message is ready for display.
func (s *Store) AddCategory(name, mergeTarget string) (string, error) {
	norm := core.NormalizeCategory(name)
	if strings.TrimSpace(norm) == "" {
		return "", fmt.Errorf("%w: name is empty", core.ErrInvalidCategoryName)
	}
	if strings.TrimSpace(mergeTarget) != "" {
		return s.mergeCategory(name, mergeTarget)
	}

	existing, ok := core.CategoryExists(norm, s.categories, s.ExpenseCategories())
	switch {
	case ok && existing != norm:
		return "", fmt.Errorf("%w: '%s'", core.ErrDuplicateCategory, existing)
	case ok && s.registered(existing):
		return fmt.Sprintf("Category '%s' already exists", existing), nil
	}

	s.register(norm)
	s.persist()
	s.logger.Info("Added category",
		applog.NewFields().WithOperation(applog.OpAdd).WithCategory(norm).ToSlice()...)
	s.notify(core.ChangeEvent{Op: core.OpCategoryAdded, Category: norm})
	return fmt.Sprintf("Category '%s' added", norm), nil
}

func (s *Store) mergeCategory(source, target string) (string, error) {
	src, ok := core.CategoryExists(source, s.categories, s.ExpenseCategories())
	if !ok {
		return "", fmt.Errorf("%w: '%s'", core.ErrCategoryNotFound, core.NormalizeCategory(source))
	}
	dst, err := s.resolveCategory(target)
	if err != nil {
		return "", err
	}
	if core.CategoryKey(src) == core.CategoryKey(dst) {
		return "", fmt.Errorf("%w: cannot merge '%s' into itself", core.ErrInvalidCategoryName, src)
	}

	moved := s.moveRecords(src, dst)
	s.unregister(src)
	s.register(dst)
	s.persist()

	s.logger.Info("Merged category",
		applog.NewFields().
			WithOperation(applog.OpMerge).
			WithRename(src, dst).
			WithCount(moved).
			ToSlice()...)
	s.notify(core.ChangeEvent{Op: core.OpCategoryMerged, From: src, To: dst})
	return fmt.Sprintf("Merged %d expense(s) from '%s' into '%s'", moved, src, dst), nil
}

// RemoveCategory drops name from the registry after moving its records into
// mergeTo, or into Uncategorized when mergeTo is empty.
func (s *Store) RemoveCategory(name, mergeTo string) (string, error) {
	src, ok := s.registeredSpelling(name)
	if !ok {
		return "", fmt.Errorf("%w: '%s'", core.ErrCategoryNotFound, core.NormalizeCategory(name))
	}
	if core.CategoryKey(src) == core.CategoryKey(core.Uncategorized) {
		return "", fmt.Errorf("%w: '%s' is required", core.ErrProtectedCategory, core.Uncategorized)
	}

	dst := core.Uncategorized
	if strings.TrimSpace(mergeTo) != "" {
		var err error
		if dst, err = s.resolveCategory(mergeTo); err != nil {
			return "", err
		}
		if core.CategoryKey(dst) == core.CategoryKey(src) {
			return "", fmt.Errorf("%w: cannot merge '%s' into itself", core.ErrInvalidCategoryName, src)
		}
	}

	s.register(core.Uncategorized)
	if uncat, ok := s.registeredSpelling(core.Uncategorized); ok && core.CategoryKey(dst) == core.CategoryKey(uncat) {
		dst = uncat
	}

	moved := s.moveRecords(src, dst)
	s.unregister(src)
	if moved > 0 {
		s.register(dst)
	}
	s.persist()

	s.logger.Warn("Removed category",
		applog.NewFields().
			WithOperation(applog.OpRemove).
			WithRename(src, dst).
			WithCount(moved).
			ToSlice()...)
	s.notify(core.ChangeEvent{Op: core.OpCategoryRemoved, Category: src, From: src, To: dst})

	if moved == 0 {
		return fmt.Sprintf("Category '%s' removed", src), nil
	}
	return fmt.Sprintf("Category '%s' removed; %d expense(s) moved to '%s'", src, moved, dst), nil
}

// moveRecords appends every record filed under a key equivalent to src onto
// dst and deletes the source keys.
func (s *Store) moveRecords(src, dst string) int {
	key := core.CategoryKey(src)
	moved := 0
	for _, k := range s.ExpenseCategories() {
		if k == dst || core.CategoryKey(k) != key {
			continue
		}
		moved += len(s.expenses[k])
		s.expenses[dst] = append(s.expenses[dst], s.expenses[k]...)
		delete(s.expenses, k)
	}
	return moved
}

func (s *Store) unregister(name string) {
	key := core.CategoryKey(name)
	s.categories = slices.DeleteFunc(s.categories, func(c string) bool {
		return core.CategoryKey(c) == key
	})
}

func (s *Store) registered(name string) bool {
	return slices.Contains(s.categories, name)
}

func (s *Store) registeredSpelling(name string) (string, bool) {
	return core.CategoryExists(name, s.categories, nil)
}
