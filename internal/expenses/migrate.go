package expenses

import (
	"slices"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

// MigrateCategoriesToProperCase renames every registry entry and expense
// category to its normalized spelling, merging spellings that collide. It
// returns the number of names changed and is a no-op on normalized data.
func (s *Store) MigrateCategoriesToProperCase() int {
	renamed := 0
	for _, name := range s.allCategoryNames() {
		if norm := core.NormalizeCategory(name); norm != name {
			s.renameCategory(name, norm)
			renamed++
		}
	}
	if renamed > 0 {
		s.persist()
		s.logger.Info("Migrated categories to proper case",
			applog.NewFields().WithOperation(applog.OpMigrate).WithCount(renamed).ToSlice()...)
	}
	return renamed
}

// AutoMergeDuplicateCategories collapses each group of case-insensitively
// equal category names into one spelling: the normalized form when the
// registry holds it, else the first registry spelling, else the normalized
// form. It returns the number of groups merged.
func (s *Store) AutoMergeDuplicateCategories() int {
	groups := map[string][]string{}
	var order []string
	for _, name := range s.allCategoryNames() {
		key := core.CategoryKey(name)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], name)
	}

	merged := 0
	for _, key := range order {
		names := groups[key]
		if len(names) < 2 {
			continue
		}
		canonical := s.canonicalSpelling(names)
		for _, name := range names {
			if name != canonical {
				s.renameCategory(name, canonical)
			}
		}
		merged++
	}
	if merged > 0 {
		s.persist()
		s.logger.Info("Merged duplicate categories",
			applog.NewFields().WithOperation(applog.OpMerge).WithCount(merged).ToSlice()...)
	}
	return merged
}

func (s *Store) canonicalSpelling(names []string) string {
	norm := core.NormalizeCategory(names[0])
	if s.registered(norm) {
		return norm
	}
	for _, c := range s.categories {
		if slices.Contains(names, c) {
			return c
		}
	}
	return norm
}

// renameCategory moves records and the registry entry from one exact
// spelling to another.
func (s *Store) renameCategory(from, to string) {
	if records, ok := s.expenses[from]; ok {
		s.expenses[to] = append(s.expenses[to], records...)
		delete(s.expenses, from)
	}
	if s.registered(from) {
		s.categories = slices.DeleteFunc(s.categories, func(c string) bool { return c == from })
		if !s.registered(to) {
			s.categories = append(s.categories, to)
			slices.Sort(s.categories)
		}
	}
	s.logger.Debug("Renamed category",
		applog.NewFields().WithOperation(applog.OpMigrate).WithRename(from, to).ToSlice()...)
	s.notify(core.ChangeEvent{Op: core.OpCategoryRenamed, From: from, To: to})
}

// allCategoryNames returns the distinct exact spellings found in the
// registry and among expense keys, sorted.
func (s *Store) allCategoryNames() []string {
	names := slices.Concat(s.categories, s.ExpenseCategories())
	slices.Sort(names)
	return slices.Compact(names)
}
