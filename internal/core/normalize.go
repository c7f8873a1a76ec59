package core

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Uncategorized is the fallback category that always exists in a store.
const Uncategorized = "Uncategorized"

// DefaultCategories returns the starter registry used when no configuration
// or persisted state provides one.
func DefaultCategories() []string {
	return []string{
		"Food",
		"Medical",
		"Utilities",
		"Travel",
		"Clothing",
		"Transportation",
		"Vehicle",
		Uncategorized,
	}
}

// NormalizeCategory canonicalizes a category name: surrounding whitespace is
// trimmed, inner runs of whitespace collapse to one space and every word is
// title-cased. Blank input is returned unchanged so callers can reject it.
//
// NormalizeCategory(NormalizeCategory(s)) == NormalizeCategory(s) for all s.
func NormalizeCategory(name string) string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return name
	}
	caser := cases.Title(language.Und)
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}

// CategoryKey is the case-insensitive identity of a category name. Two names
// with the same key belong to the same equivalence class.
func CategoryKey(name string) string {
	return strings.ToLower(NormalizeCategory(name))
}

// CategoryExists looks name up case-insensitively, first in the registry and
// then among categories that only appear in expense data. It returns the
// spelling already in use.
func CategoryExists(name string, registry, expenseCategories []string) (string, bool) {
	key := CategoryKey(name)
	if strings.TrimSpace(key) == "" {
		return "", false
	}
	for _, c := range registry {
		if CategoryKey(c) == key {
			return c, true
		}
	}
	for _, c := range expenseCategories {
		if CategoryKey(c) == key {
			return c, true
		}
	}
	return "", false
}
