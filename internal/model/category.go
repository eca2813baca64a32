package model

import "fmt"

// Category identifies the allocation policy applied to a transaction.
// The set is closed: the classifier and split calculator switch over it
// exhaustively, so adding a category is a compile-time-visible change.
type Category string

const (
	// CategoryRent is the fixed-percentage housing split.
	CategoryRent Category = "rent"
	// CategorySettlement is a direct transfer between the parties that
	// pays down (or flips) the open balance.
	CategorySettlement Category = "settlement"
	// CategoryPersonal is one party's own spending, never shared.
	CategoryPersonal Category = "personal"
	// CategoryIncome is money in, attributed to the receiving party only.
	CategoryIncome Category = "income"
	// CategoryShared is the default 50/50 (or overridden) shared expense.
	CategoryShared Category = "shared"
)

// Categories lists all valid categories in classification precedence
// order: narrow, high-stakes categories come before the shared default.
func Categories() []Category {
	return []Category{CategoryRent, CategorySettlement, CategoryPersonal, CategoryIncome, CategoryShared}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryRent, CategorySettlement, CategoryPersonal, CategoryIncome, CategoryShared:
		return true
	}
	return false
}

// ParseCategory parses a category name (e.g. from a review decision).
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}
