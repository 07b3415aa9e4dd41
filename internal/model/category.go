package model

import (
	"fmt"
	"strings"
	"time"
)

// CategoryType indicates whether a category classifies income or expense entries.
// The stored values are the Korean labels used by the ledger files in the field.
type CategoryType string

const (
	// CategoryTypeIncome represents categories for income entries.
	CategoryTypeIncome CategoryType = "수입"
	// CategoryTypeExpense represents categories for expense entries.
	CategoryTypeExpense CategoryType = "지출"
)

// UnclassifiedLabel is shown in place of a missing name or sub category.
const UnclassifiedLabel = "(미분류)"

// ParseCategoryType accepts the stored labels as well as their English names.
func ParseCategoryType(s string) (CategoryType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", string(CategoryTypeIncome):
		return CategoryTypeIncome, nil
	case "expense", string(CategoryTypeExpense):
		return CategoryTypeExpense, nil
	default:
		return "", fmt.Errorf("unknown category type %q (want income or expense)", s)
	}
}

// String returns the English name of the type.
func (t CategoryType) String() string {
	switch t {
	case CategoryTypeIncome:
		return "income"
	case CategoryTypeExpense:
		return "expense"
	default:
		return string(t)
	}
}

// Valid reports whether t is one of the known category types.
func (t CategoryType) Valid() bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

// Category is one node of the two-level taxonomy. An empty SubCategory marks a
// header row for MainCategory.
type Category struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Type         CategoryType
	MainCategory string
	SubCategory  string
	ID           int64
}

// IsHeader reports whether the category is a main-category header row.
func (c Category) IsHeader() bool {
	return c.SubCategory == ""
}

// CategoryNode groups the sub categories of one main category.
type CategoryNode struct {
	Type          CategoryType
	MainCategory  string
	SubCategories []string
}
