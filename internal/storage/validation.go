// Package storage provides the SQLite persistence layer for the ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrInvalidDateRange  = errors.New("start date must not be after end date")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrInvalidEntryKind  = errors.New("invalid entry kind")
	ErrInvalidIdentifier = errors.New("id must be positive")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIdentifier, id)
	}
	return nil
}

func validateCategory(category model.Category) error {
	if !category.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCategory, category.Type)
	}
	if strings.TrimSpace(category.MainCategory) == "" {
		return fmt.Errorf("%w: missing main category", ErrInvalidCategory)
	}
	return nil
}

func validateDateRange(r service.DateRange) error {
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: both dates are required", ErrInvalidDateRange)
	}
	if r.Start.After(r.End) {
		return ErrInvalidDateRange
	}
	return nil
}

// entryTable maps a category type to the table holding its entries.
func entryTable(kind model.CategoryType) (string, error) {
	switch kind {
	case model.CategoryTypeIncome:
		return "income", nil
	case model.CategoryTypeExpense:
		return "expense", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEntryKind, kind)
	}
}
