package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
)

// TestStorageValidation tests that validation is applied at the storage layer.
func TestStorageValidation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	t.Run("nil context validation", func(t *testing.T) {
		// These tests intentionally pass nil to verify validation
		//nolint:staticcheck
		if _, err := store.ListIncome(nil, service.EntryFilter{}); err == nil || !strings.Contains(err.Error(), "context cannot be nil") {
			t.Errorf("ListIncome should fail with nil context, got: %v", err)
		}

		//nolint:staticcheck
		if _, err := store.AddCategory(nil, model.Category{Type: model.CategoryTypeIncome, MainCategory: "헌금"}); err == nil || !strings.Contains(err.Error(), "context cannot be nil") {
			t.Errorf("AddCategory should fail with nil context, got: %v", err)
		}

		//nolint:staticcheck
		if err := store.EnsureSchema(nil); err == nil || !strings.Contains(err.Error(), "context cannot be nil") {
			t.Errorf("EnsureSchema should fail with nil context, got: %v", err)
		}

		//nolint:staticcheck
		if _, err := NewSQLiteStorage(nil, store.Path()); !errors.Is(err, ErrNilContext) {
			t.Errorf("NewSQLiteStorage should fail with nil context, got: %v", err)
		}
	})

	t.Run("invalid id validation", func(t *testing.T) {
		ctx := context.Background()

		if _, err := store.UpdateIncome(ctx, 0, model.Income{}); !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("UpdateIncome should reject id 0, got: %v", err)
		}
		if _, err := store.UpdateExpense(ctx, -3, model.Expense{}); !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("UpdateExpense should reject negative id, got: %v", err)
		}
		if _, err := store.UpdateCategory(ctx, 0, model.Category{Type: model.CategoryTypeIncome, MainCategory: "헌금"}); !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("UpdateCategory should reject id 0, got: %v", err)
		}
	})

	t.Run("category validation", func(t *testing.T) {
		ctx := context.Background()

		if _, err := store.AddCategory(ctx, model.Category{Type: "other", MainCategory: "헌금"}); !errors.Is(err, ErrInvalidCategory) {
			t.Errorf("AddCategory should reject unknown type, got: %v", err)
		}
		if _, err := store.AddCategory(ctx, model.Category{Type: model.CategoryTypeExpense}); !errors.Is(err, ErrInvalidCategory) {
			t.Errorf("AddCategory should reject missing main category, got: %v", err)
		}
	})

	t.Run("date range validation", func(t *testing.T) {
		ctx := context.Background()
		start := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		if _, err := store.SumAmount(ctx, model.CategoryTypeIncome, service.DateRange{Start: start, End: end}); !errors.Is(err, ErrInvalidDateRange) {
			t.Errorf("SumAmount should reject a reversed range, got: %v", err)
		}
		if _, err := store.CategoryTotals(ctx, "other", service.DateRange{Start: end, End: start}); !errors.Is(err, ErrInvalidEntryKind) {
			t.Errorf("CategoryTotals should reject an unknown kind, got: %v", err)
		}
	})
}
