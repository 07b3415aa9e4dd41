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

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name      string
		str       string
		paramName string
		wantErr   bool
	}{
		{
			name:      "valid string",
			str:       "finance.db",
			paramName: "dbPath",
			wantErr:   false,
		},
		{
			name:      "empty string",
			str:       "",
			paramName: "dbPath",
			wantErr:   true,
		},
		{
			name:      "whitespace only",
			str:       "   ",
			paramName: "src",
			wantErr:   true,
		},
		{
			name:      "string with spaces",
			str:       "  backups  ",
			paramName: "backupsDir",
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, tt.paramName)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.paramName) {
				t.Errorf("validateString() error should contain param name %s, got %v", tt.paramName, err)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	for _, id := range []int64{0, -1} {
		if err := validateID(id); !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("validateID(%d) error = %v, want ErrInvalidIdentifier", id, err)
		}
	}
	if err := validateID(1); err != nil {
		t.Errorf("validateID(1) unexpected error: %v", err)
	}
}

func TestValidateCategory(t *testing.T) {
	tests := []struct {
		name     string
		category model.Category
		wantErr  bool
	}{
		{
			name:     "leaf category",
			category: model.Category{Type: model.CategoryTypeIncome, MainCategory: "헌금", SubCategory: "십일조"},
		},
		{
			name:     "header row",
			category: model.Category{Type: model.CategoryTypeExpense, MainCategory: "관리비"},
		},
		{
			name:     "unknown type",
			category: model.Category{Type: "income", MainCategory: "헌금"},
			wantErr:  true,
		},
		{
			name:     "missing main category",
			category: model.Category{Type: model.CategoryTypeIncome, MainCategory: "  ", SubCategory: "십일조"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCategory(tt.category)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateCategory() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidCategory) {
				t.Errorf("validateCategory() error should wrap ErrInvalidCategory, got %v", err)
			}
		})
	}
}

func TestValidateDateRange(t *testing.T) {
	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		r       service.DateRange
		wantErr bool
	}{
		{name: "ordered", r: service.DateRange{Start: march, End: april}},
		{name: "single day", r: service.DateRange{Start: march, End: march}},
		{name: "reversed", r: service.DateRange{Start: april, End: march}, wantErr: true},
		{name: "missing start", r: service.DateRange{End: april}, wantErr: true},
		{name: "missing end", r: service.DateRange{Start: march}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateDateRange(tt.r)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateDateRange() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDateRange) {
				t.Errorf("validateDateRange() error should wrap ErrInvalidDateRange, got %v", err)
			}
		})
	}
}

func TestEntryTable(t *testing.T) {
	table, err := entryTable(model.CategoryTypeIncome)
	if err != nil || table != "income" {
		t.Errorf("entryTable(income) = %q, %v", table, err)
	}
	table, err = entryTable(model.CategoryTypeExpense)
	if err != nil || table != "expense" {
		t.Errorf("entryTable(expense) = %q, %v", table, err)
	}
	if _, err := entryTable("category"); !errors.Is(err, ErrInvalidEntryKind) {
		t.Errorf("entryTable(category) error = %v, want ErrInvalidEntryKind", err)
	}
}
