// Package service defines the contracts between the ledger services and the
// storage layer, along with the filter and report types they exchange.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/tithe/internal/model"
)

// CategoryStore persists the two-level category taxonomy.
type CategoryStore interface {
	ListCategories(ctx context.Context, typ *model.CategoryType) ([]model.Category, error)
	MainCategories(ctx context.Context, typ model.CategoryType) ([]string, error)
	SubCategories(ctx context.Context, typ model.CategoryType, main string) ([]string, error)
	AddCategory(ctx context.Context, category model.Category) (*model.Category, error)
	UpdateCategory(ctx context.Context, id int64, category model.Category) (bool, error)
	DeleteCategory(ctx context.Context, id int64) (bool, error)
}

// IncomeStore persists income entries.
type IncomeStore interface {
	AddIncome(ctx context.Context, income model.Income) (*model.Income, error)
	ListIncome(ctx context.Context, filter EntryFilter) ([]model.Income, error)
	UpdateIncome(ctx context.Context, id int64, income model.Income) (bool, error)
	DeleteIncome(ctx context.Context, id int64) (bool, error)
}

// ExpenseStore persists expense entries.
type ExpenseStore interface {
	AddExpense(ctx context.Context, expense model.Expense) (*model.Expense, error)
	ListExpense(ctx context.Context, filter EntryFilter) ([]model.Expense, error)
	UpdateExpense(ctx context.Context, id int64, expense model.Expense) (bool, error)
	DeleteExpense(ctx context.Context, id int64) (bool, error)
}

// AggregateStore computes grouped sums over one side of the ledger. The kind
// selects the income or expense table.
type AggregateStore interface {
	CategoryTotals(ctx context.Context, kind model.CategoryType, r DateRange) ([]CategoryTotal, error)
	MonthlyTotals(ctx context.Context, kind model.CategoryType, r DateRange) ([]MonthTotal, error)
	SumAmount(ctx context.Context, kind model.CategoryType, r DateRange) (int64, error)
}

// Storage is everything the ledger services need from the persistence layer.
type Storage interface {
	CategoryStore
	IncomeStore
	ExpenseStore
	AggregateStore

	HealthCheck(ctx context.Context) bool
	Close() error
}

// EntryFilter narrows a transaction listing. Zero-valued fields are ignored;
// the rest are AND-combined. Name1 only applies to income.
type EntryFilter struct {
	StartDate    *time.Time
	EndDate      *time.Time
	MainCategory string
	SubCategory  string
	Name1        string
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Filter converts the range into an EntryFilter.
func (r DateRange) Filter() EntryFilter {
	start, end := r.Start, r.End
	return EntryFilter{StartDate: &start, EndDate: &end}
}

// CategoryTotal is the grouped sum of one (main, sub) category pair.
type CategoryTotal struct {
	MainCategory string
	SubCategory  string
	TotalAmount  int64
	Count        int
}

// MonthTotal is the grouped sum of one calendar month, "01" through "12".
type MonthTotal struct {
	Month       string
	TotalAmount int64
	Count       int
}

// SideSummary summarizes one side of a weekly report.
type SideSummary struct {
	Items []CategoryTotal
	Total int64
}

// WeeklyReport aggregates a date range, usually Monday through Sunday.
type WeeklyReport struct {
	StartDate      time.Time
	EndDate        time.Time
	Income         SideSummary
	Expense        SideSummary
	Balance        int64 // Income minus expense within the range
	CarryOver      int64 // Balance from January 1 up to the day before StartDate
	ClosingBalance int64 // Balance plus CarryOver
}

// YearlySide summarizes one side of a yearly report.
type YearlySide struct {
	Monthly    []MonthTotal
	ByCategory []CategoryTotal
	Total      int64
}

// YearlyReport aggregates one calendar year.
type YearlyReport struct {
	Income  YearlySide
	Expense YearlySide
	Year    int
	Balance int64
}

// IncomeStatistics holds the filtered income rows and their in-memory totals.
type IncomeStatistics struct {
	Items []model.Income
	Total int64
	Count int
}

// ExpenseStatistics holds the filtered expense rows and their in-memory totals.
type ExpenseStatistics struct {
	Items []model.Expense
	Total int64
	Count int
}

// Statistics summarizes both sides of the ledger for a filter.
type Statistics struct {
	Income  IncomeStatistics
	Expense ExpenseStatistics
	Balance int64
}

// PersonTotal is the income total of one giver, optionally split by category.
type PersonTotal struct {
	Name         string
	MainCategory string // Empty unless the summary is detailed
	SubCategory  string // Empty unless the summary is detailed
	TotalAmount  int64
	Count        int
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
