package ledger

import (
	"context"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
)

// EntryStore persists both sides of the ledger.
type EntryStore interface {
	service.IncomeStore
	service.ExpenseStore
}

// FinanceService records income and expense entries. It does not validate
// input; callers run model Validate first.
type FinanceService struct {
	store EntryStore
}

// NewFinanceService creates a finance service backed by store.
func NewFinanceService(store EntryStore) *FinanceService {
	return &FinanceService{store: store}
}

// AddIncome records an income entry and returns it with its assigned id.
func (s *FinanceService) AddIncome(ctx context.Context, income model.Income) (*model.Income, error) {
	return s.store.AddIncome(ctx, income)
}

// ListIncome returns matching income entries, newest first.
func (s *FinanceService) ListIncome(ctx context.Context, filter service.EntryFilter) ([]model.Income, error) {
	return s.store.ListIncome(ctx, filter)
}

// UpdateIncome overwrites an income entry. It reports false when it does not exist.
func (s *FinanceService) UpdateIncome(ctx context.Context, id int64, income model.Income) (bool, error) {
	return s.store.UpdateIncome(ctx, id, income)
}

// DeleteIncome removes an income entry. It reports false when it does not exist.
func (s *FinanceService) DeleteIncome(ctx context.Context, id int64) (bool, error) {
	return s.store.DeleteIncome(ctx, id)
}

// AddExpense records an expense entry and returns it with its assigned id.
func (s *FinanceService) AddExpense(ctx context.Context, expense model.Expense) (*model.Expense, error) {
	return s.store.AddExpense(ctx, expense)
}

// ListExpense returns matching expense entries, newest first.
func (s *FinanceService) ListExpense(ctx context.Context, filter service.EntryFilter) ([]model.Expense, error) {
	return s.store.ListExpense(ctx, filter)
}

// UpdateExpense overwrites an expense entry. It reports false when it does not exist.
func (s *FinanceService) UpdateExpense(ctx context.Context, id int64, expense model.Expense) (bool, error) {
	return s.store.UpdateExpense(ctx, id, expense)
}

// DeleteExpense removes an expense entry. It reports false when it does not exist.
func (s *FinanceService) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	return s.store.DeleteExpense(ctx, id)
}
