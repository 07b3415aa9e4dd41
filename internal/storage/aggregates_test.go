package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryTotals(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seedIncome(t, store)

	r := service.DateRange{Start: mustDate(t, "2024-03-01"), End: mustDate(t, "2024-03-31")}
	totals, err := store.CategoryTotals(ctx, model.CategoryTypeIncome, r)
	require.NoError(t, err)

	assert.Equal(t, []service.CategoryTotal{
		{MainCategory: "헌금", SubCategory: "십일조", TotalAmount: 300000, Count: 1},
		{MainCategory: "헌금", SubCategory: "감사헌금", TotalAmount: 50000, Count: 1},
		{MainCategory: "헌금", SubCategory: "주일헌금", TotalAmount: 30000, Count: 2},
	}, totals)

	sum, err := store.SumAmount(ctx, model.CategoryTypeIncome, r)
	require.NoError(t, err)
	assert.Equal(t, int64(380000), sum)

	empty, err := store.CategoryTotals(ctx, model.CategoryTypeExpense, r)
	require.NoError(t, err)
	assert.Empty(t, empty)

	zero, err := store.SumAmount(ctx, model.CategoryTypeExpense, r)
	require.NoError(t, err)
	assert.Zero(t, zero)
}

func TestMonthlyTotals(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	seedIncome(t, store)

	r := service.DateRange{Start: mustDate(t, "2024-01-01"), End: mustDate(t, "2024-12-31")}
	months, err := store.MonthlyTotals(ctx, model.CategoryTypeIncome, r)
	require.NoError(t, err)

	assert.Equal(t, []service.MonthTotal{
		{Month: "02", TotalAmount: 1200, Count: 1},
		{Month: "03", TotalAmount: 380000, Count: 4},
	}, months)
}

func TestAggregates_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	good := service.DateRange{Start: mustDate(t, "2024-01-01"), End: mustDate(t, "2024-01-31")}
	backwards := service.DateRange{Start: good.End, End: good.Start}

	_, err := store.CategoryTotals(ctx, "기타", good)
	assert.ErrorIs(t, err, ErrInvalidEntryKind)

	_, err = store.MonthlyTotals(ctx, model.CategoryTypeIncome, backwards)
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = store.SumAmount(ctx, model.CategoryTypeExpense, service.DateRange{})
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}
