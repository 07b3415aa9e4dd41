package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
	"github.com/Veraticus/tithe/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

type fixtureLedger struct {
	finance *FinanceService
	reports *ReportService
}

func newFixtureLedger(t *testing.T) fixtureLedger {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	finance := NewFinanceService(db.Storage)

	incomeRows := []model.Income{
		{Date: date(t, "2024-01-07"), MainCategory: "헌금", SubCategory: "주일헌금", Name1: "김철수", Amount: 10000},
		{Date: date(t, "2024-02-25"), MainCategory: "헌금", SubCategory: "십일조", Name1: "이영희", Amount: 200000},
		{Date: date(t, "2024-03-04"), MainCategory: "헌금", SubCategory: "주일헌금", Name1: "김철수", Amount: 15000},
		{Date: date(t, "2024-03-10"), MainCategory: "헌금", SubCategory: "주일헌금", Name1: "박민수", Amount: 5000},
		{Date: date(t, "2024-03-10"), MainCategory: "헌금", SubCategory: "감사헌금", Name1: model.AnonymousName, Amount: 30000},
		{Date: date(t, "2024-03-10"), MainCategory: "헌금", SubCategory: "십일조", Name1: "이영희", Amount: 200000},
		{Date: date(t, "2024-03-17"), MainCategory: "헌금", SubCategory: "주일헌금", Name1: "김철수", Amount: 12000},
		{Date: date(t, "2023-12-31"), MainCategory: "헌금", SubCategory: "송구영신", Name1: "김철수", Amount: 99000},
	}
	for _, row := range incomeRows {
		_, err := finance.AddIncome(ctx, row)
		require.NoError(t, err)
	}

	expenseRows := []model.Expense{
		{Date: date(t, "2024-01-15"), MainCategory: "관리비", SubCategory: "전기", Amount: 80000},
		{Date: date(t, "2024-03-05"), MainCategory: "관리비", SubCategory: "가스", Amount: 40000},
		{Date: date(t, "2024-03-09"), MainCategory: "선교비", SubCategory: "국내", Amount: 100000},
		{Date: date(t, "2024-03-12"), MainCategory: "관리비", SubCategory: "전기", Amount: 70000},
	}
	for _, row := range expenseRows {
		_, err := finance.AddExpense(ctx, row)
		require.NoError(t, err)
	}

	return fixtureLedger{finance: finance, reports: NewReportService(db.Storage)}
}

func TestWeeklyReport(t *testing.T) {
	l := newFixtureLedger(t)
	ctx := context.Background()

	week := WeekEnding(date(t, "2024-03-10"))
	report, err := l.reports.WeeklyReport(ctx, week.Start, week.End)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-04", model.FormatDate(report.StartDate))
	assert.Equal(t, "2024-03-10", model.FormatDate(report.EndDate))

	assert.Equal(t, []service.CategoryTotal{
		{MainCategory: "헌금", SubCategory: "십일조", TotalAmount: 200000, Count: 1},
		{MainCategory: "헌금", SubCategory: "감사헌금", TotalAmount: 30000, Count: 1},
		{MainCategory: "헌금", SubCategory: "주일헌금", TotalAmount: 20000, Count: 2},
	}, report.Income.Items)
	assert.Equal(t, int64(250000), report.Income.Total)

	assert.Equal(t, []service.CategoryTotal{
		{MainCategory: "선교비", SubCategory: "국내", TotalAmount: 100000, Count: 1},
		{MainCategory: "관리비", SubCategory: "가스", TotalAmount: 40000, Count: 1},
	}, report.Expense.Items)
	assert.Equal(t, int64(140000), report.Expense.Total)

	assert.Equal(t, int64(110000), report.Balance)
	// Jan 1 through Mar 3: 10000 + 200000 income, 80000 expense.
	assert.Equal(t, int64(130000), report.CarryOver)
	assert.Equal(t, int64(240000), report.ClosingBalance)
}

func TestWeeklyReport_TotalsMatchItems(t *testing.T) {
	l := newFixtureLedger(t)
	ctx := context.Background()

	report, err := l.reports.WeeklyReport(ctx, date(t, "2024-01-01"), date(t, "2024-12-31"))
	require.NoError(t, err)

	var incomeSum, expenseSum int64
	for _, item := range report.Income.Items {
		incomeSum += item.TotalAmount
	}
	for _, item := range report.Expense.Items {
		expenseSum += item.TotalAmount
	}
	assert.Equal(t, report.Income.Total, incomeSum)
	assert.Equal(t, report.Expense.Total, expenseSum)
	assert.Equal(t, report.Income.Total-report.Expense.Total, report.Balance)
	assert.Zero(t, report.CarryOver)
}

func TestWeeklyReport_InvalidRange(t *testing.T) {
	l := newFixtureLedger(t)

	_, err := l.reports.WeeklyReport(context.Background(), date(t, "2024-03-10"), date(t, "2024-03-04"))
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestYearlyReport(t *testing.T) {
	l := newFixtureLedger(t)
	ctx := context.Background()

	report, err := l.reports.YearlyReport(ctx, 2024)
	require.NoError(t, err)

	assert.Equal(t, 2024, report.Year)
	assert.Equal(t, []service.MonthTotal{
		{Month: "01", TotalAmount: 10000, Count: 1},
		{Month: "02", TotalAmount: 200000, Count: 1},
		{Month: "03", TotalAmount: 262000, Count: 5},
	}, report.Income.Monthly)
	assert.Equal(t, int64(472000), report.Income.Total)

	assert.Equal(t, []service.MonthTotal{
		{Month: "01", TotalAmount: 80000, Count: 1},
		{Month: "03", TotalAmount: 210000, Count: 3},
	}, report.Expense.Monthly)
	assert.Equal(t, int64(290000), report.Expense.Total)
	assert.Equal(t, int64(182000), report.Balance)

	require.NotEmpty(t, report.Income.ByCategory)
	assert.Equal(t, "십일조", report.Income.ByCategory[0].SubCategory)
	assert.Equal(t, int64(400000), report.Income.ByCategory[0].TotalAmount)

	prior, err := l.reports.YearlyReport(ctx, 2023)
	require.NoError(t, err)
	assert.Equal(t, int64(99000), prior.Income.Total)
	assert.Empty(t, prior.Expense.Monthly)

	_, err = l.reports.YearlyReport(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestStatistics(t *testing.T) {
	l := newFixtureLedger(t)
	ctx := context.Background()

	start := date(t, "2024-03-01")
	end := date(t, "2024-03-31")
	stats, err := l.reports.Statistics(ctx, service.EntryFilter{StartDate: &start, EndDate: &end})
	require.NoError(t, err)

	assert.Equal(t, 5, stats.Income.Count)
	assert.Equal(t, int64(262000), stats.Income.Total)
	assert.Len(t, stats.Income.Items, 5)
	assert.Equal(t, 3, stats.Expense.Count)
	assert.Equal(t, int64(210000), stats.Expense.Total)
	assert.Equal(t, int64(52000), stats.Balance)

	empty, err := l.reports.Statistics(ctx, service.EntryFilter{MainCategory: "없는항목"})
	require.NoError(t, err)
	assert.Zero(t, empty.Income.Count)
	assert.Zero(t, empty.Balance)
}

func TestCarryOver(t *testing.T) {
	l := newFixtureLedger(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		start string
		want  int64
	}{
		{name: "january first resets", start: "2024-01-01", want: 0},
		{name: "excludes the prior year", start: "2024-01-08", want: 10000},
		{name: "mid year", start: "2024-03-04", want: 130000},
		{name: "period start itself is excluded", start: "2024-03-05", want: 145000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := l.reports.CarryOver(ctx, date(t, tt.start))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
