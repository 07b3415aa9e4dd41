package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidPeriod is returned for reports over an empty or backwards period.
var ErrInvalidPeriod = errors.New("invalid report period")

// ReportStore is what the reporting service reads from.
type ReportStore interface {
	service.IncomeStore
	service.ExpenseStore
	service.AggregateStore
}

// ReportService rolls entries up into weekly, yearly and ad-hoc summaries.
type ReportService struct {
	store ReportStore
}

// NewReportService creates a report service backed by store.
func NewReportService(store ReportStore) *ReportService {
	return &ReportService{store: store}
}

// WeeklyReport summarizes the inclusive range start..end per category, with
// the balance carried over from January 1 of start's year.
func (s *ReportService) WeeklyReport(ctx context.Context, start, end time.Time) (*service.WeeklyReport, error) {
	start, end = model.DateOf(start), model.DateOf(end)
	if start.IsZero() || end.IsZero() || start.After(end) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidPeriod, model.FormatDate(start), model.FormatDate(end))
	}

	r := service.DateRange{Start: start, End: end}
	report := &service.WeeklyReport{StartDate: start, EndDate: end}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		side, err := s.sideSummary(gctx, model.CategoryTypeIncome, r)
		report.Income = side
		return err
	})
	g.Go(func() error {
		side, err := s.sideSummary(gctx, model.CategoryTypeExpense, r)
		report.Expense = side
		return err
	})
	g.Go(func() error {
		carry, err := s.CarryOver(gctx, start)
		report.CarryOver = carry
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build weekly report: %w", err)
	}

	report.Balance = report.Income.Total - report.Expense.Total
	report.ClosingBalance = report.Balance + report.CarryOver

	slog.Debug("built weekly report",
		"start", model.FormatDate(start),
		"end", model.FormatDate(end),
		"income", report.Income.Total,
		"expense", report.Expense.Total)
	return report, nil
}

func (s *ReportService) sideSummary(ctx context.Context, kind model.CategoryType, r service.DateRange) (service.SideSummary, error) {
	items, err := s.store.CategoryTotals(ctx, kind, r)
	if err != nil {
		return service.SideSummary{}, err
	}
	total, err := s.store.SumAmount(ctx, kind, r)
	if err != nil {
		return service.SideSummary{}, err
	}
	return service.SideSummary{Items: items, Total: total}, nil
}

// YearlyReport summarizes one calendar year by month and by category.
func (s *ReportService) YearlyReport(ctx context.Context, year int) (*service.YearlyReport, error) {
	if year < 1 || year > 9999 {
		return nil, fmt.Errorf("%w: year %d", ErrInvalidPeriod, year)
	}

	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := service.DateRange{Start: jan1, End: YearEnd(jan1)}
	report := &service.YearlyReport{Year: year}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		side, err := s.yearlySide(gctx, model.CategoryTypeIncome, r)
		report.Income = side
		return err
	})
	g.Go(func() error {
		side, err := s.yearlySide(gctx, model.CategoryTypeExpense, r)
		report.Expense = side
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build yearly report: %w", err)
	}

	report.Balance = report.Income.Total - report.Expense.Total
	return report, nil
}

func (s *ReportService) yearlySide(ctx context.Context, kind model.CategoryType, r service.DateRange) (service.YearlySide, error) {
	monthly, err := s.store.MonthlyTotals(ctx, kind, r)
	if err != nil {
		return service.YearlySide{}, err
	}
	byCategory, err := s.store.CategoryTotals(ctx, kind, r)
	if err != nil {
		return service.YearlySide{}, err
	}
	total, err := s.store.SumAmount(ctx, kind, r)
	if err != nil {
		return service.YearlySide{}, err
	}
	return service.YearlySide{Monthly: monthly, ByCategory: byCategory, Total: total}, nil
}

// Statistics lists both sides with filter and totals them in memory.
func (s *ReportService) Statistics(ctx context.Context, filter service.EntryFilter) (*service.Statistics, error) {
	incomeRows, err := s.store.ListIncome(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list income: %w", err)
	}
	expenseRows, err := s.store.ListExpense(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense: %w", err)
	}

	stats := &service.Statistics{
		Income:  service.IncomeStatistics{Items: incomeRows, Count: len(incomeRows)},
		Expense: service.ExpenseStatistics{Items: expenseRows, Count: len(expenseRows)},
	}
	for _, row := range incomeRows {
		stats.Income.Total += row.Amount
	}
	for _, row := range expenseRows {
		stats.Expense.Total += row.Amount
	}
	stats.Balance = stats.Income.Total - stats.Expense.Total

	return stats, nil
}

// CarryOver returns income minus expense from January 1 of periodStart's year
// up to the day before periodStart. The balance resets every January 1.
func (s *ReportService) CarryOver(ctx context.Context, periodStart time.Time) (int64, error) {
	periodStart = model.DateOf(periodStart)
	yearStart := YearStart(periodStart)
	if !periodStart.After(yearStart) {
		return 0, nil
	}

	r := service.DateRange{Start: yearStart, End: periodStart.AddDate(0, 0, -1)}
	income, err := s.store.SumAmount(ctx, model.CategoryTypeIncome, r)
	if err != nil {
		return 0, fmt.Errorf("failed to sum prior income: %w", err)
	}
	expense, err := s.store.SumAmount(ctx, model.CategoryTypeExpense, r)
	if err != nil {
		return 0, fmt.Errorf("failed to sum prior expense: %w", err)
	}
	return income - expense, nil
}
