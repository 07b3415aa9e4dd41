package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
)

// CategoryTotals groups one side of the ledger by (main, sub) within r,
// largest total first.
func (s *SQLiteStorage) CategoryTotals(ctx context.Context, kind model.CategoryType, r service.DateRange) ([]service.CategoryTotal, error) {
	table, err := entryTable(kind)
	if err != nil {
		return nil, err
	}
	if err := validateDateRange(r); err != nil {
		return nil, err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	// #nosec G201 - table comes from entryTable's whitelist
	query := fmt.Sprintf(`
		SELECT main_category, sub_category, SUM(amount), COUNT(*)
		FROM %s
		WHERE date BETWEEN ? AND ?
		GROUP BY main_category, sub_category
		ORDER BY SUM(amount) DESC, main_category, sub_category`, table)

	rows, err := db.QueryContext(ctx, query, model.FormatDate(r.Start), model.FormatDate(r.End))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s totals: %w", table, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Debug("failed to close rows", "error", closeErr)
		}
	}()

	totals := []service.CategoryTotal{}
	for rows.Next() {
		var t service.CategoryTotal
		if err := rows.Scan(&t.MainCategory, &t.SubCategory, &t.TotalAmount, &t.Count); err != nil {
			return nil, fmt.Errorf("failed to scan %s total: %w", table, err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s totals: %w", table, err)
	}
	return totals, nil
}

// MonthlyTotals groups one side of the ledger by calendar month within r.
// Months without entries are absent.
func (s *SQLiteStorage) MonthlyTotals(ctx context.Context, kind model.CategoryType, r service.DateRange) ([]service.MonthTotal, error) {
	table, err := entryTable(kind)
	if err != nil {
		return nil, err
	}
	if err := validateDateRange(r); err != nil {
		return nil, err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	// #nosec G201 - table comes from entryTable's whitelist
	query := fmt.Sprintf(`
		SELECT strftime('%%m', date) AS month, SUM(amount), COUNT(*)
		FROM %s
		WHERE date BETWEEN ? AND ?
		GROUP BY month
		ORDER BY month`, table)

	rows, err := db.QueryContext(ctx, query, model.FormatDate(r.Start), model.FormatDate(r.End))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s monthly totals: %w", table, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Debug("failed to close rows", "error", closeErr)
		}
	}()

	totals := []service.MonthTotal{}
	for rows.Next() {
		var t service.MonthTotal
		if err := rows.Scan(&t.Month, &t.TotalAmount, &t.Count); err != nil {
			return nil, fmt.Errorf("failed to scan %s monthly total: %w", table, err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s monthly totals: %w", table, err)
	}
	return totals, nil
}

// SumAmount totals one side of the ledger within r. An empty range sums to zero.
func (s *SQLiteStorage) SumAmount(ctx context.Context, kind model.CategoryType, r service.DateRange) (int64, error) {
	table, err := entryTable(kind)
	if err != nil {
		return 0, err
	}
	if err := validateDateRange(r); err != nil {
		return 0, err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}

	// #nosec G201 - table comes from entryTable's whitelist
	query := fmt.Sprintf(`SELECT COALESCE(SUM(amount), 0) FROM %s WHERE date BETWEEN ? AND ?`, table)

	var total int64
	if err := db.QueryRowContext(ctx, query, model.FormatDate(r.Start), model.FormatDate(r.End)).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum %s: %w", table, err)
	}
	return total, nil
}
