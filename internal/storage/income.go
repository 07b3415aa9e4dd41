package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
)

const incomeColumns = "id, date, main_category, sub_category, name1, name2, amount, memo, created_at, updated_at"

// AddIncome inserts an income entry and returns it with its id and timestamps.
func (s *SQLiteStorage) AddIncome(ctx context.Context, income model.Income) (*model.Income, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var created, updated sql.NullString
	err = db.QueryRowContext(ctx, `
		INSERT INTO income (date, main_category, sub_category, name1, name2, amount, memo)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at, updated_at`,
		model.FormatDate(income.Date),
		income.MainCategory,
		income.SubCategory,
		income.Name1,
		nullString(income.Name2),
		income.Amount,
		nullString(income.Memo),
	).Scan(&income.ID, &created, &updated)
	if err != nil {
		return nil, fmt.Errorf("failed to insert income: %w", err)
	}

	income.CreatedAt = model.ParseTimestamp(created.String)
	income.UpdatedAt = model.ParseTimestamp(updated.String)

	slog.Debug("added income", "id", income.ID, "date", model.FormatDate(income.Date), "amount", income.Amount)
	return &income, nil
}

// ListIncome returns the income entries matching filter, newest first.
func (s *SQLiteStorage) ListIncome(ctx context.Context, filter service.EntryFilter) ([]model.Income, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	query, args := s.listQuery("income", incomeColumns, entryPredicates(filter, true))
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query income: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Debug("failed to close rows", "error", closeErr)
		}
	}()

	entries := []model.Income{}
	for rows.Next() {
		var (
			entry                         model.Income
			date                          string
			name2, memo, created, updated sql.NullString
		)
		if err := rows.Scan(&entry.ID, &date, &entry.MainCategory, &entry.SubCategory,
			&entry.Name1, &name2, &entry.Amount, &memo, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan income: %w", err)
		}
		if entry.Date, err = model.ParseDate(date); err != nil {
			return nil, fmt.Errorf("income %d: %w", entry.ID, err)
		}
		entry.Name2 = name2.String
		entry.Memo = memo.String
		entry.CreatedAt = model.ParseTimestamp(created.String)
		entry.UpdatedAt = model.ParseTimestamp(updated.String)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating income: %w", err)
	}

	slog.Debug("retrieved income", "count", len(entries))
	return entries, nil
}

// UpdateIncome overwrites every user field of the entry and bumps updated_at.
// It reports false when no such entry exists.
func (s *SQLiteStorage) UpdateIncome(ctx context.Context, id int64, income model.Income) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}

	result, err := db.ExecContext(ctx, `
		UPDATE income
		SET date = ?, main_category = ?, sub_category = ?, name1 = ?, name2 = ?,
			amount = ?, memo = ?, updated_at = datetime('now', 'localtime')
		WHERE id = ?`,
		model.FormatDate(income.Date),
		income.MainCategory,
		income.SubCategory,
		income.Name1,
		nullString(income.Name2),
		income.Amount,
		nullString(income.Memo),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update income: %w", err)
	}

	return affectedOne(result)
}

// DeleteIncome physically removes the entry.
func (s *SQLiteStorage) DeleteIncome(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "income", id)
}
