package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
)

const expenseColumns = "id, date, main_category, sub_category, amount, memo, created_at, updated_at"

// AddExpense inserts an expense entry and returns it with its id and timestamps.
func (s *SQLiteStorage) AddExpense(ctx context.Context, expense model.Expense) (*model.Expense, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var created, updated sql.NullString
	err = db.QueryRowContext(ctx, `
		INSERT INTO expense (date, main_category, sub_category, amount, memo)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, created_at, updated_at`,
		model.FormatDate(expense.Date),
		expense.MainCategory,
		expense.SubCategory,
		expense.Amount,
		nullString(expense.Memo),
	).Scan(&expense.ID, &created, &updated)
	if err != nil {
		return nil, fmt.Errorf("failed to insert expense: %w", err)
	}

	expense.CreatedAt = model.ParseTimestamp(created.String)
	expense.UpdatedAt = model.ParseTimestamp(updated.String)

	slog.Debug("added expense", "id", expense.ID, "date", model.FormatDate(expense.Date), "amount", expense.Amount)
	return &expense, nil
}

// ListExpense returns the expense entries matching filter, newest first.
// filter.Name1 is ignored.
func (s *SQLiteStorage) ListExpense(ctx context.Context, filter service.EntryFilter) ([]model.Expense, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	query, args := s.listQuery("expense", expenseColumns, entryPredicates(filter, false))
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expense: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Debug("failed to close rows", "error", closeErr)
		}
	}()

	entries := []model.Expense{}
	for rows.Next() {
		var (
			entry                  model.Expense
			date                   string
			memo, created, updated sql.NullString
		)
		if err := rows.Scan(&entry.ID, &date, &entry.MainCategory, &entry.SubCategory,
			&entry.Amount, &memo, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		if entry.Date, err = model.ParseDate(date); err != nil {
			return nil, fmt.Errorf("expense %d: %w", entry.ID, err)
		}
		entry.Memo = memo.String
		entry.CreatedAt = model.ParseTimestamp(created.String)
		entry.UpdatedAt = model.ParseTimestamp(updated.String)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expense: %w", err)
	}

	slog.Debug("retrieved expense", "count", len(entries))
	return entries, nil
}

// UpdateExpense overwrites every user field of the entry and bumps updated_at.
// It reports false when no such entry exists.
func (s *SQLiteStorage) UpdateExpense(ctx context.Context, id int64, expense model.Expense) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}

	result, err := db.ExecContext(ctx, `
		UPDATE expense
		SET date = ?, main_category = ?, sub_category = ?, amount = ?, memo = ?,
			updated_at = datetime('now', 'localtime')
		WHERE id = ?`,
		model.FormatDate(expense.Date),
		expense.MainCategory,
		expense.SubCategory,
		expense.Amount,
		nullString(expense.Memo),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update expense: %w", err)
	}

	return affectedOne(result)
}

// DeleteExpense physically removes the entry.
func (s *SQLiteStorage) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "expense", id)
}
