package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/tithe/internal/common"
	"github.com/Veraticus/tithe/internal/model"
	"github.com/mattn/go-sqlite3"
)

// ListCategories returns every category, or those of one type, ordered by
// type, main category and sub category. Header rows sort before their subs.
func (s *SQLiteStorage) ListCategories(ctx context.Context, typ *model.CategoryType) ([]model.Category, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, type, main_category, sub_category, created_at, updated_at
		FROM category`
	var args []any
	if typ != nil {
		query += ` WHERE type = ?`
		args = append(args, string(*typ))
	}
	query += ` ORDER BY type, main_category, sub_category`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Debug("failed to close rows", "error", closeErr)
		}
	}()

	var categories []model.Category
	for rows.Next() {
		var (
			cat                  model.Category
			typeText             string
			sub, created, update sql.NullString
		)
		if err := rows.Scan(&cat.ID, &typeText, &cat.MainCategory, &sub, &created, &update); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cat.Type = model.CategoryType(typeText)
		cat.SubCategory = sub.String
		cat.CreatedAt = model.ParseTimestamp(created.String)
		cat.UpdatedAt = model.ParseTimestamp(update.String)
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}

// MainCategories returns the distinct main categories of one type in lexical order.
func (s *SQLiteStorage) MainCategories(ctx context.Context, typ model.CategoryType) ([]string, error) {
	return s.distinctNames(ctx, `
		SELECT DISTINCT main_category
		FROM category
		WHERE type = ?
		ORDER BY main_category`, string(typ))
}

// SubCategories returns the distinct, non-empty sub categories under main.
func (s *SQLiteStorage) SubCategories(ctx context.Context, typ model.CategoryType, main string) ([]string, error) {
	return s.distinctNames(ctx, `
		SELECT DISTINCT sub_category
		FROM category
		WHERE type = ? AND main_category = ?
			AND sub_category IS NOT NULL AND sub_category != ''
		ORDER BY sub_category`, string(typ), main)
}

func (s *SQLiteStorage) distinctNames(ctx context.Context, query string, args ...any) ([]string, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query category names: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Debug("failed to close rows", "error", closeErr)
		}
	}()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan category name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category names: %w", err)
	}
	return names, nil
}

// AddCategory inserts a category. An empty sub category is stored as NULL and
// marks a header row. Duplicates fail with common.ErrDuplicateCategory.
func (s *SQLiteStorage) AddCategory(ctx context.Context, category model.Category) (*model.Category, error) {
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	category.MainCategory = strings.TrimSpace(category.MainCategory)
	category.SubCategory = strings.TrimSpace(category.SubCategory)

	if err := s.checkDuplicateHeader(ctx, db, category, 0); err != nil {
		return nil, err
	}

	var created, updated sql.NullString
	err = db.QueryRowContext(ctx, `
		INSERT INTO category (type, main_category, sub_category)
		VALUES (?, ?, ?)
		RETURNING id, created_at, updated_at`,
		string(category.Type), category.MainCategory, nullString(category.SubCategory),
	).Scan(&category.ID, &created, &updated)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, duplicateCategoryError(category)
		}
		return nil, fmt.Errorf("failed to insert category: %w", err)
	}

	category.CreatedAt = model.ParseTimestamp(created.String)
	category.UpdatedAt = model.ParseTimestamp(updated.String)

	slog.Info("added category",
		"id", category.ID,
		"type", category.Type.String(),
		"main", category.MainCategory,
		"sub", category.SubCategory)
	return &category, nil
}

// UpdateCategory overwrites the category with the given id and bumps
// updated_at. It reports false when no such category exists.
func (s *SQLiteStorage) UpdateCategory(ctx context.Context, id int64, category model.Category) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}
	if err := validateCategory(category); err != nil {
		return false, err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}

	category.MainCategory = strings.TrimSpace(category.MainCategory)
	category.SubCategory = strings.TrimSpace(category.SubCategory)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM category WHERE id = ?)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to look up category: %w", err)
	}
	if !exists {
		return false, nil
	}

	if err := s.checkDuplicateHeader(ctx, tx, category, id); err != nil {
		return false, err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE category
		SET type = ?, main_category = ?, sub_category = ?,
			updated_at = datetime('now', 'localtime')
		WHERE id = ?`,
		string(category.Type), category.MainCategory, nullString(category.SubCategory), id)
	if err != nil {
		if isUniqueViolation(err) {
			return false, duplicateCategoryError(category)
		}
		return false, fmt.Errorf("failed to update category: %w", err)
	}

	updated, err := affectedOne(result)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit category update: %w", err)
	}
	return updated, nil
}

// DeleteCategory removes one category. Entries that copied its names keep them.
func (s *SQLiteStorage) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "category", id)
}

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// checkDuplicateHeader rejects a second header row for the same type and main
// category. The UNIQUE constraint does not catch it because NULLs never collide.
func (s *SQLiteStorage) checkDuplicateHeader(ctx context.Context, db rowQuerier, category model.Category, exceptID int64) error {
	if !category.IsHeader() {
		return nil
	}

	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM category
		WHERE type = ? AND main_category = ?
			AND (sub_category IS NULL OR sub_category = '')
			AND id != ?`,
		string(category.Type), category.MainCategory, exceptID,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate category: %w", err)
	}
	if count > 0 {
		return duplicateCategoryError(category)
	}
	return nil
}

func duplicateCategoryError(category model.Category) error {
	return common.NewUserError(
		"이미 존재하는 항목입니다.",
		fmt.Errorf("%w: %s %s/%s", common.ErrDuplicateCategory,
			category.Type.String(), category.MainCategory, category.SubCategory),
	)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// deleteByID physically removes one row from a whitelisted table.
func (s *SQLiteStorage) deleteByID(ctx context.Context, table string, id int64) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}
	db, err := s.conn(ctx)
	if err != nil {
		return false, err
	}

	var query string
	switch table {
	case "category":
		query = "DELETE FROM category WHERE id = ?"
	case "income":
		query = "DELETE FROM income WHERE id = ?"
	case "expense":
		query = "DELETE FROM expense WHERE id = ?"
	default:
		return false, fmt.Errorf("%w: %q", ErrInvalidEntryKind, table)
	}

	result, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", table, err)
	}

	deleted, err := affectedOne(result)
	if err == nil && deleted {
		slog.Info("deleted row", "table", table, "id", id)
	}
	return deleted, err
}

func affectedOne(result sql.Result) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}
