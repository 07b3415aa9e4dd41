package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 1

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

// schemaStatements is the base ledger schema. Every statement is idempotent and
// runs on every open, so a ledger missing a table or index is repaired even
// when its user_version is current.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS income (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		main_category TEXT NOT NULL,
		sub_category TEXT NOT NULL,
		name1 TEXT NOT NULL,
		name2 TEXT,
		amount INTEGER NOT NULL,
		memo TEXT,
		created_at TEXT DEFAULT (datetime('now', 'localtime')),
		updated_at TEXT DEFAULT (datetime('now', 'localtime'))
	)`,

	`CREATE TABLE IF NOT EXISTS expense (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		main_category TEXT NOT NULL,
		sub_category TEXT NOT NULL,
		amount INTEGER NOT NULL,
		memo TEXT,
		created_at TEXT DEFAULT (datetime('now', 'localtime')),
		updated_at TEXT DEFAULT (datetime('now', 'localtime'))
	)`,

	`CREATE TABLE IF NOT EXISTS category (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL CHECK(type IN ('수입', '지출')),
		main_category TEXT NOT NULL,
		sub_category TEXT,
		created_at TEXT DEFAULT (datetime('now', 'localtime')),
		updated_at TEXT DEFAULT (datetime('now', 'localtime')),
		UNIQUE(type, main_category, sub_category)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_income_date ON income(date)`,
	`CREATE INDEX IF NOT EXISTS idx_income_category ON income(main_category, sub_category)`,
	`CREATE INDEX IF NOT EXISTS idx_expense_date ON expense(date)`,
	`CREATE INDEX IF NOT EXISTS idx_expense_category ON expense(main_category, sub_category)`,
	`CREATE INDEX IF NOT EXISTS idx_category_type ON category(type)`,
	`CREATE INDEX IF NOT EXISTS idx_category_main ON category(main_category)`,
}

func applySchema(tx *sql.Tx) error {
	for _, query := range schemaStatements {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// migrations holds changes layered on top of the base schema, keyed by
// user_version.
var migrations = []Migration{
	{
		Version:     1,
		Description: "Ledger tables and indexes",
		Up:          applySchema,
	},
}

// ensureBaseSchema creates whatever part of the base schema is missing.
func ensureBaseSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := applySchema(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}
	return nil
}

// migrate ensures the base schema, then applies every migration newer than the
// file's user_version.
func migrate(ctx context.Context, db *sql.DB) error {
	if err := ensureBaseSchema(ctx, db); err != nil {
		return err
	}

	var currentVersion int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion); err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion < ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
