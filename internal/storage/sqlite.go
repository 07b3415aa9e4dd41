package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Veraticus/tithe/internal/common"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const dsnOptions = "?_busy_timeout=5000"

// SQLiteStorage implements service.Storage on a single SQLite file. The handle
// is opened lazily and replaced transparently when it stops answering.
type SQLiteStorage struct {
	db      *sql.DB
	queries *queryCache
	dbPath  string
	mu      sync.Mutex
}

// DatabaseInfo describes the ledger file on disk.
type DatabaseInfo struct {
	ModifiedAt    time.Time
	Name          string
	Path          string
	Size          int64
	SchemaVersion int
}

// NewSQLiteStorage opens the ledger at dbPath, creating it when missing. A file
// that fails to open or fails its integrity check is copied aside to
// <dbPath>.backup.<unix-millis>, removed and recreated empty. Only a failure to
// recreate is returned, wrapping common.ErrStorageUnavailable.
func NewSQLiteStorage(ctx context.Context, dbPath string) (*SQLiteStorage, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0750); err != nil {
		return nil, fmt.Errorf("%w: failed to create database directory: %v", common.ErrStorageUnavailable, err)
	}

	s := &SQLiteStorage{
		dbPath:  absPath,
		queries: newQueryCache(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.open(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

// Path returns the absolute path of the ledger file.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Close closes the database connection. Closing twice is a no-op.
func (s *SQLiteStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// HealthCheck verifies the handle answers a trivial query, reopening it when it
// does not. It reports whether a usable handle is available afterwards.
func (s *SQLiteStorage) HealthCheck(ctx context.Context) bool {
	_, err := s.conn(ctx)
	if err != nil {
		slog.Error("database health check failed", "path", s.dbPath, "error", err)
		return false
	}
	return true
}

// EnsureSchema creates any missing tables and indexes. It is safe to call any
// number of times.
func (s *SQLiteStorage) EnsureSchema(ctx context.Context) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return migrate(ctx, db)
}

// CheckIntegrity runs SQLite's integrity check against the open ledger.
func (s *SQLiteStorage) CheckIntegrity(ctx context.Context) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return checkIntegrity(ctx, db)
}

// Info reports the file name, location, size and last modification time.
func (s *SQLiteStorage) Info(ctx context.Context) (*DatabaseInfo, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}

	stat, err := os.Stat(s.dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat database: %w", err)
	}

	return &DatabaseInfo{
		Name:          filepath.Base(s.dbPath),
		Path:          s.dbPath,
		Size:          stat.Size(),
		ModifiedAt:    stat.ModTime(),
		SchemaVersion: version,
	}, nil
}

// conn returns a live handle, reopening the database when the current handle
// is missing or fails a SELECT 1 probe.
func (s *SQLiteStorage) conn(ctx context.Context) (*sql.DB, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		var one int
		err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
		if err == nil {
			return s.db, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		slog.Warn("database handle is unhealthy, reopening", "path", s.dbPath, "error", err)
		if closeErr := s.db.Close(); closeErr != nil {
			slog.Debug("failed to close unhealthy handle", "error", closeErr)
		}
		s.db = nil
	}

	if err := s.open(ctx); err != nil {
		return nil, err
	}
	return s.db, nil
}

// open establishes s.db, recovering from a damaged file. Callers hold s.mu.
func (s *SQLiteStorage) open(ctx context.Context) error {
	db, err := openVerified(ctx, s.dbPath)
	if err == nil {
		s.db = db
		return nil
	}

	slog.Warn("database could not be opened cleanly, recreating it",
		"path", s.dbPath,
		"error", err)
	s.quarantine()

	db, err = openDatabase(s.dbPath)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	if err := migrate(ctx, db); err != nil {
		closeQuietly(db)
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}

	slog.Info("created new empty database", "path", s.dbPath)
	s.db = db
	return nil
}

// openVerified opens dbPath, checks its integrity and brings its schema up to date.
func openVerified(ctx context.Context, dbPath string) (*sql.DB, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	if err := checkIntegrity(ctx, db); err != nil {
		closeQuietly(db)
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		closeQuietly(db)
		return nil, err
	}
	return db, nil
}

func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't benefit from multiple connections
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func checkIntegrity(ctx context.Context, db *sql.DB) error {
	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("%w: %v", common.ErrIntegrityFailure, err)
	}
	if result != "ok" {
		return fmt.Errorf("%w: %s", common.ErrIntegrityFailure, result)
	}
	return nil
}

// quarantine copies the damaged file aside and removes it with its journal.
// A failed copy is logged and does not stop recovery.
func (s *SQLiteStorage) quarantine() {
	if _, err := os.Stat(s.dbPath); err != nil {
		return
	}

	backupPath := snapshotPath(s.dbPath, time.Now())
	if err := copyFile(s.dbPath, backupPath); err != nil {
		slog.Warn("failed to back up damaged database", "path", s.dbPath, "error", err)
	} else {
		slog.Warn("damaged database backed up", "backup", backupPath)
	}

	for _, suffix := range []string{"", "-journal", "-wal", "-shm"} {
		if err := os.Remove(s.dbPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove damaged database file", "path", s.dbPath+suffix, "error", err)
		}
	}
}

// snapshotPath names a timestamped copy placed next to the ledger file.
func snapshotPath(dbPath string, now time.Time) string {
	return fmt.Sprintf("%s.backup.%d", dbPath, now.UnixMilli())
}

func closeQuietly(db *sql.DB) {
	if err := db.Close(); err != nil {
		slog.Debug("failed to close database", "error", err)
	}
}
