package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Backup errors.
var (
	ErrBackupNotFound  = errors.New("backup file not found")
	ErrBackupCorrupted = errors.New("backup integrity check failed")
	ErrBackupSelf      = errors.New("backup path is the live database")
)

// BackupKind tells user-made backups apart from automatic safety snapshots.
type BackupKind string

const (
	// BackupKindManual is a backup written by Backup.
	BackupKindManual BackupKind = "backup"
	// BackupKindSnapshot is a copy kept next to the ledger before a restore or
	// after a damaged file was replaced.
	BackupKindSnapshot BackupKind = "snapshot"
)

// BackupInfo describes one backup file for listing.
type BackupInfo struct {
	ModifiedAt time.Time
	Name       string
	Path       string
	Kind       BackupKind
	Size       int64
}

// BackupManager copies the ledger file to and from backups.
type BackupManager struct {
	now        func() time.Time
	store      *SQLiteStorage
	backupsDir string
	prefix     string
}

// NewBackupManager creates a backup manager writing into backupsDir. Backups
// are named <prefix>-YYYY-MM-DD.db.
func NewBackupManager(store *SQLiteStorage, backupsDir, prefix string) (*BackupManager, error) {
	if err := validateString(backupsDir, "backupsDir"); err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = "ledger"
	}
	if err := os.MkdirAll(backupsDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create backups directory: %w", err)
	}

	return &BackupManager{
		store:      store,
		backupsDir: backupsDir,
		prefix:     prefix,
		now:        time.Now,
	}, nil
}

// Dir returns the directory default backups are written to.
func (bm *BackupManager) Dir() string {
	return bm.backupsDir
}

// Backup copies the ledger file to dest and returns the path written. An empty
// dest picks a dated name in the backups directory.
func (bm *BackupManager) Backup(ctx context.Context, dest string) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}

	dbPath := bm.store.Path()
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("database file %s does not exist", dbPath)
		}
		return "", fmt.Errorf("failed to access database: %w", err)
	}

	if dest == "" {
		dest = bm.defaultPath()
	}
	dest, err := filepath.Abs(dest)
	if err != nil {
		return "", fmt.Errorf("failed to resolve backup path: %w", err)
	}
	if dest == dbPath {
		return "", ErrBackupSelf
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	if err := copyFile(dbPath, dest); err != nil {
		return "", fmt.Errorf("failed to copy database: %w", err)
	}

	slog.Info("database backed up", "source", dbPath, "backup", dest)
	return dest, nil
}

// Restore replaces the ledger with src. The current file is kept as a
// timestamped snapshot whose path is returned (empty when there was no file).
// The store is closed; the application should be restarted afterwards.
func (bm *BackupManager) Restore(ctx context.Context, src string) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateString(src, "src"); err != nil {
		return "", err
	}

	src, err := filepath.Abs(src)
	if err != nil {
		return "", fmt.Errorf("failed to resolve restore path: %w", err)
	}
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrBackupNotFound, src)
		}
		return "", fmt.Errorf("failed to access backup: %w", err)
	}

	dbPath := bm.store.Path()
	if src == dbPath {
		return "", ErrBackupSelf
	}

	if err := verifyLedgerFile(ctx, src); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackupCorrupted, err)
	}

	if err := bm.store.Close(); err != nil {
		return "", fmt.Errorf("failed to close database: %w", err)
	}

	var snapshot string
	if _, err := os.Stat(dbPath); err == nil {
		snapshot = snapshotPath(dbPath, bm.now())
		if err := copyFile(dbPath, snapshot); err != nil {
			return "", fmt.Errorf("failed to back up current database: %w", err)
		}
	}

	if err := copyFile(src, dbPath); err != nil {
		if snapshot != "" {
			if restoreErr := copyFile(snapshot, dbPath); restoreErr != nil {
				slog.Error("failed to put back current database after restore failure", "error", restoreErr)
			}
		}
		return "", fmt.Errorf("failed to restore backup: %w", err)
	}

	for _, suffix := range []string{"-journal", "-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove stale journal", "path", dbPath+suffix, "error", err)
		}
	}

	slog.Info("database restored", "source", src, "snapshot", snapshot)
	return snapshot, nil
}

// List returns the backups in the backups directory together with the
// snapshots kept next to the ledger, newest first.
func (bm *BackupManager) List(_ context.Context) ([]BackupInfo, error) {
	entries, err := os.ReadDir(bm.backupsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backups directory: %w", err)
	}

	backups := make([]BackupInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		if info, ok := backupInfo(filepath.Join(bm.backupsDir, entry.Name()), BackupKindManual); ok {
			backups = append(backups, info)
		}
	}

	snapshots, err := filepath.Glob(bm.store.Path() + ".backup.*")
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	for _, path := range snapshots {
		if strings.HasSuffix(path, ".tmp") {
			continue
		}
		if info, ok := backupInfo(path, BackupKindSnapshot); ok {
			backups = append(backups, info)
		}
	}

	sort.SliceStable(backups, func(i, j int) bool {
		return backups[i].ModifiedAt.After(backups[j].ModifiedAt)
	})

	return backups, nil
}

func (bm *BackupManager) defaultPath() string {
	now := bm.now()
	path := filepath.Join(bm.backupsDir, fmt.Sprintf("%s-%s.db", bm.prefix, now.Format("2006-01-02")))
	if _, err := os.Stat(path); err == nil {
		path = filepath.Join(bm.backupsDir, fmt.Sprintf("%s-%s.db", bm.prefix, now.Format("2006-01-02-150405")))
	}
	return path
}

func backupInfo(path string, kind BackupKind) (BackupInfo, bool) {
	stat, err := os.Stat(path)
	if err != nil {
		slog.Debug("skipping unreadable backup", "path", path, "error", err)
		return BackupInfo{}, false
	}
	return BackupInfo{
		Name:       filepath.Base(path),
		Path:       path,
		Kind:       kind,
		Size:       stat.Size(),
		ModifiedAt: stat.ModTime(),
	}, true
}

// verifyLedgerFile checks that path is an intact SQLite file holding the
// ledger tables.
func verifyLedgerFile(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite3", path+dsnOptions)
	if err != nil {
		return err
	}
	defer closeQuietly(db)

	if err := checkIntegrity(ctx, db); err != nil {
		return err
	}

	var tables int
	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM sqlite_master
		WHERE type = 'table' AND name IN ('income', 'expense', 'category')`).Scan(&tables)
	if err != nil {
		return fmt.Errorf("failed to inspect tables: %w", err)
	}
	if tables != 3 {
		return fmt.Errorf("file is not a ledger database")
	}
	return nil
}

// copyFile copies src to dst through a temporary file and a rename.
func copyFile(src, dst string) error {
	src = filepath.Clean(src)
	dst = filepath.Clean(dst)
	tmpDst := dst + ".tmp"

	// #nosec G304 - src is a ledger or backup path chosen by the user
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := source.Close(); closeErr != nil {
			slog.Error("failed to close source file", "error", closeErr)
		}
	}()

	// #nosec G304 - tmpDst is derived from dst above
	destination, err := os.OpenFile(tmpDst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destination, source); err != nil {
		if closeErr := destination.Close(); closeErr != nil {
			slog.Error("failed to close destination file after copy error", "error", closeErr)
		}
		if rmErr := os.Remove(tmpDst); rmErr != nil {
			slog.Error("failed to remove temporary file after copy error", "error", rmErr)
		}
		return err
	}

	if err := destination.Close(); err != nil {
		if removeErr := os.Remove(tmpDst); removeErr != nil {
			slog.Error("failed to remove temporary file after close error", "error", removeErr)
		}
		return err
	}

	return os.Rename(tmpDst, dst)
}
