package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBackupManager(t *testing.T, store *SQLiteStorage) *BackupManager {
	t.Helper()
	bm, err := NewBackupManager(store, filepath.Join(t.TempDir(), "backups"), "wonjufgcc")
	require.NoError(t, err)
	bm.now = func() time.Time { return time.Date(2024, 3, 10, 9, 30, 0, 0, time.Local) }
	return bm
}

func TestBackup_DefaultName(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	bm := createTestBackupManager(t, store)

	path, err := bm.Backup(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(bm.Dir(), "wonjufgcc-2024-03-10.db"), path)

	second, err := bm.Backup(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(bm.Dir(), "wonjufgcc-2024-03-10-093000.db"), second)

	require.NoError(t, verifyLedgerFile(ctx, path))
}

func TestBackup_ExplicitDestination(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	bm := createTestBackupManager(t, store)

	dest := filepath.Join(t.TempDir(), "nested", "copy.db")
	path, err := bm.Backup(ctx, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, path)
	assert.FileExists(t, dest)

	_, err = bm.Backup(ctx, store.Path())
	assert.ErrorIs(t, err, ErrBackupSelf)
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	bm := createTestBackupManager(t, store)

	seedIncome(t, store)
	_, err := store.AddCategory(ctx, income("헌금", "십일조"))
	require.NoError(t, err)

	backupPath, err := bm.Backup(ctx, "")
	require.NoError(t, err)

	// Changes made after the backup are rolled back by the restore.
	_, err = store.AddExpense(ctx, model.Expense{
		Date: mustDate(t, "2024-03-11"), MainCategory: "관리비", SubCategory: "가스", Amount: 30000,
	})
	require.NoError(t, err)
	_, err = store.DeleteIncome(ctx, 1)
	require.NoError(t, err)

	snapshot, err := bm.Restore(ctx, backupPath)
	require.NoError(t, err)
	require.NotEmpty(t, snapshot)
	assert.FileExists(t, snapshot)
	assert.Contains(t, snapshot, store.Path()+".backup.")

	incomeRows, err := store.ListIncome(ctx, emptyFilter())
	require.NoError(t, err)
	assert.Len(t, incomeRows, 5)

	expenseRows, err := store.ListExpense(ctx, emptyFilter())
	require.NoError(t, err)
	assert.Empty(t, expenseRows)

	categories, err := store.ListCategories(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, categories, 1)

	// The pre-restore snapshot still holds the newer state.
	previous, err := NewSQLiteStorage(ctx, filepath.Join(t.TempDir(), "previous.db"))
	require.NoError(t, err)
	defer func() { _ = previous.Close() }()
	require.NoError(t, previous.Close())
	require.NoError(t, copyFile(snapshot, previous.Path()))
	previousExpenses, err := previous.ListExpense(ctx, emptyFilter())
	require.NoError(t, err)
	assert.Len(t, previousExpenses, 1)
}

func TestRestore_Errors(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	bm := createTestBackupManager(t, store)

	t.Run("missing source", func(t *testing.T) {
		_, err := bm.Restore(ctx, filepath.Join(t.TempDir(), "missing.db"))
		assert.ErrorIs(t, err, ErrBackupNotFound)
	})

	t.Run("not a ledger", func(t *testing.T) {
		junk := filepath.Join(t.TempDir(), "junk.db")
		require.NoError(t, os.WriteFile(junk, []byte("definitely not sqlite, just some text padding it out"), 0600))
		_, err := bm.Restore(ctx, junk)
		assert.ErrorIs(t, err, ErrBackupCorrupted)
	})

	t.Run("restoring the live file", func(t *testing.T) {
		_, err := bm.Restore(ctx, store.Path())
		assert.ErrorIs(t, err, ErrBackupSelf)
	})

	assert.True(t, store.HealthCheck(ctx), "failed restores leave the ledger usable")
}

func TestBackupList(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	bm := createTestBackupManager(t, store)

	path, err := bm.Backup(ctx, "")
	require.NoError(t, err)
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	snapshot, err := bm.Restore(ctx, path)
	require.NoError(t, err)

	backups, err := bm.List(ctx)
	require.NoError(t, err)
	require.Len(t, backups, 2)

	assert.Equal(t, snapshot, backups[0].Path)
	assert.Equal(t, BackupKindSnapshot, backups[0].Kind)
	assert.Equal(t, path, backups[1].Path)
	assert.Equal(t, BackupKindManual, backups[1].Kind)
	assert.Positive(t, backups[1].Size)
}
