// Package testutil provides test utilities for the ledger packages.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/tithe/internal/storage"
	"github.com/Veraticus/tithe/internal/testutil/categories"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage    *storage.SQLiteStorage
	t          *testing.T
	Categories categories.Categories
}

// SetupTestDB creates a ledger in a temporary directory and seeds the given
// categories. The storage is closed when the test ends.
func SetupTestDB(t *testing.T, cats ...categories.Key) *TestDB {
	t.Helper()
	return SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
		return b.WithCategories(cats...)
	})
}

// SetupTestDBWithBuilder creates a test database using a category builder.
//
// Example:
//
//	db := testutil.SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
//		return b.WithFixture(categories.FixtureChurch)
//	})
func SetupTestDBWithBuilder(t *testing.T, configure func(categories.Builder) categories.Builder) *TestDB {
	t.Helper()

	builder := categories.NewBuilder(t)
	if configure != nil {
		builder = configure(builder)
	}

	ctx := context.Background()
	store, err := storage.NewSQLiteStorage(ctx, filepath.Join(t.TempDir(), "finance.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	cats, err := builder.Build(ctx, store)
	if err != nil {
		t.Fatalf("failed to build categories: %v", err)
	}

	return &TestDB{
		Storage:    store,
		Categories: cats,
		t:          t,
	}
}

// MustGetCategory returns the seeded category with the given key or fails the test.
func (db *TestDB) MustGetCategory(key categories.Key) int64 {
	db.t.Helper()
	return db.Categories.MustFind(db.t, key).ID
}
