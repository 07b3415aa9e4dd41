package categories

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
)

// Builder provides a fluent interface for constructing test categories.
type Builder interface {
	// WithCategory adds a single category to the builder.
	WithCategory(key Key) Builder

	// WithCategories adds multiple categories to the builder.
	WithCategories(keys ...Key) Builder

	// WithFixture adds categories from a predefined fixture.
	WithFixture(fixture Fixture) Builder

	// Build creates the categories in the provided store and returns them.
	Build(ctx context.Context, store service.CategoryStore) (Categories, error)
}

// Key identifies a category by type, main and sub category. An empty Sub is a
// main-category header.
type Key struct {
	Type model.CategoryType
	Main string
	Sub  string
}

// Income returns the key of an income category.
func Income(main, sub string) Key {
	return Key{Type: model.CategoryTypeIncome, Main: main, Sub: sub}
}

// Expense returns the key of an expense category.
func Expense(main, sub string) Key {
	return Key{Type: model.CategoryTypeExpense, Main: main, Sub: sub}
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Type.String(), k.Main, k.Sub)
}

func (k Key) less(o Key) bool {
	if k.Type != o.Type {
		return k.Type < o.Type
	}
	if k.Main != o.Main {
		return k.Main < o.Main
	}
	return k.Sub < o.Sub
}

// Categories represents a collection of created test categories.
type Categories []model.Category

// Find returns the category with the given key, or nil if not found.
func (c Categories) Find(key Key) *model.Category {
	for i := range c {
		if c[i].Type == key.Type && c[i].MainCategory == key.Main && c[i].SubCategory == key.Sub {
			return &c[i]
		}
	}
	return nil
}

// MustFind returns the category with the given key, or fails the test if not found.
func (c Categories) MustFind(t *testing.T, key Key) model.Category {
	t.Helper()
	cat := c.Find(key)
	if cat == nil {
		t.Fatalf("category %s not found in test data", key)
	}
	return *cat
}

// categoryBuilder implements the Builder interface.
type categoryBuilder struct {
	t          *testing.T
	categories map[Key]struct{}
}

// NewBuilder creates a new category builder for the given test.
func NewBuilder(t *testing.T) Builder {
	t.Helper()
	return &categoryBuilder{
		t:          t,
		categories: make(map[Key]struct{}),
	}
}

func (b *categoryBuilder) WithCategory(key Key) Builder {
	b.categories[key] = struct{}{}
	return b
}

func (b *categoryBuilder) WithCategories(keys ...Key) Builder {
	for _, key := range keys {
		b.categories[key] = struct{}{}
	}
	return b
}

func (b *categoryBuilder) WithFixture(fixture Fixture) Builder {
	return b.WithCategories(fixture.Categories()...)
}

func (b *categoryBuilder) Build(ctx context.Context, store service.CategoryStore) (Categories, error) {
	b.t.Helper()

	keys := make([]Key, 0, len(b.categories))
	for key := range b.categories {
		keys = append(keys, key)
	}
	// Insert in a stable order so ids are reproducible across runs.
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	result := make(Categories, 0, len(keys))
	for _, key := range keys {
		created, err := store.AddCategory(ctx, model.Category{Type: key.Type, MainCategory: key.Main, SubCategory: key.Sub})
		if err != nil {
			return nil, fmt.Errorf("failed to create category %s: %w", key, err)
		}
		result = append(result, *created)
	}

	return result, nil
}
