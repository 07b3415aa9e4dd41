// Package ledger implements the bookkeeping services on top of the storage
// contracts: category maintenance, income and expense entry, and reporting.
package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
)

// CategoryService maintains the income and expense category taxonomy.
type CategoryService struct {
	store service.CategoryStore
}

// NewCategoryService creates a category service backed by store.
func NewCategoryService(store service.CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

// ListAll returns every category, or only those of typ when it is non-nil.
func (s *CategoryService) ListAll(ctx context.Context, typ *model.CategoryType) ([]model.Category, error) {
	return s.store.ListCategories(ctx, typ)
}

// MainCategories returns the distinct main categories of typ.
func (s *CategoryService) MainCategories(ctx context.Context, typ model.CategoryType) ([]string, error) {
	return s.store.MainCategories(ctx, typ)
}

// SubCategories returns the sub categories filed under main.
func (s *CategoryService) SubCategories(ctx context.Context, typ model.CategoryType, main string) ([]string, error) {
	return s.store.SubCategories(ctx, typ, main)
}

// Hierarchy groups categories into one node per (type, main category), with
// de-duplicated, non-empty sub categories in lexical order.
func (s *CategoryService) Hierarchy(ctx context.Context, typ *model.CategoryType) ([]model.CategoryNode, error) {
	categories, err := s.store.ListCategories(ctx, typ)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return buildHierarchy(categories), nil
}

// buildHierarchy expects categories ordered by type, main and sub category.
func buildHierarchy(categories []model.Category) []model.CategoryNode {
	nodes := []model.CategoryNode{}
	var seen map[string]bool

	for _, c := range categories {
		last := len(nodes) - 1
		if last < 0 || nodes[last].Type != c.Type || nodes[last].MainCategory != c.MainCategory {
			nodes = append(nodes, model.CategoryNode{
				Type:          c.Type,
				MainCategory:  c.MainCategory,
				SubCategories: []string{},
			})
			seen = make(map[string]bool)
			last++
		}

		if c.SubCategory == "" || seen[c.SubCategory] {
			continue
		}
		seen[c.SubCategory] = true
		nodes[last].SubCategories = append(nodes[last].SubCategories, c.SubCategory)
	}

	return nodes
}

// Add creates a category. Leave sub empty to add a main-category header.
func (s *CategoryService) Add(ctx context.Context, typ model.CategoryType, main, sub string) (*model.Category, error) {
	category, err := s.store.AddCategory(ctx, model.Category{Type: typ, MainCategory: main, SubCategory: sub})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// Update renames the category with the given id. It reports false when the
// category does not exist.
func (s *CategoryService) Update(ctx context.Context, id int64, typ model.CategoryType, main, sub string) (bool, error) {
	updated, err := s.store.UpdateCategory(ctx, id, model.Category{Type: typ, MainCategory: main, SubCategory: sub})
	if err != nil {
		return false, err
	}
	if !updated {
		slog.Debug("category not found for update", "id", id)
	}
	return updated, nil
}

// Delete removes the category with the given id. Entries keep the names they
// were recorded with.
func (s *CategoryService) Delete(ctx context.Context, id int64) (bool, error) {
	return s.store.DeleteCategory(ctx, id)
}
