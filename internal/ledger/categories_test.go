package ledger

import (
	"context"
	"testing"

	"github.com/Veraticus/tithe/internal/common"
	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/testutil"
	"github.com/Veraticus/tithe/internal/testutil/categories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_Hierarchy(t *testing.T) {
	db := testutil.SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
		return b.WithFixture(categories.FixtureChurch)
	})
	svc := NewCategoryService(db.Storage)

	incomeType := model.CategoryTypeIncome
	nodes, err := svc.Hierarchy(context.Background(), &incomeType)
	require.NoError(t, err)

	assert.Equal(t, []model.CategoryNode{
		{Type: model.CategoryTypeIncome, MainCategory: "기타수입", SubCategories: []string{"이자"}},
		{Type: model.CategoryTypeIncome, MainCategory: "헌금", SubCategories: []string{"감사헌금", "건축헌금", "선교헌금", "십일조", "주일헌금"}},
	}, nodes)

	all, err := svc.Hierarchy(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, model.CategoryTypeExpense, all[2].Type)
	assert.Equal(t, "관리비", all[2].MainCategory)
	assert.Equal(t, []string{"가스", "수도", "전기"}, all[2].SubCategories)
}

func TestBuildHierarchy_DeduplicatesAndDropsEmpty(t *testing.T) {
	rows := []model.Category{
		{Type: model.CategoryTypeExpense, MainCategory: "관리비"},
		{Type: model.CategoryTypeExpense, MainCategory: "관리비", SubCategory: "전기"},
		{Type: model.CategoryTypeExpense, MainCategory: "관리비", SubCategory: "전기"},
		{Type: model.CategoryTypeExpense, MainCategory: "선교비"},
		{Type: model.CategoryTypeIncome, MainCategory: "선교비", SubCategory: "후원, 기타"},
	}

	nodes := buildHierarchy(rows)
	require.Len(t, nodes, 3)
	assert.Equal(t, []string{"전기"}, nodes[0].SubCategories)
	assert.Empty(t, nodes[1].SubCategories)
	assert.NotNil(t, nodes[1].SubCategories)
	assert.Equal(t, model.CategoryTypeIncome, nodes[2].Type)
	assert.Equal(t, []string{"후원, 기타"}, nodes[2].SubCategories)

	assert.Empty(t, buildHierarchy(nil))
}

func TestCategoryService_CRUD(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewCategoryService(db.Storage)
	ctx := context.Background()

	added, err := svc.Add(ctx, model.CategoryTypeIncome, "헌금", "부활절헌금")
	require.NoError(t, err)

	_, err = svc.Add(ctx, model.CategoryTypeIncome, "헌금", "부활절헌금")
	assert.ErrorIs(t, err, common.ErrDuplicateCategory)

	ok, err := svc.Update(ctx, added.ID, model.CategoryTypeIncome, "헌금", "성탄절헌금")
	require.NoError(t, err)
	assert.True(t, ok)

	subs, err := svc.SubCategories(ctx, model.CategoryTypeIncome, "헌금")
	require.NoError(t, err)
	assert.Equal(t, []string{"성탄절헌금"}, subs)

	mains, err := svc.MainCategories(ctx, model.CategoryTypeIncome)
	require.NoError(t, err)
	assert.Equal(t, []string{"헌금"}, mains)

	ok, err = svc.Delete(ctx, added.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Update(ctx, added.ID, model.CategoryTypeIncome, "헌금", "x")
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := svc.ListAll(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}
