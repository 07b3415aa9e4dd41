package categories_test

import (
	"context"
	"testing"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/testutil"
	"github.com/Veraticus/tithe/internal/testutil/categories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_WithCategory(t *testing.T) {
	db := testutil.SetupTestDB(t, categories.Income("헌금", "십일조"))

	cats, err := db.Storage.ListCategories(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "십일조", cats[0].SubCategory)
	assert.Equal(t, cats[0].ID, db.MustGetCategory(categories.Income("헌금", "십일조")))
}

func TestBuilder_DeduplicatesKeys(t *testing.T) {
	db := testutil.SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
		return b.
			WithFixture(categories.FixtureMinimal).
			WithCategory(categories.Income("헌금", "주일헌금"))
	})

	assert.Len(t, db.Categories, 2)
}

func TestFixtureChurch(t *testing.T) {
	db := testutil.SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
		return b.WithFixture(categories.FixtureChurch)
	})

	incomeType := model.CategoryTypeIncome
	cats, err := db.Storage.ListCategories(context.Background(), &incomeType)
	require.NoError(t, err)
	assert.Len(t, cats, 8)

	header := db.Categories.MustFind(t, categories.Income("헌금", ""))
	assert.True(t, header.IsHeader())
	assert.Nil(t, db.Categories.Find(categories.Expense("헌금", "")))
}

func TestCompositeFixture(t *testing.T) {
	composite := categories.NewCompositeFixture("both", categories.FixtureMinimal, categories.FixtureChurch)
	assert.Equal(t, "both", composite.Name())
	assert.Len(t, composite.Categories(), len(categories.FixtureChurch.Categories()))
}
