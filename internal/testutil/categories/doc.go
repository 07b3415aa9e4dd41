// Package categories provides test infrastructure for seeding the category
// taxonomy. It offers a fluent builder and predefined fixtures.
//
// # Basic Usage
//
//	func TestMyFeature(t *testing.T) {
//		db := testutil.SetupTestDBWithBuilder(t, func(b categories.Builder) categories.Builder {
//			return b.WithFixture(categories.FixtureChurch)
//		})
//
//		tithe := db.Categories.MustFind(t, categories.Income("헌금", "십일조"))
//		_ = tithe
//	}
//
// Keys are built with Income and Expense; an empty sub category stands for a
// main-category header row.
package categories
