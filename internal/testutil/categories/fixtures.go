package categories

// Fixture represents a predefined set of categories for testing.
type Fixture interface {
	// Name returns the fixture's descriptive name.
	Name() string

	// Categories returns the category keys included in this fixture.
	Categories() []Key
}

// fixture implements the Fixture interface.
type fixture struct {
	name       string
	categories []Key
}

func (f *fixture) Name() string      { return f.name }
func (f *fixture) Categories() []Key { return f.categories }

// Predefined fixtures for common test scenarios.
var (
	// FixtureMinimal has one income and one expense category.
	FixtureMinimal = &fixture{
		name: "Minimal",
		categories: []Key{
			Income("헌금", "주일헌금"),
			Expense("관리비", "전기"),
		},
	}

	// FixtureChurch mirrors the taxonomy of a small congregation, including
	// main-category header rows.
	FixtureChurch = &fixture{
		name: "Church",
		categories: []Key{
			Income("헌금", ""),
			Income("헌금", "주일헌금"),
			Income("헌금", "십일조"),
			Income("헌금", "감사헌금"),
			Income("헌금", "선교헌금"),
			Income("헌금", "건축헌금"),
			Income("기타수입", ""),
			Income("기타수입", "이자"),
			Expense("관리비", ""),
			Expense("관리비", "전기"),
			Expense("관리비", "가스"),
			Expense("관리비", "수도"),
			Expense("선교비", "국내"),
			Expense("선교비", "해외"),
			Expense("사역비", "교육"),
			Expense("사역비", "행사"),
		},
	}
)

// CompositeFixture allows combining multiple fixtures.
type CompositeFixture struct {
	name     string
	fixtures []Fixture
}

// NewCompositeFixture creates a fixture that combines multiple fixtures.
func NewCompositeFixture(name string, fixtures ...Fixture) Fixture {
	return &CompositeFixture{name: name, fixtures: fixtures}
}

func (c *CompositeFixture) Name() string { return c.name }

func (c *CompositeFixture) Categories() []Key {
	seen := make(map[Key]struct{})
	var keys []Key

	for _, f := range c.fixtures {
		for _, key := range f.Categories() {
			if _, exists := seen[key]; !exists {
				seen[key] = struct{}{}
				keys = append(keys, key)
			}
		}
	}

	return keys
}
