package ledger

import (
	"context"
	"testing"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(totals []service.PersonTotal) []string {
	out := make([]string, len(totals))
	for i, t := range totals {
		out[i] = t.Name
	}
	return out
}

func TestPersonSummary_Simple(t *testing.T) {
	l := newFixtureLedger(t)
	ctx := context.Background()

	start := date(t, "2024-01-01")
	totals, err := l.reports.PersonSummary(ctx, PersonQuery{StartDate: &start})
	require.NoError(t, err)

	assert.Equal(t, []service.PersonTotal{
		{Name: "김철수", TotalAmount: 37000, Count: 3},
		{Name: "무명", TotalAmount: 30000, Count: 1},
		{Name: "박민수", TotalAmount: 5000, Count: 1},
		{Name: "이영희", TotalAmount: 400000, Count: 2},
	}, totals)
}

func TestPersonSummary_ExcludeAnonymous(t *testing.T) {
	l := newFixtureLedger(t)
	ctx := context.Background()

	totals, err := l.reports.PersonSummary(ctx, PersonQuery{ExcludeAnonymous: true})
	require.NoError(t, err)

	assert.NotContains(t, names(totals), model.AnonymousName)
	assert.Len(t, totals, 3)
}

func TestPersonSummary_Sorting(t *testing.T) {
	l := newFixtureLedger(t)
	ctx := context.Background()
	start := date(t, "2024-01-01")

	tests := []struct {
		name  string
		query PersonQuery
		want  []string
	}{
		{
			name:  "total descending",
			query: PersonQuery{StartDate: &start, SortBy: SortByTotal, Descending: true},
			want:  []string{"이영희", "김철수", "무명", "박민수"},
		},
		{
			name:  "total ascending",
			query: PersonQuery{StartDate: &start, SortBy: SortByTotal},
			want:  []string{"박민수", "무명", "김철수", "이영희"},
		},
		{
			name:  "name descending",
			query: PersonQuery{StartDate: &start, SortBy: SortByName, Descending: true},
			want:  []string{"이영희", "박민수", "무명", "김철수"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals, err := l.reports.PersonSummary(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(totals))
		})
	}
}

func TestPersonSummary_Detailed(t *testing.T) {
	l := newFixtureLedger(t)
	ctx := context.Background()

	start := date(t, "2024-01-01")
	totals, err := l.reports.PersonSummary(ctx, PersonQuery{StartDate: &start, Detailed: true, ExcludeAnonymous: true})
	require.NoError(t, err)

	assert.Equal(t, []service.PersonTotal{
		{Name: "김철수", MainCategory: "헌금", SubCategory: "주일헌금", TotalAmount: 37000, Count: 3},
		{Name: "박민수", MainCategory: "헌금", SubCategory: "주일헌금", TotalAmount: 5000, Count: 1},
		{Name: "이영희", MainCategory: "헌금", SubCategory: "십일조", TotalAmount: 400000, Count: 2},
	}, totals)
}

func TestAggregatePersons_DefaultDetailedOrder(t *testing.T) {
	rows := []model.Income{
		{Name1: "홍길동", MainCategory: "헌금", SubCategory: "주일헌금", Amount: 1000},
		{Name1: "홍길동", MainCategory: "헌금", SubCategory: "십일조", Amount: 9000},
		{Name1: "홍길동", MainCategory: "기타", SubCategory: "", Amount: 500},
		{Name1: "", MainCategory: "헌금", SubCategory: "감사헌금", Amount: 700},
	}

	totals := aggregatePersons(rows, true, false)
	sortPersons(totals, PersonQuery{Detailed: true})

	assert.Equal(t, []service.PersonTotal{
		{Name: "(미분류)", MainCategory: "헌금", SubCategory: "감사헌금", TotalAmount: 700, Count: 1},
		{Name: "홍길동", MainCategory: "기타", SubCategory: "(미분류)", TotalAmount: 500, Count: 1},
		{Name: "홍길동", MainCategory: "헌금", SubCategory: "십일조", TotalAmount: 9000, Count: 1},
		{Name: "홍길동", MainCategory: "헌금", SubCategory: "주일헌금", TotalAmount: 1000, Count: 1},
	}, totals)
}

func TestDonorNames(t *testing.T) {
	totals := []service.PersonTotal{
		{Name: "김철수", SubCategory: "주일헌금"},
		{Name: model.AnonymousName},
		{Name: "김철수", SubCategory: "십일조"},
		{Name: "이영희"},
	}

	assert.Equal(t, []string{"김철수", "이영희"}, DonorNames(totals))
	assert.Empty(t, DonorNames(nil))
}

func TestSearchPerson(t *testing.T) {
	l := newFixtureLedger(t)
	ctx := context.Background()

	start := date(t, "2024-01-01")
	ledger, err := l.reports.SearchPerson(ctx, " 김철수 ", &start, nil)
	require.NoError(t, err)

	assert.Equal(t, "김철수", ledger.Name)
	require.Len(t, ledger.Entries, 3)
	assert.Equal(t, int64(37000), ledger.Total)
	assert.Equal(t, "2024-03-17", model.FormatDate(ledger.Entries[0].Date))

	_, err = l.reports.SearchPerson(ctx, "  ", nil, nil)
	assert.ErrorIs(t, err, model.ErrInvalidEntry)
}

func TestParsePersonSortColumn(t *testing.T) {
	col, err := ParsePersonSortColumn("TOTAL")
	require.NoError(t, err)
	assert.Equal(t, SortByTotal, col)

	col, err = ParsePersonSortColumn("")
	require.NoError(t, err)
	assert.Equal(t, SortDefault, col)

	_, err = ParsePersonSortColumn("amount")
	assert.Error(t, err)
}
