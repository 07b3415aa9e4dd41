package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncomeValidate(t *testing.T) {
	valid := Income{
		Date:         time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		MainCategory: "헌금",
		SubCategory:  "주일헌금",
		Name1:        "김철수",
		Amount:       10000,
	}

	tests := []struct {
		mutate  func(*Income)
		name    string
		wantErr bool
	}{
		{name: "valid", mutate: func(*Income) {}},
		{name: "zero amount", mutate: func(i *Income) { i.Amount = 0 }, wantErr: true},
		{name: "negative amount", mutate: func(i *Income) { i.Amount = -5 }, wantErr: true},
		{name: "missing date", mutate: func(i *Income) { i.Date = time.Time{} }, wantErr: true},
		{name: "missing sub", mutate: func(i *Income) { i.SubCategory = " " }, wantErr: true},
		{name: "missing name", mutate: func(i *Income) { i.Name1 = "" }, wantErr: true},
		{name: "anonymous needs no name", mutate: func(i *Income) { i.Name1 = ""; i.MarkAnonymous() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			income := valid
			tt.mutate(&income)
			err := income.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidEntry)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMarkAnonymous(t *testing.T) {
	income := Income{Name1: "김철수", Name2: "이영희"}
	income.MarkAnonymous()

	assert.Equal(t, AnonymousName, income.Name1)
	assert.Empty(t, income.Name2)
	assert.True(t, income.IsAnonymous())
}

func TestExpenseValidate(t *testing.T) {
	expense := Expense{Date: time.Now(), MainCategory: "관리비", SubCategory: "전기", Amount: 1}
	assert.NoError(t, expense.Validate())

	expense.MainCategory = ""
	assert.ErrorIs(t, expense.Validate(), ErrInvalidEntry)
}

func TestDates(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", FormatDate(d))

	_, err = ParseDate("2024/02/29")
	assert.Error(t, err)

	ts := ParseTimestamp("2024-03-10 09:30:00")
	assert.Equal(t, 9, ts.Hour())
	assert.True(t, ParseTimestamp("").IsZero())
	assert.True(t, ParseTimestamp("garbage").IsZero())
}

func TestParseCategoryType(t *testing.T) {
	tests := map[string]CategoryType{
		"income":  CategoryTypeIncome,
		"Income":  CategoryTypeIncome,
		"수입":      CategoryTypeIncome,
		"expense": CategoryTypeExpense,
		"지출":      CategoryTypeExpense,
	}
	for input, want := range tests {
		got, err := ParseCategoryType(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
	}

	_, err := ParseCategoryType("transfer")
	assert.Error(t, err)

	assert.Equal(t, "income", CategoryTypeIncome.String())
	assert.True(t, CategoryTypeExpense.Valid())
	assert.False(t, CategoryType("system").Valid())
}
