package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleWeekly() *service.WeeklyReport {
	return &service.WeeklyReport{
		StartDate: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Income: service.SideSummary{
			Items: []service.CategoryTotal{
				{MainCategory: "헌금", SubCategory: "십일조", TotalAmount: 200000, Count: 1},
				{MainCategory: "헌금", SubCategory: "주일헌금", TotalAmount: 20000, Count: 2},
			},
			Total: 220000,
		},
		Expense: service.SideSummary{
			Items: []service.CategoryTotal{{MainCategory: "관리비", SubCategory: "가스", TotalAmount: 40000, Count: 1}},
			Total: 40000,
		},
		Balance:        180000,
		CarryOver:      130000,
		ClosingBalance: 310000,
	}
}

func TestWritePersonsCSV(t *testing.T) {
	totals := []service.PersonTotal{
		{Name: "김철수", MainCategory: "헌금", SubCategory: "주일헌금", TotalAmount: 37000, Count: 3},
		{Name: "이영희", MainCategory: "헌금", SubCategory: "십일조", TotalAmount: 400000, Count: 2},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePersonsCSV(&buf, totals, false))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))
	assert.Equal(t, "이름,총액,건수\n김철수,37000,3\n이영희,400000,2\n", buf.String()[len(utf8BOM):])

	buf.Reset()
	require.NoError(t, WritePersonsCSV(&buf, totals, true))
	lines := strings.Split(strings.TrimSpace(buf.String()[len(utf8BOM):]), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "이름,대분류,하위 항목,총액,건수", lines[0])
	assert.Equal(t, "김철수,헌금,주일헌금,37000,3", lines[1])
}

func TestWriteWeeklyCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWeeklyCSV(&buf, sampleWeekly()))

	out := buf.String()[len(utf8BOM):]
	assert.Contains(t, out, "기간,2024-03-04 ~ 2024-03-10\n")
	assert.Contains(t, out, "수입,헌금,십일조,200000,1\n")
	assert.Contains(t, out, "지출,관리비,가스,40000,1\n")
	assert.Contains(t, out, "차기 이월,,,310000,\n")
}

func TestIncomeCSVRoundTrip(t *testing.T) {
	entries := []model.Income{
		{Date: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), MainCategory: "헌금", SubCategory: "주일헌금",
			Name1: "김철수", Name2: "이영희", Amount: 10000, Memo: "1부, 예배"},
		{Date: time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC), MainCategory: "헌금", SubCategory: "감사헌금",
			Name1: model.AnonymousName, Amount: 30000},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteIncomeCSV(&buf, entries))

	got, err := ReadIncomeCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestReadIncomeCSV_Layouts(t *testing.T) {
	input := "\xEF\xBB\xBFAmount, Date,main_category,sub_category,name1\n\"12,000\",2024-03-10,헌금,주일헌금,박민수\n"

	got, err := ReadIncomeCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(12000), got[0].Amount)
	assert.Equal(t, "박민수", got[0].Name1)
	assert.Empty(t, got[0].Memo)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "missing column", input: "date,main_category,amount\n2024-03-10,관리비,100\n"},
		{name: "bad date", input: "date,main_category,sub_category,amount\n2024/03/10,관리비,전기,100\n"},
		{name: "bad amount", input: "date,main_category,sub_category,amount\n2024-03-10,관리비,전기,abc\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadExpenseCSV(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrMalformedCSV)
		})
	}
}

func TestExpenseCSVRoundTrip(t *testing.T) {
	entries := []model.Expense{
		{Date: time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), MainCategory: "관리비", SubCategory: "전기", Amount: 70000, Memo: "3월분"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteExpenseCSV(&buf, entries))

	got, err := ReadExpenseCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func rawCell(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func TestWeeklyWorkbook(t *testing.T) {
	f, err := WeeklyWorkbook(sampleWeekly())
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{WeeklySheet}, f.GetSheetList())
	assert.Equal(t, "2024-03-04 ~ 2024-03-10", rawCell(t, f, WeeklySheet, "B1"))
	assert.Equal(t, "수입 대분류", rawCell(t, f, WeeklySheet, "A3"))
	assert.Equal(t, "200000", rawCell(t, f, WeeklySheet, "C4"))
	assert.Equal(t, "220000", rawCell(t, f, WeeklySheet, "C6"))

	rows, err := f.GetRows(WeeklySheet)
	require.NoError(t, err)
	last := rows[len(rows)-1]
	assert.Equal(t, "차기 이월", last[0])
}

func TestYearlyWorkbook(t *testing.T) {
	report := &service.YearlyReport{
		Year: 2024,
		Income: service.YearlySide{
			Monthly:    []service.MonthTotal{{Month: "01", TotalAmount: 10000, Count: 1}, {Month: "03", TotalAmount: 262000, Count: 5}},
			ByCategory: []service.CategoryTotal{{MainCategory: "헌금", SubCategory: "십일조", TotalAmount: 272000, Count: 6}},
			Total:      272000,
		},
		Expense: service.YearlySide{
			Monthly: []service.MonthTotal{{Month: "03", TotalAmount: 2000, Count: 1}},
			Total:   2000,
		},
		Balance: 270000,
	}

	f, err := YearlyWorkbook(report)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{YearlyMonthlySheet, YearlyIncomeSheet, YearlyExpenseSheet}, f.GetSheetList())
	assert.Equal(t, "2024년", rawCell(t, f, YearlyMonthlySheet, "A1"))
	assert.Equal(t, "10000", rawCell(t, f, YearlyMonthlySheet, "B2"))
	assert.Equal(t, "0", rawCell(t, f, YearlyMonthlySheet, "B3"))
	assert.Equal(t, "260000", rawCell(t, f, YearlyMonthlySheet, "D4"))
	assert.Equal(t, "합계", rawCell(t, f, YearlyMonthlySheet, "A14"))
	assert.Equal(t, "270000", rawCell(t, f, YearlyMonthlySheet, "D14"))
	assert.Equal(t, "십일조", rawCell(t, f, YearlyIncomeSheet, "B2"))
}

func TestPersonsWorkbook(t *testing.T) {
	totals := []service.PersonTotal{
		{Name: "김철수", TotalAmount: 37000, Count: 3},
		{Name: "이영희", TotalAmount: 400000, Count: 2},
	}

	f, err := PersonsWorkbook(totals, false)
	require.NoError(t, err)

	assert.Equal(t, "437000", rawCell(t, f, PersonsSheet, "B4"))

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(f, &buf))

	reopened, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	assert.Equal(t, "김철수", rawCell(t, reopened, PersonsSheet, "A2"))
}
