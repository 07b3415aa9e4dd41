package export

import (
	"fmt"
	"io"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
	"github.com/xuri/excelize/v2"
)

// Sheet names used in generated workbooks.
const (
	WeeklySheet         = "주간보고"
	YearlyMonthlySheet  = "월별"
	YearlyIncomeSheet   = "수입 항목"
	YearlyExpenseSheet  = "지출 항목"
	PersonsSheet        = "인명별"
	defaultSheet        = "Sheet1"
	amountNumberFormat  = 3 // #,##0
	categoryColumnWidth = 18
)

type sheetWriter struct {
	f      *excelize.File
	sheet  string
	header int
	amount int
	row    int
	err    error
}

func newSheetWriter(f *excelize.File, sheet string) (*sheetWriter, error) {
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: amountNumberFormat})
	if err != nil {
		return nil, fmt.Errorf("failed to create amount style: %w", err)
	}
	return &sheetWriter{f: f, sheet: sheet, header: header, amount: amount}, nil
}

// writeRow appends a row. Columns listed in amountCols get the amount format.
func (w *sheetWriter) writeRow(values []any, bold bool, amountCols ...int) {
	if w.err != nil {
		return
	}
	w.row++
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, w.row)
		if err != nil {
			w.err = err
			return
		}
		if err := w.f.SetCellValue(w.sheet, cell, v); err != nil {
			w.err = fmt.Errorf("failed to set %s: %w", cell, err)
			return
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, w.row)
	last, _ := excelize.CoordinatesToCellName(len(values), w.row)
	if bold {
		w.err = w.f.SetCellStyle(w.sheet, first, last, w.header)
		return
	}
	for _, col := range amountCols {
		cell, _ := excelize.CoordinatesToCellName(col, w.row)
		if err := w.f.SetCellStyle(w.sheet, cell, cell, w.amount); err != nil {
			w.err = err
			return
		}
	}
}

func (w *sheetWriter) skip() {
	w.row++
}

// newWorkbook returns a file whose default sheet has been renamed to first.
func newWorkbook(first string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(defaultSheet, first); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to rename default sheet: %w", err)
	}
	return f, nil
}

// WeeklyWorkbook lays out a weekly report on a single sheet.
func WeeklyWorkbook(report *service.WeeklyReport) (*excelize.File, error) {
	f, err := newWorkbook(WeeklySheet)
	if err != nil {
		return nil, err
	}

	w, err := newSheetWriter(f, WeeklySheet)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	w.writeRow([]any{"기간", model.FormatDate(report.StartDate) + " ~ " + model.FormatDate(report.EndDate)}, true)
	w.skip()

	writeSide(w, "수입", report.Income)
	w.skip()
	writeSide(w, "지출", report.Expense)
	w.skip()

	w.writeRow([]any{"차액", "", report.Balance}, false, 3)
	w.writeRow([]any{"전기 이월", "", report.CarryOver}, false, 3)
	w.writeRow([]any{"차기 이월", "", report.ClosingBalance}, true)

	if w.err == nil {
		w.err = f.SetColWidth(WeeklySheet, "A", "B", categoryColumnWidth)
	}
	if w.err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to build weekly workbook: %w", w.err)
	}
	return f, nil
}

func writeSide(w *sheetWriter, label string, side service.SideSummary) {
	w.writeRow([]any{label + " 대분류", "하위 항목", "금액", "건수"}, true)
	for _, item := range side.Items {
		w.writeRow([]any{item.MainCategory, item.SubCategory, item.TotalAmount, item.Count}, false, 3)
	}
	w.writeRow([]any{label + " 합계", "", side.Total}, true)
}

// YearlyWorkbook writes the monthly table and one category sheet per side.
func YearlyWorkbook(report *service.YearlyReport) (*excelize.File, error) {
	f, err := newWorkbook(YearlyMonthlySheet)
	if err != nil {
		return nil, err
	}

	if err := writeYearly(f, report); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to build yearly workbook: %w", err)
	}
	return f, nil
}

func writeYearly(f *excelize.File, report *service.YearlyReport) error {
	monthly, err := newSheetWriter(f, YearlyMonthlySheet)
	if err != nil {
		return err
	}

	income := monthIndex(report.Income.Monthly)
	expense := monthIndex(report.Expense.Monthly)

	monthly.writeRow([]any{fmt.Sprintf("%d년", report.Year), "수입", "지출", "차액"}, true)
	for m := 1; m <= 12; m++ {
		key := fmt.Sprintf("%02d", m)
		in, out := income[key], expense[key]
		monthly.writeRow([]any{fmt.Sprintf("%d월", m), in, out, in - out}, false, 2, 3, 4)
	}
	monthly.writeRow([]any{"합계", report.Income.Total, report.Expense.Total, report.Balance}, true)
	if monthly.err != nil {
		return monthly.err
	}

	for _, side := range []struct {
		sheet string
		data  service.YearlySide
	}{
		{YearlyIncomeSheet, report.Income},
		{YearlyExpenseSheet, report.Expense},
	} {
		if _, err := f.NewSheet(side.sheet); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", side.sheet, err)
		}
		w, err := newSheetWriter(f, side.sheet)
		if err != nil {
			return err
		}
		w.writeRow([]any{"대분류", "하위 항목", "금액", "건수"}, true)
		for _, item := range side.data.ByCategory {
			w.writeRow([]any{item.MainCategory, item.SubCategory, item.TotalAmount, item.Count}, false, 3)
		}
		w.writeRow([]any{"합계", "", side.data.Total}, true)
		if w.err == nil {
			w.err = f.SetColWidth(side.sheet, "A", "B", categoryColumnWidth)
		}
		if w.err != nil {
			return w.err
		}
	}
	return nil
}

func monthIndex(months []service.MonthTotal) map[string]int64 {
	out := make(map[string]int64, len(months))
	for _, m := range months {
		out[m.Month] = m.TotalAmount
	}
	return out
}

// PersonsWorkbook writes a person summary to a single sheet.
func PersonsWorkbook(totals []service.PersonTotal, detailed bool) (*excelize.File, error) {
	f, err := newWorkbook(PersonsSheet)
	if err != nil {
		return nil, err
	}

	w, err := newSheetWriter(f, PersonsSheet)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	var sum int64
	if detailed {
		w.writeRow([]any{"이름", "대분류", "하위 항목", "총액", "건수"}, true)
		for _, t := range totals {
			w.writeRow([]any{t.Name, t.MainCategory, t.SubCategory, t.TotalAmount, t.Count}, false, 4)
			sum += t.TotalAmount
		}
		w.writeRow([]any{"합계", "", "", sum}, true)
	} else {
		w.writeRow([]any{"이름", "총액", "건수"}, true)
		for _, t := range totals {
			w.writeRow([]any{t.Name, t.TotalAmount, t.Count}, false, 2)
			sum += t.TotalAmount
		}
		w.writeRow([]any{"합계", sum}, true)
	}

	if w.err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to build persons workbook: %w", w.err)
	}
	return f, nil
}

// WriteWorkbook streams the workbook to w and closes it.
func WriteWorkbook(f *excelize.File, w io.Writer) error {
	defer func() { _ = f.Close() }()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
