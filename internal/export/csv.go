// Package export reads and writes ledger data in spreadsheet-friendly formats.
package export

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
)

// utf8BOM makes spreadsheet programs detect UTF-8 when opening the file.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrMalformedCSV is returned for CSV input that does not match the expected layout.
var ErrMalformedCSV = errors.New("malformed csv")

// Column layouts shared by the entry readers and writers.
var (
	IncomeColumns  = []string{"date", "main_category", "sub_category", "name1", "name2", "amount", "memo"}
	ExpenseColumns = []string{"date", "main_category", "sub_category", "amount", "memo"}
)

// WritePersonsCSV writes a person summary with a UTF-8 byte order mark. The
// category columns are included only for detailed summaries.
func WritePersonsCSV(w io.Writer, totals []service.PersonTotal, detailed bool) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write byte order mark: %w", err)
	}

	cw := csv.NewWriter(w)
	header := []string{"이름", "총액", "건수"}
	if detailed {
		header = []string{"이름", "대분류", "하위 항목", "총액", "건수"}
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, t := range totals {
		record := []string{t.Name}
		if detailed {
			record = append(record, t.MainCategory, t.SubCategory)
		}
		record = append(record, strconv.FormatInt(t.TotalAmount, 10), strconv.Itoa(t.Count))
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", t.Name, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteWeeklyCSV writes a weekly report as one table with a side column, then
// the summary lines.
func WriteWeeklyCSV(w io.Writer, report *service.WeeklyReport) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write byte order mark: %w", err)
	}

	cw := csv.NewWriter(w)
	rows := [][]string{
		{"기간", model.FormatDate(report.StartDate) + " ~ " + model.FormatDate(report.EndDate)},
		{"구분", "대분류", "하위 항목", "금액", "건수"},
	}
	for _, item := range report.Income.Items {
		rows = append(rows, totalRow("수입", item))
	}
	for _, item := range report.Expense.Items {
		rows = append(rows, totalRow("지출", item))
	}
	rows = append(rows,
		[]string{"수입 합계", "", "", strconv.FormatInt(report.Income.Total, 10), ""},
		[]string{"지출 합계", "", "", strconv.FormatInt(report.Expense.Total, 10), ""},
		[]string{"차액", "", "", strconv.FormatInt(report.Balance, 10), ""},
		[]string{"전기 이월", "", "", strconv.FormatInt(report.CarryOver, 10), ""},
		[]string{"차기 이월", "", "", strconv.FormatInt(report.ClosingBalance, 10), ""},
	)

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write weekly report: %w", err)
	}
	return nil
}

func totalRow(side string, item service.CategoryTotal) []string {
	return []string{side, item.MainCategory, item.SubCategory,
		strconv.FormatInt(item.TotalAmount, 10), strconv.Itoa(item.Count)}
}

// WriteIncomeCSV writes income entries in the IncomeColumns layout.
func WriteIncomeCSV(w io.Writer, entries []model.Income) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(IncomeColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write([]string{
			model.FormatDate(e.Date), e.MainCategory, e.SubCategory, e.Name1, e.Name2,
			strconv.FormatInt(e.Amount, 10), e.Memo,
		}); err != nil {
			return fmt.Errorf("failed to write income %d: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteExpenseCSV writes expense entries in the ExpenseColumns layout.
func WriteExpenseCSV(w io.Writer, entries []model.Expense) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExpenseColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write([]string{
			model.FormatDate(e.Date), e.MainCategory, e.SubCategory,
			strconv.FormatInt(e.Amount, 10), e.Memo,
		}); err != nil {
			return fmt.Errorf("failed to write expense %d: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadIncomeCSV parses income entries. The header row may list the columns in
// any order; name2 and memo are optional.
func ReadIncomeCSV(r io.Reader) ([]model.Income, error) {
	records, cols, err := readRecords(r, []string{"date", "main_category", "sub_category", "name1", "amount"})
	if err != nil {
		return nil, err
	}

	entries := make([]model.Income, 0, len(records))
	for i, rec := range records {
		line := i + 2
		date, amount, err := parseDateAmount(rec, cols, line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, model.Income{
			Date:         date,
			MainCategory: field(rec, cols, "main_category"),
			SubCategory:  field(rec, cols, "sub_category"),
			Name1:        field(rec, cols, "name1"),
			Name2:        field(rec, cols, "name2"),
			Amount:       amount,
			Memo:         field(rec, cols, "memo"),
		})
	}
	return entries, nil
}

// ReadExpenseCSV parses expense entries. memo is optional.
func ReadExpenseCSV(r io.Reader) ([]model.Expense, error) {
	records, cols, err := readRecords(r, []string{"date", "main_category", "sub_category", "amount"})
	if err != nil {
		return nil, err
	}

	entries := make([]model.Expense, 0, len(records))
	for i, rec := range records {
		line := i + 2
		date, amount, err := parseDateAmount(rec, cols, line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, model.Expense{
			Date:         date,
			MainCategory: field(rec, cols, "main_category"),
			SubCategory:  field(rec, cols, "sub_category"),
			Amount:       amount,
			Memo:         field(rec, cols, "memo"),
		})
	}
	return entries, nil
}

func readRecords(r io.Reader, required []string) ([][]string, map[string]int, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: missing header row", ErrMalformedCSV)
		}
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("%w: missing column %q", ErrMalformedCSV, name)
		}
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return records, cols, nil
}

func field(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseDateAmount(rec []string, cols map[string]int, line int) (date time.Time, amount int64, err error) {
	date, err = model.ParseDate(field(rec, cols, "date"))
	if err != nil {
		return date, 0, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, line, err)
	}
	raw := strings.ReplaceAll(field(rec, cols, "amount"), ",", "")
	amount, err = strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return date, 0, fmt.Errorf("%w: line %d: invalid amount %q", ErrMalformedCSV, line, field(rec, cols, "amount"))
	}
	return date, amount, nil
}
