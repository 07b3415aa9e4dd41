package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Veraticus/tithe/internal/common"
	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ReportWriter publishes reports to a spreadsheet.
type ReportWriter interface {
	WriteWeekly(ctx context.Context, report *service.WeeklyReport) error
	WriteYearly(ctx context.Context, report *service.YearlyReport) error
}

// Writer implements ReportWriter for Google Sheets. Each report gets its own
// tab, which is cleared and rewritten on every publish.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a new Google Sheets report writer.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newWriter(srv, config, logger), nil
}

func newWriter(srv *sheets.Service, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{service: srv, config: config, logger: logger}
}

// WeeklyTabTitle names the tab a weekly report is written to.
func WeeklyTabTitle(report *service.WeeklyReport) string {
	return "주간 " + model.FormatDate(report.EndDate)
}

// YearlyTabTitle names the tab a yearly report is written to.
func YearlyTabTitle(report *service.YearlyReport) string {
	return fmt.Sprintf("연간 %d", report.Year)
}

// WriteWeekly publishes a weekly report.
func (w *Writer) WriteWeekly(ctx context.Context, report *service.WeeklyReport) error {
	w.logger.Info("publishing weekly report",
		"start", model.FormatDate(report.StartDate),
		"end", model.FormatDate(report.EndDate))
	return w.publish(ctx, WeeklyTabTitle(report), WeeklyValues(report), 2)
}

// WriteYearly publishes a yearly report.
func (w *Writer) WriteYearly(ctx context.Context, report *service.YearlyReport) error {
	w.logger.Info("publishing yearly report", "year", report.Year)
	return w.publish(ctx, YearlyTabTitle(report), YearlyValues(report), 1)
}

func (w *Writer) publish(ctx context.Context, title string, values [][]any, amountColumn int64) error {
	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	var sheetID int64
	err = common.WithRetry(ctx, func() error {
		var tabErr error
		sheetID, tabErr = w.ensureTab(ctx, spreadsheetID, title)
		return classifyAPIError(tabErr)
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to prepare tab %q: %w", title, err)
	}

	err = common.WithRetry(ctx, func() error {
		return classifyAPIError(w.clearTab(ctx, spreadsheetID, title))
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to clear tab %q: %w", title, err)
	}

	err = common.WithRetry(ctx, func() error {
		return classifyAPIError(w.writeData(ctx, spreadsheetID, title, values))
	}, retryOpts)
	if err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return classifyAPIError(w.applyFormatting(ctx, spreadsheetID, sheetID, len(values), amountColumn))
		}, retryOpts)
		if err != nil {
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("report published",
		"spreadsheet_id", spreadsheetID,
		"tab", title,
		"rows_written", len(values))
	return nil
}

// classifyAPIError tells WithRetry which Sheets failures are worth another
// attempt: 429 is a rate limit, 5xx and transport errors are transient, and any
// other API status (bad request, permission denied, missing spreadsheet) is final.
func classifyAPIError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return common.Permanent(err)
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return common.Transient(err)
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code >= http.StatusInternalServerError:
		return common.Transient(err)
	default:
		return common.Permanent(err)
	}
}

func createSheetsService(ctx context.Context, config Config) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		client := oauthConfig(config.ClientID, config.ClientSecret, "")
		tokenSource = client.TokenSource(ctx, &oauth2.Token{
			RefreshToken: config.RefreshToken,
			TokenType:    "Bearer",
		})
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return srv, nil
}

func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		return w.config.SpreadsheetID, nil
	}

	created, err := w.service.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet",
		"id", created.SpreadsheetId,
		"url", created.SpreadsheetUrl)

	// Later publishes in this process reuse it.
	w.config.SpreadsheetID = created.SpreadsheetId
	return created.SpreadsheetId, nil
}

// ensureTab returns the sheet id of the named tab, adding the tab if needed.
func (w *Writer) ensureTab(ctx context.Context, spreadsheetID, title string) (int64, error) {
	ss, err := w.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to access spreadsheet %s: %w", spreadsheetID, err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return sh.Properties.SheetId, nil
		}
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to add tab: %w", err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return 0, fmt.Errorf("add tab %q returned no sheet properties", title)
	}

	w.logger.Debug("added tab", "title", title)
	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

func (w *Writer) clearTab(ctx context.Context, spreadsheetID, title string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, quoteTab(title), &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (w *Writer) writeData(ctx context.Context, spreadsheetID, title string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))

		batch := values[i:end]
		rangeStr := fmt.Sprintf("%s!A%d", quoteTab(title), i+1)
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, &sheets.ValueRange{Values: batch}).
			ValueInputOption("USER_ENTERED").
			Context(ctx).
			Do()
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}

		w.logger.Debug("wrote batch", "start_row", i+1, "rows", len(batch))
	}
	return nil
}

func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, sheetID int64, totalRows int, amountColumn int64) error {
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   4,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true, FontSize: 14},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    1,
					EndRowIndex:      int64(totalRows),
					StartColumnIndex: amountColumn,
					EndColumnIndex:   amountColumn + 3,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{Type: "NUMBER", Pattern: "#,##0"},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   5,
				},
			},
		},
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}

func quoteTab(title string) string {
	return "'" + title + "'"
}

// WeeklyValues lays out a weekly report as sheet rows.
func WeeklyValues(report *service.WeeklyReport) [][]any {
	values := make([][]any, 0, 12+len(report.Income.Items)+len(report.Expense.Items))
	values = append(values,
		[]any{"주간 재정 보고", model.FormatDate(report.StartDate) + " ~ " + model.FormatDate(report.EndDate)},
		[]any{},
		[]any{"수입", "하위 항목", "금액", "건수"},
	)
	for _, item := range report.Income.Items {
		values = append(values, []any{item.MainCategory, item.SubCategory, item.TotalAmount, item.Count})
	}
	values = append(values,
		[]any{"수입 합계", "", report.Income.Total},
		[]any{},
		[]any{"지출", "하위 항목", "금액", "건수"},
	)
	for _, item := range report.Expense.Items {
		values = append(values, []any{item.MainCategory, item.SubCategory, item.TotalAmount, item.Count})
	}
	values = append(values,
		[]any{"지출 합계", "", report.Expense.Total},
		[]any{},
		[]any{"차액", "", report.Balance},
		[]any{"전기 이월", "", report.CarryOver},
		[]any{"차기 이월", "", report.ClosingBalance},
	)
	return values
}

// YearlyValues lays out a yearly report as a month table followed by the
// category breakdown of each side.
func YearlyValues(report *service.YearlyReport) [][]any {
	income := make(map[string]int64, len(report.Income.Monthly))
	for _, m := range report.Income.Monthly {
		income[m.Month] = m.TotalAmount
	}
	expense := make(map[string]int64, len(report.Expense.Monthly))
	for _, m := range report.Expense.Monthly {
		expense[m.Month] = m.TotalAmount
	}

	values := [][]any{{fmt.Sprintf("%d년 재정 보고", report.Year), "수입", "지출", "차액"}}
	for m := 1; m <= 12; m++ {
		key := fmt.Sprintf("%02d", m)
		values = append(values, []any{fmt.Sprintf("%d월", m), income[key], expense[key], income[key] - expense[key]})
	}
	values = append(values, []any{"합계", report.Income.Total, report.Expense.Total, report.Balance})

	for _, side := range []struct {
		label string
		items []service.CategoryTotal
	}{
		{"수입 항목", report.Income.ByCategory},
		{"지출 항목", report.Expense.ByCategory},
	} {
		values = append(values, []any{}, []any{side.label, "하위 항목", "금액", "건수"})
		for _, item := range side.items {
			values = append(values, []any{item.MainCategory, item.SubCategory, item.TotalAmount, item.Count})
		}
	}
	return values
}
