package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/tithe/internal/cli"
	"github.com/Veraticus/tithe/internal/config"
	"github.com/Veraticus/tithe/internal/export"
	"github.com/Veraticus/tithe/internal/ledger"
	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/sheets"
	"github.com/spf13/cobra"
)

// newSheetsWriter builds the Google Sheets publisher from configuration.
var newSheetsWriter = func(ctx context.Context) (sheets.ReportWriter, error) {
	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		return nil, err
	}
	return sheets.NewWriter(ctx, *cfg, slog.Default())
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export reports and entries to CSV, Excel or Google Sheets",
	}

	cmd.AddCommand(exportWeeklyCmd())
	cmd.AddCommand(exportYearlyCmd())
	cmd.AddCommand(exportPersonsCmd())
	cmd.AddCommand(exportEntriesCmd(model.CategoryTypeIncome))
	cmd.AddCommand(exportEntriesCmd(model.CategoryTypeExpense))

	return cmd
}

func checkFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported format %q (want one of %v)", format, allowed)
}

func exportWeeklyCmd() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Export a weekly report",
		Example: `  tithe export weekly --sunday 2024-03-10 --format xlsx --output week.xlsx
  tithe export weekly --format sheets`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if err := checkFormat(format, "csv", "xlsx", "sheets"); err != nil {
				return err
			}
			start, end, err := reportPeriod(cmd)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			report, err := ledger.NewReportService(store).WeeklyReport(ctx, start, end)
			if err != nil {
				return err
			}

			switch format {
			case "sheets":
				writer, err := newSheetsWriter(ctx)
				if err != nil {
					return err
				}
				if err := writer.WriteWeekly(ctx, report); err != nil {
					return fmt.Errorf("failed to publish weekly report: %w", err)
				}
				printLine(cmd, cli.FormatSuccess("Published tab "+sheets.WeeklyTabTitle(report)))
				return nil
			case "xlsx":
				if output == "" {
					output = fmt.Sprintf("주간보고-%s.xlsx", model.FormatDate(report.EndDate))
				}
				return writeOutput(cmd, output, func(w io.Writer) error {
					f, err := export.WeeklyWorkbook(report)
					if err != nil {
						return err
					}
					return export.WriteWorkbook(f, w)
				})
			default:
				return writeOutput(cmd, output, func(w io.Writer) error {
					return export.WriteWeeklyCSV(w, report)
				})
			}
		},
	}

	addWeekFlags(cmd)
	cmd.Flags().StringVar(&format, "format", "csv", "output format (csv, xlsx, sheets)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout for csv)")

	return cmd
}

func exportYearlyCmd() *cobra.Command {
	var (
		format, output string
		year           int
	)

	cmd := &cobra.Command{
		Use:   "yearly",
		Short: "Export a yearly report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if err := checkFormat(format, "xlsx", "sheets"); err != nil {
				return err
			}
			if year == 0 {
				year = today().Year()
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			report, err := ledger.NewReportService(store).YearlyReport(ctx, year)
			if err != nil {
				return err
			}

			if format == "sheets" {
				writer, err := newSheetsWriter(ctx)
				if err != nil {
					return err
				}
				if err := writer.WriteYearly(ctx, report); err != nil {
					return fmt.Errorf("failed to publish yearly report: %w", err)
				}
				printLine(cmd, cli.FormatSuccess("Published tab "+sheets.YearlyTabTitle(report)))
				return nil
			}

			if output == "" {
				output = fmt.Sprintf("연간보고-%d.xlsx", year)
			}
			return writeOutput(cmd, output, func(w io.Writer) error {
				f, err := export.YearlyWorkbook(report)
				if err != nil {
					return err
				}
				return export.WriteWorkbook(f, w)
			})
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "calendar year (default this year)")
	cmd.Flags().StringVar(&format, "format", "xlsx", "output format (xlsx, sheets)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")

	return cmd
}

func exportPersonsCmd() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "persons",
		Short: "Export the per-giver summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if err := checkFormat(format, "csv", "xlsx"); err != nil {
				return err
			}
			q, err := personQuery(cmd)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			totals, err := ledger.NewReportService(store).PersonSummary(ctx, q)
			if err != nil {
				return err
			}

			if format == "xlsx" {
				if output == "" {
					output = "인명별.xlsx"
				}
				return writeOutput(cmd, output, func(w io.Writer) error {
					f, err := export.PersonsWorkbook(totals, q.Detailed)
					if err != nil {
						return err
					}
					return export.WriteWorkbook(f, w)
				})
			}
			return writeOutput(cmd, output, func(w io.Writer) error {
				return export.WritePersonsCSV(w, totals, q.Detailed)
			})
		},
	}

	addPersonQueryFlags(cmd)
	cmd.Flags().StringVar(&format, "format", "csv", "output format (csv, xlsx)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout for csv)")

	return cmd
}

// exportEntriesCmd writes raw entries in the layout import csv reads back.
func exportEntriesCmd(typ model.CategoryType) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   typ.String(),
		Short: fmt.Sprintf("Export %s entries as CSV", typ),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			filter, err := entryFilter(cmd)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			finance := ledger.NewFinanceService(store)
			if typ == model.CategoryTypeIncome {
				entries, err := finance.ListIncome(ctx, filter)
				if err != nil {
					return err
				}
				return writeOutput(cmd, output, func(w io.Writer) error {
					return export.WriteIncomeCSV(w, entries)
				})
			}

			entries, err := finance.ListExpense(ctx, filter)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, func(w io.Writer) error {
				return export.WriteExpenseCSV(w, entries)
			})
		},
	}

	addFilterFlags(cmd)
	if typ == model.CategoryTypeIncome {
		cmd.Flags().String("name", "", "giver name")
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	return cmd
}
