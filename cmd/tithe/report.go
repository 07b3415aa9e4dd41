package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Veraticus/tithe/internal/cli"
	"github.com/Veraticus/tithe/internal/ledger"
	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
	"github.com/spf13/cobra"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show weekly, yearly and filtered summaries",
	}

	cmd.AddCommand(weeklyReportCmd())
	cmd.AddCommand(yearlyReportCmd())
	cmd.AddCommand(statsReportCmd())

	return cmd
}

func addWeekFlags(cmd *cobra.Command) {
	cmd.Flags().String("sunday", "", "Sunday ending the week (YYYY-MM-DD); other days snap to the next Sunday")
	cmd.Flags().String("start", "", "first date of a custom period (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "last date of a custom period (YYYY-MM-DD)")
	cmd.MarkFlagsMutuallyExclusive("sunday", "start")
	cmd.MarkFlagsMutuallyExclusive("sunday", "end")
	cmd.MarkFlagsRequiredTogether("start", "end")
}

// reportPeriod resolves the week flags into an inclusive range. Without flags
// it is the week containing today.
func reportPeriod(cmd *cobra.Command) (start, end time.Time, err error) {
	if cmd.Flags().Changed("start") {
		if start, err = dateFlagOr(cmd, "start", time.Time{}); err != nil {
			return start, end, err
		}
		if end, err = dateFlagOr(cmd, "end", time.Time{}); err != nil {
			return start, end, err
		}
		return start, end, nil
	}

	day, err := dateFlagOr(cmd, "sunday", today())
	if err != nil {
		return start, end, err
	}
	week, snapped := ledger.WeekContaining(day)
	if snapped && cmd.Flags().Changed("sunday") {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning(fmt.Sprintf(
			"%s is not a Sunday; using the week ending %s",
			model.FormatDate(day), model.FormatDate(week.End))))
	}
	return week.Start, week.End, nil
}

func weeklyReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Summarize one week by category",
		Long: `Summarize income and expense by category for a Monday-to-Sunday week, with the
balance carried over from January 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

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

			renderWeekly(cmd.OutOrStdout(), report)
			return nil
		},
	}

	addWeekFlags(cmd)

	return cmd
}

func renderWeekly(w io.Writer, report *service.WeeklyReport) {
	fmt.Fprintln(w, cli.FormatTitle(fmt.Sprintf("%s 주간 보고 %s ~ %s",
		cli.ChartIcon, model.FormatDate(report.StartDate), model.FormatDate(report.EndDate))))

	renderSide(w, "수입", report.Income)
	renderSide(w, "지출", report.Expense)

	fmt.Fprintln(w, cli.RenderTable(
		[]string{"", "Amount"},
		[][]string{
			{"차액", cli.FormatAmount(report.Balance)},
			{"전기 이월", cli.FormatAmount(report.CarryOver)},
			{"차기 이월", cli.FormatAmount(report.ClosingBalance)},
		},
		1))
}

func renderSide(w io.Writer, label string, side service.SideSummary) {
	rows := make([][]string, 0, len(side.Items)+1)
	for _, item := range side.Items {
		rows = append(rows, []string{item.MainCategory, item.SubCategory, fmt.Sprint(item.Count), cli.FormatAmount(item.TotalAmount)})
	}
	rows = append(rows, []string{label + " 합계", "", "", cli.FormatAmount(side.Total)})
	fmt.Fprintln(w, cli.BoldStyle.Render(label))
	fmt.Fprintln(w, cli.RenderTable([]string{"Main", "Sub", "Count", "Amount"}, rows, 2, 3))
	fmt.Fprintln(w)
}

func yearlyReportCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "yearly",
		Short: "Summarize one calendar year by month and category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

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

			renderYearly(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "calendar year (default this year)")

	return cmd
}

func renderYearly(w io.Writer, report *service.YearlyReport) {
	fmt.Fprintln(w, cli.FormatTitle(fmt.Sprintf("%s %d년 연간 보고", cli.ChartIcon, report.Year)))

	income := monthAmounts(report.Income.Monthly)
	expense := monthAmounts(report.Expense.Monthly)
	rows := make([][]string, 0, 13)
	for m := 1; m <= 12; m++ {
		key := fmt.Sprintf("%02d", m)
		rows = append(rows, []string{
			fmt.Sprintf("%d월", m),
			cli.FormatAmount(income[key]),
			cli.FormatAmount(expense[key]),
			cli.FormatAmount(income[key] - expense[key]),
		})
	}
	rows = append(rows, []string{
		"합계",
		cli.FormatAmount(report.Income.Total),
		cli.FormatAmount(report.Expense.Total),
		cli.FormatAmount(report.Balance),
	})
	fmt.Fprintln(w, cli.RenderTable([]string{"Month", "수입", "지출", "차액"}, rows, 1, 2, 3))
	fmt.Fprintln(w)

	renderSide(w, "수입", service.SideSummary{Items: report.Income.ByCategory, Total: report.Income.Total})
	renderSide(w, "지출", service.SideSummary{Items: report.Expense.ByCategory, Total: report.Expense.Total})
}

func monthAmounts(months []service.MonthTotal) map[string]int64 {
	amounts := make(map[string]int64, len(months))
	for _, m := range months {
		amounts[m.Month] = m.TotalAmount
	}
	return amounts
}

func statsReportCmd() *cobra.Command {
	var showEntries bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Total income and expense for a filter",
		Long: `Total income and expense entries matching a date range and category. The
--name filter applies to income only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			filter, err := entryFilter(cmd)
			if err != nil {
				return err
			}
			if filter.StartDate == nil && filter.EndDate == nil && filter.MainCategory == "" &&
				filter.SubCategory == "" && filter.Name1 == "" {
				return errors.New("give at least one of --start, --end, --main, --sub or --name")
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			stats, err := ledger.NewReportService(store).Statistics(ctx, filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if showEntries {
				renderIncome(out, stats.Income.Items)
				renderExpense(out, stats.Expense.Items)
			}
			fmt.Fprintln(out, cli.RenderTable(
				[]string{"", "Count", "Amount"},
				[][]string{
					{"수입", fmt.Sprint(stats.Income.Count), cli.FormatAmount(stats.Income.Total)},
					{"지출", fmt.Sprint(stats.Expense.Count), cli.FormatAmount(stats.Expense.Total)},
					{"차액", "", cli.FormatAmount(stats.Balance)},
				},
				1, 2))
			return nil
		},
	}

	addFilterFlags(cmd)
	cmd.Flags().String("name", "", "giver name (income only)")
	cmd.Flags().BoolVar(&showEntries, "entries", false, "list the matching entries too")

	return cmd
}
