package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/tithe/internal/cli"
	"github.com/Veraticus/tithe/internal/export"
	"github.com/Veraticus/tithe/internal/ledger"
	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
	"github.com/spf13/cobra"
)

func personsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "persons",
		Aliases: []string{"people"},
		Short:   "Summarize income by giver",
	}

	cmd.AddCommand(personSummaryCmd())
	cmd.AddCommand(personSearchCmd())
	cmd.AddCommand(donorNamesCmd())

	return cmd
}

func addPersonQueryFlags(cmd *cobra.Command) {
	addFilterFlags(cmd)
	cmd.Flags().String("sort", "", "sort column (name, total)")
	cmd.Flags().Bool("desc", false, "sort descending")
	cmd.Flags().Bool("detailed", false, "split each giver's total by category")
	cmd.Flags().Bool("exclude-anonymous", false, "leave out gifts recorded as "+model.AnonymousName)
}

func personQuery(cmd *cobra.Command) (ledger.PersonQuery, error) {
	filter, err := entryFilter(cmd)
	if err != nil {
		return ledger.PersonQuery{}, err
	}

	sortValue, _ := cmd.Flags().GetString("sort")
	sortBy, err := ledger.ParsePersonSortColumn(sortValue)
	if err != nil {
		return ledger.PersonQuery{}, err
	}

	q := ledger.PersonQuery{
		StartDate:    filter.StartDate,
		EndDate:      filter.EndDate,
		MainCategory: filter.MainCategory,
		SubCategory:  filter.SubCategory,
		SortBy:       sortBy,
	}
	q.Descending, _ = cmd.Flags().GetBool("desc")
	q.Detailed, _ = cmd.Flags().GetBool("detailed")
	q.ExcludeAnonymous, _ = cmd.Flags().GetBool("exclude-anonymous")
	return q, nil
}

func personSummaryCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Total income per giver",
		Example: `  tithe persons summary --start 2024-01-01 --end 2024-12-31 --sort total --desc
  tithe persons summary --detailed --format csv > givers.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

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

			if format == "csv" {
				return export.WritePersonsCSV(cmd.OutOrStdout(), totals, q.Detailed)
			}
			renderPersons(cmd.OutOrStdout(), totals, q.Detailed)
			return nil
		},
	}

	addPersonQueryFlags(cmd)
	cmd.Flags().StringVar(&format, "format", "table", "output format (table, csv)")

	return cmd
}

func renderPersons(w io.Writer, totals []service.PersonTotal, detailed bool) {
	if len(totals) == 0 {
		fmt.Fprintln(w, cli.InfoStyle.Render("No income found for the given filter."))
		return
	}

	var sum int64
	rows := make([][]string, 0, len(totals)+1)
	for _, t := range totals {
		sum += t.TotalAmount
		if detailed {
			rows = append(rows, []string{t.Name, t.MainCategory, t.SubCategory, cli.FormatAmount(t.TotalAmount), fmt.Sprint(t.Count)})
		} else {
			rows = append(rows, []string{t.Name, cli.FormatAmount(t.TotalAmount), fmt.Sprint(t.Count)})
		}
	}

	if detailed {
		rows = append(rows, []string{"합계", "", "", cli.FormatAmount(sum), ""})
		fmt.Fprintln(w, cli.RenderTable([]string{"Name", "Main", "Sub", "Total", "Count"}, rows, 3, 4))
		return
	}
	rows = append(rows, []string{"합계", cli.FormatAmount(sum), ""})
	fmt.Fprintln(w, cli.RenderTable([]string{"Name", "Total", "Count"}, rows, 1, 2))
}

func personSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <name>",
		Short: "List every gift recorded under one name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			start, err := dateFlag(cmd, "start")
			if err != nil {
				return err
			}
			end, err := dateFlag(cmd, "end")
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			person, err := ledger.NewReportService(store).SearchPerson(ctx, args[0], start, end)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle(person.Name))
			renderIncome(out, person.Entries)
			return nil
		},
	}

	cmd.Flags().String("start", "", "first date to include (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "last date to include (YYYY-MM-DD)")

	return cmd
}

func donorNamesCmd() *cobra.Command {
	var separator string

	cmd := &cobra.Command{
		Use:   "names",
		Short: "Print the list of giver names",
		Long: `Print each giver's name once, ready to paste into a bulletin. Anonymous gifts
are always left out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

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

			names := ledger.DonorNames(totals)
			if len(names) > 0 {
				printLine(cmd, strings.Join(names, separator))
			}
			return nil
		},
	}

	addPersonQueryFlags(cmd)
	cmd.Flags().StringVar(&separator, "separator", "\n", "text placed between names")

	return cmd
}
