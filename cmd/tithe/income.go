package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Veraticus/tithe/internal/cli"
	"github.com/Veraticus/tithe/internal/export"
	"github.com/Veraticus/tithe/internal/ledger"
	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
	"github.com/spf13/cobra"
)

func incomeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "income",
		Short: "Record and list income",
		Long:  `Add, list, update and delete income entries such as offerings and tithes.`,
	}

	cmd.AddCommand(addIncomeCmd())
	cmd.AddCommand(listIncomeCmd())
	cmd.AddCommand(updateIncomeCmd())
	cmd.AddCommand(deleteIncomeCmd())

	return cmd
}

func addIncomeEntryFlags(cmd *cobra.Command) {
	cmd.Flags().String("date", "", "entry date (YYYY-MM-DD, default today)")
	cmd.Flags().String("main", "", "main category")
	cmd.Flags().String("sub", "", "sub category")
	cmd.Flags().String("name", "", "giver name")
	cmd.Flags().String("name2", "", "second name, such as a spouse")
	cmd.Flags().String("amount", "", "amount in the smallest currency unit")
	cmd.Flags().String("memo", "", "free-form note")
	cmd.Flags().Bool("anonymous", false, "record the gift as "+model.AnonymousName)
}

// applyIncomeFlags copies every flag the user set onto income.
func applyIncomeFlags(cmd *cobra.Command, income *model.Income) error {
	flags := cmd.Flags()
	if flags.Changed("date") {
		date, err := dateFlag(cmd, "date")
		if err != nil {
			return err
		}
		income.Date = *date
	}
	if flags.Changed("amount") {
		value, _ := flags.GetString("amount")
		amount, err := parseAmount(value)
		if err != nil {
			return err
		}
		income.Amount = amount
	}
	for name, field := range map[string]*string{
		"main":  &income.MainCategory,
		"sub":   &income.SubCategory,
		"name":  &income.Name1,
		"name2": &income.Name2,
		"memo":  &income.Memo,
	} {
		if flags.Changed(name) {
			*field, _ = flags.GetString(name)
		}
	}
	if anonymous, _ := flags.GetBool("anonymous"); anonymous {
		income.MarkAnonymous()
	}
	return nil
}

func addIncomeCmd() *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an income entry",
		Example: `  tithe income add --main 헌금 --sub 십일조 --name 김철수 --amount 100000
  tithe income add --pick --anonymous --amount 50,000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			income := model.Income{Date: today()}
			if err := applyIncomeFlags(cmd, &income); err != nil {
				return err
			}
			if pick && (income.MainCategory == "" || income.SubCategory == "") {
				income.MainCategory, income.SubCategory, err = pickCategory(ctx, cmd, store, model.CategoryTypeIncome)
				if err != nil {
					return err
				}
			}
			if err := income.Validate(); err != nil {
				return err
			}

			saved, err := ledger.NewFinanceService(store).AddIncome(ctx, income)
			if err != nil {
				return fmt.Errorf("failed to add income: %w", err)
			}

			printLine(cmd, cli.FormatSuccess(fmt.Sprintf("Recorded income #%d: %s %s / %s %s %s",
				saved.ID, model.FormatDate(saved.Date), saved.MainCategory, saved.SubCategory,
				saved.Name1, cli.FormatAmount(saved.Amount))))
			return nil
		},
	}

	addIncomeEntryFlags(cmd)
	cmd.Flags().BoolVar(&pick, "pick", false, "choose the category interactively")

	return cmd
}

func listIncomeCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List income entries",
		Long:  `List income entries, newest first, optionally filtered by date range, category and name.`,
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

			entries, err := ledger.NewFinanceService(store).ListIncome(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list income: %w", err)
			}

			if format == "csv" {
				return export.WriteIncomeCSV(cmd.OutOrStdout(), entries)
			}
			renderIncome(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	addFilterFlags(cmd)
	cmd.Flags().String("name", "", "giver name")
	cmd.Flags().StringVar(&format, "format", "table", "output format (table, csv)")

	return cmd
}

func renderIncome(w io.Writer, entries []model.Income) {
	if len(entries) == 0 {
		fmt.Fprintln(w, cli.InfoStyle.Render("No income entries found."))
		return
	}

	var total int64
	rows := make([][]string, 0, len(entries)+1)
	for _, e := range entries {
		total += e.Amount
		rows = append(rows, []string{
			fmt.Sprint(e.ID), model.FormatDate(e.Date), e.MainCategory, e.SubCategory,
			e.Name1, e.Name2, cli.FormatAmount(e.Amount), e.Memo,
		})
	}
	rows = append(rows, []string{"", "", "", "", fmt.Sprintf("%d건", len(entries)), "", cli.FormatAmount(total), ""})

	fmt.Fprintln(w, cli.RenderTable(
		[]string{"ID", "Date", "Main", "Sub", "Name", "Name2", "Amount", "Memo"}, rows, 6))
}

// findIncome locates one entry by id. Storage exposes listings only.
func findIncome(ctx context.Context, finance *ledger.FinanceService, id int64) (*model.Income, error) {
	entries, err := finance.ListIncome(ctx, service.EntryFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list income: %w", err)
	}
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("income #%d not found", id)
}

func updateIncomeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an income entry",
		Long:  `Change the given fields of an income entry. Fields without a flag keep their values.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			finance := ledger.NewFinanceService(store)
			income, err := findIncome(ctx, finance, id)
			if err != nil {
				return err
			}
			if err := applyIncomeFlags(cmd, income); err != nil {
				return err
			}
			if err := income.Validate(); err != nil {
				return err
			}

			updated, err := finance.UpdateIncome(ctx, id, *income)
			if err != nil {
				return fmt.Errorf("failed to update income: %w", err)
			}
			if !updated {
				return fmt.Errorf("income #%d not found", id)
			}

			printLine(cmd, cli.FormatSuccess(fmt.Sprintf("Updated income #%d", id)))
			return nil
		},
	}

	addIncomeEntryFlags(cmd)

	return cmd
}

func deleteIncomeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an income entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ok, err := confirm(cmd, fmt.Sprintf("Delete income #%d?", id))
			if err != nil {
				return err
			}
			if !ok {
				printLine(cmd, cli.FormatInfo("Cancelled."))
				return nil
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			deleted, err := ledger.NewFinanceService(store).DeleteIncome(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to delete income: %w", err)
			}
			if !deleted {
				return fmt.Errorf("income #%d not found", id)
			}

			printLine(cmd, cli.FormatSuccess(fmt.Sprintf("Deleted income #%d", id)))
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	return cmd
}
