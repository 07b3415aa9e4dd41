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

func expenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Record and list expenses",
		Long:  `Add, list, update and delete expense entries.`,
	}

	cmd.AddCommand(addExpenseCmd())
	cmd.AddCommand(listExpenseCmd())
	cmd.AddCommand(updateExpenseCmd())
	cmd.AddCommand(deleteExpenseCmd())

	return cmd
}

func addExpenseEntryFlags(cmd *cobra.Command) {
	cmd.Flags().String("date", "", "entry date (YYYY-MM-DD, default today)")
	cmd.Flags().String("main", "", "main category")
	cmd.Flags().String("sub", "", "sub category")
	cmd.Flags().String("amount", "", "amount in the smallest currency unit")
	cmd.Flags().String("memo", "", "free-form note")
}

func applyExpenseFlags(cmd *cobra.Command, expense *model.Expense) error {
	flags := cmd.Flags()
	if flags.Changed("date") {
		date, err := dateFlag(cmd, "date")
		if err != nil {
			return err
		}
		expense.Date = *date
	}
	if flags.Changed("amount") {
		value, _ := flags.GetString("amount")
		amount, err := parseAmount(value)
		if err != nil {
			return err
		}
		expense.Amount = amount
	}
	if flags.Changed("main") {
		expense.MainCategory, _ = flags.GetString("main")
	}
	if flags.Changed("sub") {
		expense.SubCategory, _ = flags.GetString("sub")
	}
	if flags.Changed("memo") {
		expense.Memo, _ = flags.GetString("memo")
	}
	return nil
}

func addExpenseCmd() *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add an expense entry",
		Example: `  tithe expense add --main 관리비 --sub 전기료 --amount 85,000 --memo "3월분"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			expense := model.Expense{Date: today()}
			if err := applyExpenseFlags(cmd, &expense); err != nil {
				return err
			}
			if pick && (expense.MainCategory == "" || expense.SubCategory == "") {
				expense.MainCategory, expense.SubCategory, err = pickCategory(ctx, cmd, store, model.CategoryTypeExpense)
				if err != nil {
					return err
				}
			}
			if err := expense.Validate(); err != nil {
				return err
			}

			saved, err := ledger.NewFinanceService(store).AddExpense(ctx, expense)
			if err != nil {
				return fmt.Errorf("failed to add expense: %w", err)
			}

			printLine(cmd, cli.FormatSuccess(fmt.Sprintf("Recorded expense #%d: %s %s / %s %s",
				saved.ID, model.FormatDate(saved.Date), saved.MainCategory, saved.SubCategory,
				cli.FormatAmount(saved.Amount))))
			return nil
		},
	}

	addExpenseEntryFlags(cmd)
	cmd.Flags().BoolVar(&pick, "pick", false, "choose the category interactively")

	return cmd
}

func listExpenseCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expense entries",
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

			entries, err := ledger.NewFinanceService(store).ListExpense(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list expenses: %w", err)
			}

			if format == "csv" {
				return export.WriteExpenseCSV(cmd.OutOrStdout(), entries)
			}
			renderExpense(cmd.OutOrStdout(), entries)
			return nil
		},
	}

	addFilterFlags(cmd)
	cmd.Flags().StringVar(&format, "format", "table", "output format (table, csv)")

	return cmd
}

func renderExpense(w io.Writer, entries []model.Expense) {
	if len(entries) == 0 {
		fmt.Fprintln(w, cli.InfoStyle.Render("No expense entries found."))
		return
	}

	var total int64
	rows := make([][]string, 0, len(entries)+1)
	for _, e := range entries {
		total += e.Amount
		rows = append(rows, []string{
			fmt.Sprint(e.ID), model.FormatDate(e.Date), e.MainCategory, e.SubCategory,
			cli.FormatAmount(e.Amount), e.Memo,
		})
	}
	rows = append(rows, []string{"", "", "", fmt.Sprintf("%d건", len(entries)), cli.FormatAmount(total), ""})

	fmt.Fprintln(w, cli.RenderTable([]string{"ID", "Date", "Main", "Sub", "Amount", "Memo"}, rows, 4))
}

func findExpense(ctx context.Context, finance *ledger.FinanceService, id int64) (*model.Expense, error) {
	entries, err := finance.ListExpense(ctx, service.EntryFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], nil
		}
	}
	return nil, fmt.Errorf("expense #%d not found", id)
}

func updateExpenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an expense entry",
		Long:  `Change the given fields of an expense entry. Fields without a flag keep their values.`,
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
			expense, err := findExpense(ctx, finance, id)
			if err != nil {
				return err
			}
			if err := applyExpenseFlags(cmd, expense); err != nil {
				return err
			}
			if err := expense.Validate(); err != nil {
				return err
			}

			updated, err := finance.UpdateExpense(ctx, id, *expense)
			if err != nil {
				return fmt.Errorf("failed to update expense: %w", err)
			}
			if !updated {
				return fmt.Errorf("expense #%d not found", id)
			}

			printLine(cmd, cli.FormatSuccess(fmt.Sprintf("Updated expense #%d", id)))
			return nil
		},
	}

	addExpenseEntryFlags(cmd)

	return cmd
}

func deleteExpenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ok, err := confirm(cmd, fmt.Sprintf("Delete expense #%d?", id))
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

			deleted, err := ledger.NewFinanceService(store).DeleteExpense(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to delete expense: %w", err)
			}
			if !deleted {
				return fmt.Errorf("expense #%d not found", id)
			}

			printLine(cmd, cli.FormatSuccess(fmt.Sprintf("Deleted expense #%d", id)))
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	return cmd
}
