package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/tithe/internal/cli"
	"github.com/Veraticus/tithe/internal/common"
	"github.com/Veraticus/tithe/internal/export"
	"github.com/Veraticus/tithe/internal/ledger"
	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/ofx"
	"github.com/spf13/cobra"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import entries from CSV or bank statements",
	}

	cmd.AddCommand(importCSVCmd())
	cmd.AddCommand(importOFXCmd())

	return cmd
}

// importBatch holds validated entries ready to be saved.
type importBatch struct {
	income  []model.Income
	expense []model.Expense
}

func (b importBatch) size() int {
	return len(b.income) + len(b.expense)
}

// save writes the batch one entry at a time. An interrupt stops the import
// between entries; entries already saved are kept.
func (b importBatch) save(ctx context.Context, cmd *cobra.Command, finance *ledger.FinanceService) (int, error) {
	handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Entries saved so far were kept.")
	ctx, stop := handler.HandleInterrupts(ctx)
	defer stop()

	bar := cli.NewProgressBar(cmd.ErrOrStderr(), b.size(), "Importing")
	saved := 0
	for _, income := range b.income {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		if _, err := finance.AddIncome(ctx, income); err != nil {
			common.LogError(err, "Import stopped", common.Fields{"saved": saved, "name": income.Name1})
			return saved, fmt.Errorf("failed to save income dated %s: %w", model.FormatDate(income.Date), err)
		}
		saved++
		_ = bar.Add(1)
	}
	for _, expense := range b.expense {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		if _, err := finance.AddExpense(ctx, expense); err != nil {
			common.LogError(err, "Import stopped", common.Fields{"saved": saved, "main": expense.MainCategory})
			return saved, fmt.Errorf("failed to save expense dated %s: %w", model.FormatDate(expense.Date), err)
		}
		saved++
		_ = bar.Add(1)
	}
	return saved, nil
}

func runImport(cmd *cobra.Command, batch importBatch, dryRun bool) error {
	ctx := cmd.Context()

	if batch.size() == 0 {
		printLine(cmd, cli.FormatWarning("Nothing to import."))
		return nil
	}
	if dryRun {
		renderIncome(cmd.OutOrStdout(), batch.income)
		renderExpense(cmd.OutOrStdout(), batch.expense)
		printLine(cmd, cli.FormatInfo(fmt.Sprintf("Dry run: %d entries would be imported.", batch.size())))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	saved, err := batch.save(ctx, cmd, ledger.NewFinanceService(store))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			printLine(cmd, cli.FormatWarning(fmt.Sprintf("Import interrupted after %d of %d entries.", saved, batch.size())))
			return nil
		}
		return err
	}

	printLine(cmd, cli.FormatSuccess(fmt.Sprintf("Imported %d income and %d expense entries.",
		len(batch.income), len(batch.expense))))
	return nil
}

func importCSVCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "csv <file>",
		Short: "Import income or expense entries from a CSV file",
		Long: `Import entries from a CSV file with a header row. Income files need the columns
date, main_category, sub_category, name1 and amount; expense files need date,
main_category, sub_category and amount. name2 and memo are optional.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := typeFlag(cmd, true)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0]) // #nosec G304
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			var batch importBatch
			switch *typ {
			case model.CategoryTypeIncome:
				batch.income, err = export.ReadIncomeCSV(f)
			default:
				batch.expense, err = export.ReadExpenseCSV(f)
			}
			if err != nil {
				return err
			}
			if err := validateBatch(batch); err != nil {
				return err
			}

			return runImport(cmd, batch, dryRun)
		},
	}

	cmd.Flags().String("type", "", "entry type (income or expense)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "preview the import without saving")

	return cmd
}

// validateBatch checks every entry before anything is saved.
func validateBatch(batch importBatch) error {
	for i := range batch.income {
		if err := batch.income[i].Validate(); err != nil {
			return fmt.Errorf("income row %d: %w", i+1, err)
		}
	}
	for i := range batch.expense {
		if err := batch.expense[i].Validate(); err != nil {
			return fmt.Errorf("expense row %d: %w", i+1, err)
		}
	}
	return nil
}

func importOFXCmd() *cobra.Command {
	var (
		opts   ofx.Options
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "ofx <files...>",
		Short: "Import a bank statement from OFX/QFX files",
		Long: `Import transactions from OFX or QFX files exported from online banking. Credits
are recorded as income and debits as expenses, under the categories given by the
flags. Globs are expanded.`,
		Example: `  tithe import ofx ~/Downloads/statement.ofx
  tithe import ofx --scale 100 --income-main 헌금 --income-sub 온라인헌금 ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			files, err := expandGlobs(args)
			if err != nil {
				return err
			}

			parser := ofx.NewParser(opts)
			var batch importBatch
			for _, path := range files {
				stmt, err := parseStatement(ctx, parser, path)
				if err != nil {
					return err
				}
				slog.Info("Parsed statement",
					"file", filepath.Base(path),
					"accounts", stmt.Accounts,
					"income", len(stmt.Income),
					"expense", len(stmt.Expense),
					"skipped", stmt.Skipped)
				batch.income = append(batch.income, stmt.Income...)
				batch.expense = append(batch.expense, stmt.Expense...)
			}

			return runImport(cmd, batch, dryRun)
		},
	}

	cmd.Flags().StringVar(&opts.IncomeMain, "income-main", ofx.DefaultIncomeMain, "main category for credits")
	cmd.Flags().StringVar(&opts.IncomeSub, "income-sub", ofx.DefaultIncomeSub, "sub category for credits")
	cmd.Flags().StringVar(&opts.ExpenseMain, "expense-main", ofx.DefaultExpenseMain, "main category for debits")
	cmd.Flags().StringVar(&opts.ExpenseSub, "expense-sub", ofx.DefaultExpenseSub, "sub category for debits")
	cmd.Flags().Int64Var(&opts.Scale, "scale", 1, "multiplier into the smallest currency unit (100 for cents)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "preview the import without saving")

	return cmd
}

func parseStatement(ctx context.Context, parser *ofx.Parser, path string) (*ofx.Statement, error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	stmt, err := parser.ParseFile(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return stmt, nil
}

// expandGlobs resolves shell-style patterns, keeping plain paths as given.
func expandGlobs(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err != nil {
				slog.Warn("No files found matching pattern", "pattern", pattern)
				continue
			}
			matches = []string{pattern}
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, errors.New("no files found to import")
	}
	return files, nil
}
