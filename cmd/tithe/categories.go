package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/tithe/internal/cli"
	"github.com/Veraticus/tithe/internal/common"
	"github.com/Veraticus/tithe/internal/ledger"
	"github.com/Veraticus/tithe/internal/model"
	"github.com/spf13/cobra"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"category"},
		Short:   "Manage income and expense categories",
		Long: `List, add, update and delete the two-level category taxonomy. A category
without a sub category is the header row of its main category.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(mainCategoriesCmd())
	cmd.AddCommand(subCategoriesCmd())
	cmd.AddCommand(treeCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

// typeFlag parses --type. Optional types return nil when the flag is unset.
func typeFlag(cmd *cobra.Command, required bool) (*model.CategoryType, error) {
	value, _ := cmd.Flags().GetString("type")
	if value == "" {
		if required {
			return nil, errors.New("--type is required (income or expense)")
		}
		return nil, nil
	}
	typ, err := model.ParseCategoryType(value)
	if err != nil {
		return nil, err
	}
	return &typ, nil
}

func listCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			typ, err := typeFlag(cmd, false)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			categories, err := ledger.NewCategoryService(store).ListAll(ctx, typ)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			if len(categories) == 0 {
				printLine(cmd, cli.InfoStyle.Render("No categories found. Use 'tithe categories add' to create one."))
				return nil
			}

			rows := make([][]string, 0, len(categories))
			for _, c := range categories {
				sub := c.SubCategory
				if c.IsHeader() {
					sub = cli.SubtleStyle.Render("(header)")
				}
				rows = append(rows, []string{fmt.Sprint(c.ID), string(c.Type), c.MainCategory, sub})
			}
			printLine(cmd, cli.RenderTable([]string{"ID", "Type", "Main", "Sub"}, rows))
			return nil
		},
	}

	cmd.Flags().String("type", "", "only this type (income or expense)")

	return cmd
}

func mainCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mains",
		Short: "List the main categories of a type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			typ, err := typeFlag(cmd, true)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			mains, err := ledger.NewCategoryService(store).MainCategories(ctx, *typ)
			if err != nil {
				return fmt.Errorf("failed to get main categories: %w", err)
			}
			for _, m := range mains {
				printLine(cmd, m)
			}
			return nil
		},
	}

	cmd.Flags().String("type", "", "category type (income or expense)")

	return cmd
}

func subCategoriesCmd() *cobra.Command {
	var mainCategory string

	cmd := &cobra.Command{
		Use:   "subs",
		Short: "List the sub categories of a main category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			typ, err := typeFlag(cmd, true)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			subs, err := ledger.NewCategoryService(store).SubCategories(ctx, *typ, mainCategory)
			if err != nil {
				return fmt.Errorf("failed to get sub categories: %w", err)
			}
			for _, s := range subs {
				printLine(cmd, s)
			}
			return nil
		},
	}

	cmd.Flags().String("type", "", "category type (income or expense)")
	cmd.Flags().StringVar(&mainCategory, "main", "", "main category")
	_ = cmd.MarkFlagRequired("main")

	return cmd
}

func treeCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show categories grouped by main category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			typ, err := typeFlag(cmd, false)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			nodes, err := ledger.NewCategoryService(store).Hierarchy(ctx, typ)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			var current model.CategoryType
			for _, node := range nodes {
				if node.Type != current {
					current = node.Type
					printLine(cmd, cli.FormatTitle(string(current)))
				}
				printLine(cmd, cli.BoldStyle.Render(node.MainCategory))
				for _, sub := range node.SubCategories {
					printLine(cmd, "  "+sub)
				}
			}
			return nil
		},
	}

	cmd.Flags().String("type", "", "only this type (income or expense)")

	return cmd
}

func addCategoryCmd() *cobra.Command {
	var mainCategory, subCategory string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new category",
		Long:  `Create a category. Leave --sub empty to add the header row of a main category.`,
		Example: `  tithe categories add --type income --main 헌금 --sub 감사헌금
  tithe categories add --type expense --main 선교비`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			typ, err := typeFlag(cmd, true)
			if err != nil {
				return err
			}
			if strings.TrimSpace(mainCategory) == "" {
				return errors.New("--main is required")
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			category, err := ledger.NewCategoryService(store).Add(ctx, *typ, mainCategory, subCategory)
			if err != nil {
				return err
			}

			printLine(cmd, cli.FormatSuccess(fmt.Sprintf("Added category #%d: %s %s",
				category.ID, category.Type, categoryLabel(*category))))
			return nil
		},
	}

	cmd.Flags().String("type", "", "category type (income or expense)")
	cmd.Flags().StringVar(&mainCategory, "main", "", "main category")
	cmd.Flags().StringVar(&subCategory, "sub", "", "sub category")

	return cmd
}

func categoryLabel(c model.Category) string {
	if c.IsHeader() {
		return c.MainCategory
	}
	return c.MainCategory + " / " + c.SubCategory
}

func updateCategoryCmd() *cobra.Command {
	var mainCategory, subCategory string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a category",
		Long:  `Rename a category. Entries already recorded keep the names they were saved with.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			typ, err := typeFlag(cmd, true)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			updated, err := ledger.NewCategoryService(store).Update(ctx, id, *typ, mainCategory, subCategory)
			if err != nil {
				return err
			}
			if !updated {
				return common.NewUserError(fmt.Sprintf("Category #%d not found", id), common.ErrNotFound)
			}

			printLine(cmd, cli.FormatSuccess(fmt.Sprintf("Updated category #%d", id)))
			return nil
		},
	}

	cmd.Flags().String("type", "", "category type (income or expense)")
	cmd.Flags().StringVar(&mainCategory, "main", "", "main category")
	cmd.Flags().StringVar(&subCategory, "sub", "", "sub category")
	_ = cmd.MarkFlagRequired("main")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long:  `Delete a category. Entries recorded under it are kept unchanged.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			ok, err := confirm(cmd, fmt.Sprintf("Delete category #%d?", id))
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

			deleted, err := ledger.NewCategoryService(store).Delete(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to delete category: %w", err)
			}
			if !deleted {
				return common.NewUserError(fmt.Sprintf("Category #%d not found", id), common.ErrNotFound)
			}

			printLine(cmd, cli.FormatSuccess(fmt.Sprintf("Deleted category #%d", id)))
			return nil
		},
	}

	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	return cmd
}
