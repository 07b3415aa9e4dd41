package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/tithe/internal/cli"
	"github.com/Veraticus/tithe/internal/config"
	"github.com/Veraticus/tithe/internal/model"
	"github.com/Veraticus/tithe/internal/service"
	"github.com/Veraticus/tithe/internal/storage"
	"github.com/Veraticus/tithe/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// now is replaced in tests that depend on today's date.
var now = time.Now

// initStorage opens the ledger named by database.path.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	return store, nil
}

// closeStorage closes store at the end of a command. A failed close loses no
// data, so it is only logged.
func closeStorage(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Debug("failed to close ledger", "path", store.Path(), "error", err)
	}
}

// newBackupManager creates a backup manager for store using backup.* settings.
func newBackupManager(store *storage.SQLiteStorage) (*storage.BackupManager, error) {
	dir := viper.GetString("backup.dir")
	if dir == "" {
		dir = config.DefaultBackupDir()
	}
	return storage.NewBackupManager(store, config.ExpandPath(dir), viper.GetString("backup.prefix"))
}

func today() time.Time {
	return model.DateOf(now())
}

// dateFlag parses an optional YYYY-MM-DD flag. An unset flag yields nil.
func dateFlag(cmd *cobra.Command, name string) (*time.Time, error) {
	value, _ := cmd.Flags().GetString(name)
	if value == "" {
		return nil, nil
	}
	date, err := model.ParseDate(value)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return &date, nil
}

// dateFlagOr parses a YYYY-MM-DD flag, falling back to def when it is unset.
func dateFlagOr(cmd *cobra.Command, name string, def time.Time) (time.Time, error) {
	date, err := dateFlag(cmd, name)
	if err != nil {
		return time.Time{}, err
	}
	if date == nil {
		return def, nil
	}
	return *date, nil
}

// parseAmount accepts amounts with thousands separators, such as 1,000,000.
func parseAmount(s string) (int64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	amount, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive, got %s", s)
	}
	return amount, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// addFilterFlags registers the flags shared by listing commands.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("start", "", "first date to include (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "last date to include (YYYY-MM-DD)")
	cmd.Flags().String("main", "", "main category")
	cmd.Flags().String("sub", "", "sub category")
}

func entryFilter(cmd *cobra.Command) (service.EntryFilter, error) {
	start, err := dateFlag(cmd, "start")
	if err != nil {
		return service.EntryFilter{}, err
	}
	end, err := dateFlag(cmd, "end")
	if err != nil {
		return service.EntryFilter{}, err
	}
	if start != nil && end != nil && start.After(*end) {
		return service.EntryFilter{}, fmt.Errorf("--start %s is after --end %s", model.FormatDate(*start), model.FormatDate(*end))
	}

	filter := service.EntryFilter{StartDate: start, EndDate: end}
	filter.MainCategory, _ = cmd.Flags().GetString("main")
	filter.SubCategory, _ = cmd.Flags().GetString("sub")
	if cmd.Flags().Lookup("name") != nil {
		filter.Name1, _ = cmd.Flags().GetString("name")
	}
	return filter, nil
}

// pickCategory lets the user choose a leaf category of typ interactively.
func pickCategory(ctx context.Context, cmd *cobra.Command, store service.CategoryStore, typ model.CategoryType) (string, string, error) {
	categories, err := store.ListCategories(ctx, &typ)
	if err != nil {
		return "", "", fmt.Errorf("failed to list categories: %w", err)
	}

	const sep = " / "
	options := make([]string, 0, len(categories))
	for _, c := range categories {
		if c.IsHeader() {
			continue
		}
		options = append(options, c.MainCategory+sep+c.SubCategory)
	}

	choice, err := tui.Pick(ctx, typ.String()+" category", options, pickOptions(cmd))
	if err != nil {
		return "", "", err
	}
	mainCategory, subCategory, _ := strings.Cut(choice, sep)
	return mainCategory, subCategory, nil
}

// pickOptions leaves the terminal streams to bubbletea unless the command's
// streams were redirected.
func pickOptions(cmd *cobra.Command) tui.PickOptions {
	var opts tui.PickOptions
	if in := cmd.InOrStdin(); in != os.Stdin {
		opts.Input = in
	}
	if out := cmd.OutOrStdout(); out != os.Stdout {
		opts.Output = out
	}
	return opts
}

// confirm asks before a destructive action unless --yes was given.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true, nil
	}
	return cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()).Confirm(cmd.Context(), question, false)
}

// writeOutput writes to path, or to the command's output when path is empty or "-".
func writeOutput(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(cmd.OutOrStdout())
	}

	f, err := os.Create(config.ExpandPath(path)) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatSuccess("Wrote "+path))
	return nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

func printLine(cmd *cobra.Command, a ...any) {
	fmt.Fprintln(cmd.OutOrStdout(), a...)
}
