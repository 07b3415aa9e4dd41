package main

import (
	"errors"
	"fmt"

	"github.com/Veraticus/tithe/internal/cli"
	"github.com/Veraticus/tithe/internal/common"
	"github.com/Veraticus/tithe/internal/storage"
	"github.com/Veraticus/tithe/internal/tui"
	"github.com/spf13/cobra"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up and restore the ledger file",
	}

	cmd.AddCommand(createBackupCmd())
	cmd.AddCommand(restoreBackupCmd())
	cmd.AddCommand(listBackupsCmd())

	return cmd
}

func createBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [destination]",
		Short: "Copy the ledger to a backup file",
		Long: `Copy the ledger to destination, or to a dated file in the backups directory
when no destination is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			manager, err := newBackupManager(store)
			if err != nil {
				return err
			}

			var dest string
			if len(args) == 1 {
				dest = args[0]
			}
			path, err := manager.Backup(ctx, dest)
			if err != nil {
				return err
			}

			printLine(cmd, cli.FormatSuccess("Backup written to "+path))
			return nil
		},
	}
}

func restoreBackupCmd() *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "restore [source]",
		Short: "Replace the ledger with a backup",
		Long: `Replace the ledger with a backup file. The current ledger is kept next to it
as a timestamped snapshot first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if len(args) == 0 && !pick {
				return errors.New("give a backup file or use --pick")
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			manager, err := newBackupManager(store)
			if err != nil {
				return err
			}

			var src string
			if len(args) == 1 {
				src = args[0]
			} else {
				backups, err := manager.List(ctx)
				if err != nil {
					return err
				}
				byLabel := make(map[string]string, len(backups))
				options := make([]string, 0, len(backups))
				for _, b := range backups {
					label := fmt.Sprintf("%s  %s  %s", b.ModifiedAt.Format("2006-01-02 15:04"), b.Kind, b.Name)
					byLabel[label] = b.Path
					options = append(options, label)
				}
				choice, err := tui.Pick(ctx, "Restore which backup?", options, pickOptions(cmd))
				if err != nil {
					return err
				}
				src = byLabel[choice]
			}

			ok, err := confirm(cmd, fmt.Sprintf("Replace %s with %s?", store.Path(), src))
			if err != nil {
				return err
			}
			if !ok {
				printLine(cmd, cli.FormatInfo("Cancelled."))
				return nil
			}

			snapshot, err := manager.Restore(ctx, src)
			if err != nil {
				switch {
				case errors.Is(err, storage.ErrBackupNotFound):
					return common.NewUserError("Backup file not found: "+src, err)
				case errors.Is(err, storage.ErrBackupCorrupted):
					return common.NewUserError("Backup file is damaged and was not restored: "+src, err)
				}
				return err
			}

			printLine(cmd, cli.FormatSuccess("Ledger restored from "+src))
			printLine(cmd, cli.FormatInfo("Previous ledger kept at "+snapshot))
			return nil
		},
	}

	cmd.Flags().BoolVar(&pick, "pick", false, "choose the backup interactively")
	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func listBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups and safety snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			manager, err := newBackupManager(store)
			if err != nil {
				return err
			}

			backups, err := manager.List(ctx)
			if err != nil {
				return err
			}
			if len(backups) == 0 {
				printLine(cmd, cli.InfoStyle.Render("No backups in "+manager.Dir()))
				return nil
			}

			rows := make([][]string, 0, len(backups))
			for _, b := range backups {
				rows = append(rows, []string{
					b.ModifiedAt.Format("2006-01-02 15:04:05"), string(b.Kind), formatSize(b.Size), b.Path,
				})
			}
			printLine(cmd, cli.RenderTable([]string{"Modified", "Kind", "Size", "Path"}, rows, 2))
			return nil
		},
	}
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
