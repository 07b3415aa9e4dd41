package main

import (
	"fmt"

	"github.com/Veraticus/tithe/internal/cli"
	"github.com/Veraticus/tithe/internal/common"
	"github.com/spf13/cobra"
)

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect the ledger file",
	}

	cmd.AddCommand(dbInfoCmd())
	cmd.AddCommand(dbCheckCmd())

	return cmd
}

func dbInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show where the ledger lives and how large it is",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			info, err := store.Info(ctx)
			if err != nil {
				return err
			}

			printLine(cmd, cli.RenderBox(cli.FolderIcon+" "+info.Name, fmt.Sprintf(
				"Path:     %s\nSize:     %s\nModified: %s\nSchema:   v%d",
				info.Path, formatSize(info.Size), info.ModifiedAt.Format("2006-01-02 15:04:05"), info.SchemaVersion)))
			return nil
		},
	}
}

func dbCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run an integrity check on the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if !store.HealthCheck(ctx) {
				return common.NewUserError("The ledger could not be opened", common.ErrStorageUnavailable)
			}
			if err := store.CheckIntegrity(ctx); err != nil {
				return common.NewUserError("The ledger failed its integrity check; restore a backup", err)
			}
			if err := store.EnsureSchema(ctx); err != nil {
				return err
			}

			printLine(cmd, cli.FormatSuccess("Ledger is healthy: "+store.Path()))
			return nil
		},
	}
}
