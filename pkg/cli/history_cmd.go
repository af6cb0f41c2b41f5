package cli

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	// Drivers for the conversation history store.
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"semcube/internal/history"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage the conversation history store",
	}
	cmd.AddCommand(newHistoryMigrateCmd())
	return cmd
}

func newHistoryMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending conversation history migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd.Context())
			if err := cfg.ValidateHistory(); err != nil {
				return err
			}

			driver := cfg.HistoryDriver
			if driver == "postgres" {
				driver = "pgx"
			}
			db, err := sql.Open(driver, cfg.HistoryDSN)
			if err != nil {
				return fmt.Errorf("open history database: %w", err)
			}
			defer db.Close()

			if err := history.RunMigrations(db, cfg.HistoryDriver); err != nil {
				return err
			}
			slog.Info("history migrations applied", "driver", cfg.HistoryDriver)
			return nil
		},
	}
}
