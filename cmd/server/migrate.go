package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	sqliteRepo "github.com/sakif/cert-tracker/internal/repository/sqlite"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Long: `migrate opens the database and applies every schema migration.

Migrations are idempotent and also run when the server starts; this command
exists so deployments can migrate before switching traffic.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := sqliteRepo.New(a.cfg.Database.Path)
			if err != nil {
				return a.fail("migration failed", err)
			}
			defer db.Close()

			a.logger.Info("database migrated", slog.String("path", a.cfg.Database.Path))
			return nil
		},
	}
}
