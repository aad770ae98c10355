package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/budget-tracker/db"
	"github.com/frahmantamala/budget-tracker/internal/storage"
	"github.com/frahmantamala/budget-tracker/pkg/logger"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run the embedded db migrations (sqlite databases are auto-migrated)",
	}
	migrateRollback bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := logger.L()

	store, err := storage.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if store.Driver == "sqlite" {
		if migrateRollback {
			return fmt.Errorf("rollback is not supported for sqlite")
		}
		log.Info("auto-migrating sqlite schema")
		return store.AutoMigrate()
	}

	goose.SetBaseFS(db.Migrations)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose: %w", err)
	}

	command := "up"
	if migrateRollback {
		command = "down"
	}
	if err := goose.RunContext(ctx, command, store.SQL.DB, db.MigrationsDir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}

	log.Info("migrations applied", "command", command)
	return nil
}
