package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"leadtrack/internal/platform/config"
	"leadtrack/internal/platform/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations for the configured driver",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		switch cfg.StorageDriver {
		case config.DriverPostgres:
			pool, err := db.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("db connect: %w", err)
			}
			defer pool.Close()
			return db.MigratePostgres(ctx, pool)
		case config.DriverSQLite:
			sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			return db.MigrateSQLite(ctx, sqlDB)
		default:
			return fmt.Errorf("storage driver %q has no migrations", cfg.StorageDriver)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
