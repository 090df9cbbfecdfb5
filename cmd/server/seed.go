package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"leadtrack/internal/app/server"
	"leadtrack/internal/platform/config"
	"leadtrack/internal/platform/db"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load employees from a YAML file into the directory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.StorageDriver == config.DriverMemory {
			return fmt.Errorf("seeding the memory driver has no lasting effect")
		}
		employees, err := db.LoadSeed(seedFile)
		if err != nil {
			return err
		}
		svc, closeFn, err := server.OpenTracking(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeFn()

		n, err := db.Seed(cmd.Context(), svc, employees)
		if err != nil {
			return err
		}
		slog.Info("seed complete", "employees", n)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "employees.yaml", "Path to the employees YAML file")
	rootCmd.AddCommand(seedCmd)
}
