package main

import (
	"fmt"

	"scan-review-service/config"
	"scan-review-service/internal/infrastructure/database"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var downSteps int

func init() {
	migrateDownCmd.Flags().IntVar(&downSteps, "steps", 1, "Number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the PostgreSQL schema",
	Long: `Apply or roll back the SQL migrations embedded in the binary.

SQLite databases build their schema automatically and are not migrated.

Examples:
  scanctl migrate up
  scanctl migrate down --steps 1
  scanctl migrate version`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd, func(m *database.Migrator) error {
			return m.Up()
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if downSteps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}
		return withMigrator(cmd, func(m *database.Migrator) error {
			return m.Down(downSteps)
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd, func(m *database.Migrator) error {
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		})
	},
}

func withMigrator(cmd *cobra.Command, fn func(m *database.Migrator) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DB.Driver == config.DBDriverSQLite {
		fmt.Fprintln(cmd.OutOrStdout(), "sqlite schema is managed automatically, nothing to do")
		return nil
	}

	migrator, err := database.NewMigrator(cfg.DB, logrus.StandardLogger())
	if err != nil {
		return err
	}
	defer migrator.Close()

	return fn(migrator)
}
