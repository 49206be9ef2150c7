// Package main implements scanctl, the admin CLI for the scan review service.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"scan-review-service/cmd/bootstrap"
	"scan-review-service/config"
	"scan-review-service/internal/repository"
	"scan-review-service/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scanctl",
	Short: "Admin CLI for the scan review service",
	Long: `scanctl runs administrative operations against the scan review database
and storage: schema migrations, role assignment, locator repair, token
revocation and audit log inspection.

Configuration is read from .env and the environment, like the server.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(locatorsCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(auditCmd)
}

// environment is what most commands need: config, database and an audit service
type environment struct {
	cfg          *config.Config
	db           *gorm.DB
	log          *logrus.Logger
	auditService service.AuditService
}

func loadEnvironment() (*environment, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	bootstrap.SetupLogger(cfg.App)
	logrus.SetOutput(os.Stderr)

	db, err := bootstrap.OpenDatabase(cfg)
	if err != nil {
		return nil, err
	}

	log := logrus.StandardLogger()
	return &environment{
		cfg:          cfg,
		db:           db,
		log:          log,
		auditService: service.NewAuditService(db, log, repository.NewAuditLogRepository()),
	}, nil
}

func (e *environment) Close() {
	if sqlDB, err := e.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
