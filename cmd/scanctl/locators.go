package main

import (
	"context"
	"time"

	"scan-review-service/cmd/bootstrap"
	"scan-review-service/internal/repository"
	"scan-review-service/internal/usecase"

	"github.com/spf13/cobra"
)

var repairDryRun bool

func init() {
	repairLocatorsCmd.Flags().BoolVar(&repairDryRun, "dry-run", false, "Show what would change without writing")
	locatorsCmd.AddCommand(repairLocatorsCmd)
}

var locatorsCmd = &cobra.Command{
	Use:   "locators",
	Short: "Inspect and fix stored artifact locators",
}

var repairLocatorsCmd = &cobra.Command{
	Use:   "repair",
	Short: "Normalize stored image and overlay locators",
	Long: `Rewrite report image and overlay locators into their normalized absolute form.

Locators that cannot be normalized are listed as skipped and left untouched.

Examples:
  scanctl locators repair --dry-run
  scanctl locators repair`,
	RunE: runRepairLocators,
}

func runRepairLocators(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer env.Close()

	store, err := bootstrap.NewStorage(ctx, env.cfg, env.log)
	if err != nil {
		return err
	}
	defer store.Close()

	repair := usecase.NewLocatorRepairUsecase(env.db, env.log, repository.NewReportRepository(), store.Client, env.auditService)
	summary, err := repair.Repair(ctx, repairDryRun)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), summary)
}
