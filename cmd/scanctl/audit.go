package main

import (
	"context"
	"fmt"
	"strings"

	"scan-review-service/internal/converter"
	"scan-review-service/internal/delivery/dto"
	"scan-review-service/internal/domain/entity"

	"github.com/spf13/cobra"
)

var (
	auditAction string
	auditLimit  int
)

func init() {
	auditListCmd.Flags().StringVar(&auditAction, "action", "", "Audit action, e.g. report.create (required)")
	_ = auditListCmd.MarkFlagRequired("action")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 50, "Maximum entries to print")

	auditCmd.AddCommand(auditListCmd)
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit log",
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit entries for an action, newest first",
	Long: `List audit entries for an action, newest first.

Examples:
  scanctl audit list --action analysis.submit
  scanctl audit list --action report.locator_repair --limit 200`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !entity.IsAuditAction(auditAction) {
			return fmt.Errorf("unknown action %q, expected one of: %s", auditAction, strings.Join(entity.AuditActions(), ", "))
		}

		env, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer env.Close()

		logs, err := env.auditService.FindByAction(context.Background(), auditAction, auditLimit)
		if err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), dto.AuditLogListResponse{
			Action: auditAction,
			Logs:   converter.AuditLogsToResponses(logs),
			Total:  len(logs),
		})
	},
}
