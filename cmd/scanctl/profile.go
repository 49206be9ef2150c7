package main

import (
	"context"
	"fmt"

	"scan-review-service/internal/domain/entity"
	"scan-review-service/internal/repository"
	"scan-review-service/internal/usecase"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func init() {
	profileCmd.AddCommand(setRoleCmd)
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage user profiles",
}

var setRoleCmd = &cobra.Command{
	Use:   "set-role <user-id> <Patient|Doctor>",
	Short: "Assign a role to a user",
	Long: `Assign a role to a user. Roles cannot be changed through the API.

Examples:
  scanctl profile set-role 6f1c0c2e-0b7a-4e57-9f55-2f1d4f0f6c11 Doctor`,
	Args: cobra.ExactArgs(2),
	RunE: runSetRole,
}

func runSetRole(cmd *cobra.Command, args []string) error {
	userID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", args[0], err)
	}

	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer env.Close()

	profiles := usecase.NewProfileUsecase(env.db, env.log, repository.NewProfileRepository(), env.auditService)
	profile, err := profiles.AssignRole(context.Background(), userID, entity.Role(args[1]))
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), profile)
}
