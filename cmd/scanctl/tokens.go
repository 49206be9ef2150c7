package main

import (
	"context"
	"fmt"
	"time"

	"scan-review-service/cmd/bootstrap"
	"scan-review-service/config"
	"scan-review-service/internal/infrastructure/cache"
	"scan-review-service/pkg/jwt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	revokeTTL  time.Duration
	issueEmail string
	issueTTL   time.Duration
)

func init() {
	revokeTokenCmd.Flags().DurationVar(&revokeTTL, "ttl", 24*time.Hour, "How long to keep the token id on the denylist")
	issueTokenCmd.Flags().StringVar(&issueEmail, "email", "", "Email claim")
	issueTokenCmd.Flags().DurationVar(&issueTTL, "ttl", time.Hour, "Token lifetime")

	tokensCmd.AddCommand(revokeTokenCmd)
	tokensCmd.AddCommand(issueTokenCmd)
}

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Manage access tokens",
}

var revokeTokenCmd = &cobra.Command{
	Use:   "revoke <token-id>",
	Short: "Deny a token by its id (jti or session_id)",
	Long: `Add a token id to the Redis denylist checked by the API.

Examples:
  scanctl tokens revoke 2b0f5a3e-4c1d-4f7e-8d9a-0e6b7c5d4a3f --ttl 2h`,
	Args: cobra.ExactArgs(1),
	RunE: runRevokeToken,
}

var issueTokenCmd = &cobra.Command{
	Use:   "issue <user-id>",
	Short: "Sign a development token with JWT_SECRET",
	Long: `Sign an access token the way the identity provider does, for local testing.

Examples:
  scanctl tokens issue 6f1c0c2e-0b7a-4e57-9f55-2f1d4f0f6c11 --email doctor@example.org`,
	Args: cobra.ExactArgs(1),
	RunE: runIssueToken,
}

func runRevokeToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.Redis.Enabled() {
		return fmt.Errorf("REDIS_HOST is not set, there is no denylist to write to")
	}

	client, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := cache.NewTokenDenylist(client).Revoke(ctx, args[0], revokeTTL); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "revoked %s for %s\n", args[0], revokeTTL)
	return nil
}

func runIssueToken(cmd *cobra.Command, args []string) error {
	userID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", args[0], err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := bootstrap.RequireSigningSecret(cfg.JWT); err != nil {
		return err
	}

	token, tokenID, err := jwt.NewJWTService(cfg.JWT).GenerateAccessToken(userID, issueEmail, issueTTL)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), map[string]string{
		"access_token": token,
		"token_id":     tokenID,
	})
}
