package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"scan-review-service/config"
	"scan-review-service/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", filepath.Join(dir, "scans.db"))
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("LOG_LEVEL", "error")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "version"},
		{"profile", "set-role"},
		{"locators", "repair"},
		{"tokens", "revoke"},
		{"tokens", "issue"},
		{"audit", "list"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, "%v", path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	repair, _, err := rootCmd.Find([]string{"locators", "repair"})
	require.NoError(t, err)
	assert.NotNil(t, repair.Flags().Lookup("dry-run"))
}

func TestSetRoleAndAudit(t *testing.T) {
	setupEnv(t)
	userID := uuid.New()

	out, err := execute(t, "profile", "set-role", userID.String(), "Doctor")
	require.NoError(t, err)
	var profile struct {
		ID   uuid.UUID `json:"id"`
		Role string    `json:"role"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &profile))
	assert.Equal(t, userID, profile.ID)
	assert.Equal(t, "Doctor", profile.Role)

	_, err = execute(t, "profile", "set-role", userID.String(), "Admin")
	assert.Error(t, err)

	_, err = execute(t, "profile", "set-role", "not-a-uuid", "Doctor")
	assert.Error(t, err)

	out, err = execute(t, "audit", "list", "--action", "profile.role_assign")
	require.NoError(t, err)
	var logs struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &logs))
	assert.Equal(t, 1, logs.Total)

	_, err = execute(t, "audit", "list", "--action", "report.delete")
	assert.Error(t, err)
}

func TestRepairLocatorsDryRun(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "locators", "repair", "--dry-run")
	require.NoError(t, err)

	var summary struct {
		Scanned int  `json:"scanned"`
		DryRun  bool `json:"dry_run"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Zero(t, summary.Scanned)
	assert.True(t, summary.DryRun)
}

func TestIssueToken(t *testing.T) {
	setupEnv(t)
	userID := uuid.New()

	out, err := execute(t, "tokens", "issue", userID.String(), "--email", "doc@example.org")
	require.NoError(t, err)

	var issued map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &issued))

	identity, err := jwt.NewJWTService(config.JWTConfig{Secret: "cli-secret"}).ValidateToken(issued["access_token"])
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, "doc@example.org", identity.Email)
	assert.Equal(t, issued["token_id"], identity.TokenID)
}

func TestRevokeTokenRequiresRedis(t *testing.T) {
	setupEnv(t)
	t.Setenv("REDIS_HOST", "")

	_, err := execute(t, "tokens", "revoke", uuid.NewString())
	assert.Error(t, err)
}
