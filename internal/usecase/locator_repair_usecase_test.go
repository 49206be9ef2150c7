package usecase

import (
	"context"
	"testing"

	"scan-review-service/internal/domain/entity"
	"scan-review-service/internal/infrastructure/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLocators(t *testing.T, env *testEnv, image string, overlay *string) *entity.Report {
	t.Helper()
	report := env.seedReport(t, uuid.New())
	require.NoError(t, env.reportRepo.UpdateLocators(context.Background(), env.db, report.ID, image, overlay))
	return report
}

func TestLocatorRepair_NormalizesStoredLocators(t *testing.T) {
	env := newTestEnv(t)
	store := newStore(t, storage.NewMemoryBackend())
	repair := NewLocatorRepairUsecase(env.db, env.log, env.reportRepo, store, env.auditService)

	clean := seedLocators(t, env, testBaseURL+"/a/b.png", nil)
	dirty := seedLocators(t, env, "  /a/scan.png?", ptr(testBaseURL+"/a/gradcam_x.png&"))
	broken := seedLocators(t, env, "ftp://elsewhere/a.png", nil)

	summary, err := repair.Repair(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Scanned)
	assert.Equal(t, []int64{broken.ID}, summary.Skipped)
	require.Len(t, summary.Repairs, 1)
	assert.Equal(t, dirty.ID, summary.Repairs[0].ReportID)

	stored, err := env.reportRepo.FindByID(context.Background(), env.db, dirty.ID)
	require.NoError(t, err)
	assert.Equal(t, testBaseURL+"/a/scan.png", stored.ImageURL)
	require.NotNil(t, stored.GradcamImageURL)
	assert.Equal(t, testBaseURL+"/a/gradcam_x.png", *stored.GradcamImageURL)

	untouched, err := env.reportRepo.FindByID(context.Background(), env.db, clean.ID)
	require.NoError(t, err)
	assert.Equal(t, testBaseURL+"/a/b.png", untouched.ImageURL)

	logs, err := env.auditRepo.FindByAction(context.Background(), env.db, entity.AuditActionReportLocatorRepair, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	again, err := repair.Repair(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, again.Repairs)
}

func TestLocatorRepair_DryRunWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	store := newStore(t, storage.NewMemoryBackend())
	repair := NewLocatorRepairUsecase(env.db, env.log, env.reportRepo, store, env.auditService)

	dirty := seedLocators(t, env, "a/scan.png", nil)

	summary, err := repair.Repair(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, summary.Repairs, 1)
	assert.True(t, summary.DryRun)
	assert.Equal(t, testBaseURL+"/a/scan.png", summary.Repairs[0].NewImageURL)

	stored, err := env.reportRepo.FindByID(context.Background(), env.db, dirty.ID)
	require.NoError(t, err)
	assert.Equal(t, "a/scan.png", stored.ImageURL)
	assert.Zero(t, env.countRows(t, &entity.AuditLog{}))
}
