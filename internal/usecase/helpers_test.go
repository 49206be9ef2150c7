package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"scan-review-service/internal/domain/entity"
	"scan-review-service/internal/domain/repository"
	"scan-review-service/internal/infrastructure/database"
	"scan-review-service/internal/infrastructure/inference"
	"scan-review-service/internal/infrastructure/storage"
	repoimpl "scan-review-service/internal/repository"
	"scan-review-service/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testBaseURL = "http://localhost:8080/api/image-proxy"

type testEnv struct {
	db           *gorm.DB
	log          *logrus.Logger
	reportRepo   repository.ReportRepository
	analysisRepo repository.DoctorAnalysisRepository
	profileRepo  repository.ProfileRepository
	auditRepo    repository.AuditLogRepository
	auditService service.AuditService
	profiles     ProfileUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewSQLiteConnection(":memory:", logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := logrus.New()
	log.SetOutput(io.Discard)

	env := &testEnv{
		db:           db,
		log:          log,
		reportRepo:   repoimpl.NewReportRepository(),
		analysisRepo: repoimpl.NewDoctorAnalysisRepository(),
		profileRepo:  repoimpl.NewProfileRepository(),
		auditRepo:    repoimpl.NewAuditLogRepository(),
	}
	env.auditService = service.NewAuditService(db, log, env.auditRepo)
	env.profiles = NewProfileUsecase(db, log, env.profileRepo, env.auditService)
	return env
}

func (e *testEnv) seedProfile(t *testing.T, role entity.Role, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, e.profileRepo.Create(context.Background(), e.db, &entity.Profile{ID: id, Role: role, FullName: name}))
	return id
}

func (e *testEnv) seedReport(t *testing.T, patientID uuid.UUID) *entity.Report {
	t.Helper()
	report := &entity.Report{
		PatientID:  patientID,
		ImageURL:   testBaseURL + "/" + patientID.String() + "/" + uuid.NewString() + ".png",
		Prediction: inference.LabelGlioma,
		Status:     entity.ReportStatusPendingReview,
	}
	require.NoError(t, e.reportRepo.Create(context.Background(), e.db, report))
	return report
}

func (e *testEnv) countRows(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

// scriptedGateway answers Classify from a queue of errors, then with result
type scriptedGateway struct {
	mu     sync.Mutex
	errs   []error
	result *inference.Result
	calls  int
}

func (g *scriptedGateway) Classify(ctx context.Context, image []byte, filename, contentType string) (*inference.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		return nil, err
	}
	return g.result, nil
}

// flakyBackend is a memory backend whose writes can fail for selected keys
type flakyBackend struct {
	*storage.MemoryBackend
	failPut func(key string) bool
}

func (b *flakyBackend) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if b.failPut != nil && b.failPut(key) {
		return "", errors.New("bucket unavailable")
	}
	return b.MemoryBackend.Put(ctx, key, data, contentType)
}

func newStore(t *testing.T, backend storage.Backend) *storage.Client {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	client, err := storage.NewClient(backend, testBaseURL, log)
	require.NoError(t, err)
	return client
}

// failingReportRepository rejects every insert
type failingReportRepository struct {
	repository.ReportRepository
}

func (r *failingReportRepository) Create(ctx context.Context, db *gorm.DB, report *entity.Report) error {
	return errors.New("database is read-only")
}

func classificationErr(kind inference.ErrorKind) error {
	return &inference.ClassificationError{Kind: kind, Message: string(kind)}
}

func ptr[T any](v T) *T {
	return &v
}
