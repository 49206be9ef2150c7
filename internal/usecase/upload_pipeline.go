package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"scan-review-service/internal/converter"
	"scan-review-service/internal/delivery/dto"
	"scan-review-service/internal/domain/entity"
	"scan-review-service/internal/domain/repository"
	"scan-review-service/internal/infrastructure/inference"
	"scan-review-service/internal/infrastructure/storage"
	"scan-review-service/internal/service"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Pipeline step names
const (
	StepClassify      = "classify"
	StepStoreImage    = "store_image"
	StepStoreOverlay  = "store_overlay"
	StepComposeReport = "compose_report"
	StepInsertReport  = "insert_report"
)

// Step outcomes as recorded in metrics
const (
	stepResultOK       = "ok"
	stepResultFailed   = "failed"
	stepResultDegraded = "degraded"
	stepResultSkipped  = "skipped"
)

var ErrEmptyUpload = errors.New("uploaded file is empty")

var pipelineStepsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "scan_pipeline_steps_total",
		Help: "Upload pipeline step outcomes",
	},
	[]string{"step", "result"},
)

// StepPolicy decides what a step failure does to the upload
type StepPolicy int

const (
	// Required failures abort the upload
	Required StepPolicy = iota
	// BestEffort failures are logged and the upload continues without the step's output
	BestEffort
)

// PipelineError tells which step aborted an upload
type PipelineError struct {
	Step string
	Err  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("upload step %s failed: %v", e.Step, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// ArtifactStore is the part of the storage client the pipeline writes through
type ArtifactStore interface {
	Put(ctx context.Context, namespace uuid.UUID, data []byte, filename, contentType string) (*storage.Artifact, error)
	PutOverlay(ctx context.Context, namespace uuid.UUID, data []byte) (*storage.Artifact, error)
}

// UploadCommand is one validated scan upload
type UploadCommand struct {
	PatientID   uuid.UUID
	Filename    string
	ContentType string
	Data        []byte
	Metadata    dto.UploadReportRequest
}

type UploadPipeline interface {
	Run(ctx context.Context, cmd *UploadCommand) (*dto.ReportResponse, error)
}

// RetryPolicy bounds classification attempts
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

type uploadPipeline struct {
	db           *gorm.DB
	log          *logrus.Logger
	gateway      inference.Gateway
	store        ArtifactStore
	reportRepo   repository.ReportRepository
	auditService service.AuditService
	retry        RetryPolicy
}

func NewUploadPipeline(
	db *gorm.DB,
	log *logrus.Logger,
	gateway inference.Gateway,
	store ArtifactStore,
	reportRepo repository.ReportRepository,
	auditService service.AuditService,
	retry RetryPolicy,
) UploadPipeline {
	if retry.Attempts < 1 {
		retry.Attempts = 1
	}
	return &uploadPipeline{
		db:           db,
		log:          log,
		gateway:      gateway,
		store:        store,
		reportRepo:   reportRepo,
		auditService: auditService,
		retry:        retry,
	}
}

type uploadState struct {
	cmd            *UploadCommand
	classification *inference.Result
	image          *storage.Artifact
	overlay        *storage.Artifact
	report         *entity.Report
}

// storedKeys lists artifacts already written for this upload
func (s *uploadState) storedKeys() []string {
	var keys []string
	if s.image != nil {
		keys = append(keys, s.image.Key)
	}
	if s.overlay != nil {
		keys = append(keys, s.overlay.Key)
	}
	return keys
}

type pipelineStep struct {
	name   string
	policy StepPolicy
	skip   func(*uploadState) bool
	run    func(context.Context, *uploadState) error
}

func (p *uploadPipeline) steps() []pipelineStep {
	return []pipelineStep{
		{name: StepClassify, policy: Required, run: p.classify},
		{name: StepStoreImage, policy: Required, run: p.storeImage},
		{
			name:   StepStoreOverlay,
			policy: BestEffort,
			skip:   func(s *uploadState) bool { return !s.classification.HasOverlay() },
			run:    p.storeOverlay,
		},
		{name: StepComposeReport, policy: Required, run: p.composeReport},
		{name: StepInsertReport, policy: Required, run: p.insertReport},
	}
}

// Run turns an uploaded scan into a Pending Review report.
//
// Flow:
// 1. classify (retrying only while the model service is unavailable)
// 2. store the original image under the patient's namespace
// 3. store the explanation overlay if the model returned one (best effort)
// 4. compose and insert the report
//
// Nothing is written before classification succeeds. Artifacts stored before a
// failed insert are not removed; their keys are logged.
func (p *uploadPipeline) Run(ctx context.Context, cmd *UploadCommand) (*dto.ReportResponse, error) {
	if len(cmd.Data) == 0 {
		return nil, ErrEmptyUpload
	}

	state := &uploadState{cmd: cmd}
	fields := logrus.Fields{"patient_id": cmd.PatientID}

	for _, step := range p.steps() {
		if step.skip != nil && step.skip(state) {
			pipelineStepsTotal.WithLabelValues(step.name, stepResultSkipped).Inc()
			continue
		}

		err := step.run(ctx, state)
		if err == nil {
			pipelineStepsTotal.WithLabelValues(step.name, stepResultOK).Inc()
			continue
		}

		if step.policy == BestEffort {
			pipelineStepsTotal.WithLabelValues(step.name, stepResultDegraded).Inc()
			p.log.WithFields(fields).WithField("step", step.name).Warnf("Optional upload step failed, continuing: %+v", err)
			continue
		}

		pipelineStepsTotal.WithLabelValues(step.name, stepResultFailed).Inc()
		entry := p.log.WithFields(fields).WithField("step", step.name)
		if keys := state.storedKeys(); len(keys) > 0 {
			entry = entry.WithField("orphaned_keys", keys)
		}
		entry.Errorf("Upload failed: %+v", err)

		return nil, &PipelineError{Step: step.name, Err: err}
	}

	report := state.report
	if err := p.auditService.Record(ctx, nil, service.Change{
		Actor:    &cmd.PatientID,
		Action:   entity.AuditActionReportCreate,
		Entity:   "report",
		EntityID: strconv.FormatInt(report.ID, 10),
		New: map[string]interface{}{
			"prediction":        report.Prediction,
			"image_url":         report.ImageURL,
			"gradcam_image_url": report.GradcamImageURL,
		},
	}); err != nil {
		p.log.WithFields(fields).WithField("report_id", report.ID).Warnf("Report created without audit entry: %+v", err)
	}

	if detailed, err := p.reportRepo.FindWithDetails(ctx, p.db, report.ID); err == nil && detailed != nil {
		report = detailed
	}

	p.log.WithFields(fields).WithField("report_id", report.ID).Info("Report created")

	return converter.ReportToResponse(report), nil
}

func (p *uploadPipeline) classify(ctx context.Context, state *uploadState) error {
	cmd := state.cmd
	attempt := 0
	var lastErr error

	operation := func() error {
		attempt++
		result, err := p.gateway.Classify(ctx, cmd.Data, cmd.Filename, cmd.ContentType)
		if err != nil {
			lastErr = err
			if inference.IsRetryable(err) && attempt < p.retry.Attempts {
				p.log.WithFields(logrus.Fields{"patient_id": cmd.PatientID, "attempt": attempt}).Warnf("Classification unavailable, retrying: %+v", err)
				return err
			}
			return backoff.Permanent(err)
		}
		state.classification = result
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	if p.retry.BaseDelay > 0 {
		policy.InitialInterval = p.retry.BaseDelay
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(p.retry.Attempts-1)), ctx))
	if err == nil || inference.KindOf(err) != "" {
		return err
	}

	// the request ended while waiting between attempts; backoff hands back
	// the bare context error
	kind := inference.KindServiceUnavailable
	if errors.Is(err, context.DeadlineExceeded) {
		kind = inference.KindTimeout
	}
	return &inference.ClassificationError{
		Kind:    kind,
		Message: "request ended before classification could be retried",
		Err:     errors.Join(err, lastErr),
	}
}

func (p *uploadPipeline) storeImage(ctx context.Context, state *uploadState) error {
	cmd := state.cmd
	artifact, err := p.store.Put(ctx, cmd.PatientID, cmd.Data, cmd.Filename, cmd.ContentType)
	if err != nil {
		return err
	}
	state.image = artifact
	return nil
}

func (p *uploadPipeline) storeOverlay(ctx context.Context, state *uploadState) error {
	artifact, err := p.store.PutOverlay(ctx, state.cmd.PatientID, state.classification.Overlay)
	if err != nil {
		return err
	}
	state.overlay = artifact
	return nil
}

func (p *uploadPipeline) composeReport(ctx context.Context, state *uploadState) error {
	meta := state.cmd.Metadata
	report := &entity.Report{
		PatientID:      state.cmd.PatientID,
		ImageURL:       state.image.Locator,
		Prediction:     state.classification.Label,
		Confidence:     state.classification.Confidence,
		Location:       meta.Location,
		TumorSize:      meta.TumorSize,
		TumorGrade:     meta.TumorGrade,
		Recommendation: meta.Recommendation,
		PatientAge:     meta.PatientAge,
		PatientGender:  meta.PatientGender,
		Status:         entity.ReportStatusPendingReview,
	}
	if state.overlay != nil {
		locator := state.overlay.Locator
		report.GradcamImageURL = &locator
	}
	state.report = report
	return nil
}

func (p *uploadPipeline) insertReport(ctx context.Context, state *uploadState) error {
	return p.reportRepo.Create(ctx, p.db, state.report)
}
