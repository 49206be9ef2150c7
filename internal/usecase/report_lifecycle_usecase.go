package usecase

import (
	"context"
	"errors"
	"strconv"

	"scan-review-service/internal/converter"
	"scan-review-service/internal/delivery/dto"
	"scan-review-service/internal/domain/entity"
	"scan-review-service/internal/domain/repository"
	repoimpl "scan-review-service/internal/repository"
	"scan-review-service/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAnalysisNotFound      = errors.New("analysis not found")
	ErrReportAlreadyReviewed = errors.New("report has already been reviewed")
)

// ReportLifecycleUsecase moves reports from Pending Review to Completed by attaching a doctor analysis.
type ReportLifecycleUsecase interface {
	SubmitAnalysis(ctx context.Context, reportID int64, doctorID uuid.UUID, req *dto.SubmitAnalysisRequest) (*dto.AnalysisResponse, error)
	GetAnalysis(ctx context.Context, reportID int64) (*dto.AnalysisResponse, error)
}

type reportLifecycleUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	reportRepo   repository.ReportRepository
	analysisRepo repository.DoctorAnalysisRepository
	profiles     ProfileUsecase
	auditService service.AuditService
}

func NewReportLifecycleUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	reportRepo repository.ReportRepository,
	analysisRepo repository.DoctorAnalysisRepository,
	profiles ProfileUsecase,
	auditService service.AuditService,
) ReportLifecycleUsecase {
	return &reportLifecycleUsecase{
		db:           db,
		log:          log,
		reportRepo:   reportRepo,
		analysisRepo: analysisRepo,
		profiles:     profiles,
		auditService: auditService,
	}
}

// SubmitAnalysis records a doctor's analysis and completes the report.
//
// Flow:
// 1. Caller must resolve to a Doctor (nothing is touched otherwise)
// 2. Report must exist and its status must allow Pending Review -> Completed
// 3. In one transaction: insert analysis, conditional status update, audit entry
// 4. If the conditional update hits no row, another review won the race -> rollback
func (u *reportLifecycleUsecase) SubmitAnalysis(ctx context.Context, reportID int64, doctorID uuid.UUID, req *dto.SubmitAnalysisRequest) (*dto.AnalysisResponse, error) {
	profile, err := u.profiles.Resolve(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if !profile.IsDoctor() {
		return nil, ErrForbidden
	}

	fields := logrus.Fields{"report_id": reportID, "doctor_id": doctorID}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	report, err := u.reportRepo.FindByID(ctx, tx, reportID)
	if err != nil {
		u.log.WithFields(fields).Warnf("Failed to find report: %+v", err)
		return nil, err
	}
	if report == nil {
		return nil, ErrReportNotFound
	}

	if err := report.Complete(); err != nil {
		var transitionErr *entity.TransitionError
		if errors.As(err, &transitionErr) {
			return nil, ErrReportAlreadyReviewed
		}
		return nil, err
	}

	analysis := converter.AnalysisRequestToEntity(req, reportID, doctorID)
	if err := u.analysisRepo.Create(ctx, tx, analysis); err != nil {
		if repoimpl.IsUniqueViolation(err) {
			return nil, ErrReportAlreadyReviewed
		}
		u.log.WithFields(fields).Warnf("Failed to insert analysis: %+v", err)
		return nil, err
	}

	affected, err := u.reportRepo.MarkCompleted(ctx, tx, reportID)
	if err != nil {
		u.log.WithFields(fields).Warnf("Failed to complete report: %+v", err)
		return nil, err
	}
	if affected == 0 {
		return nil, ErrReportAlreadyReviewed
	}

	response := converter.AnalysisToResponse(analysis)
	if err := u.auditService.Record(ctx, tx, service.Change{
		Actor:    &doctorID,
		Action:   entity.AuditActionAnalysisSubmit,
		Entity:   "report",
		EntityID: strconv.FormatInt(reportID, 10),
		New:      response,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.WithFields(fields).Warnf("Failed to commit transaction: %+v", err)
		return nil, err
	}

	u.log.WithFields(fields).Info("Report reviewed")

	return response, nil
}

func (u *reportLifecycleUsecase) GetAnalysis(ctx context.Context, reportID int64) (*dto.AnalysisResponse, error) {
	analysis, err := u.analysisRepo.FindByReportID(ctx, u.db, reportID)
	if err != nil {
		u.log.Warnf("Failed to find analysis for report %d: %+v", reportID, err)
		return nil, err
	}
	if analysis == nil {
		return nil, ErrAnalysisNotFound
	}
	return converter.AnalysisToResponse(analysis), nil
}
