package usecase

import (
	"context"
	"errors"
	"strings"

	"scan-review-service/internal/converter"
	"scan-review-service/internal/delivery/dto"
	"scan-review-service/internal/domain/entity"
	"scan-review-service/internal/domain/repository"
	"scan-review-service/internal/infrastructure/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrForbidden      = errors.New("you are not allowed to access this resource")
	ErrReportNotFound = errors.New("report not found")
)

// ReportAccessUsecase decides which reports and artifacts a caller may see.
// Doctors see everything; patients only what they own.
type ReportAccessUsecase interface {
	ListReports(ctx context.Context, callerID uuid.UUID) (*dto.ReportListResponse, error)
	GetReport(ctx context.Context, callerID uuid.UUID, reportID int64) (*dto.ReportResponse, error)
	LoadReport(ctx context.Context, callerID uuid.UUID, reportID int64) (*entity.Report, error)
	AuthorizeArtifact(ctx context.Context, callerID uuid.UUID, key string) error
}

type reportAccessUsecase struct {
	db         *gorm.DB
	log        *logrus.Logger
	reportRepo repository.ReportRepository
	profiles   ProfileUsecase
}

func NewReportAccessUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	reportRepo repository.ReportRepository,
	profiles ProfileUsecase,
) ReportAccessUsecase {
	return &reportAccessUsecase{
		db:         db,
		log:        log,
		reportRepo: reportRepo,
		profiles:   profiles,
	}
}

// ListReports returns the caller's visible reports, newest first
func (u *reportAccessUsecase) ListReports(ctx context.Context, callerID uuid.UUID) (*dto.ReportListResponse, error) {
	profile, err := u.profiles.Resolve(ctx, callerID)
	if err != nil {
		return nil, err
	}

	filter := &entity.ReportFilter{}
	if !profile.IsDoctor() {
		filter.PatientID = &callerID
	}

	reports, err := u.reportRepo.FindAll(ctx, u.db, filter)
	if err != nil {
		u.log.Warnf("Failed to list reports for %s: %+v", callerID, err)
		return nil, err
	}

	return &dto.ReportListResponse{
		Reports: converter.ReportsToResponses(reports),
		Total:   len(reports),
	}, nil
}

func (u *reportAccessUsecase) GetReport(ctx context.Context, callerID uuid.UUID, reportID int64) (*dto.ReportResponse, error) {
	report, err := u.LoadReport(ctx, callerID, reportID)
	if err != nil {
		return nil, err
	}
	return converter.ReportToResponse(report), nil
}

// LoadReport returns the report with its patient and analysis if the caller may see it
func (u *reportAccessUsecase) LoadReport(ctx context.Context, callerID uuid.UUID, reportID int64) (*entity.Report, error) {
	profile, err := u.profiles.Resolve(ctx, callerID)
	if err != nil {
		return nil, err
	}

	report, err := u.reportRepo.FindWithDetails(ctx, u.db, reportID)
	if err != nil {
		u.log.Warnf("Failed to find report %d: %+v", reportID, err)
		return nil, err
	}
	if report == nil {
		return nil, ErrReportNotFound
	}

	if !profile.IsDoctor() && !report.IsOwnedBy(callerID) {
		u.log.WithFields(logrus.Fields{"report_id": reportID, "caller_id": callerID}).Warn("Denied access to another patient's report")
		return nil, ErrForbidden
	}

	return report, nil
}

// AuthorizeArtifact allows doctors to read any key and patients only keys in their own namespace
func (u *reportAccessUsecase) AuthorizeArtifact(ctx context.Context, callerID uuid.UUID, key string) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}

	profile, err := u.profiles.Resolve(ctx, callerID)
	if err != nil {
		return err
	}
	if profile.IsDoctor() {
		return nil
	}

	if !strings.EqualFold(storage.Namespace(key), callerID.String()) {
		return ErrForbidden
	}
	return nil
}
