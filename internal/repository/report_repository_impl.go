package repository

import (
	"context"
	"errors"

	"scan-review-service/internal/domain/entity"
	domainRepo "scan-review-service/internal/domain/repository"

	"gorm.io/gorm"
)

type reportRepository struct{}

func NewReportRepository() domainRepo.ReportRepository {
	return &reportRepository{}
}

func (r *reportRepository) Create(ctx context.Context, db *gorm.DB, report *entity.Report) error {
	return db.WithContext(ctx).Omit("Patient", "Analysis").Create(report).Error
}

func (r *reportRepository) FindByID(ctx context.Context, db *gorm.DB, id int64) (*entity.Report, error) {
	var report entity.Report
	err := db.WithContext(ctx).Where("id = ?", id).First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

// FindWithDetails loads the report joined with the patient profile and analysis
func (r *reportRepository) FindWithDetails(ctx context.Context, db *gorm.DB, id int64) (*entity.Report, error) {
	var report entity.Report
	err := db.WithContext(ctx).
		Preload("Patient").
		Preload("Analysis").
		Where("id = ?", id).
		First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) FindAll(ctx context.Context, db *gorm.DB, filter *entity.ReportFilter) ([]entity.Report, error) {
	query := db.WithContext(ctx).
		Preload("Patient").
		Preload("Analysis")

	if filter != nil && filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}

	var reports []entity.Report
	err := query.Order("created_at DESC").Order("id DESC").Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// MarkCompleted atomically completes a report ONLY if it is still pending review.
// Returns affected rows: 1 = success, 0 = already completed (prevents a double review).
func (r *reportRepository) MarkCompleted(ctx context.Context, db *gorm.DB, id int64) (int64, error) {
	result := db.WithContext(ctx).Model(&entity.Report{}).
		Where("id = ? AND status = ?", id, entity.ReportStatusPendingReview).
		Update("status", entity.ReportStatusCompleted)
	return result.RowsAffected, result.Error
}

func (r *reportRepository) UpdateLocators(ctx context.Context, db *gorm.DB, id int64, imageURL string, gradcamImageURL *string) error {
	return db.WithContext(ctx).Model(&entity.Report{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"image_url":         imageURL,
			"gradcam_image_url": gradcamImageURL,
		}).Error
}
