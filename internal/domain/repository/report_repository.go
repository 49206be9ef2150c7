package repository

import (
	"context"

	"scan-review-service/internal/domain/entity"

	"gorm.io/gorm"
)

type ReportRepository interface {
	Create(ctx context.Context, db *gorm.DB, report *entity.Report) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*entity.Report, error)
	FindWithDetails(ctx context.Context, db *gorm.DB, id int64) (*entity.Report, error)
	FindAll(ctx context.Context, db *gorm.DB, filter *entity.ReportFilter) ([]entity.Report, error)
	// MarkCompleted returns affected rows: 0 means the report was not pending anymore
	MarkCompleted(ctx context.Context, db *gorm.DB, id int64) (int64, error)
	UpdateLocators(ctx context.Context, db *gorm.DB, id int64, imageURL string, gradcamImageURL *string) error
}

type DoctorAnalysisRepository interface {
	Create(ctx context.Context, db *gorm.DB, analysis *entity.DoctorAnalysis) error
	FindByReportID(ctx context.Context, db *gorm.DB, reportID int64) (*entity.DoctorAnalysis, error)
}
