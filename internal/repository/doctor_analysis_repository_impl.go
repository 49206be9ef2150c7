package repository

import (
	"context"
	"errors"

	"scan-review-service/internal/domain/entity"
	domainRepo "scan-review-service/internal/domain/repository"

	"gorm.io/gorm"
)

type doctorAnalysisRepository struct{}

func NewDoctorAnalysisRepository() domainRepo.DoctorAnalysisRepository {
	return &doctorAnalysisRepository{}
}

func (r *doctorAnalysisRepository) Create(ctx context.Context, db *gorm.DB, analysis *entity.DoctorAnalysis) error {
	return db.WithContext(ctx).Create(analysis).Error
}

func (r *doctorAnalysisRepository) FindByReportID(ctx context.Context, db *gorm.DB, reportID int64) (*entity.DoctorAnalysis, error) {
	var analysis entity.DoctorAnalysis
	err := db.WithContext(ctx).Where("report_id = ?", reportID).First(&analysis).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &analysis, nil
}
