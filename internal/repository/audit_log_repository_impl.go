package repository

import (
	"context"

	"scan-review-service/internal/domain/entity"
	domainRepo "scan-review-service/internal/domain/repository"

	"gorm.io/gorm"
)

type auditLogRepository struct{}

func NewAuditLogRepository() domainRepo.AuditLogRepository {
	return &auditLogRepository{}
}

func (r *auditLogRepository) Create(ctx context.Context, db *gorm.DB, entry *entity.AuditLog) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *auditLogRepository) FindByAction(ctx context.Context, db *gorm.DB, action string, limit int) ([]entity.AuditLog, error) {
	query := db.WithContext(ctx).
		Where("action = ?", action).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	entries := make([]entity.AuditLog, 0)
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
