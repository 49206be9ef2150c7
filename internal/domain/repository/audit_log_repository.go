package repository

import (
	"context"

	"scan-review-service/internal/domain/entity"

	"gorm.io/gorm"
)

// AuditLogRepository is append-only; entries are never updated or deleted.
type AuditLogRepository interface {
	Create(ctx context.Context, db *gorm.DB, entry *entity.AuditLog) error
	// FindByAction orders newest first. limit <= 0 means no limit.
	FindByAction(ctx context.Context, db *gorm.DB, action string, limit int) ([]entity.AuditLog, error)
}
