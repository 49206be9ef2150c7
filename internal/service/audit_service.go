package service

import (
	"context"
	"errors"
	"fmt"

	"scan-review-service/internal/domain/entity"
	"scan-review-service/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MaxAuditLimit caps a single audit listing.
const MaxAuditLimit = 500

var ErrUnknownAuditAction = errors.New("unknown audit action")

// Change describes one audited mutation. Actor is nil for operator jobs
// (role assignment, locator repair). Old is nil for creations.
type Change struct {
	Actor    *uuid.UUID
	Action   string
	Entity   string
	EntityID string
	Old      interface{}
	New      interface{}
}

type AuditService interface {
	// Record writes the entry through tx so it commits or rolls back with
	// the mutation. A nil tx writes directly.
	Record(ctx context.Context, tx *gorm.DB, change Change) error
	// FindByAction returns at most limit entries, newest first. limit <= 0
	// or above MaxAuditLimit is clamped to MaxAuditLimit.
	FindByAction(ctx context.Context, action string, limit int) ([]entity.AuditLog, error)
}

type auditService struct {
	db        *gorm.DB
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(db *gorm.DB, log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		db:        db,
		log:       log,
		auditRepo: auditRepo,
	}
}

func (s *auditService) Record(ctx context.Context, tx *gorm.DB, change Change) error {
	if !entity.IsAuditAction(change.Action) {
		return fmt.Errorf("%w: %q", ErrUnknownAuditAction, change.Action)
	}

	meta, err := entity.NewAuditMetadata(change.Entity, change.EntityID, change.Old, change.New)
	if err != nil {
		return err
	}

	if tx == nil {
		tx = s.db
	}

	entry := &entity.AuditLog{
		UserID:   change.Actor,
		Action:   change.Action,
		Metadata: meta,
	}
	if err := s.auditRepo.Create(ctx, tx, entry); err != nil {
		s.log.WithFields(logrus.Fields{
			"action":    change.Action,
			"entity":    change.Entity,
			"entity_id": change.EntityID,
		}).Warnf("Failed to record audit entry: %+v", err)
		return err
	}

	return nil
}

func (s *auditService) FindByAction(ctx context.Context, action string, limit int) ([]entity.AuditLog, error) {
	if !entity.IsAuditAction(action) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAuditAction, action)
	}
	if limit <= 0 || limit > MaxAuditLimit {
		limit = MaxAuditLimit
	}
	return s.auditRepo.FindByAction(ctx, s.db, action, limit)
}
