package repository

import (
	"context"

	"scan-review-service/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileRepository keeps onboarding fields and the role on separate write
// paths: UpdateDetails never touches role, UpdateRole touches nothing else.
type ProfileRepository interface {
	Create(ctx context.Context, db *gorm.DB, profile *entity.Profile) error
	// FindByID returns nil, nil when the user has no profile yet.
	FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Profile, error)
	UpdateDetails(ctx context.Context, db *gorm.DB, profile *entity.Profile) error
	UpdateRole(ctx context.Context, db *gorm.DB, id uuid.UUID, role entity.Role) error
}
