package repository

import (
	"context"
	"errors"

	"scan-review-service/internal/domain/entity"
	domainRepo "scan-review-service/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var profileDetailColumns = []string{"full_name", "title", "specialty", "institution", "updated_at"}

type profileRepository struct{}

func NewProfileRepository() domainRepo.ProfileRepository {
	return &profileRepository{}
}

func (r *profileRepository) Create(ctx context.Context, db *gorm.DB, profile *entity.Profile) error {
	if profile.Role == "" {
		profile.Role = entity.RolePatient
	}
	return db.WithContext(ctx).Create(profile).Error
}

func (r *profileRepository) FindByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Profile, error) {
	var profile entity.Profile
	err := db.WithContext(ctx).Take(&profile, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) UpdateDetails(ctx context.Context, db *gorm.DB, profile *entity.Profile) error {
	result := db.WithContext(ctx).
		Model(profile).
		Select(profileDetailColumns).
		Updates(profile)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *profileRepository) UpdateRole(ctx context.Context, db *gorm.DB, id uuid.UUID, role entity.Role) error {
	result := db.WithContext(ctx).
		Model(&entity.Profile{}).
		Where("id = ?", id).
		Update("role", role)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
