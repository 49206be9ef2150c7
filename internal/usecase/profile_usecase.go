package usecase

import (
	"context"
	"errors"

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
	ErrInvalidRole = errors.New("invalid role")
)

// ProfileUsecase is the profile directory: it maps identity-provider users to a role and display name.
type ProfileUsecase interface {
	GetProfile(ctx context.Context, userID uuid.UUID, email string) (*dto.ProfileResponse, error)
	Resolve(ctx context.Context, userID uuid.UUID) (*entity.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
	AssignRole(ctx context.Context, userID uuid.UUID, role entity.Role) (*dto.ProfileResponse, error)
}

type profileUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	profileRepo  repository.ProfileRepository
	auditService service.AuditService
}

func NewProfileUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	profileRepo repository.ProfileRepository,
	auditService service.AuditService,
) ProfileUsecase {
	return &profileUsecase{
		db:           db,
		log:          log,
		profileRepo:  profileRepo,
		auditService: auditService,
	}
}

// GetProfile returns the caller's profile, creating a Patient placeholder on first access
func (u *profileUsecase) GetProfile(ctx context.Context, userID uuid.UUID, email string) (*dto.ProfileResponse, error) {
	profile, err := u.profileRepo.FindByID(ctx, u.db, userID)
	if err != nil {
		u.log.Warnf("Failed to find profile %s: %+v", userID, err)
		return nil, err
	}
	if profile != nil {
		return converter.ProfileToResponse(profile), nil
	}

	profile = entity.NewPlaceholderProfile(userID)
	profile.Email = email

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.profileRepo.Create(ctx, tx, profile); err != nil {
		if !repoimpl.IsUniqueViolation(err) {
			u.log.Warnf("Failed to create profile %s: %+v", userID, err)
			return nil, err
		}
		// created concurrently by another request
		tx.Rollback()
		existing, err := u.profileRepo.FindByID(ctx, u.db, userID)
		if err != nil || existing == nil {
			u.log.Warnf("Failed to reload profile %s: %+v", userID, err)
			return nil, errors.Join(errors.New("failed to load profile"), err)
		}
		return converter.ProfileToResponse(existing), nil
	}

	if err := u.auditService.Record(ctx, tx, service.Change{
		Actor:    &userID,
		Action:   entity.AuditActionProfileCreate,
		Entity:   "profile",
		EntityID: userID.String(),
		New:      profile,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit transaction: %+v", err)
		return nil, err
	}

	return converter.ProfileToResponse(profile), nil
}

// Resolve looks up a profile without creating one. A missing profile resolves
// to the placeholder Patient, never to a Doctor.
func (u *profileUsecase) Resolve(ctx context.Context, userID uuid.UUID) (*entity.Profile, error) {
	profile, err := u.profileRepo.FindByID(ctx, u.db, userID)
	if err != nil {
		u.log.Warnf("Failed to resolve profile %s: %+v", userID, err)
		return nil, err
	}
	if profile == nil {
		return entity.NewPlaceholderProfile(userID), nil
	}
	if !profile.Role.IsValid() {
		u.log.Warnf("Profile %s has unknown role %q, treating as Patient", userID, profile.Role)
		profile.Role = entity.RolePatient
	}
	return profile, nil
}

// UpdateProfile stores onboarding fields. The role is left untouched.
func (u *profileUsecase) UpdateProfile(ctx context.Context, userID uuid.UUID, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	profile, err := u.profileRepo.FindByID(ctx, tx, userID)
	if err != nil {
		u.log.Warnf("Failed to find profile %s: %+v", userID, err)
		return nil, err
	}

	created := profile == nil
	var oldValue *dto.ProfileResponse
	if created {
		profile = entity.NewPlaceholderProfile(userID)
	} else {
		oldValue = converter.ProfileToResponse(profile)
	}

	profile.FullName = req.FullName
	profile.Title = req.Title
	profile.Specialty = req.Specialty
	profile.Institution = req.Institution

	if created {
		err = u.profileRepo.Create(ctx, tx, profile)
	} else {
		err = u.profileRepo.UpdateDetails(ctx, tx, profile)
	}
	if err != nil {
		u.log.Warnf("Failed to save profile %s: %+v", userID, err)
		return nil, err
	}

	newValue := converter.ProfileToResponse(profile)
	if err := u.auditService.Record(ctx, tx, service.Change{
		Actor:    &userID,
		Action:   entity.AuditActionProfileUpdate,
		Entity:   "profile",
		EntityID: userID.String(),
		Old:      oldValue,
		New:      newValue,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit transaction: %+v", err)
		return nil, err
	}

	return newValue, nil
}

// AssignRole is an administrative operation; no HTTP route exposes it.
func (u *profileUsecase) AssignRole(ctx context.Context, userID uuid.UUID, role entity.Role) (*dto.ProfileResponse, error) {
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	profile, err := u.profileRepo.FindByID(ctx, tx, userID)
	if err != nil {
		u.log.Warnf("Failed to find profile %s: %+v", userID, err)
		return nil, err
	}

	var oldRole interface{}
	if profile == nil {
		profile = entity.NewPlaceholderProfile(userID)
		profile.Role = role
		err = u.profileRepo.Create(ctx, tx, profile)
	} else {
		oldRole = profile.Role
		profile.Role = role
		err = u.profileRepo.UpdateRole(ctx, tx, userID, role)
	}
	if err != nil {
		u.log.Warnf("Failed to assign role to %s: %+v", userID, err)
		return nil, err
	}

	if err := u.auditService.Record(ctx, tx, service.Change{
		Action:   entity.AuditActionProfileRoleAssign,
		Entity:   "profile",
		EntityID: userID.String(),
		Old:      oldRole,
		New:      role,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed to commit transaction: %+v", err)
		return nil, err
	}

	u.log.WithFields(logrus.Fields{"profile_id": userID, "role": role}).Info("Role assigned")

	return converter.ProfileToResponse(profile), nil
}
