package converter

import (
	"scan-review-service/internal/delivery/dto"
	"scan-review-service/internal/domain/entity"
)

// ProfileToResponse converts a Profile entity to ProfileResponse DTO
func ProfileToResponse(profile *entity.Profile) *dto.ProfileResponse {
	if profile == nil {
		return nil
	}

	return &dto.ProfileResponse{
		ID:          profile.ID,
		Role:        string(profile.Role),
		FullName:    profile.FullName,
		Email:       profile.Email,
		Title:       profile.Title,
		Specialty:   profile.Specialty,
		Institution: profile.Institution,
		CreatedAt:   profile.CreatedAt,
		UpdatedAt:   profile.UpdatedAt,
	}
}
