package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// UpdateProfileRequest carries onboarding fields. Role is not self-editable.
type UpdateProfileRequest struct {
	FullName    string `json:"full_name" validate:"required,min=2,max=255"`
	Title       string `json:"title" validate:"max=100"`
	Specialty   string `json:"specialty" validate:"max=100"`
	Institution string `json:"institution" validate:"max=255"`
}

// Response DTOs

type ProfileResponse struct {
	ID          uuid.UUID `json:"id"`
	Role        string    `json:"role"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email,omitempty"`
	Title       string    `json:"title,omitempty"`
	Specialty   string    `json:"specialty,omitempty"`
	Institution string    `json:"institution,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
