package entity

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a user role in the system
type Role string

// Role constants
const (
	RolePatient Role = "Patient"
	RoleDoctor  Role = "Doctor"
)

// IsValid checks if the role is one of the known roles
func (r Role) IsValid() bool {
	return r == RolePatient || r == RoleDoctor
}

// PlaceholderFullName is the display name given to profiles that were never onboarded
const PlaceholderFullName = "New User"

// Profile maps an identity-provider user to a role and display name
type Profile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Role        Role      `gorm:"type:varchar(20);not null;default:'Patient';index" json:"role"`
	FullName    string    `gorm:"type:varchar(255);not null" json:"full_name"`
	Email       string    `gorm:"type:varchar(255)" json:"email,omitempty"`
	Title       string    `gorm:"type:varchar(100)" json:"title,omitempty"`
	Specialty   string    `gorm:"type:varchar(100)" json:"specialty,omitempty"`
	Institution string    `gorm:"type:varchar(255)" json:"institution,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// IsDoctor checks if the profile has the Doctor role
func (p *Profile) IsDoctor() bool {
	return p != nil && p.Role == RoleDoctor
}

// NewPlaceholderProfile builds the restrictive default used when no profile exists
func NewPlaceholderProfile(userID uuid.UUID) *Profile {
	return &Profile{
		ID:       userID,
		Role:     RolePatient,
		FullName: PlaceholderFullName,
	}
}
