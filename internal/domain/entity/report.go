package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReportStatus represents the review state of a report
type ReportStatus string

const (
	ReportStatusPendingReview ReportStatus = "Pending Review"
	ReportStatusCompleted     ReportStatus = "Completed"
)

// reportTransitions lists the allowed target states for each state.
// Completed is terminal.
var reportTransitions = map[ReportStatus][]ReportStatus{
	ReportStatusPendingReview: {ReportStatusCompleted},
	ReportStatusCompleted:     {},
}

// TransitionError is returned when a status change is not allowed
type TransitionError struct {
	From ReportStatus
	To   ReportStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid report status transition: %q -> %q", e.From, e.To)
}

// IsValid checks if the status is a known report status
func (s ReportStatus) IsValid() bool {
	_, ok := reportTransitions[s]
	return ok
}

// CanTransitionTo checks the transition table
func (s ReportStatus) CanTransitionTo(target ReportStatus) bool {
	for _, allowed := range reportTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Report links a patient, a stored scan, its classification and the review status
type Report struct {
	ID              int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientID       uuid.UUID    `gorm:"type:uuid;not null;index" json:"patient_id"`
	ImageURL        string       `gorm:"type:text;not null" json:"image_url"`
	GradcamImageURL *string      `gorm:"type:text" json:"gradcam_image_url"`
	Prediction      string       `gorm:"type:varchar(50);not null" json:"prediction"`
	Confidence      *float64     `json:"confidence"`
	Location        *string      `gorm:"type:varchar(255)" json:"location"`
	TumorSize       *string      `gorm:"type:varchar(100)" json:"tumor_size"`
	TumorGrade      *string      `gorm:"type:varchar(50)" json:"tumor_grade"`
	Recommendation  *string      `gorm:"type:text" json:"recommendation"`
	PatientAge      *int         `json:"patient_age"`
	PatientGender   *string      `gorm:"type:varchar(20)" json:"patient_gender"`
	Status          ReportStatus `gorm:"type:varchar(30);not null;default:'Pending Review';index" json:"status"`
	CreatedAt       time.Time    `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient  *Profile        `gorm:"foreignKey:PatientID;references:ID" json:"patient,omitempty"`
	Analysis *DoctorAnalysis `gorm:"foreignKey:ReportID" json:"analysis,omitempty"`
}

func (Report) TableName() string {
	return "reports"
}

// IsCompleted checks if the report has been reviewed
func (r *Report) IsCompleted() bool {
	return r.Status == ReportStatusCompleted
}

// Complete moves the report to Completed if the transition table allows it
func (r *Report) Complete() error {
	if !r.Status.CanTransitionTo(ReportStatusCompleted) {
		return &TransitionError{From: r.Status, To: ReportStatusCompleted}
	}
	r.Status = ReportStatusCompleted
	return nil
}

// IsOwnedBy checks if the report belongs to the given patient
func (r *Report) IsOwnedBy(patientID uuid.UUID) bool {
	return r.PatientID == patientID
}

// PatientName returns the joined display name or the placeholder
func (r *Report) PatientName() string {
	if r.Patient == nil || r.Patient.FullName == "" {
		return PlaceholderFullName
	}
	return r.Patient.FullName
}
