package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DoctorAnalysis is the structured assessment a doctor attaches to a report
type DoctorAnalysis struct {
	ID              int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	ReportID        int64            `gorm:"not null;uniqueIndex" json:"report_id"`
	DoctorID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"doctor_id"`
	DoctorNotes     *string          `gorm:"type:text" json:"doctor_notes"`
	PatientSummary  *string          `gorm:"type:text" json:"patient_summary"`
	Location        *string          `gorm:"type:varchar(255)" json:"location"`
	SizeLengthCm    *decimal.Decimal `gorm:"type:numeric(6,2)" json:"size_length_cm"`
	SizeWidthCm     *decimal.Decimal `gorm:"type:numeric(6,2)" json:"size_width_cm"`
	EdemaPresent    *bool            `json:"edema_present"`
	ContrastPattern *string          `gorm:"type:varchar(50)" json:"contrast_pattern"`
	TumorGrade      *string          `gorm:"type:varchar(50)" json:"tumor_grade"`
	Recommendation  *string          `gorm:"type:text" json:"recommendation"`
	PatientAge      *int             `json:"patient_age"`
	PatientGender   *string          `gorm:"type:varchar(20)" json:"patient_gender"`
	CreatedAt       time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func (DoctorAnalysis) TableName() string {
	return "doctor_analyses"
}
