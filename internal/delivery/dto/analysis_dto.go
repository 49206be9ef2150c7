package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SizePlaces matches the numeric(6,2) size columns; sizes are rounded to it
// before range checks and storage.
const SizePlaces = 2

var maxSizeCm = decimal.NewFromInt(10000)

// Request DTOs

type SubmitAnalysisRequest struct {
	DoctorNotes     string         `json:"doctor_notes" validate:"max=10000"`
	PatientSummary  string         `json:"patient_summary" validate:"max=10000"`
	Location        string         `json:"location" validate:"max=255"`
	SizeLengthCm    OptionalNumber `json:"size_length_cm"`
	SizeWidthCm     OptionalNumber `json:"size_width_cm"`
	EdemaPresent    *bool          `json:"edema_present"`
	ContrastPattern string         `json:"contrast_pattern" validate:"max=50"`
	TumorGrade      string         `json:"tumor_grade" validate:"max=50"`
	Recommendation  string         `json:"recommendation" validate:"max=10000"`
	PatientAge      OptionalInt    `json:"patient_age"`
	PatientGender   string         `json:"patient_gender" validate:"max=20"`
}

// RangeErrors checks the normalized numeric fields, keyed like validator messages
func (r *SubmitAnalysisRequest) RangeErrors() map[string]string {
	errors := make(map[string]string)
	if msg := sizeRangeError("size_length_cm", r.SizeLengthCm); msg != "" {
		errors["size_length_cm"] = msg
	}
	if msg := sizeRangeError("size_width_cm", r.SizeWidthCm); msg != "" {
		errors["size_width_cm"] = msg
	}
	if age := r.PatientAge.Int(); age != nil && (*age < 0 || *age > 150) {
		errors["patient_age"] = "patient_age must be between 0 and 150"
	}
	return errors
}

func sizeRangeError(field string, n OptionalNumber) string {
	d := n.Decimal()
	if d == nil {
		return ""
	}
	rounded := d.Round(SizePlaces)
	if rounded.IsNegative() {
		return field + " must be greater than or equal to 0"
	}
	if rounded.GreaterThanOrEqual(maxSizeCm) {
		return field + " must be less than " + maxSizeCm.String()
	}
	return ""
}

// Response DTOs

type AnalysisResponse struct {
	ID              int64     `json:"id"`
	ReportID        int64     `json:"report_id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	DoctorNotes     *string   `json:"doctor_notes"`
	PatientSummary  *string   `json:"patient_summary"`
	Location        *string   `json:"location"`
	SizeLengthCm    *float64  `json:"size_length_cm"`
	SizeWidthCm     *float64  `json:"size_width_cm"`
	EdemaPresent    *bool     `json:"edema_present"`
	ContrastPattern *string   `json:"contrast_pattern"`
	TumorGrade      *string   `json:"tumor_grade"`
	Recommendation  *string   `json:"recommendation"`
	PatientAge      *int      `json:"patient_age"`
	PatientGender   *string   `json:"patient_gender"`
	CreatedAt       time.Time `json:"created_at"`
}
