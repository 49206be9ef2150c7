package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

// UploadReportRequest holds the optional clinical metadata sent with a scan
type UploadReportRequest struct {
	Location       *string `form:"location" validate:"omitempty,max=255"`
	TumorSize      *string `form:"tumor_size" validate:"omitempty,max=100"`
	TumorGrade     *string `form:"tumor_grade" validate:"omitempty,max=50"`
	Recommendation *string `form:"recommendation" validate:"omitempty,max=10000"`
	PatientAge     *int    `form:"patient_age" validate:"omitempty,gte=0,lte=150"`
	PatientGender  *string `form:"patient_gender" validate:"omitempty,max=20"`
}

// Response DTOs

type ReportResponse struct {
	ID              int64             `json:"id"`
	PatientID       uuid.UUID         `json:"patient_id"`
	PatientName     string            `json:"patient_name"`
	ImageURL        string            `json:"image_url"`
	GradcamImageURL *string           `json:"gradcam_image_url"`
	Prediction      string            `json:"prediction"`
	Confidence      *float64          `json:"confidence"`
	Location        *string           `json:"location"`
	TumorSize       *string           `json:"tumor_size"`
	TumorGrade      *string           `json:"tumor_grade"`
	Recommendation  *string           `json:"recommendation"`
	PatientAge      *int              `json:"patient_age"`
	PatientGender   *string           `json:"patient_gender"`
	Status          string            `json:"status"`
	Analysis        *AnalysisResponse `json:"analysis,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type ReportListResponse struct {
	Reports []ReportResponse `json:"reports"`
	Total   int              `json:"total"`
}
