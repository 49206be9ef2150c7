package converter

import (
	"scan-review-service/internal/delivery/dto"
	"scan-review-service/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReportToResponse converts a Report entity (with its joined patient and analysis) to ReportResponse DTO
func ReportToResponse(report *entity.Report) *dto.ReportResponse {
	if report == nil {
		return nil
	}

	return &dto.ReportResponse{
		ID:              report.ID,
		PatientID:       report.PatientID,
		PatientName:     report.PatientName(),
		ImageURL:        report.ImageURL,
		GradcamImageURL: report.GradcamImageURL,
		Prediction:      report.Prediction,
		Confidence:      report.Confidence,
		Location:        report.Location,
		TumorSize:       report.TumorSize,
		TumorGrade:      report.TumorGrade,
		Recommendation:  report.Recommendation,
		PatientAge:      report.PatientAge,
		PatientGender:   report.PatientGender,
		Status:          string(report.Status),
		Analysis:        AnalysisToResponse(report.Analysis),
		CreatedAt:       report.CreatedAt,
		UpdatedAt:       report.UpdatedAt,
	}
}

// ReportsToResponses converts a slice of Report entities to slice of ReportResponse DTOs
func ReportsToResponses(reports []entity.Report) []dto.ReportResponse {
	responses := make([]dto.ReportResponse, len(reports))
	for i := range reports {
		responses[i] = *ReportToResponse(&reports[i])
	}
	return responses
}

// AnalysisToResponse converts a DoctorAnalysis entity to AnalysisResponse DTO
func AnalysisToResponse(analysis *entity.DoctorAnalysis) *dto.AnalysisResponse {
	if analysis == nil {
		return nil
	}

	return &dto.AnalysisResponse{
		ID:              analysis.ID,
		ReportID:        analysis.ReportID,
		DoctorID:        analysis.DoctorID,
		DoctorNotes:     analysis.DoctorNotes,
		PatientSummary:  analysis.PatientSummary,
		Location:        analysis.Location,
		SizeLengthCm:    decimalToFloat(analysis.SizeLengthCm),
		SizeWidthCm:     decimalToFloat(analysis.SizeWidthCm),
		EdemaPresent:    analysis.EdemaPresent,
		ContrastPattern: analysis.ContrastPattern,
		TumorGrade:      analysis.TumorGrade,
		Recommendation:  analysis.Recommendation,
		PatientAge:      analysis.PatientAge,
		PatientGender:   analysis.PatientGender,
		CreatedAt:       analysis.CreatedAt,
	}
}

// AnalysisRequestToEntity builds the DoctorAnalysis row from a normalized request. Blank text fields become NULL.
func AnalysisRequestToEntity(req *dto.SubmitAnalysisRequest, reportID int64, doctorID uuid.UUID) *entity.DoctorAnalysis {
	return &entity.DoctorAnalysis{
		ReportID:        reportID,
		DoctorID:        doctorID,
		DoctorNotes:     dto.OptionalString(req.DoctorNotes),
		PatientSummary:  dto.OptionalString(req.PatientSummary),
		Location:        dto.OptionalString(req.Location),
		SizeLengthCm:    roundSize(req.SizeLengthCm.Decimal()),
		SizeWidthCm:     roundSize(req.SizeWidthCm.Decimal()),
		EdemaPresent:    req.EdemaPresent,
		ContrastPattern: dto.OptionalString(req.ContrastPattern),
		TumorGrade:      dto.OptionalString(req.TumorGrade),
		Recommendation:  dto.OptionalString(req.Recommendation),
		PatientAge:      req.PatientAge.Int(),
		PatientGender:   dto.OptionalString(req.PatientGender),
	}
}

// roundSize applies the stored scale so responses echo what the database keeps
func roundSize(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	rounded := d.Round(dto.SizePlaces)
	return &rounded
}

func decimalToFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}
