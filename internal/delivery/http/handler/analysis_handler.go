package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"scan-review-service/internal/delivery/dto"
	"scan-review-service/internal/usecase"
	"scan-review-service/pkg/response"
	"scan-review-service/pkg/validator"
)

type AnalysisHandler struct {
	lifecycleUsecase usecase.ReportLifecycleUsecase
	accessUsecase    usecase.ReportAccessUsecase
	validator        *validator.CustomValidator
}

func NewAnalysisHandler(lifecycleUsecase usecase.ReportLifecycleUsecase, accessUsecase usecase.ReportAccessUsecase, validator *validator.CustomValidator) *AnalysisHandler {
	return &AnalysisHandler{
		lifecycleUsecase: lifecycleUsecase,
		accessUsecase:    accessUsecase,
		validator:        validator,
	}
}

func (h *AnalysisHandler) SubmitAnalysis(w http.ResponseWriter, r *http.Request) {
	doctorID, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	reportID, err := reportIDFromPath(r)
	if err != nil {
		response.BadRequest(w, "Invalid report ID")
		return
	}

	var req dto.SubmitAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	fieldErrors := map[string]string{}
	if err := h.validator.Validate(&req); err != nil {
		fieldErrors = h.validator.FormatValidationErrors(err)
	}
	for field, message := range req.RangeErrors() {
		fieldErrors[field] = message
	}
	if len(fieldErrors) > 0 {
		response.ValidationError(w, fieldErrors)
		return
	}

	analysis, err := h.lifecycleUsecase.SubmitAnalysis(r.Context(), reportID, doctorID, &req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrReportAlreadyReviewed):
			response.Conflict(w, "Report has already been reviewed")
		case errors.Is(err, usecase.ErrForbidden):
			response.Forbidden(w, "Only doctors can submit an analysis")
		default:
			writeAccessError(w, err, "Failed to submit analysis")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Analysis submitted successfully", analysis)
}

func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	reportID, err := reportIDFromPath(r)
	if err != nil {
		response.BadRequest(w, "Invalid report ID")
		return
	}

	if _, err := h.accessUsecase.LoadReport(r.Context(), callerID, reportID); err != nil {
		writeAccessError(w, err, "Failed to get analysis")
		return
	}

	analysis, err := h.lifecycleUsecase.GetAnalysis(r.Context(), reportID)
	if err != nil {
		if errors.Is(err, usecase.ErrAnalysisNotFound) {
			response.NotFound(w, "Analysis not found")
			return
		}
		response.InternalServerError(w, "Failed to get analysis")
		return
	}

	response.Success(w, http.StatusOK, "Analysis retrieved successfully", analysis)
}
