package handler

import (
	"encoding/json"
	"net/http"

	"scan-review-service/internal/delivery/dto"
	"scan-review-service/internal/delivery/http/middleware"
	"scan-review-service/internal/usecase"
	"scan-review-service/pkg/response"
	"scan-review-service/pkg/validator"
)

type ProfileHandler struct {
	profileUsecase usecase.ProfileUsecase
	validator      *validator.CustomValidator
}

func NewProfileHandler(profileUsecase usecase.ProfileUsecase, validator *validator.CustomValidator) *ProfileHandler {
	return &ProfileHandler{
		profileUsecase: profileUsecase,
		validator:      validator,
	}
}

// GetProfile returns the caller's profile, creating it on first access
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerFromRequest(w, r)
	if !ok {
		return
	}
	email, _ := middleware.GetUserEmailFromContext(r.Context())

	profile, err := h.profileUsecase.GetProfile(r.Context(), userID, email)
	if err != nil {
		response.InternalServerError(w, "Failed to get profile")
		return
	}

	response.Success(w, http.StatusOK, "Profile retrieved successfully", profile)
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	profile, err := h.profileUsecase.UpdateProfile(r.Context(), userID, &req)
	if err != nil {
		response.InternalServerError(w, "Failed to update profile")
		return
	}

	response.Success(w, http.StatusOK, "Profile updated successfully", profile)
}
