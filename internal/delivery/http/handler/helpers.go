package handler

import (
	"errors"
	"net/http"
	"strconv"

	"scan-review-service/internal/delivery/http/middleware"
	"scan-review-service/internal/usecase"
	"scan-review-service/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

var errInvalidReportID = errors.New("invalid report id")

func reportIDFromPath(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidReportID
	}
	return id, nil
}

// callerFromRequest returns the authenticated user, writing 401 when there is none
func callerFromRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "User information not found")
	}
	return userID, ok
}

// writeAccessError maps access gate errors; anything else is a 500 with the given message
func writeAccessError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrForbidden):
		response.Forbidden(w, "You are not allowed to access this report")
	case errors.Is(err, usecase.ErrReportNotFound):
		response.NotFound(w, "Report not found")
	default:
		response.InternalServerError(w, fallback)
	}
}
