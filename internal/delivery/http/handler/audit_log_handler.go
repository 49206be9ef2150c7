package handler

import (
	"net/http"
	"strconv"
	"strings"

	"scan-review-service/internal/converter"
	"scan-review-service/internal/delivery/dto"
	"scan-review-service/internal/domain/entity"
	"scan-review-service/internal/service"
	"scan-review-service/pkg/response"
)

type AuditLogHandler struct {
	auditService service.AuditService
}

func NewAuditLogHandler(auditService service.AuditService) *AuditLogHandler {
	return &AuditLogHandler{
		auditService: auditService,
	}
}

// GetAuditLogs lists entries for one action, newest first (?action=report.create&limit=50)
func (h *AuditLogHandler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	errs := map[string]string{}

	action := strings.TrimSpace(query.Get("action"))
	if !entity.IsAuditAction(action) {
		errs["action"] = "action must be one of: " + strings.Join(entity.AuditActions(), ", ")
	}

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > service.MaxAuditLimit {
			errs["limit"] = "limit must be between 1 and " + strconv.Itoa(service.MaxAuditLimit)
		}
		limit = n
	}

	if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	logs, err := h.auditService.FindByAction(r.Context(), action, limit)
	if err != nil {
		response.InternalServerError(w, "Failed to get audit logs")
		return
	}

	response.Success(w, http.StatusOK, "Audit logs retrieved successfully", dto.AuditLogListResponse{
		Action: action,
		Logs:   converter.AuditLogsToResponses(logs),
		Total:  len(logs),
	})
}
