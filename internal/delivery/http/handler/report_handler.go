package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"scan-review-service/internal/service"
	"scan-review-service/internal/usecase"
	"scan-review-service/pkg/response"

	"github.com/sirupsen/logrus"
)

type ReportHandler struct {
	accessUsecase   usecase.ReportAccessUsecase
	documentService service.ReportDocumentService
	log             *logrus.Logger
}

func NewReportHandler(accessUsecase usecase.ReportAccessUsecase, documentService service.ReportDocumentService, log *logrus.Logger) *ReportHandler {
	return &ReportHandler{
		accessUsecase:   accessUsecase,
		documentService: documentService,
		log:             log,
	}
}

func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	reports, err := h.accessUsecase.ListReports(r.Context(), callerID)
	if err != nil {
		response.InternalServerError(w, "Failed to get reports")
		return
	}

	response.Success(w, http.StatusOK, "Reports retrieved successfully", reports)
}

func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	reportID, err := reportIDFromPath(r)
	if err != nil {
		response.BadRequest(w, "Invalid report ID")
		return
	}

	report, err := h.accessUsecase.GetReport(r.Context(), callerID, reportID)
	if err != nil {
		writeAccessError(w, err, "Failed to get report")
		return
	}

	response.Success(w, http.StatusOK, "Report retrieved successfully", report)
}

// ExportPDF renders the report with its images as a PDF document
func (h *ReportHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	callerID, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	reportID, err := reportIDFromPath(r)
	if err != nil {
		response.BadRequest(w, "Invalid report ID")
		return
	}

	report, err := h.accessUsecase.LoadReport(r.Context(), callerID, reportID)
	if err != nil {
		writeAccessError(w, err, "Failed to get report")
		return
	}

	document, err := h.documentService.Render(r.Context(), report)
	if err != nil {
		h.log.WithField("report_id", reportID).Errorf("Failed to render report document: %+v", err)
		response.InternalServerError(w, "Failed to render report")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="scan-report-%d.pdf"`, reportID))
	w.Header().Set("Content-Length", strconv.Itoa(document.Len()))
	w.WriteHeader(http.StatusOK)
	document.WriteTo(w)
}
