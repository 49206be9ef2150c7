package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"scan-review-service/internal/delivery/dto"
	"scan-review-service/internal/infrastructure/inference"
	"scan-review-service/internal/usecase"
	"scan-review-service/pkg/response"
	"scan-review-service/pkg/validator"

	"github.com/sirupsen/logrus"
)

// multipart framing allowance on top of the file itself
const multipartOverhead = 1 << 20

type UploadHandler struct {
	pipeline       usecase.UploadPipeline
	validator      *validator.CustomValidator
	log            *logrus.Logger
	maxUploadBytes int64
}

func NewUploadHandler(pipeline usecase.UploadPipeline, validator *validator.CustomValidator, log *logrus.Logger, maxUploadBytes int64) *UploadHandler {
	return &UploadHandler{
		pipeline:       pipeline,
		validator:      validator,
		log:            log,
		maxUploadBytes: maxUploadBytes,
	}
}

// Upload accepts a multipart scan ("file") plus optional clinical metadata and
// runs it through the upload pipeline.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	patientID, ok := callerFromRequest(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RequestTooLarge(w, "Uploaded file is too large")
			return
		}
		response.BadRequest(w, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		response.ValidationError(w, map[string]string{"file": "file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		response.BadRequest(w, "Failed to read uploaded file")
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		response.RequestTooLarge(w, "Uploaded file is too large")
		return
	}
	if len(data) == 0 {
		response.ValidationError(w, map[string]string{"file": "file must not be empty"})
		return
	}

	contentType, err := validator.DetectImage(data)
	if err != nil {
		response.ValidationError(w, map[string]string{"file": "file must be an image"})
		return
	}

	metadata, fieldErrors := h.parseMetadata(r)
	if len(fieldErrors) > 0 {
		response.ValidationError(w, fieldErrors)
		return
	}

	report, err := h.pipeline.Run(r.Context(), &usecase.UploadCommand{
		PatientID:   patientID,
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
		Metadata:    *metadata,
	})
	if err != nil {
		h.writePipelineError(w, err)
		return
	}

	response.Success(w, http.StatusCreated, "Scan uploaded successfully", report)
}

func (h *UploadHandler) parseMetadata(r *http.Request) (*dto.UploadReportRequest, map[string]string) {
	req := &dto.UploadReportRequest{
		Location:       formValue(r, "location"),
		TumorSize:      formValue(r, "tumor_size"),
		TumorGrade:     formValue(r, "tumor_grade"),
		Recommendation: formValue(r, "recommendation"),
		PatientGender:  formValue(r, "patient_gender"),
	}

	if raw := formValue(r, "patient_age"); raw != nil {
		age, err := strconv.Atoi(*raw)
		if err != nil {
			return nil, map[string]string{"patient_age": "patient_age must be a whole number"}
		}
		req.PatientAge = &age
	}

	if err := h.validator.Validate(req); err != nil {
		return nil, h.validator.FormatValidationErrors(err)
	}
	return req, nil
}

// formValue returns nil for absent or blank fields
func formValue(r *http.Request, name string) *string {
	value := strings.TrimSpace(r.FormValue(name))
	if value == "" {
		return nil
	}
	return &value
}

func (h *UploadHandler) writePipelineError(w http.ResponseWriter, err error) {
	var pipelineErr *usecase.PipelineError
	if !errors.As(err, &pipelineErr) {
		if errors.Is(err, usecase.ErrEmptyUpload) {
			response.ValidationError(w, map[string]string{"file": "file must not be empty"})
			return
		}
		response.InternalServerError(w, "Failed to process upload")
		return
	}

	switch pipelineErr.Step {
	case usecase.StepClassify:
		if inference.KindOf(err) == inference.KindTimeout {
			response.GatewayTimeout(w, "Classification timed out")
			return
		}
		response.BadGateway(w, "Classification failed")
	case usecase.StepStoreImage:
		response.BadGateway(w, "Failed to store scan image")
	default:
		response.InternalServerError(w, "Failed to save report")
	}
}
