package handler

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"scan-review-service/internal/delivery/dto"
	"scan-review-service/internal/delivery/http/middleware"
	"scan-review-service/internal/infrastructure/inference"
	"scan-review-service/internal/infrastructure/storage"
	"scan-review-service/internal/usecase"
	"scan-review-service/pkg/validator"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPipeline struct {
	err error
	cmd *usecase.UploadCommand
}

func (p *stubPipeline) Run(ctx context.Context, cmd *usecase.UploadCommand) (*dto.ReportResponse, error) {
	p.cmd = cmd
	if p.err != nil {
		return nil, p.err
	}
	return &dto.ReportResponse{ID: 1, PatientID: cmd.PatientID}, nil
}

func uploadRequest(t *testing.T, userID uuid.UUID, fields map[string]string) *http.Request {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var file bytes.Buffer
	require.NoError(t, png.Encode(&file, img))

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	part, err := writer.CreateFormFile("file", "brain.PNG")
	require.NoError(t, err)
	part.Write(file.Bytes())
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
}

func newUploadHandler(pipeline usecase.UploadPipeline) *UploadHandler {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewUploadHandler(pipeline, validator.NewValidator(), log, 1<<20)
}

func TestUpload_BuildsCommand(t *testing.T) {
	pipeline := &stubPipeline{}
	userID := uuid.New()

	rec := httptest.NewRecorder()
	newUploadHandler(pipeline).Upload(rec, uploadRequest(t, userID, map[string]string{
		"tumor_size":     "2x3 cm",
		"patient_gender": "  ",
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, pipeline.cmd)
	assert.Equal(t, userID, pipeline.cmd.PatientID)
	assert.Equal(t, "brain.PNG", pipeline.cmd.Filename)
	assert.Equal(t, "image/png", pipeline.cmd.ContentType)
	assert.Equal(t, "2x3 cm", *pipeline.cmd.Metadata.TumorSize)
	assert.Nil(t, pipeline.cmd.Metadata.PatientGender)
	assert.Nil(t, pipeline.cmd.Metadata.PatientAge)
}

func TestUpload_MapsPipelineErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{
			name:   "classification timeout",
			err:    &usecase.PipelineError{Step: usecase.StepClassify, Err: &inference.ClassificationError{Kind: inference.KindTimeout}},
			status: http.StatusGatewayTimeout,
		},
		{
			name:   "classification unavailable",
			err:    &usecase.PipelineError{Step: usecase.StepClassify, Err: &inference.ClassificationError{Kind: inference.KindServiceUnavailable}},
			status: http.StatusBadGateway,
		},
		{
			name:   "malformed classification",
			err:    &usecase.PipelineError{Step: usecase.StepClassify, Err: &inference.ClassificationError{Kind: inference.KindInvalidResponse}},
			status: http.StatusBadGateway,
		},
		{
			name:   "image store failure",
			err:    &usecase.PipelineError{Step: usecase.StepStoreImage, Err: &storage.StoreError{Op: "put", Err: errors.New("down")}},
			status: http.StatusBadGateway,
		},
		{
			name:   "insert failure",
			err:    &usecase.PipelineError{Step: usecase.StepInsertReport, Err: errors.New("db down")},
			status: http.StatusInternalServerError,
		},
		{
			name:   "unexpected",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newUploadHandler(&stubPipeline{err: tt.err}).Upload(rec, uploadRequest(t, uuid.New(), nil))
			assert.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), "db down")
		})
	}
}

func TestUpload_RequiresCaller(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/upload", nil)
	rec := httptest.NewRecorder()
	newUploadHandler(&stubPipeline{}).Upload(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
