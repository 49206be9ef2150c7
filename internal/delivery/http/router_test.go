package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"scan-review-service/config"
	deliveryHttp "scan-review-service/internal/delivery/http"
	"scan-review-service/internal/delivery/http/handler"
	"scan-review-service/internal/delivery/http/middleware"
	"scan-review-service/internal/domain/entity"
	"scan-review-service/internal/infrastructure/database"
	"scan-review-service/internal/infrastructure/inference"
	"scan-review-service/internal/infrastructure/storage"
	"scan-review-service/internal/repository"
	"scan-review-service/internal/service"
	"scan-review-service/internal/usecase"
	"scan-review-service/pkg/jwt"
	"scan-review-service/pkg/validator"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

const proxyBase = "http://scans.test/api/image-proxy"

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

type testServer struct {
	handler  http.Handler
	jwt      *jwt.JWTService
	profiles usecase.ProfileUsecase
}

func newTestServer(t *testing.T, maxUploadBytes int64) *testServer {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := database.NewSQLiteConnection(":memory:", logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store, err := storage.NewClient(storage.NewMemoryBackend(), proxyBase, log)
	require.NoError(t, err)

	gateway, err := inference.NewMockGateway(inference.LabelMeningioma, pngBytes(t, 4))
	require.NoError(t, err)

	reportRepo := repository.NewReportRepository()
	analysisRepo := repository.NewDoctorAnalysisRepository()
	auditService := service.NewAuditService(db, log, repository.NewAuditLogRepository())

	profiles := usecase.NewProfileUsecase(db, log, repository.NewProfileRepository(), auditService)
	access := usecase.NewReportAccessUsecase(db, log, reportRepo, profiles)
	lifecycle := usecase.NewReportLifecycleUsecase(db, log, reportRepo, analysisRepo, profiles, auditService)
	pipeline := usecase.NewUploadPipeline(db, log, gateway, store, reportRepo, auditService, usecase.RetryPolicy{Attempts: 1})

	jwtService := jwt.NewJWTService(config.JWTConfig{Secret: "router-test-secret"})
	v := validator.NewValidator()

	router := deliveryHttp.NewRouter(
		handler.NewUploadHandler(pipeline, v, log, maxUploadBytes),
		handler.NewReportHandler(access, service.NewReportDocumentService(log, store), log),
		handler.NewAnalysisHandler(lifecycle, access, v),
		handler.NewImageProxyHandler(access, store, log),
		handler.NewProfileHandler(profiles, v),
		handler.NewAuditLogHandler(auditService),
		middleware.NewAuthMiddleware(jwtService, nil, log),
		middleware.NewCORSMiddleware(),
		profiles,
	)

	return &testServer{handler: router.Setup(), jwt: jwtService, profiles: profiles}
}

func (s *testServer) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, _, err := s.jwt.GenerateAccessToken(userID, userID.String()[:8]+"@example.org", time.Hour)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, userID *uuid.UUID, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID != nil {
		req.Header.Set("Authorization", "Bearer "+s.token(t, *userID))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) upload(t *testing.T, userID uuid.UUID, file []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	if file != nil {
		part, err := writer.CreateFormFile("file", "scan.png")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return s.do(t, &userID, http.MethodPost, "/api/upload", &body, writer.FormDataContentType())
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) apiEnvelope {
	t.Helper()
	var envelope apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}
	return envelope
}

func pngBytes(t *testing.T, size int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, size, size))
	for i := 0; i < size; i++ {
		img.SetGray(i, i, color.Gray{Y: 200})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type reportBody struct {
	ID              int64   `json:"id"`
	PatientID       string  `json:"patient_id"`
	PatientName     string  `json:"patient_name"`
	ImageURL        string  `json:"image_url"`
	GradcamImageURL *string `json:"gradcam_image_url"`
	Prediction      string  `json:"prediction"`
	Status          string  `json:"status"`
	PatientAge      *int    `json:"patient_age"`
	Location        *string `json:"location"`
	Analysis        *struct {
		DoctorNotes  *string  `json:"doctor_notes"`
		SizeLengthCm *float64 `json:"size_length_cm"`
	} `json:"analysis"`
}

func TestHealthAndAuthRequired(t *testing.T) {
	srv := newTestServer(t, 1<<20)

	rec := srv.do(t, nil, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, nil, http.MethodGet, "/api/reports", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, nil, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "scan_http_requests_total")
}

func TestScanReviewFlow(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	ctx := context.Background()

	patientID := uuid.New()
	otherPatient := uuid.New()
	doctorID := uuid.New()
	_, err := srv.profiles.AssignRole(ctx, doctorID, entity.RoleDoctor)
	require.NoError(t, err)

	// upload
	uploaded := pngBytes(t, 8)
	rec := srv.upload(t, patientID, uploaded, map[string]string{"location": " frontal lobe ", "patient_age": "41", "tumor_grade": ""})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created reportBody
	decode(t, rec, &created)
	assert.Equal(t, string(entity.ReportStatusPendingReview), created.Status)
	assert.Equal(t, inference.LabelMeningioma, created.Prediction)
	assert.Equal(t, "frontal lobe", *created.Location)
	assert.Equal(t, 41, *created.PatientAge)
	assert.Equal(t, entity.PlaceholderFullName, created.PatientName)
	assert.True(t, strings.HasPrefix(created.ImageURL, proxyBase+"/"+patientID.String()+"/"))
	require.NotNil(t, created.GradcamImageURL)

	reportPath := "/api/reports/" + strconv.FormatInt(created.ID, 10)

	// visibility
	var list struct {
		Reports []reportBody `json:"reports"`
		Total   int          `json:"total"`
	}
	decode(t, srv.do(t, &patientID, http.MethodGet, "/api/reports", nil, ""), &list)
	assert.Equal(t, 1, list.Total)
	decode(t, srv.do(t, &otherPatient, http.MethodGet, "/api/reports", nil, ""), &list)
	assert.Equal(t, 0, list.Total)
	decode(t, srv.do(t, &doctorID, http.MethodGet, "/api/reports", nil, ""), &list)
	assert.Equal(t, 1, list.Total)

	assert.Equal(t, http.StatusOK, srv.do(t, &patientID, http.MethodGet, reportPath, nil, "").Code)
	assert.Equal(t, http.StatusForbidden, srv.do(t, &otherPatient, http.MethodGet, reportPath, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, &doctorID, http.MethodGet, "/api/reports/999999", nil, "").Code)

	// image proxy
	imagePath := strings.TrimPrefix(created.ImageURL, "http://scans.test")
	rec = srv.do(t, &patientID, http.MethodGet, imagePath, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, uploaded, rec.Body.Bytes())
	assert.Equal(t, http.StatusOK, srv.do(t, &doctorID, http.MethodGet, imagePath, nil, "").Code)
	assert.Equal(t, http.StatusForbidden, srv.do(t, &otherPatient, http.MethodGet, imagePath, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, srv.do(t, &patientID, http.MethodGet, "/api/image-proxy/"+patientID.String()+"/missing.png", nil, "").Code)

	// analysis
	analysisPath := reportPath + "/analysis"
	assert.Equal(t, http.StatusNotFound, srv.do(t, &doctorID, http.MethodGet, analysisPath, nil, "").Code)

	body := `{"doctor_notes":"well circumscribed","size_length_cm":"2.555","size_width_cm":"","patient_age":""}`
	rec = srv.do(t, &patientID, http.MethodPost, analysisPath, strings.NewReader(body), "application/json")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, &doctorID, http.MethodPost, analysisPath, strings.NewReader(`{"size_length_cm":-1,"size_width_cm":"100000","patient_age":200}`), "application/json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var fieldErrors map[string]string
	envelope := decode(t, rec, nil)
	require.NoError(t, json.Unmarshal(envelope.Error, &fieldErrors))
	assert.Contains(t, fieldErrors, "size_length_cm")
	assert.Contains(t, fieldErrors, "size_width_cm")
	assert.Contains(t, fieldErrors, "patient_age")

	rec = srv.do(t, &doctorID, http.MethodPost, analysisPath, strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var submitted struct {
		SizeLengthCm *float64 `json:"size_length_cm"`
		SizeWidthCm  *float64 `json:"size_width_cm"`
	}
	decode(t, rec, &submitted)
	require.NotNil(t, submitted.SizeLengthCm)
	assert.InDelta(t, 2.56, *submitted.SizeLengthCm, 1e-9)
	assert.Nil(t, submitted.SizeWidthCm)

	rec = srv.do(t, &doctorID, http.MethodPost, analysisPath, strings.NewReader(body), "application/json")
	assert.Equal(t, http.StatusConflict, rec.Code)

	var reviewed reportBody
	decode(t, srv.do(t, &patientID, http.MethodGet, reportPath, nil, ""), &reviewed)
	assert.Equal(t, string(entity.ReportStatusCompleted), reviewed.Status)
	require.NotNil(t, reviewed.Analysis)
	assert.Equal(t, "well circumscribed", *reviewed.Analysis.DoctorNotes)
	assert.InDelta(t, 2.56, *reviewed.Analysis.SizeLengthCm, 1e-9)

	assert.Equal(t, http.StatusOK, srv.do(t, &patientID, http.MethodGet, analysisPath, nil, "").Code)
	assert.Equal(t, http.StatusForbidden, srv.do(t, &otherPatient, http.MethodGet, analysisPath, nil, "").Code)

	// pdf export
	rec = srv.do(t, &patientID, http.MethodGet, reportPath+"/pdf", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	// audit trail, doctors only
	assert.Equal(t, http.StatusForbidden, srv.do(t, &patientID, http.MethodGet, "/api/audit-logs?action=analysis.submit", nil, "").Code)
	var logs struct {
		Logs []struct {
			ActorID  uuid.UUID `json:"actor_id"`
			Entity   string    `json:"entity"`
			EntityID string    `json:"entity_id"`
		} `json:"logs"`
		Total int `json:"total"`
	}
	decode(t, srv.do(t, &doctorID, http.MethodGet, "/api/audit-logs?action=analysis.submit&limit=10", nil, ""), &logs)
	assert.Equal(t, 1, logs.Total)
	require.Len(t, logs.Logs, 1)
	assert.Equal(t, doctorID, logs.Logs[0].ActorID)
	assert.Equal(t, "report", logs.Logs[0].Entity)
	assert.Equal(t, strconv.FormatInt(created.ID, 10), logs.Logs[0].EntityID)
	assert.Equal(t, http.StatusBadRequest, srv.do(t, &doctorID, http.MethodGet, "/api/audit-logs?action=nope", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, srv.do(t, &doctorID, http.MethodGet, "/api/audit-logs?action=report.create&limit=0", nil, "").Code)
}

func TestUploadRejections(t *testing.T) {
	srv := newTestServer(t, 512)
	patientID := uuid.New()

	assert.Equal(t, http.StatusBadRequest, srv.upload(t, patientID, nil, nil).Code)
	assert.Equal(t, http.StatusBadRequest, srv.upload(t, patientID, []byte("plain text, not a scan"), nil).Code)
	assert.Equal(t, http.StatusBadRequest, srv.upload(t, patientID, pngBytes(t, 4), map[string]string{"patient_age": "forty"}).Code)
	assert.Equal(t, http.StatusBadRequest, srv.upload(t, patientID, pngBytes(t, 4), map[string]string{"patient_age": "151"}).Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, srv.upload(t, patientID, bytes.Repeat([]byte{0x89}, 2048), nil).Code)

	rec := srv.do(t, &patientID, http.MethodPost, "/api/upload", strings.NewReader("{}"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfileEndpoints(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	userID := uuid.New()

	var profile struct {
		Role     string `json:"role"`
		FullName string `json:"full_name"`
	}
	rec := srv.do(t, &userID, http.MethodGet, "/api/profile", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &profile)
	assert.Equal(t, string(entity.RolePatient), profile.Role)
	assert.Equal(t, entity.PlaceholderFullName, profile.FullName)

	rec = srv.do(t, &userID, http.MethodPut, "/api/profile", strings.NewReader(`{"full_name":"A"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, &userID, http.MethodPut, "/api/profile", strings.NewReader(`{"full_name":"Ada Lovelace","role":"Doctor"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &profile)
	assert.Equal(t, "Ada Lovelace", profile.FullName)
	assert.Equal(t, string(entity.RolePatient), profile.Role)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, 1<<20)

	req := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
