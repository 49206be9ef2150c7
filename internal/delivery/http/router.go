package http

import (
	"net/http"

	"scan-review-service/internal/delivery/http/handler"
	"scan-review-service/internal/delivery/http/middleware"
	"scan-review-service/pkg/response"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	router            *mux.Router
	uploadHandler     *handler.UploadHandler
	reportHandler     *handler.ReportHandler
	analysisHandler   *handler.AnalysisHandler
	imageProxyHandler *handler.ImageProxyHandler
	profileHandler    *handler.ProfileHandler
	auditLogHandler   *handler.AuditLogHandler
	authMiddleware    *middleware.AuthMiddleware
	corsMiddleware    *middleware.CORSMiddleware
	profiles          middleware.ProfileResolver
}

func NewRouter(
	uploadHandler *handler.UploadHandler,
	reportHandler *handler.ReportHandler,
	analysisHandler *handler.AnalysisHandler,
	imageProxyHandler *handler.ImageProxyHandler,
	profileHandler *handler.ProfileHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	profiles middleware.ProfileResolver,
) *Router {
	return &Router{
		router:            mux.NewRouter(),
		uploadHandler:     uploadHandler,
		reportHandler:     reportHandler,
		analysisHandler:   analysisHandler,
		imageProxyHandler: imageProxyHandler,
		profileHandler:    profileHandler,
		auditLogHandler:   auditLogHandler,
		authMiddleware:    authMiddleware,
		corsMiddleware:    corsMiddleware,
		profiles:          profiles,
	}
}

func (r *Router) Setup() http.Handler {
	r.router.Use(middleware.Metrics)
	r.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.router.PathPrefix("/api").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Everything else requires a verified identity-provider token
	protected := api.NewRoute().Subrouter()
	protected.Use(r.authMiddleware.Authenticate)

	protected.HandleFunc("/upload", r.uploadHandler.Upload).Methods(http.MethodPost)

	protected.HandleFunc("/reports", r.reportHandler.ListReports).Methods(http.MethodGet)
	protected.HandleFunc("/reports/{id:[0-9]+}", r.reportHandler.GetReport).Methods(http.MethodGet)
	protected.HandleFunc("/reports/{id:[0-9]+}/pdf", r.reportHandler.ExportPDF).Methods(http.MethodGet)
	protected.HandleFunc("/reports/{id:[0-9]+}/analysis", r.analysisHandler.GetAnalysis).Methods(http.MethodGet)

	protected.HandleFunc("/image-proxy/{key:.+}", r.imageProxyHandler.Serve).Methods(http.MethodGet)

	protected.HandleFunc("/profile", r.profileHandler.GetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/profile", r.profileHandler.UpdateProfile).Methods(http.MethodPut)

	// Doctor-only routes
	requireDoctor := middleware.RequireDoctor(r.profiles)
	protected.Handle("/reports/{id:[0-9]+}/analysis", requireDoctor(http.HandlerFunc(r.analysisHandler.SubmitAnalysis))).Methods(http.MethodPost)
	protected.Handle("/audit-logs", requireDoctor(http.HandlerFunc(r.auditLogHandler.GetAuditLogs))).Methods(http.MethodGet)

	// CORS wraps the router so preflight requests are answered before route matching
	return r.corsMiddleware.Handle(r.router)
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	response.Success(w, http.StatusOK, "ok", map[string]string{"status": "ok"})
}
