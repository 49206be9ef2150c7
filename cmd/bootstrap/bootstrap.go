package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"scan-review-service/config"
	deliveryHttp "scan-review-service/internal/delivery/http"
	"scan-review-service/internal/delivery/http/handler"
	"scan-review-service/internal/delivery/http/middleware"
	"scan-review-service/internal/infrastructure/cache"
	"scan-review-service/internal/repository"
	"scan-review-service/internal/service"
	"scan-review-service/internal/usecase"
	"scan-review-service/pkg/jwt"
	"scan-review-service/pkg/validator"

	"github.com/gorilla/handlers"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const shutdownGrace = 10 * time.Second

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	DB          *gorm.DB
	RedisClient *redis.Client
	Storage     *Storage
	Server      *http.Server
	accessLog   io.Closer
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	if err := RequireSigningSecret(cfg.JWT); err != nil {
		return nil, err
	}

	// Setup logger
	SetupLogger(cfg.App)
	logrus.Info("Configuration loaded successfully")

	// Initialize database
	db, err := OpenDatabase(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.DB = db
	logrus.Info("Database connected successfully")

	// Redis only backs the optional token denylist
	var denylist middleware.RevocationChecker
	if cfg.Redis.Enabled() {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		app.RedisClient = redisClient
		denylist = cache.NewTokenDenylist(redisClient)
		logrus.Info("Redis connected successfully")
	} else {
		logrus.Warn("REDIS_HOST not set, token revocation checks are disabled")
	}

	// Initialize artifact storage
	store, err := NewStorage(context.Background(), cfg, logrus.StandardLogger())
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Storage = store

	// Initialize all layers
	server, err := app.initializeServer(cfg, db, denylist)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Server = server

	return app, nil
}

// initializeServer creates and configures the HTTP server
func (app *App) initializeServer(cfg *config.Config, db *gorm.DB, denylist middleware.RevocationChecker) (*http.Server, error) {
	// Initialize logger
	log := logrus.StandardLogger()

	gateway, err := NewInferenceGateway(cfg.Inference)
	if err != nil {
		return nil, err
	}

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	reportRepo := repository.NewReportRepository()
	analysisRepo := repository.NewDoctorAnalysisRepository()
	profileRepo := repository.NewProfileRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	auditService := service.NewAuditService(db, log, auditLogRepo)
	documentService := service.NewReportDocumentService(log, app.Storage.Client)

	// Initialize usecases
	profileUsecase := usecase.NewProfileUsecase(db, log, profileRepo, auditService)
	accessUsecase := usecase.NewReportAccessUsecase(db, log, reportRepo, profileUsecase)
	lifecycleUsecase := usecase.NewReportLifecycleUsecase(db, log, reportRepo, analysisRepo, profileUsecase, auditService)
	uploadPipeline := usecase.NewUploadPipeline(db, log, gateway, app.Storage.Client, reportRepo, auditService, usecase.RetryPolicy{
		Attempts:  cfg.Pipeline.ClassifyAttempts,
		BaseDelay: cfg.Pipeline.RetryBaseDelay,
	})

	// Initialize handlers
	uploadHandler := handler.NewUploadHandler(uploadPipeline, customValidator, log, cfg.App.MaxUploadBytes)
	reportHandler := handler.NewReportHandler(accessUsecase, documentService, log)
	analysisHandler := handler.NewAnalysisHandler(lifecycleUsecase, accessUsecase, customValidator)
	imageProxyHandler := handler.NewImageProxyHandler(accessUsecase, app.Storage.Client, log)
	profileHandler := handler.NewProfileHandler(profileUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(auditService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, denylist, log)
	corsMiddleware := middleware.NewCORSMiddleware()

	// Initialize router
	router := deliveryHttp.NewRouter(
		uploadHandler,
		reportHandler,
		analysisHandler,
		imageProxyHandler,
		profileHandler,
		auditLogHandler,
		authMiddleware,
		corsMiddleware,
		profileUsecase,
	)

	accessLog := log.WriterLevel(logrus.InfoLevel)
	app.accessLog = accessLog

	httpHandler := handlers.CombinedLoggingHandler(accessLog, router.Setup())
	httpHandler = handlers.RecoveryHandler(handlers.RecoveryLogger(log), handlers.PrintRecoveryStack(true))(httpHandler)

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// Run serves until SIGINT/SIGTERM or a listener failure, then drains
// in-flight requests and releases every connection.
func (app *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logrus.WithFields(logrus.Fields{
			"port":        app.Config.App.Port,
			"environment": app.Config.App.Env,
			"storage":     app.Config.Storage.Backend,
			"inference":   app.Config.Inference.Backend,
		}).Info("Server starting")
		serveErr <- app.Server.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server stopped: %w", err)
		}
	case <-ctx.Done():
		logrus.Info("Shutting down server...")
		runErr = app.shutdown()
	}

	app.Close()
	logrus.Info("Server shutdown complete")
	return runErr
}

func (app *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// Close closes all connections (database, redis, object store)
func (app *App) Close() {
	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}

	if app.Storage != nil {
		app.Storage.Close()
	}

	if app.accessLog != nil {
		app.accessLog.Close()
	}
}
