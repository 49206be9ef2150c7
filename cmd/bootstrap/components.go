package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"scan-review-service/config"
	"scan-review-service/internal/infrastructure/database"
	"scan-review-service/internal/infrastructure/inference"
	"scan-review-service/internal/infrastructure/storage"
	"scan-review-service/pkg/jwt"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// imageProxyPath is where the API serves stored artifacts
const imageProxyPath = "/api/image-proxy"

// SetupLogger configures the logrus standard logger
func SetupLogger(cfg config.AppConfig) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// OpenDatabase connects to the configured database and applies migrations when enabled.
// SQLite builds its schema with AutoMigrate on open.
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormLevel := logger.Warn
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		gormLevel = logger.Info
	}

	if cfg.App.AutoMigrate && cfg.DB.Driver != config.DBDriverSQLite {
		if err := MigrateUp(cfg.DB); err != nil {
			return nil, err
		}
	}

	db, err := database.NewConnection(cfg.DB, gormLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// MigrateUp applies all pending SQL migrations
func MigrateUp(cfg config.DBConfig) error {
	migrator, err := database.NewMigrator(cfg, logrus.StandardLogger())
	if err != nil {
		return err
	}
	defer migrator.Close()
	return migrator.Up()
}

// Storage is the artifact store client plus whatever connection its backend holds
type Storage struct {
	Client *storage.Client
	mongo  *mongo.Client
}

func (s *Storage) Close() {
	if s.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.mongo.Disconnect(ctx); err != nil {
			logrus.Warnf("Failed to disconnect from MongoDB: %v", err)
		}
	}
}

// NewStorage builds the artifact store for the configured backend
func NewStorage(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*Storage, error) {
	result := &Storage{}
	baseURL := cfg.App.PublicBaseURL + imageProxyPath

	var backend storage.Backend
	switch cfg.Storage.Backend {
	case config.StorageBackendFilesystem:
		fs, err := storage.NewFilesystemBackend(cfg.Storage.DataDir)
		if err != nil {
			return nil, err
		}
		backend = fs
	case config.StorageBackendMemory:
		log.Warn("Using in-memory artifact storage, uploads are lost on restart")
		backend = storage.NewMemoryBackend()
	case config.StorageBackendGridFS:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		client, err := storage.NewMongoClient(connectCtx, cfg.Storage.MongoURI)
		if err != nil {
			return nil, err
		}
		result.mongo = client
		backend = storage.NewGridFSBackend(client.Database(cfg.Storage.MongoDatabase), cfg.Storage.MongoBucket)
	case config.StorageBackendSupabase:
		if cfg.Storage.SupabaseURL == "" || cfg.Storage.SupabaseKey == "" {
			return nil, fmt.Errorf("supabase storage requires SUPABASE_URL and SUPABASE_KEY")
		}
		supabase := storage.NewSupabaseBackend(cfg.Storage.SupabaseURL, cfg.Storage.SupabaseKey, cfg.Storage.SupabaseBucket, 30*time.Second)
		baseURL = supabase.PublicBaseURL()
		backend = supabase
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}

	client, err := storage.NewClient(backend, baseURL, log)
	if err != nil {
		result.Close()
		return nil, err
	}
	result.Client = client

	log.WithFields(logrus.Fields{"backend": cfg.Storage.Backend, "base_url": baseURL}).Info("Artifact storage ready")
	return result, nil
}

// NewInferenceGateway builds the classifier for the configured backend
func NewInferenceGateway(cfg config.InferenceConfig) (inference.Gateway, error) {
	switch cfg.Backend {
	case config.InferenceBackendRemote:
		if cfg.URL == "" {
			return nil, fmt.Errorf("remote inference requires INFERENCE_URL")
		}
		return inference.NewRemoteGateway(cfg.URL, cfg.Timeout), nil
	case config.InferenceBackendLocal:
		if cfg.Command == "" {
			return nil, fmt.Errorf("local inference requires INFERENCE_COMMAND")
		}
		return inference.NewLocalGateway(cfg.Command, cfg.Args, cfg.Timeout), nil
	case config.InferenceBackendMock:
		gateway, err := inference.NewMockGateway(cfg.MockLabel, nil)
		if err != nil {
			return nil, err
		}
		return gateway, nil
	default:
		return nil, fmt.Errorf("unsupported inference backend %q", cfg.Backend)
	}
}

// RequireSigningSecret refuses to serve without a token secret.
func RequireSigningSecret(cfg config.JWTConfig) error {
	if strings.TrimSpace(cfg.Secret) == "" {
		return fmt.Errorf("refusing to start: %w", jwt.ErrMissingSecret)
	}
	return nil
}
