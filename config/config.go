package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Inference InferenceConfig
	Pipeline  PipelineConfig
}

type AppConfig struct {
	Port           string
	Env            string
	LogLevel       string
	PublicBaseURL  string
	MaxUploadBytes int64
	AutoMigrate    bool
}

// Database drivers
const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

type DBConfig struct {
	Driver   string
	Path     string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis host was configured.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type JWTConfig struct {
	Secret string
}

// Storage backends
const (
	StorageBackendFilesystem = "filesystem"
	StorageBackendGridFS     = "gridfs"
	StorageBackendSupabase   = "supabase"
	StorageBackendMemory     = "memory"
)

type StorageConfig struct {
	Backend string
	DataDir string

	MongoURI      string
	MongoDatabase string
	MongoBucket   string

	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string
}

// Inference backends
const (
	InferenceBackendRemote = "remote"
	InferenceBackendLocal  = "local"
	InferenceBackendMock   = "mock"
)

type InferenceConfig struct {
	Backend   string
	URL       string
	Timeout   time.Duration
	Command   string
	Args      []string
	MockLabel string
}

type PipelineConfig struct {
	ClassifyAttempts int
	RetryBaseDelay   time.Duration
}

// LoadConfig reads .env from the working directory and the process environment.
func LoadConfig() (*Config, error) {
	return Load(".env")
}

// Load reads configuration from the given env file (if it exists) and the environment.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(file)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, err
		}
	}

	config := &Config{
		App: AppConfig{
			Port:           v.GetString("APP_PORT"),
			Env:            v.GetString("APP_ENV"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			PublicBaseURL:  strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
			MaxUploadBytes: v.GetInt64("MAX_UPLOAD_BYTES"),
			AutoMigrate:    v.GetBool("DB_AUTO_MIGRATE"),
		},
		DB: DBConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Path:     v.GetString("DB_PATH"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			TimeZone: v.GetString("DB_TIMEZONE"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		Storage: StorageConfig{
			Backend:        strings.ToLower(v.GetString("STORAGE_BACKEND")),
			DataDir:        v.GetString("STORAGE_DATA_DIR"),
			MongoURI:       v.GetString("STORAGE_MONGO_URI"),
			MongoDatabase:  v.GetString("STORAGE_MONGO_DATABASE"),
			MongoBucket:    v.GetString("STORAGE_MONGO_BUCKET"),
			SupabaseURL:    strings.TrimRight(v.GetString("SUPABASE_URL"), "/"),
			SupabaseKey:    v.GetString("SUPABASE_KEY"),
			SupabaseBucket: v.GetString("SUPABASE_BUCKET"),
		},
		Inference: InferenceConfig{
			Backend:   strings.ToLower(v.GetString("INFERENCE_BACKEND")),
			URL:       v.GetString("INFERENCE_URL"),
			Timeout:   parseDuration(v.GetString("INFERENCE_TIMEOUT"), 30*time.Second),
			Command:   v.GetString("INFERENCE_COMMAND"),
			Args:      strings.Fields(v.GetString("INFERENCE_ARGS")),
			MockLabel: v.GetString("INFERENCE_MOCK_LABEL"),
		},
		Pipeline: PipelineConfig{
			ClassifyAttempts: v.GetInt("PIPELINE_CLASSIFY_ATTEMPTS"),
			RetryBaseDelay:   parseDuration(v.GetString("PIPELINE_RETRY_BASE_DELAY"), 500*time.Millisecond),
		},
	}

	if config.Pipeline.ClassifyAttempts < 1 {
		config.Pipeline.ClassifyAttempts = 1
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("MAX_UPLOAD_BYTES", 20<<20)
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("DB_DRIVER", DBDriverPostgres)
	v.SetDefault("DB_PATH", "./data/scans.db")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("STORAGE_BACKEND", StorageBackendFilesystem)
	v.SetDefault("STORAGE_DATA_DIR", "./data/scan_images")
	v.SetDefault("STORAGE_MONGO_DATABASE", "scans")
	v.SetDefault("STORAGE_MONGO_BUCKET", "scan_images")
	v.SetDefault("SUPABASE_BUCKET", "scan_images")
	v.SetDefault("INFERENCE_BACKEND", InferenceBackendRemote)
	v.SetDefault("INFERENCE_TIMEOUT", "30s")
	v.SetDefault("PIPELINE_CLASSIFY_ATTEMPTS", 1)
	v.SetDefault("PIPELINE_RETRY_BASE_DELAY", "500ms")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
