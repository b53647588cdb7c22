package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	DBDriver    string // postgres | sqlite
	DatabaseURL string

	SessionSecret string
	SessionName   string
	SessionSecure bool

	TemplatesDir string // empty: use the templates embedded in the binary
	StaticDir    string // empty: use the embedded static assets

	MediaBackend       string // local | s3 | gcs
	MediaLocalPath     string
	MediaURLPrefix     string
	S3Region           string
	S3Bucket           string
	GCSBucket          string
	GCSCredentialsFile string
	MaxUploadMB        int
}

// Load 读取 .env（可选）和环境变量
func Load() (*Config, error) {
	// .env 不存在时直接使用系统环境变量
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver:    getEnv("DB_DRIVER", "postgres"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		SessionSecret: getEnv("SESSION_SECRET", "secret_key_change_me"),
		SessionName:   getEnv("SESSION_NAME", "socialnet_session"),
		SessionSecure: getEnvAsBool("SESSION_SECURE", false),

		TemplatesDir: getEnv("TEMPLATES_DIR", ""),
		StaticDir:    getEnv("STATIC_DIR", ""),

		MediaBackend:       getEnv("MEDIA_BACKEND", "local"),
		MediaLocalPath:     getEnv("MEDIA_LOCAL_PATH", "./media"),
		MediaURLPrefix:     getEnv("MEDIA_URL_PREFIX", "/media"),
		S3Region:           getEnv("S3_REGION", "us-west-2"),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		MaxUploadMB:        getEnvAsInt("MAX_UPLOAD_MB", 8),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDSN(cfg.DBDriver)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.MediaBackend {
	case "local":
		if c.MediaLocalPath == "" {
			return fmt.Errorf("MEDIA_LOCAL_PATH is required for the local media backend")
		}
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required for the s3 media backend")
		}
	case "gcs":
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required for the gcs media backend")
		}
	default:
		return fmt.Errorf("unsupported MEDIA_BACKEND %q", c.MediaBackend)
	}

	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	return nil
}

// MaxUploadBytes is the largest accepted image upload.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func defaultDSN(driver string) string {
	if driver == "sqlite" {
		return "socialnet.db"
	}
	// Fallback for local dev if not set
	return "host=localhost user=postgres password=postgres dbname=socialnet port=5432 sslmode=disable"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}
