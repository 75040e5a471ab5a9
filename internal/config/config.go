package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Import configuration
	Import ImportConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string        `validate:"required,numeric"`
	ReadTimeout     time.Duration `validate:"gt=0"`
	WriteTimeout    time.Duration `validate:"gt=0"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host           string `validate:"required"`
	Port           string `validate:"required,numeric"`
	User           string `validate:"required"`
	Password       string
	Name           string `validate:"required"`
	SSLMode        string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns   int    `validate:"gte=1"`
	MaxIdleConns   int    `validate:"gte=0"`
	MaxLifetime    time.Duration
	MigrationsPath string `validate:"required"`
}

// ImportConfig holds import pipeline and job settings
type ImportConfig struct {
	MaxUploadSize int64         `validate:"gt=0"` // in bytes
	UploadDir     string        `validate:"required"`
	Workers       int           `validate:"gte=1,lte=64"`
	LazyQuotes    bool          // tolerate bare quotes in unquoted fields
	PreviewLimit  int           `validate:"gte=1"`
	CacheSize     int           `validate:"gte=1"`
	JobWorkers    int           `validate:"gte=1"`
	PollInterval  time.Duration `validate:"gt=0"`
	// DownloadTimeout bounds fetching a file_url import
	DownloadTimeout time.Duration `validate:"gt=0"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json pretty"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 300*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			Name:           getEnv("DB_NAME", "bookstore"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:   getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:   getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:    getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "./migrations"),
		},
		Import: ImportConfig{
			MaxUploadSize:   getInt64Env("MAX_UPLOAD_SIZE", 50*1024*1024), // 50MB
			UploadDir:       getEnv("UPLOAD_DIR", "./data/uploads"),
			Workers:         getIntEnv("IMPORT_WORKERS", 4),
			LazyQuotes:      getBoolEnv("IMPORT_LAZY_QUOTES", false),
			PreviewLimit:    getIntEnv("PREVIEW_LIMIT", 10),
			CacheSize:       getIntEnv("PREVIEW_CACHE_SIZE", 64),
			JobWorkers:      getIntEnv("JOB_WORKERS", 3),
			PollInterval:    getDurationEnv("JOB_POLL_INTERVAL", 2*time.Second),
			DownloadTimeout: getDurationEnv("DOWNLOAD_TIMEOUT", 60*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var validate = validator.New()

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("invalid configuration: %s failed %q (value: %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
