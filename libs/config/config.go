// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// It is built once by Load at process start and never mutated afterwards.
type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	Server     ServerConfig
	Logging    LoggingConfig
	CORS       CORSConfig
	JWT        JWTConfig
	SMTP       SMTPConfig
	Pagination PaginationConfig
	Worker     WorkerConfig
	Schedule   ScheduleConfig
	APIKey     string
	// AuthServiceBaseURL is used by the scheduler to reach maintenance endpoints
	AuthServiceBaseURL string
	// VerificationURL is the page users land on from the verification email
	VerificationURL string
	MigrationsPath  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port of the Redis server
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret                  string
	AccessTokenExpiry       time.Duration
	RefreshTokenExpiry      time.Duration
	VerificationTokenExpiry time.Duration
}

// SMTPConfig holds SMTP server configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// PaginationConfig holds page size limits for paginated reads
type PaginationConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	// Lesson steps are shown one per page by default
	StepPageSize    int
	StepMaxPageSize int
}

// WorkerConfig holds background worker settings
type WorkerConfig struct {
	Concurrency int
}

// ScheduleConfig holds cron expressions of maintenance jobs
type ScheduleConfig struct {
	TokenCleanup    string
	UnverifiedPurge string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	godotenv.Load()

	cfg := &Config{}
	var err error

	// Database configuration
	if cfg.Database.Host, err = requireEnv("DB_HOST"); err != nil {
		return nil, err
	}
	if cfg.Database.Port, err = requireIntEnv("DB_PORT"); err != nil {
		return nil, err
	}
	if cfg.Database.User, err = requireEnv("DB_USER"); err != nil {
		return nil, err
	}
	if cfg.Database.Password, err = requireEnv("DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.Database.DBName, err = requireEnv("DB_NAME"); err != nil {
		return nil, err
	}

	// Server configuration
	if cfg.Server.Port, err = intEnv("SERVER_PORT", 8080); err != nil {
		return nil, err
	}

	// Logging configuration
	cfg.Logging.Level = stringEnv("LOG_LEVEL", "info")

	// CORS configuration
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	// JWT configuration
	if cfg.JWT.Secret, err = requireEnv("JWT_SECRET"); err != nil {
		return nil, err
	}
	if cfg.JWT.AccessTokenExpiry, err = durationEnv("JWT_ACCESS_TOKEN_EXPIRY", time.Hour); err != nil {
		return nil, err
	}
	if cfg.JWT.RefreshTokenExpiry, err = durationEnv("JWT_REFRESH_TOKEN_EXPIRY", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.JWT.VerificationTokenExpiry, err = durationEnv("JWT_VERIFICATION_TOKEN_EXPIRY", 24*time.Hour); err != nil {
		return nil, err
	}

	// API Key configuration (optional, for service-to-service authentication)
	cfg.APIKey = os.Getenv("API_KEY")

	// Redis configuration
	cfg.Redis.Host = stringEnv("REDIS_HOST", "localhost")
	if cfg.Redis.Port, err = intEnv("REDIS_PORT", 6379); err != nil {
		return nil, err
	}
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD") // optional
	if cfg.Redis.DB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}

	// SMTP configuration (optional, for task service)
	cfg.SMTP.Host = stringEnv("SMTP_HOST", "localhost")
	if cfg.SMTP.Port, err = intEnv("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME") // optional
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD") // optional
	cfg.SMTP.From = stringEnv("SMTP_FROM", "noreply@genzone.dev")

	// Pagination limits
	if cfg.Pagination.DefaultPageSize, err = intEnv("PAGE_SIZE_DEFAULT", 10); err != nil {
		return nil, err
	}
	if cfg.Pagination.MaxPageSize, err = intEnv("PAGE_SIZE_MAX", 100); err != nil {
		return nil, err
	}
	if cfg.Pagination.StepPageSize, err = intEnv("STEP_PAGE_SIZE_DEFAULT", 1); err != nil {
		return nil, err
	}
	if cfg.Pagination.StepMaxPageSize, err = intEnv("STEP_PAGE_SIZE_MAX", 1000); err != nil {
		return nil, err
	}
	if cfg.Pagination.DefaultPageSize < 1 || cfg.Pagination.MaxPageSize < cfg.Pagination.DefaultPageSize {
		return nil, fmt.Errorf("invalid pagination limits: default %d, max %d", cfg.Pagination.DefaultPageSize, cfg.Pagination.MaxPageSize)
	}
	if cfg.Pagination.StepPageSize < 1 || cfg.Pagination.StepMaxPageSize < cfg.Pagination.StepPageSize {
		return nil, fmt.Errorf("invalid step pagination limits: default %d, max %d", cfg.Pagination.StepPageSize, cfg.Pagination.StepMaxPageSize)
	}

	// Worker pool size
	if cfg.Worker.Concurrency, err = intEnv("WORKER_CONCURRENCY", 10); err != nil {
		return nil, err
	}
	if cfg.Worker.Concurrency < 1 {
		return nil, fmt.Errorf("WORKER_CONCURRENCY must be positive")
	}

	// Maintenance schedules
	cfg.Schedule.TokenCleanup = stringEnv("SCHEDULE_TOKEN_CLEANUP", "0 3 * * *")
	cfg.Schedule.UnverifiedPurge = stringEnv("SCHEDULE_UNVERIFIED_PURGE", "30 3 * * *")

	cfg.AuthServiceBaseURL = stringEnv("AUTH_SERVICE_BASE_URL", "http://localhost:8081")
	cfg.VerificationURL = stringEnv("VERIFICATION_URL", "http://localhost:8081/api/v1/auth/verify")
	cfg.MigrationsPath = stringEnv("MIGRATIONS_PATH", "migrations")

	return cfg, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	// multiStatements lets one migration file hold several statements
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&multiStatements=true",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

func requireEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}

func requireIntEnv(key string) (int, error) {
	value, err := requireEnv(key)
	if err != nil {
		return 0, err
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func stringEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// parseOrigins splits a comma-separated origin list, defaulting to "*"
func parseOrigins(raw string) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
