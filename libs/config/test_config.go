package config

import "time"

// LoadTestConfig returns a configuration with fixed values for unit tests.
// It never reads the environment, so tests do not depend on the machine they run on.
func LoadTestConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     3306,
			User:     "test",
			Password: "test",
			DBName:   "genzone_test",
		},
		Redis:   RedisConfig{Host: "localhost", Port: 6379},
		Server:  ServerConfig{Port: 8080},
		Logging: LoggingConfig{Level: "debug"},
		CORS:    CORSConfig{AllowedOrigins: []string{"*"}},
		JWT: JWTConfig{
			Secret:                  "b8a3c2267dc85f855dea9b46b452bf20",
			AccessTokenExpiry:       time.Hour,
			RefreshTokenExpiry:      7 * 24 * time.Hour,
			VerificationTokenExpiry: 24 * time.Hour,
		},
		SMTP: SMTPConfig{Host: "localhost", Port: 1025, From: "noreply@genzone.dev"},
		Pagination: PaginationConfig{
			DefaultPageSize: 10,
			MaxPageSize:     100,
			StepPageSize:    1,
			StepMaxPageSize: 1000,
		},
		Worker:             WorkerConfig{Concurrency: 2},
		Schedule:           ScheduleConfig{TokenCleanup: "0 3 * * *", UnverifiedPurge: "30 3 * * *"},
		APIKey:             "test-api-key",
		AuthServiceBaseURL: "http://localhost:8081",
		VerificationURL:    "http://localhost:8081/api/v1/auth/verify",
		MigrationsPath:     "migrations",
	}
}
