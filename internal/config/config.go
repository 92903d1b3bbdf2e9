package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const minJWTSecretBytes = 32

// Config carries every runtime setting the service needs. It is loaded once
// in main and passed down explicitly; nothing reads the environment after
// Load returns.
type Config struct {
	HTTPAddr    string
	Environment string
	FrontendURL string

	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	DBSSLMode         string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxIdleTime time.Duration
	DBConnMaxLifetime time.Duration

	JWTSecret      string
	AccessTokenTTL time.Duration

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string

	MaxUploadBytes    int64
	RateLimitWindow   time.Duration
	RateLimitRequests int

	MonitoringAPIKey string
}

// Load reads the configuration from the environment and validates the
// settings that have no safe default.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:    getEnvOrDefault("HTTP_ADDR", ":8080"),
		Environment: getEnvOrDefault("APP_ENV", "development"),
		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),

		DBHost:            getEnvOrDefault("DB_HOST", "localhost"),
		DBPort:            getEnvOrDefault("DB_PORT", "5432"),
		DBUser:            getEnvOrDefault("DB_USER", "postgres"),
		DBPassword:        getEnvOrDefault("DB_PASSWORD", "password"),
		DBName:            getEnvOrDefault("DB_NAME", "snapfeed"),
		DBSSLMode:         getEnvOrDefault("DB_SSLMODE", "disable"),
		DBMaxOpenConns:    getIntEnvOrDefault("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:    getIntEnvOrDefault("DB_MAX_IDLE_CONNS", 25),
		DBConnMaxIdleTime: time.Duration(getIntEnvOrDefault("DB_CONN_MAX_IDLE_MINUTES", 5)) * time.Minute,
		DBConnMaxLifetime: time.Duration(getIntEnvOrDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30)) * time.Minute,

		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		AccessTokenTTL: time.Duration(getIntEnvOrDefault("ACCESS_TOKEN_TTL_HOURS", 7*24)) * time.Hour,

		S3Endpoint:  strings.TrimSpace(os.Getenv("S3_ENDPOINT")),
		S3Region:    getEnvOrDefault("S3_REGION", "us-east-1"),
		S3Bucket:    strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3AccessKey: strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")),
		S3SecretKey: strings.TrimSpace(os.Getenv("S3_SECRET_KEY")),

		MaxUploadBytes:    getInt64EnvOrDefault("MAX_UPLOAD_SIZE_BYTES", 10*1024*1024),
		RateLimitWindow:   time.Duration(getIntEnvOrDefault("RATE_LIMIT_WINDOW_MINUTES", 15)) * time.Minute,
		RateLimitRequests: getIntEnvOrDefault("RATE_LIMIT_REQUESTS", 100),

		MonitoringAPIKey: strings.TrimSpace(os.Getenv("MONITORING_API_KEY")),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < minJWTSecretBytes {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretBytes)
	}
	if cfg.S3Bucket == "" {
		return nil, errors.New("S3_BUCKET is required")
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with a production-like
// environment name. Stack traces and permissive cookies are disabled there.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return defaultValue
	}

	return value
}

func getInt64EnvOrDefault(key string, defaultValue int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return defaultValue
	}

	return value
}
