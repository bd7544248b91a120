package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the backend and worker
type Config struct {
	// HTTP listener configuration
	HTTP HTTPConfig

	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration (asynq broker)
	Redis RedisConfig

	// Session cookie configuration
	Session SessionConfig

	// SMTP configuration for verification mail
	SMTP SMTPConfig

	// Logging Configuration
	Logging LoggingConfig
}

// HTTPConfig holds listener settings
type HTTPConfig struct {
	Address        string
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// SessionConfig holds cookie session settings
type SessionConfig struct {
	Secret string
	MaxAge time.Duration // email login sessions
	Secure bool
}

// SMTPConfig holds outgoing mail settings
type SMTPConfig struct {
	Mode     string // "log" or "smtp"
	Host     string
	Port     int
	Username string
	Password string
	Sender   string
	SSL      bool
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	maxAge, err := durationEnv("SESSION_MAX_AGE", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	smtpPort, err := intEnv("SMTP_PORT", 465)
	if err != nil {
		return nil, err
	}

	return &Config{
		HTTP: HTTPConfig{
			Address:        getEnvOrDefault("HTTP_ADDRESS", ":3376"),
			AllowedOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3375")),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", "gcopy.sqlite"),
		},
		Redis: RedisConfig{
			Address: getEnvOrDefault("REDIS_ADDRESS", "localhost:6379"),
		},
		Session: SessionConfig{
			Secret: secret,
			MaxAge: maxAge,
			Secure: boolEnv("SESSION_SECURE"),
		},
		SMTP: SMTPConfig{
			Mode:     getEnvOrDefault("EMAIL_MODE", "log"),
			Host:     os.Getenv("SMTP_HOST"),
			Port:     smtpPort,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			Sender:   getEnvOrDefault("SMTP_SENDER", "noreply@gcopy.local"),
			SSL:      boolEnv("SMTP_SSL"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func boolEnv(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
