package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	Port              string        `validate:"required,numeric"`
	Store             string        `validate:"oneof=postgres memory"`
	DBConn            string        `validate:"required_if=Store postgres"`
	LogLevel          string
	JWTSecret         string        `validate:"required"`
	TokenTTL          time.Duration `validate:"gt=0"`
	MiniStatementSize int           `validate:"gt=0"`
	ReconcileSchedule string
	ShutdownTimeout   time.Duration `validate:"gt=0"`

	SMTPHost     string
	SMTPPort     string `validate:"required_with=SMTPHost"`
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string `validate:"required_with=SMTPHost,omitempty,email"`
}

// NewConfig loads configuration from environment variables. Values from a
// .env file in the working directory are loaded first, without overriding
// variables that are already set.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	miniStatementSize, err := strconv.Atoi(getEnv("MINI_STATEMENT_SIZE", "5"))
	if err != nil {
		return nil, fmt.Errorf("MINI_STATEMENT_SIZE: %w", err)
	}
	tokenTTL, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("TOKEN_TTL: %w", err)
	}
	shutdownTimeout, err := time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Store:             getEnv("STORE", StorePostgres),
		DBConn:            getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=bank sslmode=disable"),
		LogLevel:          getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:         getEnv("JWT_SECRET", "secret"),
		TokenTTL:          tokenTTL,
		MiniStatementSize: miniStatementSize,
		ReconcileSchedule: getEnv("RECONCILE_SCHEDULE", "@every 1h"),
		ShutdownTimeout:   shutdownTimeout,
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getEnv("SMTP_PORT", "587"),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SenderEmail:       getEnv("SENDER_EMAIL", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags on Config
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// NotificationsEnabled reports whether an SMTP server is configured
func (c *Config) NotificationsEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
