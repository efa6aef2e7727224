package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the engine.
type Config struct {
	// DatabaseURL is optional: when empty the engine runs on the in-memory
	// store (useful for local development and tests).
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	// OperatorPasswordHash is a bcrypt hash. When empty the operator login
	// endpoint is disabled and tokens must be issued externally.
	OperatorPasswordHash string

	// PaymentsAutoConfirm makes the stub payment gateway treat every entry
	// fee as captured. Disable it only when a real gateway confirms fees.
	PaymentsAutoConfirm bool

	// Cloudflare R2 credentials for tournament banner storage. All five must
	// be set for uploads to be enabled.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load reads configuration from environment variables. A .env file is loaded
// first if present; its absence is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	autoConfirm := true
	if v := os.Getenv("PAYMENTS_AUTO_CONFIRM"); v != "" {
		autoConfirm, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PAYMENTS_AUTO_CONFIRM environment variable: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		JWTSecretKey:         jwtKey,
		ServerPort:           port,
		OperatorPasswordHash: os.Getenv("OPERATOR_PASSWORD_HASH"),
		PaymentsAutoConfirm:  autoConfirm,
		R2AccountID:          os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:        os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:    os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:         os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:      os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}

// R2Configured reports whether every banner storage credential is present.
func (c *Config) R2Configured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" &&
		c.R2SecretAccessKey != "" && c.R2BucketName != "" && c.R2PublicBaseURL != ""
}
