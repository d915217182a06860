package config

import (
	"fmt"
	"os"
	"strconv"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Upload    UploadConfig
	Matching  MatchingConfig
	Scheduler SchedulerConfig
	Metrics   MetricsConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// UploadConfig guards statement uploads before any decoding happens.
type UploadConfig struct {
	MaxFileSizeBytes  int64
	AllowedExtensions []string
	RetentionPath     string
}

// MatchingConfig carries the product thresholds for detection, matching and
// reconciliation. The values are tunable product decisions, not derived ones.
type MatchingConfig struct {
	// DetectionFloor is the minimum profile confidence treated as a match at all.
	DetectionFloor float64
	// AutoApplyThreshold is the profile confidence above which a detected bank
	// is applied without asking the user.
	AutoApplyThreshold float64
	// MatchFloor is the minimum combined score for a match candidate to be proposed.
	MatchFloor float64
	// AutoConfirmThreshold allows bulk confirmation without human review.
	AutoConfirmThreshold float64
	// MinConfirmThreshold is the lowest confidence eligible for bulk confirmation.
	MinConfirmThreshold float64
	// DateWindowDays is the posting-date skew tolerated when matching.
	DateWindowDays int
}

type SchedulerConfig struct {
	AutoConfirmEnabled bool
	AutoConfirmSpec    string // cron expression
}

type MetricsConfig struct {
	Enabled bool
	Port    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "casa-dev"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Upload: UploadConfig{
			MaxFileSizeBytes:  getEnvAsInt64("UPLOAD_MAX_FILE_SIZE_BYTES", 10<<20),
			AllowedExtensions: []string{".csv", ".txt", ".xlsx", ".xls"},
			RetentionPath:     getEnv("UPLOAD_RETENTION_PATH", "./uploads"),
		},
		Matching: MatchingConfig{
			DetectionFloor:       getEnvAsFloat("DETECTION_FLOOR", 0.3),
			AutoApplyThreshold:   getEnvAsFloat("DETECTION_AUTO_APPLY_THRESHOLD", 0.7),
			MatchFloor:           getEnvAsFloat("MATCH_FLOOR", 0.55),
			AutoConfirmThreshold: getEnvAsFloat("MATCH_AUTO_CONFIRM_THRESHOLD", 0.9),
			MinConfirmThreshold:  getEnvAsFloat("MATCH_MIN_CONFIRM_THRESHOLD", 0.6),
			DateWindowDays:       getEnvAsInt("MATCH_DATE_WINDOW_DAYS", 3),
		},
		Scheduler: SchedulerConfig{
			AutoConfirmEnabled: getEnvAsBool("AUTO_CONFIRM_ENABLED", false),
			AutoConfirmSpec:    getEnv("AUTO_CONFIRM_CRON", "@hourly"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Port:    getEnvAsInt("METRICS_PORT", 9090),
		},
	}

	if cfg.Matching.MinConfirmThreshold > cfg.Matching.AutoConfirmThreshold {
		return nil, fmt.Errorf("MATCH_MIN_CONFIRM_THRESHOLD (%v) must not exceed MATCH_AUTO_CONFIRM_THRESHOLD (%v)",
			cfg.Matching.MinConfirmThreshold, cfg.Matching.AutoConfirmThreshold)
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
