package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Logger   LoggerConfig
	Import   ImportConfig
	Matching MatchingConfig
}

// DatabaseConfig holds document store connection settings
type DatabaseConfig struct {
	URI            string        // Required
	Name           string        // Default: "leadgen"
	ConnectTimeout time.Duration // Default: 10s
	HealthTimeout  time.Duration // Default: 5s
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // Default: "info" (trace, debug, info, warn, error, fatal, panic)
	Environment string // production|development|staging|test (affects format)
}

// ImportConfig holds bulk-import reconciliation settings
type ImportConfig struct {
	MaxBatchRows int    // Default: 5000, hard cap on rows per import request
	DefaultStage string // Default: "CIP", stage assigned to newly created links
}

// MatchingConfig holds ICP similarity-matching settings
type MatchingConfig struct {
	CandidateLimit int           // Default: 500, cap on the scoring candidate pool
	ScoreBatchSize int           // Default: 50, contacts scored between yields
	CategoryTTL    time.Duration // Default: 5m, distinct-category cache lifetime
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// Constants for default values
const (
	DefaultDatabaseName   = "leadgen"
	DefaultConnectTimeout = 10 * time.Second
	DefaultHealthTimeout  = 5 * time.Second
	DefaultLogLevel       = "info"
	DefaultEnvironment    = "development"
	DefaultMaxBatchRows   = 5000
	DefaultStage          = "CIP"
	DefaultCandidateLimit = 500
	DefaultScoreBatchSize = 50
	DefaultCategoryTTL    = 5 * time.Minute
)

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URI:            getEnv("MONGODB_URI", ""),
			Name:           getEnv("MONGODB_DATABASE", DefaultDatabaseName),
			ConnectTimeout: DefaultConnectTimeout,
			HealthTimeout:  DefaultHealthTimeout,
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", DefaultLogLevel),
			Environment: getEnv("APP_ENV", DefaultEnvironment),
		},
		Import: ImportConfig{
			MaxBatchRows: getEnvAsInt("IMPORT_MAX_BATCH_ROWS", DefaultMaxBatchRows),
			DefaultStage: getEnv("IMPORT_DEFAULT_STAGE", DefaultStage),
		},
		Matching: MatchingConfig{
			CandidateLimit: getEnvAsInt("MATCHING_CANDIDATE_LIMIT", DefaultCandidateLimit),
			ScoreBatchSize: getEnvAsInt("MATCHING_SCORE_BATCH_SIZE", DefaultScoreBatchSize),
			CategoryTTL:    getEnvAsDuration("MATCHING_CATEGORY_TTL", DefaultCategoryTTL),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	var errors ValidationErrors

	// Required: MONGODB_URI
	if c.Database.URI == "" {
		errors = append(errors, ValidationError{
			Field:   "MONGODB_URI",
			Message: "database URI is required",
		})
	}

	validLogLevels := []string{"trace", "debug", "info", "warn", "warning", "error", "fatal", "panic"}
	if !contains(validLogLevels, strings.ToLower(c.Logger.Level)) {
		errors = append(errors, ValidationError{
			Field:   "LOG_LEVEL",
			Message: fmt.Sprintf("invalid log level %q, must be one of: %v", c.Logger.Level, validLogLevels),
		})
	}

	validEnvs := []string{"production", "development", "staging", "test"}
	if !contains(validEnvs, c.Logger.Environment) {
		errors = append(errors, ValidationError{
			Field:   "APP_ENV",
			Message: fmt.Sprintf("invalid environment %q, must be one of: %v", c.Logger.Environment, validEnvs),
		})
	}

	if c.Import.MaxBatchRows <= 0 {
		errors = append(errors, ValidationError{
			Field:   "IMPORT_MAX_BATCH_ROWS",
			Message: fmt.Sprintf("max batch rows must be positive, got %d", c.Import.MaxBatchRows),
		})
	}

	if c.Matching.CandidateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "MATCHING_CANDIDATE_LIMIT",
			Message: fmt.Sprintf("candidate limit must be positive, got %d", c.Matching.CandidateLimit),
		})
	}

	if c.Matching.ScoreBatchSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   "MATCHING_SCORE_BATCH_SIZE",
			Message: fmt.Sprintf("score batch size must be positive, got %d", c.Matching.ScoreBatchSize),
		})
	}

	if len(errors) > 0 {
		return errors
	}

	return nil
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Logger.Environment == "production"
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Logger.Environment == "development"
}

// Helper functions for parsing environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// TestConfig creates a test configuration with sensible defaults for testing
func TestConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			URI:            "mongodb://localhost:27017",
			Name:           "leadgen_test",
			ConnectTimeout: DefaultConnectTimeout,
			HealthTimeout:  DefaultHealthTimeout,
		},
		Logger: LoggerConfig{
			Level:       "debug",
			Environment: "test",
		},
		Import: ImportConfig{
			MaxBatchRows: DefaultMaxBatchRows,
			DefaultStage: DefaultStage,
		},
		Matching: MatchingConfig{
			CandidateLimit: DefaultCandidateLimit,
			ScoreBatchSize: DefaultScoreBatchSize,
			CategoryTTL:    DefaultCategoryTTL,
		},
	}
}
