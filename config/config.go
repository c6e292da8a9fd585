package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"

	"scratchtrack/models"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL string

	// Default day-close policy, overridable per store
	BlockGLPostingOnHighSeverity bool
	RegressionSeverity           models.AnomalySeverity

	// Outlier detection tuning
	OutlierLookback      int // prior deltas considered for the average
	OutlierAbsoluteFloor int // deltas at or below never trip the check

	// Chart-of-account codes used when building GL journal requests
	ReceivableAccount        string
	InstantCommissionAccount string
	DrawCommissionAccount    string

	// Environment
	Environment string // "development", "test" or "production"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from the environment, reading a local .env
// file first when present
func load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),

		// Policy defaults
		BlockGLPostingOnHighSeverity: true,
		RegressionSeverity:           models.AnomalySeverityHigh,

		// Detection defaults
		OutlierLookback:      10,
		OutlierAbsoluteFloor: 10,

		// Account code defaults
		ReceivableAccount:        "1200",
		InstantCommissionAccount: "4510",
		DrawCommissionAccount:    "4520",

		Environment: os.Getenv("ENVIRONMENT"),
	}

	if v := os.Getenv("BLOCK_GL_POSTING_ON_HIGH_SEVERITY"); v != "" {
		config.BlockGLPostingOnHighSeverity = v == "true"
	}
	if v := os.Getenv("RECEIVABLE_ACCOUNT"); v != "" {
		config.ReceivableAccount = v
	}
	if v := os.Getenv("INSTANT_COMMISSION_ACCOUNT"); v != "" {
		config.InstantCommissionAccount = v
	}
	if v := os.Getenv("DRAW_COMMISSION_ACCOUNT"); v != "" {
		config.DrawCommissionAccount = v
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
	}

	return config, nil
}

// DefaultPolicy returns the global day-close policy applied when a store
// has no override row
func (c *Config) DefaultPolicy() *models.StorePolicy {
	return &models.StorePolicy{
		BlockGLPostingOnHighSeverity: c.BlockGLPostingOnHighSeverity,
		RegressionSeverity:           c.RegressionSeverity,
	}
}
