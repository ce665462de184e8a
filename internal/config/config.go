// Package config loads pipeline settings from the environment, with an
// optional .env file for local runs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/fintrack-ph/statement-reconciler/internal/models"
)

// Config holds every tunable the pipeline reads at startup.
type Config struct {
	// ConfidenceThreshold decides auto-accept vs. manual review for
	// categorization results. Must lie in [0,1].
	ConfidenceThreshold float64
	// CrossAccount disables account-scoped duplicate detection.
	CrossAccount bool
	// NearMatchWindow is the duplicate near-match time window.
	NearMatchWindow time.Duration
	// NearMatchTolerance is the duplicate near-match amount tolerance,
	// as a fraction of the larger amount.
	NearMatchTolerance float64
	// MerchantTablePath overrides the bundled merchant mapping table.
	MerchantTablePath string
	// CorrectionsPath is the YAML file backing the correction store.
	CorrectionsPath string
}

// Default returns the standard configuration.
func Default() Config {
	return Config{
		ConfidenceThreshold: 0.8,
		NearMatchWindow:     24 * time.Hour,
		NearMatchTolerance:  0.01,
		CorrectionsPath:     "corrections.yaml",
	}
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment
// variables win over it.
func Load() (Config, error) {
	// Ignore a missing .env; it is a local-development convenience.
	_ = godotenv.Load()

	cfg := Default()

	if v := os.Getenv("RECONCILER_CONFIDENCE_THRESHOLD"); v != "" {
		threshold, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, &models.ConfigError{Field: "RECONCILER_CONFIDENCE_THRESHOLD", Msg: err.Error()}
		}
		cfg.ConfidenceThreshold = threshold
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return cfg, &models.ConfigError{
			Field: "RECONCILER_CONFIDENCE_THRESHOLD",
			Msg:   fmt.Sprintf("%v is outside [0,1]", cfg.ConfidenceThreshold),
		}
	}

	if v := os.Getenv("RECONCILER_CROSS_ACCOUNT"); v != "" {
		crossAccount, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, &models.ConfigError{Field: "RECONCILER_CROSS_ACCOUNT", Msg: err.Error()}
		}
		cfg.CrossAccount = crossAccount
	}

	if v := os.Getenv("RECONCILER_NEAR_MATCH_WINDOW"); v != "" {
		window, err := time.ParseDuration(v)
		if err != nil {
			return cfg, &models.ConfigError{Field: "RECONCILER_NEAR_MATCH_WINDOW", Msg: err.Error()}
		}
		if window <= 0 {
			return cfg, &models.ConfigError{Field: "RECONCILER_NEAR_MATCH_WINDOW", Msg: "must be positive"}
		}
		cfg.NearMatchWindow = window
	}

	if v := os.Getenv("RECONCILER_NEAR_MATCH_TOLERANCE"); v != "" {
		tolerance, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, &models.ConfigError{Field: "RECONCILER_NEAR_MATCH_TOLERANCE", Msg: err.Error()}
		}
		if tolerance < 0 {
			return cfg, &models.ConfigError{Field: "RECONCILER_NEAR_MATCH_TOLERANCE", Msg: "must not be negative"}
		}
		cfg.NearMatchTolerance = tolerance
	}

	if v := os.Getenv("RECONCILER_MERCHANT_TABLE"); v != "" {
		cfg.MerchantTablePath = v
	}
	if v := os.Getenv("RECONCILER_CORRECTIONS_FILE"); v != "" {
		cfg.CorrectionsPath = v
	}

	return cfg, nil
}
