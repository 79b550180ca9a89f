package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultRunTimeout   = 30 * time.Second
	defaultStoreTimeout = 5 * time.Second
)

// Config holds runtime configuration for the one-shot sweep job.
type Config struct {
	DatabaseURL   string
	RunTimeout    time.Duration
	StoreTimeout  time.Duration
	RetainPerPair int
	Location      *time.Location
	DryRun        bool
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{
		RunTimeout:   defaultRunTimeout,
		StoreTimeout: defaultStoreTimeout,
		Location:     time.Local,
	}

	dryRun := strings.TrimSpace(os.Getenv("DRY_RUN"))
	cfg.DryRun = dryRun == "1" || strings.EqualFold(dryRun, "true")

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.DatabaseURL == "" && !cfg.DryRun {
		return cfg, errors.New("DATABASE_URL is required")
	}

	if v := strings.TrimSpace(os.Getenv("SWEEP_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("invalid SWEEP_TIMEOUT: %s", v)
		}
		cfg.RunTimeout = d
	}

	if v := strings.TrimSpace(os.Getenv("STORE_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("invalid STORE_TIMEOUT: %s", v)
		}
		cfg.StoreTimeout = d
	}

	if v := strings.TrimSpace(os.Getenv("READING_RETENTION")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("invalid READING_RETENTION: %s", v)
		}
		cfg.RetainPerPair = n
	}

	if v := strings.TrimSpace(os.Getenv("DISPLAY_TIMEZONE")); v != "" {
		loc, err := time.LoadLocation(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
		}
		cfg.Location = loc
	}

	return cfg, nil
}
