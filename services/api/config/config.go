package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

const (
	defaultPort               = 5000
	defaultLimit              = 50
	defaultMaxLimit           = 1000
	defaultSimulationInterval = 10 * time.Second
	defaultStoreTimeout       = 5 * time.Second
	defaultKafkaTopic         = "campus.readings"
)

// Config holds environment-driven settings for the monitor API.
type Config struct {
	StoreDriver string
	DatabaseURL string
	Port        int

	DefaultLimit int
	MaxLimit     int

	SimulationEnabled  bool
	SimulationInterval time.Duration
	StoreTimeout       time.Duration
	RetainPerPair      int
	Location           *time.Location

	KafkaBrokers []string
	KafkaTopic   string

	LogLevel slog.Level
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		StoreDriver:        DriverPostgres,
		Port:               defaultPort,
		DefaultLimit:       defaultLimit,
		MaxLimit:           defaultMaxLimit,
		SimulationEnabled:  true,
		SimulationInterval: defaultSimulationInterval,
		StoreTimeout:       defaultStoreTimeout,
		Location:           time.Local,
		KafkaTopic:         defaultKafkaTopic,
		LogLevel:           slog.LevelInfo,
	}

	if driver := strings.TrimSpace(os.Getenv("STORE_DRIVER")); driver != "" {
		switch strings.ToLower(driver) {
		case DriverPostgres, DriverMemory:
			cfg.StoreDriver = strings.ToLower(driver)
		default:
			return cfg, fmt.Errorf("invalid STORE_DRIVER: %s", driver)
		}
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.StoreDriver == DriverPostgres && cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	} else if portStr := os.Getenv("API_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid API_PORT: %s", portStr)
		}
	}

	if limitStr := os.Getenv("API_DEFAULT_LIMIT"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			cfg.DefaultLimit = limit
		} else {
			return cfg, fmt.Errorf("invalid API_DEFAULT_LIMIT: %s", limitStr)
		}
	}

	if limitStr := os.Getenv("API_MAX_LIMIT"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			cfg.MaxLimit = limit
		} else {
			return cfg, fmt.Errorf("invalid API_MAX_LIMIT: %s", limitStr)
		}
	}
	if cfg.DefaultLimit > cfg.MaxLimit {
		return cfg, fmt.Errorf("API_DEFAULT_LIMIT %d exceeds API_MAX_LIMIT %d", cfg.DefaultLimit, cfg.MaxLimit)
	}

	if v := strings.TrimSpace(os.Getenv("SIMULATION_ENABLED")); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid SIMULATION_ENABLED: %w", err)
		}
		cfg.SimulationEnabled = enabled
	}

	if v := strings.TrimSpace(os.Getenv("SIMULATION_INTERVAL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("invalid SIMULATION_INTERVAL: %s", v)
		}
		cfg.SimulationInterval = d
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

	if v := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("KAFKA_TOPIC")); v != "" {
		cfg.KafkaTopic = v
	}

	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return cfg, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
	}

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
