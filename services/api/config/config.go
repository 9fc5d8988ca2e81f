package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/thermolog/thermolog/services/api/templog"
)

const (
	defaultPort         = 8080
	defaultLimit        = 200
	defaultMaxAge       = 60 * time.Minute
	defaultHours        = 24
	defaultExportCount  = 1000
	defaultArchiveEvery = 5 * time.Minute
)

// Config holds environment-driven settings for the REST API.
type Config struct {
	Port          int
	BearerToken   string
	DefaultLimit  int
	DefaultMaxAge time.Duration
	DefaultHours  int
	ExportCount   int
	LogLevel      string

	Ring templog.Options

	DatabaseURL     string
	ArchiveInterval time.Duration

	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:            defaultPort,
		DefaultLimit:    defaultLimit,
		DefaultMaxAge:   defaultMaxAge,
		DefaultHours:    defaultHours,
		ExportCount:     defaultExportCount,
		ArchiveInterval: defaultArchiveEvery,
		Ring: templog.Options{
			MaxReadings: templog.DefaultMaxReadings,
			MaxSensors:  templog.DefaultMaxSensors,
			MinInterval: templog.DefaultMinInterval,
			SearchLimit: templog.DefaultSearchLimit,
		},
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

	cfg.BearerToken = strings.TrimSpace(os.Getenv("API_BEARER_TOKEN"))
	cfg.LogLevel = strings.TrimSpace(os.Getenv("LOG_LEVEL"))

	var err error
	if cfg.DefaultLimit, err = positiveInt("API_DEFAULT_LIMIT", cfg.DefaultLimit); err != nil {
		return cfg, err
	}
	if cfg.DefaultHours, err = positiveInt("API_DEFAULT_HOURS", cfg.DefaultHours); err != nil {
		return cfg, err
	}
	if cfg.ExportCount, err = positiveInt("API_EXPORT_COUNT", cfg.ExportCount); err != nil {
		return cfg, err
	}
	if cfg.DefaultMaxAge, err = duration("API_DEFAULT_MAX_AGE", cfg.DefaultMaxAge); err != nil {
		return cfg, err
	}

	if cfg.Ring.MaxReadings, err = positiveInt("RING_MAX_READINGS", cfg.Ring.MaxReadings); err != nil {
		return cfg, err
	}
	if cfg.Ring.MaxSensors, err = positiveInt("RING_MAX_SENSORS", cfg.Ring.MaxSensors); err != nil {
		return cfg, err
	}
	if cfg.Ring.SearchLimit, err = positiveInt("RING_SEARCH_LIMIT", cfg.Ring.SearchLimit); err != nil {
		return cfg, err
	}
	if cfg.Ring.MinInterval, err = duration("RING_MIN_INTERVAL", cfg.Ring.MinInterval); err != nil {
		return cfg, err
	}
	purge := strings.TrimSpace(os.Getenv("RING_PURGE_ON_REBASE"))
	cfg.Ring.PurgeOnRebase = purge == "1" || strings.EqualFold(purge, "true")
	if err := cfg.Ring.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid ring settings: %w", err)
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.ArchiveInterval, err = duration("ARCHIVE_INTERVAL", cfg.ArchiveInterval); err != nil {
		return cfg, err
	}

	cfg.InfluxURL = strings.TrimSpace(os.Getenv("INFLUX_URL"))
	cfg.InfluxToken = os.Getenv("INFLUX_TOKEN")
	cfg.InfluxOrg = os.Getenv("INFLUX_ORG")
	cfg.InfluxBucket = os.Getenv("INFLUX_BUCKET")
	if cfg.InfluxURL != "" && (cfg.InfluxOrg == "" || cfg.InfluxBucket == "") {
		return cfg, fmt.Errorf("INFLUX_ORG and INFLUX_BUCKET are required when INFLUX_URL is set")
	}

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ArchiveEnabled reports whether any archive sink is configured.
func (c Config) ArchiveEnabled() bool {
	return c.DatabaseURL != "" || c.InfluxURL != ""
}

func positiveInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def, fmt.Errorf("invalid %s: %s", key, v)
	}
	return n, nil
}

func duration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return def, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
