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
	defaultAPIBaseURL     = "http://localhost:8080"
	defaultPollInterval   = 30 * time.Second
	defaultRequestTimeout = 10 * time.Second
	defaultResendInterval = time.Minute
	defaultValueEpsilon   = 0.05
	defaultDHTName        = "dht22"
	defaultMaxDeviceAge   = 10 * time.Minute
)

// Config holds runtime configuration for the collector service.
type Config struct {
	APIBaseURL     string
	BearerToken    string
	GatewayURL     string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	ResendInterval time.Duration
	ValueEpsilon   float64
	MaxDeviceAge   time.Duration
	AliasesFile    string
	DHTPin         string
	DHTName        string
	LogLevel       string
	DryRun         bool
	Once           bool
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{
		APIBaseURL:     defaultAPIBaseURL,
		PollInterval:   defaultPollInterval,
		RequestTimeout: defaultRequestTimeout,
		ResendInterval: defaultResendInterval,
		ValueEpsilon:   defaultValueEpsilon,
		MaxDeviceAge:   defaultMaxDeviceAge,
		DHTName:        defaultDHTName,
	}

	if v := strings.TrimSpace(os.Getenv("API_BASE_URL")); v != "" {
		cfg.APIBaseURL = strings.TrimRight(v, "/")
	}
	cfg.BearerToken = strings.TrimSpace(os.Getenv("API_BEARER_TOKEN"))
	cfg.GatewayURL = strings.TrimSpace(os.Getenv("GATEWAY_URL"))
	cfg.AliasesFile = strings.TrimSpace(os.Getenv("SENSOR_ALIASES_FILE"))
	cfg.DHTPin = strings.TrimSpace(os.Getenv("DHT_PIN"))
	if v := strings.TrimSpace(os.Getenv("DHT_NAME")); v != "" {
		cfg.DHTName = v
	}
	cfg.LogLevel = strings.TrimSpace(os.Getenv("LOG_LEVEL"))

	if cfg.GatewayURL == "" && cfg.DHTPin == "" {
		return cfg, errors.New("GATEWAY_URL or DHT_PIN is required")
	}

	var err error
	if cfg.PollInterval, err = duration("COLLECTOR_POLL_INTERVAL", cfg.PollInterval); err != nil {
		return cfg, err
	}
	if cfg.RequestTimeout, err = duration("COLLECTOR_REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return cfg, err
	}
	if cfg.ResendInterval, err = duration("COLLECTOR_RESEND_INTERVAL", cfg.ResendInterval); err != nil {
		return cfg, err
	}
	if cfg.MaxDeviceAge, err = duration("COLLECTOR_MAX_DEVICE_AGE", cfg.MaxDeviceAge); err != nil {
		return cfg, err
	}

	if v := strings.TrimSpace(os.Getenv("COLLECTOR_VALUE_EPSILON")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return cfg, fmt.Errorf("invalid COLLECTOR_VALUE_EPSILON: %s", v)
		}
		cfg.ValueEpsilon = f
	}

	cfg.DryRun = boolEnv("DRY_RUN")
	cfg.Once = boolEnv("COLLECTOR_ONCE")

	return cfg, nil
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

func boolEnv(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	return v == "1" || strings.EqualFold(v, "true")
}
