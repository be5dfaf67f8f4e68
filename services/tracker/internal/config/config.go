package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAPIURL          = "http://api.open-notify.org/iss-now.json"
	defaultPollInterval    = 10 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	defaultNabaztagHost    = "localhost"
	defaultNabaztagPort    = 1234
	defaultNabaztagTimeout = 10 * time.Second
	defaultLogLevel        = "info"
)

// Config holds runtime configuration for the tracker service.
type Config struct {
	APIURL          string
	PollInterval    time.Duration
	RequestTimeout  time.Duration
	NabaztagHost    string
	NabaztagPort    int
	NabaztagTimeout time.Duration
	LogLevel        string
	DatabaseURL     string
	MetricsAddr     string
	DryRun          bool
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{
		APIURL:          defaultAPIURL,
		PollInterval:    defaultPollInterval,
		RequestTimeout:  defaultRequestTimeout,
		NabaztagHost:    defaultNabaztagHost,
		NabaztagPort:    defaultNabaztagPort,
		NabaztagTimeout: defaultNabaztagTimeout,
		LogLevel:        defaultLogLevel,
	}

	if v := env("ISS_API_URL"); v != "" {
		cfg.APIURL = v
	}

	var err error
	if cfg.PollInterval, err = durationEnv("ISS_POLL_INTERVAL", cfg.PollInterval); err != nil {
		return cfg, err
	}
	if cfg.RequestTimeout, err = durationEnv("ISS_REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return cfg, err
	}
	if cfg.NabaztagTimeout, err = durationEnv("NABAZTAG_TIMEOUT", cfg.NabaztagTimeout); err != nil {
		return cfg, err
	}

	if v := env("NABAZTAG_HOST"); v != "" {
		cfg.NabaztagHost = v
	}
	if v := env("NABAZTAG_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return cfg, fmt.Errorf("invalid NABAZTAG_PORT: %s", v)
		}
		cfg.NabaztagPort = port
	}

	if v := env("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	cfg.DatabaseURL = env("DATABASE_URL")
	cfg.MetricsAddr = env("METRICS_ADDR")

	dryRun := env("DRY_RUN")
	cfg.DryRun = dryRun == "1" || strings.EqualFold(dryRun, "true")

	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := env(key)
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
