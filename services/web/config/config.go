package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the web view.
type Config struct {
	Port             int
	APIURL           string
	RequestTimeout   time.Duration
	NabaztagHost     string
	NabaztagPort     int
	NabaztagTimeout  time.Duration
	DispatchEnabled  bool
	DispatchCooldown time.Duration
	RefreshSeconds   int
	PollSeconds      int
	DatabaseURL      string
	DefaultLimit     int
	LogLevel         string
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:             8080,
		APIURL:           "http://api.open-notify.org/iss-now.json",
		RequestTimeout:   10 * time.Second,
		NabaztagHost:     "localhost",
		NabaztagPort:     1234,
		NabaztagTimeout:  10 * time.Second,
		DispatchCooldown: time.Minute,
		RefreshSeconds:   60,
		PollSeconds:      10,
		DefaultLimit:     50,
		LogLevel:         "info",
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	}

	if url := strings.TrimSpace(os.Getenv("ISS_API_URL")); url != "" {
		cfg.APIURL = url
	}

	if v := os.Getenv("ISS_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("invalid ISS_REQUEST_TIMEOUT: %s", v)
		}
		cfg.RequestTimeout = d
	}

	if host := strings.TrimSpace(os.Getenv("NABAZTAG_HOST")); host != "" {
		cfg.NabaztagHost = host
	}

	if portStr := os.Getenv("NABAZTAG_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 && port <= 65535 {
			cfg.NabaztagPort = port
		} else {
			return cfg, fmt.Errorf("invalid NABAZTAG_PORT: %s", portStr)
		}
	}

	if v := os.Getenv("NABAZTAG_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("invalid NABAZTAG_TIMEOUT: %s", v)
		}
		cfg.NabaztagTimeout = d
	}

	if v := os.Getenv("WEB_DISPATCH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid WEB_DISPATCH_ENABLED: %s", v)
		}
		cfg.DispatchEnabled = enabled
	}

	if v := os.Getenv("WEB_DISPATCH_COOLDOWN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return cfg, fmt.Errorf("invalid WEB_DISPATCH_COOLDOWN: %s", v)
		}
		cfg.DispatchCooldown = d
	}

	if v := os.Getenv("WEB_REFRESH_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.RefreshSeconds = secs
		} else {
			return cfg, fmt.Errorf("invalid WEB_REFRESH_SECONDS: %s", v)
		}
	}

	if v := os.Getenv("WEB_POLL_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.PollSeconds = secs
		} else {
			return cfg, fmt.Errorf("invalid WEB_POLL_SECONDS: %s", v)
		}
	}

	if limitStr := os.Getenv("API_DEFAULT_LIMIT"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			cfg.DefaultLimit = limit
		} else {
			return cfg, fmt.Errorf("invalid API_DEFAULT_LIMIT: %s", limitStr)
		}
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
