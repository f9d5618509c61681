// Package config loads chatguard's runtime configuration from environment
// variables, the same hand-rolled os.Getenv style the teacher used — no
// config library appears anywhere in the example pack for a process this
// size (see DESIGN.md).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/barbashov/chatguard/internal/ratelimit"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	TelegramBotToken string

	OpenAIAPIKey string

	GeocodeAPIKey     string
	OpenWeatherAPIKey string

	SearchBaseURL string
	SearchAPIKey  string

	DatabasePath string

	URLFetchMaxRedirects int

	RateLimits map[string]ratelimit.Spec

	// CollectorSecretKeys names environment/config keys to treat as secrets
	// in scenario fixtures (§6). cmd/collector does not read this field; it
	// takes its secrets from its --secrets flag.
	CollectorSecretKeys []string
}

// Load reads configuration from environment variables and applies sensible
// defaults where possible. It performs validation and returns an error if
// required configuration is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.TelegramBotToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	if cfg.TelegramBotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	cfg.OpenAIAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	cfg.GeocodeAPIKey = strings.TrimSpace(os.Getenv("GEOCODE_MAPS_API_KEY"))
	cfg.OpenWeatherAPIKey = strings.TrimSpace(os.Getenv("OPENWEATHERMAP_API_KEY"))

	cfg.SearchBaseURL = strings.TrimSpace(os.Getenv("SEARCH_BASE_URL"))
	cfg.SearchAPIKey = strings.TrimSpace(os.Getenv("SEARCH_API_KEY"))

	cfg.DatabasePath = strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "chatguard.db"
	}

	redirects, err := intEnv("URLFETCH_MAX_REDIRECTS", 5)
	if err != nil {
		return nil, err
	}
	cfg.URLFetchMaxRedirects = redirects

	searchWindow, err := windowEnv("RATE_LIMIT_SEARCH_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}
	geocodeWindow, err := windowEnv("RATE_LIMIT_GEOCODE_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}
	weatherWindow, err := windowEnv("RATE_LIMIT_WEATHER_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}
	urlfetchWindow, err := windowEnv("RATE_LIMIT_URLFETCH_WINDOW", time.Minute)
	if err != nil {
		return nil, err
	}

	searchMax, err := intEnv("RATE_LIMIT_SEARCH_MAX", 30)
	if err != nil {
		return nil, err
	}
	geocodeMax, err := intEnv("RATE_LIMIT_GEOCODE_MAX", 60)
	if err != nil {
		return nil, err
	}
	weatherMax, err := intEnv("RATE_LIMIT_WEATHER_MAX", 60)
	if err != nil {
		return nil, err
	}
	urlfetchMax, err := intEnv("RATE_LIMIT_URLFETCH_MAX", 60)
	if err != nil {
		return nil, err
	}

	cfg.RateLimits = map[string]ratelimit.Spec{
		"search":       {MaxRequests: searchMax, Window: searchWindow},
		"geocode-maps": {MaxRequests: geocodeMax, Window: geocodeWindow},
		"openweathermap": {MaxRequests: weatherMax, Window: weatherWindow},
		"urlfetch":     {MaxRequests: urlfetchMax, Window: urlfetchWindow},
	}

	secretsRaw := strings.TrimSpace(os.Getenv("COLLECTOR_SECRET_KEYS"))
	if secretsRaw != "" {
		for _, k := range strings.Split(secretsRaw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				cfg.CollectorSecretKeys = append(cfg.CollectorSecretKeys, k)
			}
		}
	}

	return cfg, nil
}

func intEnv(name string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}

func windowEnv(name string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}
