package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	// Server
	HTTPAddr    string
	CORSOrigins []string

	// Redis; REDIS_ADDR is a comma-separated list in cluster mode
	RedisAddrs   []string
	RedisPass    string
	RedisCluster bool

	// Wizard sessions
	SessionStore     string // redis | memory
	WizardSessionTTL time.Duration
	CatalogPath      string
	TrackingInterval time.Duration

	// Per-owner limits on session starts and submissions; 0 disables
	StartRateLimit  int64
	SubmitRateLimit int64
	RateLimitWindow time.Duration

	// Submission ledger; empty disables it
	DatabaseURL string

	// Assistance API
	AssistanceURL     string
	AssistanceTimeout time.Duration
	AssistanceRPS     float64
	AssistanceBurst   int
	TokenVerifyTTL    time.Duration

	// Geocoding; empty uses the Assistance API geocode endpoints
	GoogleMapsAPIKey string
	GeocodeLanguage  string
	GeocodeRegion    string
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8000"),
		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"*"}),

		RedisAddrs:   getEnvSlice("REDIS_ADDR", []string{"localhost:6379"}),
		RedisPass:    getEnv("REDIS_PASS", ""),
		RedisCluster: strings.ToLower(getEnv("REDIS_CLUSTER", "false")) == "true",

		SessionStore:     strings.ToLower(getEnv("SESSION_STORE", "redis")),
		WizardSessionTTL: getEnvDuration("WIZARD_SESSION_TTL", 30*time.Minute),
		CatalogPath:      getEnv("CATALOG_PATH", ""),
		TrackingInterval: getEnvDuration("TRACKING_POLL_INTERVAL", 10*time.Second),

		StartRateLimit:  int64(getEnvInt("START_RATE_LIMIT", 30)),
		SubmitRateLimit: int64(getEnvInt("SUBMIT_RATE_LIMIT", 5)),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		AssistanceURL:     getEnv("ASSISTANCE_API_URL", "http://localhost:8001"),
		AssistanceTimeout: getEnvDuration("ASSISTANCE_API_TIMEOUT", 15*time.Second),
		AssistanceRPS:     getEnvFloat("ASSISTANCE_API_RPS", 20),
		AssistanceBurst:   getEnvInt("ASSISTANCE_API_BURST", 40),
		TokenVerifyTTL:    getEnvDuration("TOKEN_VERIFY_TTL", 2*time.Minute),

		GoogleMapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		GeocodeLanguage:  getEnv("GEOCODE_LANGUAGE", "es"),
		GeocodeRegion:    getEnv("GEOCODE_REGION", ""),
	}
}

// UseMemoryStore reports whether wizard sessions live in process memory.
func (c AppConfig) UseMemoryStore() bool {
	return c.SessionStore == "memory"
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
