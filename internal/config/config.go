// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

// ErrMissingProviderConfig is returned when the database endpoint or anon key is absent
var ErrMissingProviderConfig = errors.New("Missing Supabase environment variables")

// ErrMissingStreamKey is returned when the video/chat platform key is absent
var ErrMissingStreamKey = errors.New("STREAM_API_KEY is not set")

// Config holds the application configuration
type Config struct {
	Port    string
	GinMode string

	Database DatabaseConfig
	Provider ProviderConfig
	Identity IdentityConfig
	Stream   StreamConfig
	Workers  WorkerConfig
	Limits   RateLimitConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL      string // Full DSN, takes precedence over the discrete fields
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ProviderConfig describes the hosted relational database the proxy fronts
type ProviderConfig struct {
	URL       string
	AnonKey   string
	JWTSecret string // HS256 secret used to verify bearer tokens
}

// IdentityConfig describes the identity provider
type IdentityConfig struct {
	Issuer    string // OIDC issuer; enables RS256 verification when set
	JWKSURL   string
	APIURL    string
	SecretKey string
}

// StreamConfig describes the video/chat platform
type StreamConfig struct {
	APIKey    string
	APISecret string
	VideoURL  string
	ChatURL   string
	TokenTTL  time.Duration
}

// WorkerConfig holds background worker intervals
type WorkerConfig struct {
	SessionSweepInterval   time.Duration
	LivestreamReapInterval time.Duration
}

// RateLimitConfig configures the per-client limiter on /api
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", ""),
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "golivehub"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Provider: ProviderConfig{
			URL:       getEnv("SUPABASE_URL", ""),
			AnonKey:   getEnv("SUPABASE_ANON_KEY", ""),
			JWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),
		},
		Identity: IdentityConfig{
			Issuer:    getEnv("IDENTITY_ISSUER", ""),
			JWKSURL:   getEnv("IDENTITY_JWKS_URL", ""),
			APIURL:    getEnv("IDENTITY_API_URL", "https://api.clerk.com/v1"),
			SecretKey: getEnv("IDENTITY_SECRET_KEY", ""),
		},
		Stream: StreamConfig{
			APIKey:    getEnv("STREAM_API_KEY", ""),
			APISecret: getEnv("STREAM_API_SECRET", ""),
			VideoURL:  getEnv("STREAM_VIDEO_URL", "https://video.stream-io-api.com/api/v2/video"),
			ChatURL:   getEnv("STREAM_CHAT_URL", "https://chat.stream-io-api.com"),
			TokenTTL:  getDuration("STREAM_TOKEN_TTL", time.Hour),
		},
		Workers: WorkerConfig{
			SessionSweepInterval:   getDuration("SESSION_SWEEP_INTERVAL", 15*time.Second),
			LivestreamReapInterval: getDuration("LIVESTREAM_REAP_INTERVAL", time.Minute),
		},
		Limits: RateLimitConfig{
			RequestsPerSecond: getFloat("RATE_LIMIT_RPS", 10),
			Burst:             getInt("RATE_LIMIT_BURST", 20),
		},
	}
}

// Validate checks the settings every proxy request depends on
func (c *Config) Validate() error {
	if c.Provider.URL == "" || c.Provider.AnonKey == "" {
		return ErrMissingProviderConfig
	}
	return nil
}

// StreamEnabled returns ErrMissingStreamKey when the video platform is not configured
func (c *Config) StreamEnabled() error {
	if c.Stream.APIKey == "" {
		return ErrMissingStreamKey
	}
	return nil
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && f > 0 {
		return f
	}
	return defaultValue
}
