// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"medigenius/internal/ai"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection (allow-list)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (sessions and stored credentials)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Server-side primary key used when a user has none.
	GeminiAPIKey string

	// Provider endpoints and models
	GeminiBaseURL       string
	GeminiModel         string
	ImagenModel         string
	GroqBaseURL         string
	GroqModel           string
	OpenRouterBaseURL   string
	OpenRouterModel     string
	PollinationsBaseURL string
	UnsplashBaseURL     string
	AdapterTimeout      time.Duration

	// Encrypts stored credentials when set.
	CredentialsSecret string

	// Identity provider token verification
	IdentityJWTSecret    string
	IdentityJWTPublicKey string // PEM, RS256
	IdentityIssuer       string
	IdentityAudience     string

	// Admin emails are always allowed and may manage the allow-list.
	AdminEmails []string

	SentryDSN string

	// Sign-in attempts allowed per IP per minute.
	SignInRateLimit int

	// Reverse proxies (IPs or CIDRs) whose X-Forwarded-For is believed.
	// Empty means the peer address is the client address.
	TrustedProxies []string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. A .env file in the working directory
// is loaded first when present; real environment variables win. Returns an
// error if critical values are missing in production mode.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	defaults := ai.DefaultOptions()

	timeout, err := time.ParseDuration(envOrDefault("ADAPTER_TIMEOUT", defaults.Timeout.String()))
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("ADAPTER_TIMEOUT must be a positive duration")
	}

	rateLimit, err := strconv.Atoi(envOrDefault("SIGNIN_RATE_LIMIT", "10"))
	if err != nil || rateLimit <= 0 {
		return nil, fmt.Errorf("SIGNIN_RATE_LIMIT must be a positive integer")
	}

	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "medigenius"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "medigenius"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),

		GeminiBaseURL:       envOrDefault("GEMINI_BASE_URL", defaults.GeminiBaseURL),
		GeminiModel:         envOrDefault("GEMINI_MODEL", defaults.GeminiModel),
		ImagenModel:         envOrDefault("IMAGEN_MODEL", defaults.ImagenModel),
		GroqBaseURL:         envOrDefault("GROQ_BASE_URL", defaults.GroqBaseURL),
		GroqModel:           envOrDefault("GROQ_MODEL", defaults.GroqModel),
		OpenRouterBaseURL:   envOrDefault("OPENROUTER_BASE_URL", defaults.OpenRouterBaseURL),
		OpenRouterModel:     envOrDefault("OPENROUTER_MODEL", defaults.OpenRouterModel),
		PollinationsBaseURL: envOrDefault("POLLINATIONS_BASE_URL", defaults.PollinationsBaseURL),
		UnsplashBaseURL:     envOrDefault("UNSPLASH_BASE_URL", defaults.UnsplashBaseURL),
		AdapterTimeout:      timeout,

		CredentialsSecret: os.Getenv("CREDENTIALS_SECRET"),

		IdentityJWTSecret:    os.Getenv("IDENTITY_JWT_SECRET"),
		IdentityJWTPublicKey: os.Getenv("IDENTITY_JWT_PUBLIC_KEY"),
		IdentityIssuer:       os.Getenv("IDENTITY_ISSUER"),
		IdentityAudience:     os.Getenv("IDENTITY_AUDIENCE"),

		AdminEmails: splitList(os.Getenv("ADMIN_EMAILS")),

		SentryDSN: os.Getenv("SENTRY_DSN"),

		SignInRateLimit: rateLimit,
		TrustedProxies:  splitList(os.Getenv("TRUSTED_PROXIES")),
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.IdentityJWTSecret == "" && cfg.IdentityJWTPublicKey == "" {
			return nil, fmt.Errorf("IDENTITY_JWT_SECRET or IDENTITY_JWT_PUBLIC_KEY must be set in production")
		}
		if cfg.CredentialsSecret == "" {
			return nil, fmt.Errorf("CREDENTIALS_SECRET must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// AIOptions returns the adapter options derived from this config.
func (c *Config) AIOptions() ai.Options {
	return ai.Options{
		GeminiBaseURL:       c.GeminiBaseURL,
		GeminiModel:         c.GeminiModel,
		ImagenModel:         c.ImagenModel,
		GroqBaseURL:         c.GroqBaseURL,
		GroqModel:           c.GroqModel,
		OpenRouterBaseURL:   c.OpenRouterBaseURL,
		OpenRouterModel:     c.OpenRouterModel,
		PollinationsBaseURL: c.PollinationsBaseURL,
		UnsplashBaseURL:     c.UnsplashBaseURL,
		Timeout:             c.AdapterTimeout,
	}
}

// IsAdmin reports whether email is listed in ADMIN_EMAILS.
func (c *Config) IsAdmin(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range c.AdminEmails {
		if a == email {
			return true
		}
	}
	return false
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitList parses a comma-separated list into lower-cased, trimmed entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
