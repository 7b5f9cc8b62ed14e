package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port        string
	Env         string
	DatabaseURL string

	// SecretKey signs password reset tokens. Required.
	SecretKey string

	// TokenTTL is the lifetime of issued auth tokens.
	TokenTTL time.Duration

	// ResetTokenTTL is the validity window of password reset tokens.
	ResetTokenTTL time.Duration

	// FrontendURL is the base URL used in password reset links.
	FrontendURL string

	AppLabel    string
	CORSOrigins []string

	// ThrottlePerMin caps credential-endpoint requests per client IP per
	// minute. Zero disables throttling.
	ThrottlePerMin int

	SMTP SMTPConfig
}

// SMTPConfig holds mail delivery settings. An empty Host disables SMTP
// delivery and reset links are logged instead.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// App is the active configuration, populated by Load().
var App Config

// Load reads configuration from environment variables.
//
// Environment variables:
//   - PORT: HTTP listen port (default: "5050")
//   - APP_ENV: "production" enables secure cookies (default: "development")
//   - DATABASE_URL: Postgres DSN
//   - SECRET_KEY: signing key for reset tokens (required)
//   - TOKEN_TTL: auth token lifetime (default: 336h, two weeks)
//   - RESET_TOKEN_TTL: reset token window (default: 72h)
//   - FRONTEND_URL: base URL for reset links (default: "http://localhost:5173")
//   - APP_LABEL: label prepended to email subjects (default: "ClassTrack")
//   - CORS_ORIGINS: comma-separated allowed origins
//   - LOGIN_THROTTLE_PER_MIN: credential-endpoint rate cap per IP, 0 disables (default: 10)
//   - SMTP_HOST, SMTP_PORT, SMTP_USERNAME, SMTP_PASSWORD, SMTP_FROM
func Load() Config {
	App = Config{
		Port:           envOr("PORT", "5050"),
		Env:            envOr("APP_ENV", "development"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SecretKey:      os.Getenv("SECRET_KEY"),
		TokenTTL:       envDuration("TOKEN_TTL", 14*24*time.Hour),
		ResetTokenTTL:  envDuration("RESET_TOKEN_TTL", 72*time.Hour),
		FrontendURL:    envOr("FRONTEND_URL", "http://localhost:5173"),
		AppLabel:       envOr("APP_LABEL", "ClassTrack"),
		CORSOrigins:    splitCSV(os.Getenv("CORS_ORIGINS")),
		ThrottlePerMin: envInt("LOGIN_THROTTLE_PER_MIN", 10),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     envOr("SMTP_FROM", "noreply@classtrack.app"),
		},
	}
	return App
}

// Validate checks that required settings are present.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is empty")
	}
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is empty")
	}
	return nil
}

// IsProduction reports whether the app runs with production hardening
// (secure cookies).
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
