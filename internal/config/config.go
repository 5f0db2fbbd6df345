// Package config loads server configuration from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// SyncMode selects how much history the feed sync job pulls per tick.
type SyncMode string

const (
	// SyncModeLatest mirrors only the newest upstream record per tick.
	SyncModeLatest SyncMode = "latest"
	// SyncModeHistory pages through the full upstream history per tick.
	SyncModeHistory SyncMode = "history"
)

// Config holds every runtime setting for the server.
type Config struct {
	Port          string
	MongoURI      string
	MongoDatabase string
	JWTSecret     string

	AIOUsername string
	AIOKey      string
	AIOBaseURL  string

	SyncInterval  time.Duration
	SyncMode      SyncMode
	SyncUTCOffset int // hours added to upstream timestamps at insert

	SMTPHost    string
	SMTPPort    int
	SMTPUser    string
	SMTPPass    string
	EmailFrom   string
	FrontendURL string
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Port:          getEnv("PORT", "8000"),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "smarthome"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		AIOUsername:   os.Getenv("AIO_USERNAME"),
		AIOKey:        os.Getenv("AIO_KEY"),
		AIOBaseURL:    getEnv("AIO_BASE_URL", "https://io.adafruit.com/api/v2"),
		SyncMode:      SyncMode(getEnv("SYNC_MODE", string(SyncModeLatest))),
		SMTPHost:      getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPUser:      os.Getenv("SMTP_USER"),
		SMTPPass:      os.Getenv("SMTP_PASS"),
		EmailFrom:     getEnv("EMAIL_FROM", os.Getenv("SMTP_USER")),
		FrontendURL:   getEnv("FRONTEND_URL", "http://localhost:3000"),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.SyncMode != SyncModeLatest && cfg.SyncMode != SyncModeHistory {
		return nil, fmt.Errorf("invalid SYNC_MODE %q (want latest or history)", cfg.SyncMode)
	}

	interval, err := parseDuration("SYNC_INTERVAL", 60*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.SyncInterval = interval

	offset, err := parseInt("SYNC_UTC_OFFSET_HOURS", 7)
	if err != nil {
		return nil, err
	}
	cfg.SyncUTCOffset = offset

	smtpPort, err := parseInt("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}
	cfg.SMTPPort = smtpPort

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
