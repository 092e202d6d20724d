package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the order-intake bot.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	// InactivityWindow resets an idle in-progress form on the next message.
	InactivityWindow time.Duration

	// DatabaseURL empty means the in-memory store (local/dev).
	DatabaseURL string

	// VerifyToken answers the Meta webhook verification challenge.
	VerifyToken string
	// AdminToken guards the operator inbox and catalog endpoints.
	AdminToken string

	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	GraphVersion          string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2Bucket          string
	R2PublicBaseURL   string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:              envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:      envOrDefault("APP_METRICS_NAMESPACE", "blackbot"),
		ShutdownTimeout:       15 * time.Second,
		InactivityWindow:      90 * time.Minute,
		DatabaseURL:           trimmedEnv("DATABASE_URL"),
		VerifyToken:           trimmedEnv("VERIFY_TOKEN"),
		AdminToken:            trimmedEnv("ADMIN_TOKEN"),
		WhatsAppAccessToken:   trimmedEnv("WHATSAPP_ACCESS_TOKEN"),
		WhatsAppPhoneNumberID: trimmedEnv("WHATSAPP_PHONE_NUMBER_ID"),
		GraphVersion:          envOrDefault("GRAPH_VERSION", "v22.0"),
		R2AccountID:           trimmedEnv("R2_ACCOUNT_ID"),
		R2AccessKeyID:         trimmedEnv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey:     trimmedEnv("R2_SECRET_ACCESS_KEY"),
		R2Bucket:              trimmedEnv("R2_BUCKET"),
		R2PublicBaseURL:       trimmedEnv("R2_PUBLIC_BASE"),
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.InactivityWindow, err = durationFromEnv("APP_SESSION_INACTIVITY_WINDOW", cfg.InactivityWindow)
	if err != nil {
		return Config{}, err
	}

	if cfg.InactivityWindow < time.Minute {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_WINDOW must be at least 1m")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}
