package config

import (
	"testing"
	"time"
)

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_SESSION_INACTIVITY_WINDOW",
		"APP_METRICS_NAMESPACE",
		"DATABASE_URL",
		"VERIFY_TOKEN",
		"ADMIN_TOKEN",
		"WHATSAPP_ACCESS_TOKEN",
		"WHATSAPP_PHONE_NUMBER_ID",
		"GRAPH_VERSION",
		"R2_ACCOUNT_ID",
		"R2_ACCESS_KEY_ID",
		"R2_SECRET_ACCESS_KEY",
		"R2_BUCKET",
		"R2_PUBLIC_BASE",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want :8080", cfg.BindAddr)
	}
	if cfg.InactivityWindow != 90*time.Minute {
		t.Fatalf("InactivityWindow = %v, want 90m", cfg.InactivityWindow)
	}
	if cfg.GraphVersion != "v22.0" {
		t.Fatalf("GraphVersion = %q, want v22.0", cfg.GraphVersion)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL = %q, want empty default", cfg.DatabaseURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_SESSION_INACTIVITY_WINDOW", "30m")
	t.Setenv("ADMIN_TOKEN", "  secret  ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.InactivityWindow != 30*time.Minute {
		t.Fatalf("InactivityWindow = %v, want 30m", cfg.InactivityWindow)
	}
	if cfg.AdminToken != "secret" {
		t.Fatalf("AdminToken = %q, want trimmed", cfg.AdminToken)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_SHUTDOWN_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject unparseable duration")
	}
}

func TestLoadRejectsTinyInactivityWindow(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("APP_SESSION_INACTIVITY_WINDOW", "10s")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() should reject sub-minute inactivity window")
	}
}
