package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SPEAKER_HTTP_PORT",
		"SPEAKER_SQLITE_DSN",
		"SPEAKER_SESSION_SECRET",
		"SPEAKER_TOKEN_TTL",
		"SPEAKER_TOKEN_SCAN_LIMIT",
		"SPEAKER_ADMIN_USERNAME",
		"SPEAKER_ADMIN_PASSWORD",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPEAKER_SESSION_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN != "file:speakers.db?_foreign_keys=on" {
		t.Errorf("unexpected default DSN %q", cfg.SQLiteDSN)
	}
	if cfg.TokenTTL != 30*24*time.Hour {
		t.Errorf("expected a 30 day token window, got %v", cfg.TokenTTL)
	}
	if cfg.TokenScanLimit != 100 {
		t.Errorf("expected a scan limit of 100, got %d", cfg.TokenScanLimit)
	}
	if cfg.SessionSecret != "test-secret" {
		t.Errorf("unexpected secret %q", cfg.SessionSecret)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPEAKER_SESSION_SECRET", "test-secret")
	t.Setenv("SPEAKER_HTTP_PORT", "9090")
	t.Setenv("SPEAKER_SQLITE_DSN", "file:other.db")
	t.Setenv("SPEAKER_TOKEN_TTL", "24h")
	t.Setenv("SPEAKER_TOKEN_SCAN_LIMIT", "25")
	t.Setenv("SPEAKER_ADMIN_USERNAME", "root")
	t.Setenv("SPEAKER_ADMIN_PASSWORD", "pw")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN != "file:other.db" {
		t.Errorf("unexpected DSN %q", cfg.SQLiteDSN)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("expected 24h, got %v", cfg.TokenTTL)
	}
	if cfg.TokenScanLimit != 25 {
		t.Errorf("expected 25, got %d", cfg.TokenScanLimit)
	}
	if cfg.AdminUsername != "root" || cfg.AdminPassword != "pw" {
		t.Errorf("unexpected admin seed %q/%q", cfg.AdminUsername, cfg.AdminPassword)
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	clearEnv(t)

	_, err := Load()
	if err == nil {
		t.Fatal("expected an error for the missing secret")
	}
	if !strings.Contains(err.Error(), "SPEAKER_SESSION_SECRET") {
		t.Errorf("expected the missing variable to be named, got %v", err)
	}
}

func TestLoad_MissingAdminPassword(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPEAKER_SESSION_SECRET", "test-secret")
	t.Setenv("SPEAKER_ADMIN_USERNAME", "root")

	_, err := Load()
	if err == nil {
		t.Fatal("expected an error when the admin username has no password")
	}
	if !strings.Contains(err.Error(), "SPEAKER_ADMIN_PASSWORD") {
		t.Errorf("expected the missing variable to be named, got %v", err)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPEAKER_SESSION_SECRET", "test-secret")
	t.Setenv("SPEAKER_HTTP_PORT", "not-a-port")
	t.Setenv("SPEAKER_TOKEN_TTL", "-1h")
	t.Setenv("SPEAKER_TOKEN_SCAN_LIMIT", "0")

	_, err := Load()
	if err == nil {
		t.Fatal("expected an error for invalid values")
	}
	for _, name := range []string{"SPEAKER_HTTP_PORT", "SPEAKER_TOKEN_TTL", "SPEAKER_TOKEN_SCAN_LIMIT"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("expected %s to be reported, got %v", name, err)
		}
	}
}
