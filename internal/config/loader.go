package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the speaker
// registry service.
type Config struct {
	HTTPPort       int
	SQLiteDSN      string
	SessionSecret  string
	TokenTTL       time.Duration
	TokenScanLimit int
	AdminUsername  string
	AdminPassword  string
}

// Load parses configuration values from the current process environment.
//
// Optional fields fall back to sensible defaults; required values are
// validated and reported together so operators see every problem at once.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:       8080,
		SQLiteDSN:      "file:speakers.db?_foreign_keys=on",
		TokenTTL:       30 * 24 * time.Hour,
		TokenScanLimit: 100,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("SPEAKER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SPEAKER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("SPEAKER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv("SPEAKER_SESSION_SECRET")); secret == "" {
		missing = append(missing, "SPEAKER_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}

	if ttlValue := strings.TrimSpace(os.Getenv("SPEAKER_TOKEN_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SPEAKER_TOKEN_TTL")
		} else {
			cfg.TokenTTL = ttl
		}
	}

	if limitValue := strings.TrimSpace(os.Getenv("SPEAKER_TOKEN_SCAN_LIMIT")); limitValue != "" {
		limit, err := strconv.Atoi(limitValue)
		if err != nil || limit <= 0 {
			invalid = append(invalid, "SPEAKER_TOKEN_SCAN_LIMIT")
		} else {
			cfg.TokenScanLimit = limit
		}
	}

	cfg.AdminUsername = strings.TrimSpace(os.Getenv("SPEAKER_ADMIN_USERNAME"))
	cfg.AdminPassword = os.Getenv("SPEAKER_ADMIN_PASSWORD")
	if cfg.AdminUsername != "" && cfg.AdminPassword == "" {
		missing = append(missing, "SPEAKER_ADMIN_PASSWORD")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("environment variables have invalid values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
