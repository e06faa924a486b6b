// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Config holds the application configuration loaded from environment variables.
type Config struct {
	BackendURL    string `env:"LIBRIS_BACKEND_URL"`
	SessionSecret string `env:"LIBRIS_SESSION_SECRET,required"`
	DBPath        string `env:"LIBRIS_DB_PATH" envDefault:"./data/libris.db"`
	ServerHost    string `env:"LIBRIS_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"LIBRIS_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"LIBRIS_ENV" envDefault:"development"`
	LogLevel      string `env:"LIBRIS_LOG_LEVEL" envDefault:"info"`

	// BackendTimeout bounds every backend round trip. A hung backend request
	// must resolve to a visible failure, never a perpetually loading view.
	BackendTimeout time.Duration `env:"LIBRIS_BACKEND_TIMEOUT" envDefault:"15s"`

	// DemoMode serves the dashboard from an in-memory backend instead of a
	// real one. Useful for local demos and development without a backend.
	DemoMode bool `env:"LIBRIS_DEMO" envDefault:"false"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("LIBRIS_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("LIBRIS_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	// Warn about low-entropy secrets
	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("LIBRIS_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	// A backend is required unless demo mode supplies one in-process.
	if cfg.DemoMode {
		return cfg, nil
	}
	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("LIBRIS_BACKEND_URL is required unless LIBRIS_DEMO=true")
	}
	u, err := url.Parse(cfg.BackendURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("LIBRIS_BACKEND_URL %q is not an absolute URL", cfg.BackendURL)
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
