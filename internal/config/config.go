// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"PRESSFLOW_DB_PATH" envDefault:"./data/pressflow.db"`
	AppSecret  string `env:"PRESSFLOW_APP_SECRET,required"`
	ServerHost string `env:"PRESSFLOW_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"PRESSFLOW_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"PRESSFLOW_ENV" envDefault:"development"`
	LogLevel   string `env:"PRESSFLOW_LOG_LEVEL" envDefault:"info"`

	// Generation configuration
	GeminiAPIKeys  []string `env:"PRESSFLOW_GEMINI_API_KEYS" envSeparator:","` // Shared key pool, rotated round-robin
	OpenAIAPIKeys  []string `env:"PRESSFLOW_OPENAI_API_KEYS" envSeparator:","`
	TextProvider   string   `env:"PRESSFLOW_TEXT_PROVIDER" envDefault:"gemini"`  // gemini|openai
	ImageProvider  string   `env:"PRESSFLOW_IMAGE_PROVIDER" envDefault:"gemini"` // gemini|openai
	MaxImages      int      `env:"PRESSFLOW_MAX_IMAGES" envDefault:"5"`          // Placeholder budget per content
	TextTimeoutS   int      `env:"PRESSFLOW_TEXT_TIMEOUT" envDefault:"120"`      // Seconds per text generation call
	ImageTimeoutS  int      `env:"PRESSFLOW_IMAGE_TIMEOUT" envDefault:"120"`     // Seconds per image generation call
	RemoteTimeoutS int      `env:"PRESSFLOW_REMOTE_TIMEOUT" envDefault:"30"`     // Seconds per WordPress API call

	// Publishing configuration
	SimulatedPublish bool  `env:"PRESSFLOW_SIMULATED_PUBLISH" envDefault:"false"` // Allow simulate=true publish requests
	SimulatedPostID  int64 `env:"PRESSFLOW_SIMULATED_POST_ID" envDefault:"999999"`
	SchedulerEnabled bool  `env:"PRESSFLOW_SCHEDULER_ENABLED" envDefault:"false"` // Auto-publish due scheduled contents

	// Cache configuration
	RedisURL    string `env:"PRESSFLOW_REDIS_URL"`                           // Optional Redis URL for distributed caching
	CachePrefix string `env:"PRESSFLOW_CACHE_PREFIX" envDefault:"pressflow:"`
	CacheTTL    int    `env:"PRESSFLOW_CACHE_TTL" envDefault:"60"` // Dashboard stats TTL in seconds

	// Rate limiting
	APIRateRPS   float64 `env:"PRESSFLOW_API_RATE_RPS" envDefault:"10"`
	APIRateBurst int     `env:"PRESSFLOW_API_RATE_BURST" envDefault:"20"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// TextTimeout returns the per-call deadline for text generation.
func (c Config) TextTimeout() time.Duration {
	return time.Duration(c.TextTimeoutS) * time.Second
}

// ImageTimeout returns the per-call deadline for image generation.
func (c Config) ImageTimeout() time.Duration {
	return time.Duration(c.ImageTimeoutS) * time.Second
}

// RemoteTimeout returns the per-call deadline for WordPress API calls.
func (c Config) RemoteTimeout() time.Duration {
	return time.Duration(c.RemoteTimeoutS) * time.Second
}

// MinAppSecretLength is the minimum required length for the app secret.
// The credential sealer derives a 256-bit key from it.
const MinAppSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.AppSecret) < MinAppSecretLength {
		return nil, fmt.Errorf("PRESSFLOW_APP_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinAppSecretLength, len(cfg.AppSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.AppSecret == weak {
			return nil, fmt.Errorf("PRESSFLOW_APP_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.AppSecret) {
		slog.Warn("PRESSFLOW_APP_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	switch cfg.TextProvider {
	case "gemini", "openai":
	default:
		return nil, fmt.Errorf("PRESSFLOW_TEXT_PROVIDER must be gemini or openai, got %q", cfg.TextProvider)
	}
	switch cfg.ImageProvider {
	case "gemini", "openai":
	default:
		return nil, fmt.Errorf("PRESSFLOW_IMAGE_PROVIDER must be gemini or openai, got %q", cfg.ImageProvider)
	}

	if cfg.MaxImages < 0 {
		return nil, fmt.Errorf("PRESSFLOW_MAX_IMAGES must not be negative")
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
