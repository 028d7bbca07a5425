package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// minWebhookSecretLen guards against trivially guessable shared secrets.
const minWebhookSecretLen = 32

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if RIFT_CONFIG is set
//  3. env (prefix RIFT_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("RIFT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: RIFT_ADDR, RIFT_WEBHOOK_SECRET, ...
	// Map env keys like RIFT_XP_PER_LEVEL -> xp_per_level (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("RIFT_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "rift_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// RIFT_CONFIG names the file itself; never treat it as a field.
	k.Delete("config")

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate applies field-level sanity checks shared by every entrypoint.
// The webhook secret is checked for length only when set; the server
// entrypoint refuses to start without one, while offline commands
// (cleanup) do not need it.
func (c *Config) validate() error {
	if c.Addr == "" {
		return NewInvalid("addr", "must not be empty")
	}
	if c.DatabaseURL == "" {
		return NewInvalid("database_url", "must not be empty")
	}
	if c.WebhookSecret != "" && len(c.WebhookSecret) < minWebhookSecretLen {
		return NewInvalid("webhook_secret", "must be at least 32 characters")
	}
	if c.DedupeWindowMinutes < 0 {
		return NewInvalid("dedupe_window_minutes", "must not be negative")
	}
	if c.XPPerLevel < 1 {
		return NewInvalid("xp_per_level", "must be positive")
	}
	if c.MetadataMaxBytes < 1 {
		return NewInvalid("metadata_max_bytes", "must be positive")
	}
	if c.RetentionDays < 1 {
		return NewInvalid("retention_days", "must be positive")
	}
	if c.DailyStatsMaxDays < 1 {
		return NewInvalid("daily_stats_max_days", "must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
