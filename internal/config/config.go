// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"time"
)

// Default configuration values.
const (
	defaultAddr                = ":8000"
	defaultDedupeWindowMinutes = 5
	defaultXPPerLevel          = 1000
	defaultMetadataMaxBytes    = 5000
	defaultRetentionDays       = 90
	defaultDailyStatsMaxDays   = 90
	defaultDBMaxOpenConns      = 10
	defaultDBMaxIdleConns      = 2
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// DatabaseURL selects the event store. postgres DSNs ("postgres://..."
	// or key=value form) use the postgres driver; anything else is treated
	// as a sqlite path.
	DatabaseURL string `koanf:"database_url"`

	// WebhookSecret authenticates ingestion calls. Compared in constant
	// time; must be at least 32 characters when set.
	WebhookSecret string `koanf:"webhook_secret"`

	// DedupeWindowMinutes is the trailing window in which a repeated
	// (source, event_type) pair counts as a duplicate.
	DedupeWindowMinutes int `koanf:"dedupe_window_minutes"`

	// XPPerLevel is the XP required to advance one level.
	XPPerLevel int `koanf:"xp_per_level"`

	// MetadataMaxBytes bounds the serialized size of event metadata.
	MetadataMaxBytes int `koanf:"metadata_max_bytes"`

	// Timezone is the IANA zone used for day and week boundaries.
	Timezone string `koanf:"timezone"`

	// RetentionDays is the age threshold used by the cleanup command.
	RetentionDays int `koanf:"retention_days"`

	// DailyStatsMaxDays caps GET /api/v1/stats/daily?days.
	DailyStatsMaxDays int `koanf:"daily_stats_max_days"`

	// Database connection pool tuning.
	DBMaxOpenConns int `koanf:"db_max_open_conns"`
	DBMaxIdleConns int `koanf:"db_max_idle_conns"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                defaultAddr,
		DatabaseURL:         "rift.db",
		WebhookSecret:       "",
		DedupeWindowMinutes: defaultDedupeWindowMinutes,
		XPPerLevel:          defaultXPPerLevel,
		MetadataMaxBytes:    defaultMetadataMaxBytes,
		Timezone:            "UTC",
		RetentionDays:       defaultRetentionDays,
		DailyStatsMaxDays:   defaultDailyStatsMaxDays,
		DBMaxOpenConns:      defaultDBMaxOpenConns,
		DBMaxIdleConns:      defaultDBMaxIdleConns,
	}
}

// DedupeWindow returns the duplicate-suppression window as a duration.
func (c *Config) DedupeWindow() time.Duration {
	return time.Duration(c.DedupeWindowMinutes) * time.Minute
}

// Location resolves the configured time zone. An empty zone means UTC.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, WrapInvalid("timezone", err)
	}
	return loc, nil
}
