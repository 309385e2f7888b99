// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
)

// # Configuration Schema

// Config holds all runtime configuration for the studio API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// Pool sizing; zero keeps the package defaults.
	DatabaseMaxConns int32 `env:"DATABASE_MAX_CONNS" envDefault:"20"`
	DatabaseMinConns int32 `env:"DATABASE_MIN_CONNS" envDefault:"2"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache and change feed (Redis)
	RedisURL      string `env:"REDIS_URL,required,notEmpty"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	// Per-IP request budget
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS"   envDefault:"100"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"150"`

	// Cryptographic keys for access token signing
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// Cross-Origin allow-list, also used to gate /client-config
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`

	// Values handed to the front end by /client-config
	PublicAPIURL string `env:"PUBLIC_API_URL" envDefault:"http://localhost:8080/api/v1"`
	RealtimeURL  string `env:"REALTIME_URL"   envDefault:"http://localhost:8080/api/v1/events"`

	// BootstrapTimeout is the shared budget of the /auth/me fallback chain.
	BootstrapTimeout time.Duration `env:"BOOTSTRAP_TIMEOUT" envDefault:"8s"`

	// EmergencyAccountsEnabled turns on the embedded static account tier.
	// It bypasses the database and must stay off outside incidents.
	EmergencyAccountsEnabled bool `env:"EMERGENCY_ACCOUNTS_ENABLED" envDefault:"false"`

	// ShareLinkTTL bounds the lifetime of shareable assignment links.
	ShareLinkTTL time.Duration `env:"SHARE_LINK_TTL" envDefault:"168h"`

	// RepairSchedule is the cron spec for the chapter/assignment repair pass.
	RepairSchedule string `env:"REPAIR_SCHEDULE" envDefault:"@every 1h"`

	// Optional rotating log file, written alongside stdout
	LogFile       string `env:"LOG_FILE"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB"  envDefault:"100"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS"  envDefault:"5"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"14"`

	// OpenTelemetry span export (OTLP/HTTP); empty endpoint disables it
	TracingEndpoint    string  `env:"OTEL_EXPORTER_ENDPOINT"`
	TracingInsecure    bool    `env:"OTEL_EXPORTER_INSECURE" envDefault:"false"`
	TracingSampleRatio float64 `env:"OTEL_SAMPLE_RATIO"      envDefault:"0.1"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {
	cfg := &Config{}

	// Fails if any field marked 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	cfg.AllowedOrigins = normalizeOrigins(cfg.AllowedOrigins)
	return cfg, nil
}

// validate checks the relations env tags cannot express.
func (c *Config) validate() error {
	if c.BootstrapTimeout <= 0 {
		return fmt.Errorf("BOOTSTRAP_TIMEOUT must be positive")
	}
	if c.DatabaseMaxConns <= 0 || c.DatabaseMinConns < 0 || c.DatabaseMinConns > c.DatabaseMaxConns {
		return fmt.Errorf("DATABASE_MIN_CONNS must be within [0, DATABASE_MAX_CONNS] and DATABASE_MAX_CONNS positive")
	}
	if c.TracingSampleRatio < 0 || c.TracingSampleRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATIO must be within [0, 1]")
	}
	if _, err := cron.ParseStandard(c.RepairSchedule); err != nil {
		return fmt.Errorf("REPAIR_SCHEDULE: %w", err)
	}
	return nil
}

// normalizeOrigins trims entries and their trailing slash, dropping blanks.
func normalizeOrigins(origins []string) []string {
	normalized := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSuffix(strings.TrimSpace(origin), "/")
		if origin != "" {
			normalized = append(normalized, origin)
		}
	}
	return normalized
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// OriginAllowed reports whether origin is on the allow-list.
// Development mode accepts any localhost origin as well.
func (c *Config) OriginAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range c.AllowedOrigins {
		if strings.EqualFold(strings.TrimSuffix(strings.TrimSpace(allowed), "/"), origin) {
			return true
		}
	}
	if c.IsDevelopment() {
		return strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")
	}
	return false
}
