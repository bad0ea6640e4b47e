// Copyright (c) 2026 Helixio. All rights reserved.
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

Both binaries (the admin API and seriesctl) load the same struct; fields only
the API needs are validated by [Config.ValidateAPI].
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Helixio series services.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis), holds the latest duplicate report. Optional for seriesctl.
	RedisURL string `env:"REDIS_URL"`

	// DuplicateReportTTL bounds how long a finished duplicate report is served.
	DuplicateReportTTL time.Duration `env:"DUPLICATE_REPORT_TTL" envDefault:"24h"`

	// Public key used to verify admin bearer tokens (RS256)
	JWTPubKeyPath string `env:"JWT_PUBLIC_KEY_PATH"`

	// Cross-Origin Resource Sharing, comma-separated origins allowed besides
	// the application domain
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// ValidateAPI checks the settings only the HTTP server needs.
func (c *Config) ValidateAPI() error {
	if c.JWTPubKeyPath == "" {
		return fmt.Errorf("config: JWT_PUBLIC_KEY_PATH is required to serve the admin API")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("config: REDIS_URL is required to serve the admin API")
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowsOrigin reports whether a browser origin may call the API outside
// development. Origins under appDomain are always allowed.
func (c *Config) AllowsOrigin(origin, appDomain string) bool {
	if strings.HasSuffix(origin, appDomain) {
		return true
	}
	for _, extra := range strings.Split(c.ExtraOrigins, ",") {
		if extra = strings.TrimSpace(extra); extra != "" && extra == origin {
			return true
		}
	}
	return false
}
