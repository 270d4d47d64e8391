// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

// Package config provides layered configuration loading via Koanf v2.
//
// Precedence, highest wins:
//  1. Environment variables (POINTDECK_ prefix)
//  2. YAML config file (config.yaml, /etc/pointdeck/config.yaml, or CONFIG_PATH)
//  3. Built-in defaults
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	Room     RoomConfig     `koanf:"room"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds Durable Store (DuckDB) settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file path.
	Path string `koanf:"path"`

	// MaxMemory caps DuckDB memory usage (e.g. "512MB").
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// CacheConfig holds Fast Store (BadgerDB) settings.
type CacheConfig struct {
	// Dir is the Badger data directory. Ignored when InMemory is true.
	Dir string `koanf:"dir"`

	// InMemory runs Badger without disk persistence. The cache is a
	// reconstructible view, so losing it on restart is correct behavior;
	// the flag mostly matters for tests and containers without volumes.
	InMemory bool `koanf:"in_memory"`

	// TTL is the inactivity window after which room session entries expire.
	TTL time.Duration `koanf:"ttl"`
}

// RoomConfig holds room lifecycle settings.
type RoomConfig struct {
	// CountdownDuration is the reveal countdown clients display.
	CountdownDuration time.Duration `koanf:"countdown_duration"`

	// CountdownMargin is added to CountdownDuration before the deferred
	// reveal fires, so clients finish their animation first.
	CountdownMargin time.Duration `koanf:"countdown_margin"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// loaded first and then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8737,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,

			CORSOrigins:       []string{},
			RateLimitReqs:     300,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Database: DatabaseConfig{
			Path:      "/data/pointdeck.duckdb",
			MaxMemory: "512MB",
			Threads:   0,
		},
		Cache: CacheConfig{
			Dir:      "/data/cache",
			InMemory: false,
			TTL:      2 * time.Hour,
		},
		Room: RoomConfig{
			CountdownDuration: 3 * time.Second,
			CountdownMargin:   500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if !c.Cache.InMemory && c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir must not be empty unless cache.in_memory is set")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.Room.CountdownDuration <= 0 {
		return fmt.Errorf("room.countdown_duration must be positive, got %s", c.Room.CountdownDuration)
	}
	if c.Room.CountdownMargin < 0 {
		return fmt.Errorf("room.countdown_margin must not be negative, got %s", c.Room.CountdownMargin)
	}
	if c.Server.RateLimitReqs <= 0 && !c.Server.RateLimitDisabled {
		return fmt.Errorf("server.rate_limit_requests must be positive when rate limiting is enabled")
	}
	return nil
}
