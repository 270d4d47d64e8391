// Pointdeck - Planning Poker Room State Server
// Copyright 2026 Pointdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pointdeck/pointdeck

package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration must validate: %v", err)
	}
	if cfg.Server.Addr() != "0.0.0.0:8737" {
		t.Errorf("unexpected default addr %s", cfg.Server.Addr())
	}
	if cfg.Cache.TTL != 2*time.Hour {
		t.Errorf("unexpected default cache TTL %s", cfg.Cache.TTL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad_port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "empty_db_path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name: "empty_cache_dir_on_disk",
			mutate: func(c *Config) {
				c.Cache.Dir = ""
				c.Cache.InMemory = false
			},
			wantErr: "cache.dir",
		},
		{
			name: "in_memory_allows_empty_dir",
			mutate: func(c *Config) {
				c.Cache.Dir = ""
				c.Cache.InMemory = true
			},
		},
		{
			name:    "zero_ttl",
			mutate:  func(c *Config) { c.Cache.TTL = 0 },
			wantErr: "cache.ttl",
		},
		{
			name:    "zero_countdown",
			mutate:  func(c *Config) { c.Room.CountdownDuration = 0 },
			wantErr: "room.countdown_duration",
		},
		{
			name:    "negative_margin",
			mutate:  func(c *Config) { c.Room.CountdownMargin = -time.Second },
			wantErr: "room.countdown_margin",
		},
		{
			name: "rate_limit_disabled_allows_zero",
			mutate: func(c *Config) {
				c.Server.RateLimitReqs = 0
				c.Server.RateLimitDisabled = true
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"POINTDECK_SERVER_PORT", "server.port"},
		{"POINTDECK_SERVER_READ_TIMEOUT", "server.read_timeout"},
		{"POINTDECK_CACHE_TTL", "cache.ttl"},
		{"POINTDECK_ROOM_COUNTDOWN_DURATION", "room.countdown_duration"},
		{"POINTDECK_LOGGING_LEVEL", "logging.level"},
	}
	for _, tt := range tests {
		if got := envTransform(tt.in); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
