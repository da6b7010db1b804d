// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

// Package config loads engine configuration from a YAML file and command
// line flags, layered over built-in defaults.
package config

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/ghostloop/ghostloop/internal/arena"
	"github.com/ghostloop/ghostloop/internal/offline"
)

// Config is the full engine configuration.
type Config struct {
	Engine  EngineConfig  `koanf:"engine"`
	Vault   VaultConfig   `koanf:"vault"`
	Metrics MetricsConfig `koanf:"metrics"`
	Content ContentConfig `koanf:"content"`
	Offline OfflineConfig `koanf:"offline"`
	Log     LogConfig     `koanf:"log"`
}

// EngineConfig controls the simulation loop.
type EngineConfig struct {
	TickRate         int `koanf:"tick_rate"`
	CycleSeconds     int `koanf:"cycle_seconds"`
	CountdownSeconds int `koanf:"countdown_seconds"`
	ArenaCount       int `koanf:"arena_count"`
	GridWidth        int `koanf:"grid_width"`
	GridHeight       int `koanf:"grid_height"`
	RosterCap        int `koanf:"roster_cap"`
	CommandBuffer    int `koanf:"command_buffer"`
}

// VaultConfig controls timeline persistence.
type VaultConfig struct {
	// DSN is the PostgreSQL connection string. Empty selects the in-memory
	// vault, which loses recordings on exit.
	DSN string `koanf:"dsn"`
	// ConnectWaitSeconds bounds the startup retry loop.
	ConnectWaitSeconds int `koanf:"connect_wait_seconds"`
}

// MetricsConfig controls the observability HTTP server.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// ContentConfig points at the game content catalog.
type ContentConfig struct {
	CatalogPath string `koanf:"catalog_path"`
}

// OfflineConfig controls offline-cycle estimation.
type OfflineConfig struct {
	// RewardScript is an optional Lua script computing per-cycle rewards.
	// Empty uses the built-in linear curve.
	RewardScript string `koanf:"reward_script"`
	FeedCapacity int    `koanf:"feed_capacity"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // "text" or "json"
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			TickRate:         arena.DefaultTickRate,
			CycleSeconds:     arena.DefaultCycleSeconds,
			CountdownSeconds: 3,
			ArenaCount:       9,
			GridWidth:        32,
			GridHeight:       32,
			RosterCap:        arena.MaxRosterSize,
			CommandBuffer:    64,
		},
		Vault: VaultConfig{
			ConnectWaitSeconds: 30,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9214",
		},
		Content: ContentConfig{
			CatalogPath: "content/catalog.yaml",
		},
		Offline: OfflineConfig{
			FeedCapacity: offline.DefaultFeedCapacity,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a Config from defaults, an optional YAML file, and flags, in
// that order of precedence (flags win).
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration describes a runnable engine.
func (c Config) Validate() error {
	e := c.Engine
	switch {
	case e.TickRate < 1 || e.TickRate > 255:
		return invalid("engine.tick_rate", "must be between 1 and 255")
	case e.CycleSeconds < 1:
		return invalid("engine.cycle_seconds", "must be positive")
	case e.CountdownSeconds < 0:
		return invalid("engine.countdown_seconds", "must not be negative")
	case e.CountdownSeconds >= e.CycleSeconds:
		return invalid("engine.countdown_seconds", "must be shorter than the cycle")
	case e.ArenaCount < 1 || e.ArenaCount > 255:
		return invalid("engine.arena_count", "must be between 1 and 255")
	case e.GridWidth < 1 || e.GridHeight < 1:
		return invalid("engine.grid_width", "grid bounds must be positive")
	case e.RosterCap < 1 || e.RosterCap > arena.MaxRosterSize:
		return invalid("engine.roster_cap", "must be between 1 and 40")
	case e.CommandBuffer < 1:
		return invalid("engine.command_buffer", "must be positive")
	}
	if c.Offline.FeedCapacity < 1 {
		return invalid("offline.feed_capacity", "must be positive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return invalid("log.format", "must be \"text\" or \"json\"")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level", "must be one of debug, info, warn, error")
	}
	return nil
}

func invalid(key, reason string) error {
	return oops.Code("CONFIG_INVALID").
		With("key", key).
		Errorf("invalid config %s: %s", key, reason)
}
