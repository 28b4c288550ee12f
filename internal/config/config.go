// Package config provides configuration loading for repotrackr.
//
// Configuration is loaded from an optional YAML file and overridden by
// environment variables. Defaults are applied for anything left unset.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/repotrackr/internal/logging"
)

// Config holds the complete repotrackr configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Fetch     FetchConfig     `koanf:"fetch"`
	Pipeline  PipelineConfig  `koanf:"pipeline"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Logging   logging.Config  `koanf:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds SQLite persistence configuration.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// FetchConfig holds repository fetch configuration.
type FetchConfig struct {
	// ScratchDir is the root of per-run clone directories.
	ScratchDir string `koanf:"scratch_dir"`

	// Timeout bounds a single shallow clone.
	Timeout time.Duration `koanf:"timeout"`

	// RatePerMinute throttles clone starts across all runs.
	RatePerMinute int `koanf:"rate_per_minute"`
}

// PipelineConfig holds processing pipeline configuration.
type PipelineConfig struct {
	// RunTimeout is the hard wall-clock ceiling for one pipeline run.
	RunTimeout time.Duration `koanf:"run_timeout"`

	// StaleDays marks a project red when its plan has not moved for
	// this many days, regardless of completion.
	StaleDays int `koanf:"stale_days"`

	// MaxRetries bounds explicit job retries.
	MaxRetries int `koanf:"max_retries"`

	// SnapshotKeep is the number of progress snapshots retained per
	// project; older snapshots are pruned after each successful run.
	SnapshotKeep int `koanf:"snapshot_keep"`
}

// SchedulerConfig holds the periodic refresh sweep configuration.
type SchedulerConfig struct {
	Enabled bool `koanf:"enabled"`

	// Spec is a cron expression (robfig/cron syntax, @every allowed).
	Spec string `koanf:"spec"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Fetch.Timeout <= 0 {
		return errors.New("fetch timeout must be positive")
	}
	if c.Pipeline.RunTimeout < c.Fetch.Timeout {
		return errors.New("pipeline run timeout must not be shorter than fetch timeout")
	}
	if c.Pipeline.StaleDays < 1 {
		return errors.New("stale days must be at least 1")
	}
	if c.Pipeline.MaxRetries < 0 {
		return errors.New("max retries cannot be negative")
	}
	if c.Scheduler.Enabled && c.Scheduler.Spec == "" {
		return errors.New("scheduler spec required when scheduler is enabled")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "repotrackr.db"
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 30 * time.Second
	}
	if cfg.Fetch.RatePerMinute == 0 {
		cfg.Fetch.RatePerMinute = 30
	}
	if cfg.Pipeline.RunTimeout == 0 {
		cfg.Pipeline.RunTimeout = 5 * time.Minute
	}
	if cfg.Pipeline.StaleDays == 0 {
		cfg.Pipeline.StaleDays = 30
	}
	if cfg.Pipeline.MaxRetries == 0 {
		cfg.Pipeline.MaxRetries = 3
	}
	if cfg.Pipeline.SnapshotKeep == 0 {
		cfg.Pipeline.SnapshotKeep = 100
	}
	if cfg.Scheduler.Spec == "" {
		cfg.Scheduler.Spec = "@every 1h"
	}
}
