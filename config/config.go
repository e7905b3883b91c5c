// Copyright © 2024 Galvanized Logic Inc.

// Package config is the engine's bootstrap configuration: physics tick
// rate, cache directories, thread intervals, log level. Generalizes the
// teacher's functional-options config.go and adds gopkg.in/yaml.v3 file
// loading for deployment-time settings (SPEC_FULL.md §A "Configuration").
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the fully-resolved set of engine bootstrap parameters. Zero
// value is not valid; use Default() then apply Options or Load a file.
type Config struct {
	PhysicsHz       float64       `yaml:"physics_hz"`
	RenderHz        float64       `yaml:"render_hz"`
	HullCacheDir    string        `yaml:"hull_cache_dir"`
	HullCacheTTL    time.Duration `yaml:"hull_cache_ttl"`
	RefGraceTTL     time.Duration `yaml:"ref_grace_ttl"`
	LogLevel        string        `yaml:"log_level"`
	MetricsEnabled  bool          `yaml:"metrics_enabled"`
	DebugLaserLines bool          `yaml:"debug_laser_lines"`
}

// Option mutates a Config during construction, following the teacher's
// functional-options convention (gazed-vu/config.go).
type Option func(*Config)

// Default returns the documented baseline configuration: 120 Hz physics
// (spec §2 "fixed nominal interval (120 Hz)"), 60 Hz render, a one-hour
// hull-cache TTL, and a five-minute reference-manager grace period.
func Default() Config {
	return Config{
		PhysicsHz:      120,
		RenderHz:       60,
		HullCacheDir:   "cache/collision",
		HullCacheTTL:   time.Hour,
		RefGraceTTL:    5 * time.Minute,
		LogLevel:       "info",
		MetricsEnabled: false,
	}
}

// New builds a Config starting from Default() and applying opts in order.
func New(opts ...Option) Config {
	c := Default()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func WithPhysicsHz(hz float64) Option        { return func(c *Config) { c.PhysicsHz = hz } }
func WithRenderHz(hz float64) Option         { return func(c *Config) { c.RenderHz = hz } }
func WithHullCacheDir(dir string) Option     { return func(c *Config) { c.HullCacheDir = dir } }
func WithHullCacheTTL(ttl time.Duration) Option {
	return func(c *Config) { c.HullCacheTTL = ttl }
}
func WithLogLevel(level string) Option       { return func(c *Config) { c.LogLevel = level } }
func WithMetricsEnabled(enabled bool) Option { return func(c *Config) { c.MetricsEnabled = enabled } }
func WithDebugLaserLines(enabled bool) Option {
	return func(c *Config) { c.DebugLaserLines = enabled }
}

// PhysicsInterval converts PhysicsHz to the fixed frame interval the
// registered thread runtime paces against (spec §4.4).
func (c Config) PhysicsInterval() time.Duration {
	if c.PhysicsHz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.PhysicsHz)
}

// RenderInterval converts RenderHz the same way.
func (c Config) RenderInterval() time.Duration {
	if c.RenderHz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / c.RenderHz)
}

// Load reads a YAML deployment config from path, starting from Default()
// so an omitted field keeps its documented default rather than zeroing
// out (spec §6 "Environment / process-wide state").
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return c, nil
}
