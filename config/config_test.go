// Copyright © 2024 Galvanized Logic Inc.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValues(t *testing.T) {
	c := Default()
	assert.Equal(t, 120.0, c.PhysicsHz)
	assert.Equal(t, 60.0, c.RenderHz)
	assert.Equal(t, "cache/collision", c.HullCacheDir)
	assert.Equal(t, time.Hour, c.HullCacheTTL)
	assert.Equal(t, 5*time.Minute, c.RefGraceTTL)
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.MetricsEnabled)
}

func TestNewAppliesOptionsOverDefault(t *testing.T) {
	c := New(WithPhysicsHz(240), WithHullCacheDir("/tmp/hulls"), WithMetricsEnabled(true))
	assert.Equal(t, 240.0, c.PhysicsHz)
	assert.Equal(t, "/tmp/hulls", c.HullCacheDir)
	assert.True(t, c.MetricsEnabled)
	// Untouched fields keep Default()'s values.
	assert.Equal(t, 60.0, c.RenderHz)
}

func TestPhysicsAndRenderInterval(t *testing.T) {
	c := New(WithPhysicsHz(100), WithRenderHz(0))
	assert.Equal(t, 10*time.Millisecond, c.PhysicsInterval())
	assert.Equal(t, time.Duration(0), c.RenderInterval())
}

func TestLoadOverlaysYAMLOntoDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("physics_hz: 90\nlog_level: debug\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 90.0, c.PhysicsHz)
	assert.Equal(t, "debug", c.LogLevel)
	// Fields absent from the file keep Default()'s values.
	assert.Equal(t, 60.0, c.RenderHz)
	assert.Equal(t, time.Hour, c.HullCacheTTL)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
