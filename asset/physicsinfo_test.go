// Copyright © 2024 Galvanized Logic Inc.

package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPhysicsInfoAppliesDefaults(t *testing.T) {
	raw := []byte(`{"convex0": {"mesh_index": 2, "decompose": true}}`)

	info, err := LoadPhysicsInfo("crate", raw, nil)
	require.NoError(t, err)
	require.Contains(t, info, "convex0")

	entry := info["convex0"]
	assert.Equal(t, 2, entry.MeshIndex)
	assert.True(t, entry.Settings.Decompose)
	assert.Equal(t, uint32(400_000), entry.Settings.VoxelResolution)
	assert.Equal(t, 1.0, entry.Settings.VolumePercentError)
	assert.Equal(t, uint32(64), entry.Settings.MaxVertices)
}

func TestLoadPhysicsInfoClampsOutOfRangeAndWarns(t *testing.T) {
	raw := []byte(`{"hull_a": {"mesh_index": 0, "max_vertices": 999, "volume_percent_error": 150}}`)

	var warnings []string
	info, err := LoadPhysicsInfo("crate", raw, func(msg string) { warnings = append(warnings, msg) })
	require.NoError(t, err)

	entry := info["hull_a"]
	assert.Equal(t, uint32(255), entry.Settings.MaxVertices)
	assert.Equal(t, 1.0, entry.Settings.VolumePercentError)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "hull_a")
}

func TestLoadPhysicsInfoInvalidJSON(t *testing.T) {
	_, err := LoadPhysicsInfo("crate", []byte("not json"), nil)
	assert.Error(t, err)
}
