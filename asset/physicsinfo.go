// Copyright © 2024 Galvanized Logic Inc.

package asset

import (
	"encoding/json"
	"fmt"

	"github.com/lumenforge/lumen/hull"
)

// physicsinfo.go parses PhysicsInfo files: a mapping from hull name to
// decomposition settings (spec §6 "PhysicsInfo files"), clamping
// out-of-range values per the documented bounds.

// PhysicsInfo is one model's full hull-settings table, keyed by hull name.
type PhysicsInfo map[string]HullSettings

// HullSettings mirrors a PhysicsInfo entry (spec §6), adding the mesh
// index the original per-model GLTF the hull is cut from.
type HullSettings struct {
	MeshIndex int          `json:"mesh_index"`
	Settings  hull.Settings `json:"-"`
}

type physicsInfoEntryJSON struct {
	MeshIndex          int     `json:"mesh_index"`
	Decompose          bool    `json:"decompose"`
	ShrinkWrap         bool    `json:"shrink_wrap"`
	VoxelResolution    *uint32 `json:"voxel_resolution"`
	VolumePercentError *float64 `json:"volume_percent_error"`
	MaxVertices        *uint32 `json:"max_vertices"`
}

// LoadPhysicsInfo parses a PhysicsInfo file's raw JSON, clamping any
// out-of-range field back within bounds (hull.Settings.Clamp) and reporting each
// clamp via warn (spec §6 "Out-of-range values are clamped with a
// warning").
func LoadPhysicsInfo(modelName string, raw []byte, warn func(string)) (PhysicsInfo, error) {
	var entries map[string]physicsInfoEntryJSON
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("asset: physicsinfo %q: %w", modelName, err)
	}

	info := make(PhysicsInfo, len(entries))
	for name, e := range entries {
		s := hull.DefaultSettings()
		s.Decompose = e.Decompose
		s.ShrinkWrap = e.ShrinkWrap
		if e.VoxelResolution != nil {
			s.VoxelResolution = *e.VoxelResolution
		}
		if e.VolumePercentError != nil {
			s.VolumePercentError = *e.VolumePercentError
		}
		if e.MaxVertices != nil {
			s.MaxVertices = *e.MaxVertices
		}
		clamped := s.Clamp()
		if clamped != s && warn != nil {
			warn(fmt.Sprintf("asset: physicsinfo %q: hull %q settings out of range, clamped", modelName, name))
		}
		info[name] = HullSettings{MeshIndex: e.MeshIndex, Settings: clamped}
	}
	return info, nil
}
