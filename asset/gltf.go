// Copyright © 2024 Galvanized Logic Inc.

package asset

import "github.com/lumenforge/lumen/math/lin"

// gltf.go defines the GLTF external-collaborator contract only. Binary
// GLTF/GLB container parsing is an explicit Non-goal (spec §1); the
// engine only needs a model's convex-hull source geometry and a stable
// content hash, both exposed through this interface so sim/actors.go and
// the hull package never depend on a concrete parser.

// Hash128 mirrors hull.Hash128's shape; kept as a separate type here so
// this package does not need to import hull just for the interface
// contract's return type.
type Hash128 struct {
	Hi, Lo uint64
}

// ModelSource is the contract a GLTF/GLB loader must satisfy for this
// engine's physics reconciliation to consume one of its meshes. A real
// implementation (out of scope per spec §1) parses the binary container;
// callers needing one for tests can supply a trivial in-memory stub.
type ModelSource interface {
	// ContentHash returns the 128-bit hash of the model's on-disk bytes,
	// used as the hull cache key's model half (spec §4.5.2, §6).
	ContentHash(modelName string) (Hash128, error)

	// MeshGeometry returns the raw vertex and triangle-index buffers for
	// the given mesh index within modelName, the input hull.Build needs.
	MeshGeometry(modelName string, meshIndex int) (vertices []lin.V3, indices []uint32, err error)

	// MeshCount returns the number of meshes modelName's GLTF/GLB
	// container declares, the bound cmd/hullc's convex<i> sweep (spec
	// line 266) iterates over.
	MeshCount(modelName string) (int, error)
}
