// Copyright © 2024 Galvanized Logic Inc.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/asset"
	"github.com/lumenforge/lumen/math/lin"
)

// fakeModels is a trivial in-memory asset.ModelSource: meshCount meshes,
// each the same tetrahedron, for every model name, the external-collaborator stub asset/gltf.go's
// ModelSource doc comment says callers needing one for tests may supply.
type fakeModels struct{ meshCount int }

func (fakeModels) ContentHash(string) (asset.Hash128, error) { return asset.Hash128{Hi: 7, Lo: 9}, nil }

func (fakeModels) MeshGeometry(string, int) ([]lin.V3, []uint32, error) {
	verts := []lin.V3{{X: -1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: -1}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1}}
	indices := []uint32{0, 1, 2, 0, 2, 3, 0, 3, 1, 1, 3, 2}
	return verts, indices, nil
}

func (f fakeModels) MeshCount(string) (int, error) { return f.meshCount, nil }

func chdirTemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestRunMissingArgs(t *testing.T) {
	assert.Equal(t, 1, run(nil))
	assert.Equal(t, 1, run([]string{""}))
	assert.Equal(t, 1, run([]string{"a", "b"}))
}

func TestRunNoModelSourceWired(t *testing.T) {
	chdirTemp(t)
	old := Models
	Models = nil
	defer func() { Models = old }()

	assert.Equal(t, 1, run([]string{"crate"}))
}

func TestRunBuildsHullsAndTouchesMarker(t *testing.T) {
	chdirTemp(t)
	old := Models
	Models = fakeModels{meshCount: 2}
	defer func() { Models = old }()

	require.NoError(t, os.MkdirAll("physics", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("physics", "crate.physicsinfo.json"),
		[]byte(`{"convex0": {"mesh_index": 0, "decompose": false}}`), 0o644))

	code := run([]string{"crate"})
	assert.Equal(t, 0, code)

	_, err := os.Stat(filepath.Join("cache", "collision", "crate"))
	assert.NoError(t, err)
}

func TestRunWithoutPhysicsInfoStillSweepsMeshes(t *testing.T) {
	chdirTemp(t)
	old := Models
	Models = fakeModels{meshCount: 1}
	defer func() { Models = old }()

	code := run([]string{"plain"})
	assert.Equal(t, 0, code)

	_, err := os.Stat(filepath.Join("cache", "collision", "plain"))
	assert.NoError(t, err)
}

func TestRunIsIdempotentOnSecondInvocation(t *testing.T) {
	chdirTemp(t)
	old := Models
	Models = fakeModels{meshCount: 1}
	defer func() { Models = old }()

	require.Equal(t, 0, run([]string{"plain"}))
	info, err := os.Stat(filepath.Join("cache", "collision", "plain"))
	require.NoError(t, err)
	firstModTime := info.ModTime()

	require.Equal(t, 0, run([]string{"plain"}))
	info, err = os.Stat(filepath.Join("cache", "collision", "plain"))
	require.NoError(t, err)
	assert.Equal(t, firstModTime, info.ModTime())
}
