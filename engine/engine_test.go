// Copyright © 2024 Galvanized Logic Inc.

package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/asset"
	"github.com/lumenforge/lumen/config"
	"github.com/lumenforge/lumen/ecs"
	"github.com/lumenforge/lumen/math/lin"
	"github.com/lumenforge/lumen/signal"
	"github.com/lumenforge/lumen/telemetry"
)

// fakeModels is a minimal asset.ModelSource stub for tests that never
// reference a ConvexMesh shape, the same external-collaborator contract
// asset/gltf.go documents as out of scope for this module.
type fakeModels struct{}

func (fakeModels) ContentHash(string) (asset.Hash128, error) { return asset.Hash128{Hi: 1, Lo: 1}, nil }
func (fakeModels) MeshGeometry(string, int) ([]lin.V3, []uint32, error) {
	return nil, nil, nil
}
func (fakeModels) MeshCount(string) (int, error) { return 0, nil }

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.HullCacheDir = t.TempDir()
	log := telemetry.New(nil, zerolog.Disabled)

	e, err := New(cfg, fakeModels{}, log, nil)
	require.NoError(t, err)
	e.Locator.Dir("SCENE", t.TempDir()).Dir("PHYSICSINFO", t.TempDir())
	return e
}

func TestEngineLoadAndPromoteScene(t *testing.T) {
	e := newTestEngine(t)

	sceneDir := t.TempDir()
	e.Locator.Dir("SCENE", sceneDir)
	scenePath := filepath.Join(sceneDir, "level1.json")
	sceneJSON := `{
		"entities": [
			{
				"name": "box",
				"Transform": {"pos": [1, 2, 3], "scale": [2, 2, 2]},
				"SignalOutput": {"health": 100}
			}
		]
	}`
	require.NoError(t, os.WriteFile(scenePath, []byte(sceneJSON), 0o644))

	scene, err := e.LoadScene("level1.json")
	require.NoError(t, err)
	assert.Equal(t, "level1", scene)

	require.NoError(t, e.PromoteScene(scene))

	ref := e.Refs.GetEntityByName(ecs.QualifiedName(scene, "box"))
	liveID, ok := ref.Live()
	require.True(t, ok)

	lock, err := e.Live.StartTransaction(ecs.AccessSet{Read: []ecs.Kind{ecs.KindTransform}}, nil)
	require.NoError(t, err)
	defer lock.Release()

	transform, ok, err := ecs.Get[ecs.Transform](lock, ecs.Entity{ID: liveID, Instance: ecs.Live})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2.0, transform.Scale.X)

	sig := e.Refs.GetSignal(ecs.SignalKey{Entity: ref, Signal: "health"})
	ctx := &signal.Context{Graph: e.Signals, Refs: e.Refs, Registry: e.Live, Focus: e.Focus}
	assert.Equal(t, 100.0, e.Signals.GetSignal(ctx, sig, 0))
}

func TestEngineStartStop(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.Start())
	e.Stop()
}

func TestEnsurePhysicsInfoCaches(t *testing.T) {
	e := newTestEngine(t)
	physicsDir := t.TempDir()
	e.Locator.Dir("PHYSICSINFO", physicsDir)
	require.NoError(t, os.WriteFile(filepath.Join(physicsDir, "crate.physicsinfo.json"),
		[]byte(`{"convex0": {"mesh_index": 0}}`), 0o644))

	require.NoError(t, e.ensurePhysicsInfo("crate"))
	info, ok := e.Physics.PhysicsInfo["crate"]
	require.True(t, ok)
	_, ok = info["convex0"]
	assert.True(t, ok)

	// A second call with the PhysicsInfo directory now pointing elsewhere
	// must not error: the entry is already cached from the first call.
	e.Locator.Dir("PHYSICSINFO", t.TempDir())
	require.NoError(t, e.ensurePhysicsInfo("crate"))
}
