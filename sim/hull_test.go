// Copyright © 2024 Galvanized Logic Inc.

package sim

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/asset"
	"github.com/lumenforge/lumen/ecs"
	"github.com/lumenforge/lumen/hull"
	"github.com/lumenforge/lumen/math/lin"
	"github.com/lumenforge/lumen/script"
	"github.com/lumenforge/lumen/signal"
)

// cubeModels is a fakeModels stub whose single mesh is a small tetrahedron,
// enough geometry for hull.Build to produce a real ConvexHullSet.
type cubeModels struct{}

func (cubeModels) ContentHash(string) (asset.Hash128, error) { return asset.Hash128{Hi: 3, Lo: 5}, nil }

func (cubeModels) MeshGeometry(string, int) ([]lin.V3, []uint32, error) {
	verts := []lin.V3{{X: -1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: -1}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1}}
	indices := []uint32{0, 1, 2, 0, 2, 3, 0, 3, 1, 1, 3, 2}
	return verts, indices, nil
}

func (cubeModels) MeshCount(string) (int, error) { return 1, nil }

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	refs := ecs.NewReferenceManager(0)
	live := ecs.NewRegistry(ecs.Live, refs)
	signals := signal.NewGraph()
	hullCache := hull.NewCache(t.TempDir(), time.Hour)
	loader := asset.NewLoader(2)
	physicsInfo := map[string]asset.PhysicsInfo{
		"crate": {"convex0": asset.HullSettings{MeshIndex: 0, Settings: hull.DefaultSettings()}},
	}

	return NewRuntime(live, refs, signals, nil, hullCache, loader, cubeModels{}, physicsInfo,
		script.NewRegistry(), zerolog.Nop(), nil, 8*time.Millisecond)
}

func TestPollHullResolvesAfterPoll(t *testing.T) {
	r := newTestRuntime(t)
	shape := ecs.PhysicsShape{Variant: ecs.ShapeConvexMesh, Model: "crate", HullSettingsName: "convex0"}

	_, ok := r.pollHull(ecs.Entity{}, shape)
	assert.False(t, ok, "first poll submits the build and should not be ready yet")

	require.Eventually(t, func() bool {
		_, ok := r.pollHull(ecs.Entity{}, shape)
		return ok
	}, time.Second, time.Millisecond)

	set, ok := r.pollHull(ecs.Entity{}, shape)
	require.True(t, ok)
	require.NotEmpty(t, set.Hulls)
}

func TestPollHullUnknownSettingsNameWarnsAndFails(t *testing.T) {
	r := newTestRuntime(t)
	warned := false
	r.Log = zerolog.New(nil).Hook(zerolog.HookFunc(func(_ *zerolog.Event, level zerolog.Level, msg string) {
		warned = warned || (level == zerolog.WarnLevel && msg == "physics: hull settings not found")
	}))
	shape := ecs.PhysicsShape{Variant: ecs.ShapeConvexMesh, Model: "crate", HullSettingsName: "nonexistent"}

	_, ok := r.pollHull(ecs.Entity{}, shape)
	assert.False(t, ok)
	assert.True(t, warned)
}

func TestBuildConvexBodyWaitsForHull(t *testing.T) {
	r := newTestRuntime(t)
	shape := ecs.PhysicsShape{Variant: ecs.ShapeConvexMesh, Model: "crate", HullSettingsName: "convex0"}

	_, ok := r.buildConvexBody(ecs.Entity{}, shape, true)
	assert.False(t, ok)

	require.Eventually(t, func() bool {
		_, ok := r.buildConvexBody(ecs.Entity{}, shape, true)
		return ok
	}, time.Second, time.Millisecond)
}
