// Copyright © 2024 Galvanized Logic Inc.

package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/ecs"
	"github.com/lumenforge/lumen/math/lin"
)

// TestFrame1ReconcilesStaticAndDynamicActors drives one full physics
// frame (spec §4.5 Phases 2-4) over a small scene: a scene root carrying
// SceneProperties, a static box actor, and a dynamic sphere actor parented
// under the root. Per-file unit tests cover each sub-step's edge cases
// (hull resolution, preload admission); this exercises several of
// actors.go/snapshot.go's sub-steps together against a real frame1() call,
// the way PhysxManager.cc's reconciliation pass is exercised as a whole.
func TestFrame1ReconcilesStaticAndDynamicActors(t *testing.T) {
	r := newTestRuntime(t)

	lock, err := r.Live.StartTransaction(ecs.AccessSet{
		Write:     []ecs.Kind{ecs.KindTransformTree, ecs.KindPhysics, ecs.KindSceneProperties},
		AddRemove: true,
	}, nil)
	require.NoError(t, err)

	root, err := lock.NewEntity()
	require.NoError(t, err)
	require.NoError(t, ecs.Set(lock, root, ecs.SceneProperties{Gravity: lin.V3{X: 0, Y: -10, Z: 0}}))
	require.NoError(t, ecs.Set(lock, root, ecs.TransformTree{Pose: ecs.IdentityTransform()}))

	rootRef := r.Refs.GetEntityByName("scene.root")
	r.Refs.SetEntity("scene.root", root)

	staticBox, err := lock.NewEntity()
	require.NoError(t, err)
	boxPose := ecs.IdentityTransform()
	boxPose.Offset.Loc.X = 2
	require.NoError(t, ecs.Set(lock, staticBox, ecs.TransformTree{
		Parent: rootRef, HasParent: true, Pose: boxPose,
	}))
	require.NoError(t, ecs.Set(lock, staticBox, ecs.Physics{
		Type:  ecs.Static,
		Shapes: []ecs.PhysicsShape{{Variant: ecs.ShapeBox, Extents: lin.V3{X: 1, Y: 1, Z: 1}}},
	}))

	dynSphere, err := lock.NewEntity()
	require.NoError(t, err)
	require.NoError(t, ecs.Set(lock, dynSphere, ecs.TransformTree{
		Parent: rootRef, HasParent: true, Pose: ecs.IdentityTransform(),
	}))
	require.NoError(t, ecs.Set(lock, dynSphere, ecs.Physics{
		Type: ecs.Dynamic, Mass: 1,
		Shapes: []ecs.PhysicsShape{{Variant: ecs.ShapeSphere, Radius: 0.5}},
	}))

	lock.Release()

	r.frame1()

	_, staticActorExists := r.actors[staticBox.ID]
	assert.True(t, staticActorExists, "a static Physics entity should be reconciled into an actor")
	_, dynActorExists := r.actors[dynSphere.ID]
	assert.True(t, dynActorExists, "a dynamic Physics entity should be reconciled into an actor")

	verify, err := r.Live.StartTransaction(ecs.AccessSet{Read: []ecs.Kind{ecs.KindTransformSnapshot}}, nil)
	require.NoError(t, err)
	defer verify.Release()

	snap, ok, err := ecs.Get[ecs.TransformSnapshot](verify, staticBox)
	require.NoError(t, err)
	require.True(t, ok, "refreshNonDynamicSnapshots should have produced a snapshot for the child pose")
	assert.Equal(t, 2.0, snap.World.Offset.Loc.X)
}

// TestFrame1IsSafeOnAnEmptyRegistry exercises frame1's full Phase
// 2/3/4 sequence with no entities at all, the same empty-registry
// smoke path sim/loop_test.go's thread-lifecycle test relies on.
func TestFrame1IsSafeOnAnEmptyRegistry(t *testing.T) {
	r := newTestRuntime(t)
	assert.NotPanics(t, func() { r.frame1() })
}
