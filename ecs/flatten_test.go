// Copyright © 2024 Galvanized Logic Inc.

package ecs

import (
	"testing"

	"github.com/lumenforge/lumen/math/lin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stageEntity(t *testing.T, staging *Registry, scene, local string, transform Transform) Entity {
	t.Helper()
	lock, err := staging.StartTransaction(AccessSet{Write: []Kind{KindTransform}, AddRemove: true}, nil)
	require.NoError(t, err)
	defer lock.Release()

	e, err := lock.NewEntity()
	require.NoError(t, err)
	require.NoError(t, BindName(lock, e, scene, local))
	require.NoError(t, Set(lock, e, transform))
	return e
}

func TestFlattenCreatesLiveEntity(t *testing.T) {
	refs := NewReferenceManager(0)
	staging := NewRegistry(Staging, refs)
	live := NewRegistry(Live, refs)

	stageEntity(t, staging, "level1", "box", Transform{Offset: *lin.NewT(), Scale: lin.V3{X: 2, Y: 2, Z: 2}})

	stageLock, err := staging.StartTransaction(AccessSet{Read: AllKinds()}, nil)
	require.NoError(t, err)
	defer stageLock.Release()

	liveLock, err := live.StartTransaction(AccessSet{Read: AllKinds(), Write: AllKinds(), AddRemove: true}, nil)
	require.NoError(t, err)
	defer liveLock.Release()

	n, err := Flatten(stageLock, liveLock, "level1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ref := refs.GetEntityByName(QualifiedName("level1", "box"))
	liveID, ok := ref.Live()
	require.True(t, ok)

	le := Entity{ID: liveID, Instance: Live}
	assert.True(t, live.Exists(le))
	got, ok, err := Get[Transform](liveLock, le)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2.0, got.Scale.X)
}

func TestFlattenOverwritesOnHigherPriorityCall(t *testing.T) {
	refs := NewReferenceManager(0)
	staging := NewRegistry(Staging, refs)
	live := NewRegistry(Live, refs)

	stageEntity(t, staging, "base", "light", Transform{Offset: *lin.NewT(), Scale: lin.V3{X: 1, Y: 1, Z: 1}})

	flatten := func(scene string) int {
		stageLock, err := staging.StartTransaction(AccessSet{Read: AllKinds()}, nil)
		require.NoError(t, err)
		defer stageLock.Release()
		liveLock, err := live.StartTransaction(AccessSet{Read: AllKinds(), Write: AllKinds(), AddRemove: true}, nil)
		require.NoError(t, err)
		defer liveLock.Release()
		n, err := Flatten(stageLock, liveLock, scene)
		require.NoError(t, err)
		return n
	}
	assert.Equal(t, 1, flatten("base"))

	// A higher-priority staging scene overrides "base" with the same
	// qualified name: a second Flatten call for "base" (after the
	// component was mutated) must update the same live entity in place,
	// not create a second one.
	lock, err := staging.StartTransaction(AccessSet{Write: []Kind{KindTransform}}, nil)
	require.NoError(t, err)
	e := Entity{}
	staging.EachEntity(func(se Entity) { e = se })
	require.NoError(t, Set(lock, e, Transform{Offset: *lin.NewT(), Scale: lin.V3{X: 5, Y: 5, Z: 5}}))
	lock.Release()

	assert.Equal(t, 1, flatten("base"))

	ref := refs.GetEntityByName(QualifiedName("base", "light"))
	liveID, ok := ref.Live()
	require.True(t, ok)

	liveLock, err := live.StartTransaction(AccessSet{Read: AllKinds()}, nil)
	require.NoError(t, err)
	defer liveLock.Release()
	got, ok, err := Get[Transform](liveLock, Entity{ID: liveID, Instance: Live})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5.0, got.Scale.X)
}

func TestFlattenRequiresStagingAndLiveInstances(t *testing.T) {
	refs := NewReferenceManager(0)
	staging := NewRegistry(Staging, refs)
	live := NewRegistry(Live, refs)

	stageLock, err := staging.StartTransaction(AccessSet{Read: AllKinds()}, nil)
	require.NoError(t, err)
	defer stageLock.Release()

	wrongLock, err := staging.StartTransaction(AccessSet{Read: AllKinds(), Write: AllKinds(), AddRemove: true}, nil)
	require.NoError(t, err)
	defer wrongLock.Release()

	assert.Panics(t, func() { Flatten(stageLock, wrongLock, "level1") })

	liveLock, err := live.StartTransaction(AccessSet{Read: AllKinds()}, nil)
	require.NoError(t, err)
	defer liveLock.Release()
	_, err = Flatten(stageLock, liveLock, "level1")
	assert.ErrorIs(t, err, ErrAccessDenied)
}
