// Copyright © 2024 Galvanized Logic Inc.

package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/ecs"
)

func TestLoadSceneCreatesEntitiesWithComponents(t *testing.T) {
	refs := ecs.NewReferenceManager(0)
	staging := ecs.NewRegistry(ecs.Staging, refs)

	lock, err := staging.StartTransaction(ecs.AccessSet{Read: ecs.AllKinds(), Write: ecs.AllKinds(), AddRemove: true}, nil)
	require.NoError(t, err)
	defer lock.Release()

	raw := []byte(`{
		"entities": [
			{
				"name": "box",
				"Transform": {"pos": [1, 2, 3], "scale": [2, 2, 2]},
				"SignalOutput": {"health": 100}
			}
		]
	}`)

	var warnings []string
	require.NoError(t, LoadScene(lock, refs, "level1", raw, func(msg string) { warnings = append(warnings, msg) }))
	assert.Empty(t, warnings)

	ref := refs.GetEntityByName(ecs.QualifiedName("level1", "box"))
	stageID, ok := ref.Staging()
	require.True(t, ok)
	e := ecs.Entity{ID: stageID, Instance: ecs.Staging}

	transform, ok, err := ecs.Get[ecs.Transform](lock, e)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2.0, transform.Scale.X)

	out, ok, err := ecs.Get[ecs.SignalOutput](lock, e)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 100.0, out.Values["health"])
}

func TestLoadSceneSkipsUnnamedEntityWithWarning(t *testing.T) {
	refs := ecs.NewReferenceManager(0)
	staging := ecs.NewRegistry(ecs.Staging, refs)
	lock, err := staging.StartTransaction(ecs.AccessSet{Read: ecs.AllKinds(), Write: ecs.AllKinds(), AddRemove: true}, nil)
	require.NoError(t, err)
	defer lock.Release()

	raw := []byte(`{"entities": [{"Transform": {"pos": [0,0,0]}}]}`)

	var warnings []string
	require.NoError(t, LoadScene(lock, refs, "level1", raw, func(msg string) { warnings = append(warnings, msg) }))
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "missing")
}

func TestLoadSceneWarnsOnUnrecognizedComponent(t *testing.T) {
	refs := ecs.NewReferenceManager(0)
	staging := ecs.NewRegistry(ecs.Staging, refs)
	lock, err := staging.StartTransaction(ecs.AccessSet{Read: ecs.AllKinds(), Write: ecs.AllKinds(), AddRemove: true}, nil)
	require.NoError(t, err)
	defer lock.Release()

	raw := []byte(`{"entities": [{"name": "thing", "NotARealComponent": {}}]}`)

	var warnings []string
	require.NoError(t, LoadScene(lock, refs, "level1", raw, func(msg string) { warnings = append(warnings, msg) }))
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "NotARealComponent")
}

func TestLoadSceneMissingEntitiesArray(t *testing.T) {
	refs := ecs.NewReferenceManager(0)
	staging := ecs.NewRegistry(ecs.Staging, refs)
	lock, err := staging.StartTransaction(ecs.AccessSet{Read: ecs.AllKinds(), Write: ecs.AllKinds(), AddRemove: true}, nil)
	require.NoError(t, err)
	defer lock.Release()

	err = LoadScene(lock, refs, "level1", []byte(`{}`), nil)
	assert.Error(t, err)
}
