// Copyright © 2024 Galvanized Logic Inc.

package ecs

import (
	"testing"

	"github.com/lumenforge/lumen/math/lin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDestroyEntityFiresRemovedForEveryCarriedKind(t *testing.T) {
	reg := newTestRegistry()
	obs := Observe[Transform](reg)
	defer obs.Close()

	lock, err := reg.StartTransaction(AccessSet{Write: []Kind{KindTransform, KindName}, AddRemove: true}, nil)
	require.NoError(t, err)
	e, err := lock.NewEntity()
	require.NoError(t, err)
	require.NoError(t, Set(lock, e, Transform{Offset: *lin.NewT()}))
	require.NoError(t, BindName(lock, e, "scene", "a"))
	require.NoError(t, lock.DestroyEntity(e))
	lock.Release()

	assert.False(t, reg.Exists(e))
	events := obs.Drain()
	require.Len(t, events, 2) // Added then Removed for KindTransform
	assert.Equal(t, EventRemoved, events[1].Kind)
}

func TestFieldValueReadsRegisteredFieldReader(t *testing.T) {
	reg := newTestRegistry()
	lock, err := reg.StartTransaction(AccessSet{Write: []Kind{KindTransform}, AddRemove: true}, nil)
	require.NoError(t, err)
	e, err := lock.NewEntity()
	require.NoError(t, err)
	want := Transform{Offset: *lin.NewT(), Scale: lin.V3{X: 2, Y: 2, Z: 2}}
	want.Offset.Loc.X = 5
	require.NoError(t, Set(lock, e, want))
	lock.Release()

	v, ok := reg.FieldValue(e, "Transform", "x")
	require.True(t, ok)
	assert.Equal(t, 5.0, v)

	_, ok = reg.FieldValue(e, "Transform", "not_a_field")
	assert.False(t, ok)
}

func TestFieldValueUnknownComponentNameFails(t *testing.T) {
	reg := newTestRegistry()
	_, ok := reg.FieldValue(Entity{}, "NotAComponent", "x")
	assert.False(t, ok)
}

func TestFieldValueComponentWithoutFieldReaderFails(t *testing.T) {
	reg := newTestRegistry()
	lock, err := reg.StartTransaction(AccessSet{Write: []Kind{KindName}, AddRemove: true}, nil)
	require.NoError(t, err)
	e, err := lock.NewEntity()
	require.NoError(t, err)
	require.NoError(t, BindName(lock, e, "scene", "a"))
	lock.Release()

	_, ok := reg.FieldValue(e, "Name", "scene")
	assert.False(t, ok, "Name does not implement FieldReader")
}

func TestEachEntityVisitsOnlyAllocatedEntities(t *testing.T) {
	reg := newTestRegistry()
	lock, err := reg.StartTransaction(AccessSet{AddRemove: true}, nil)
	require.NoError(t, err)
	a, err := lock.NewEntity()
	require.NoError(t, err)
	b, err := lock.NewEntity()
	require.NoError(t, err)
	require.NoError(t, lock.DestroyEntity(a))
	lock.Release()

	var seen []Entity
	reg.EachEntity(func(e Entity) { seen = append(seen, e) })
	assert.Equal(t, []Entity{b}, seen)
}

func TestInstanceReportsConstructorArgument(t *testing.T) {
	refs := NewReferenceManager(0)
	assert.Equal(t, Live, NewRegistry(Live, refs).Instance())
	assert.Equal(t, Staging, NewRegistry(Staging, refs).Instance())
}
