// Copyright © 2024 Galvanized Logic Inc.

package ecs

import (
	"testing"

	"github.com/lumenforge/lumen/math/lin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveReceivesAddedAndRemovedEvents(t *testing.T) {
	reg := newTestRegistry()
	obs := Observe[Transform](reg)
	defer obs.Close()

	lock, err := reg.StartTransaction(AccessSet{Write: []Kind{KindTransform}, AddRemove: true}, nil)
	require.NoError(t, err)
	e, err := lock.NewEntity()
	require.NoError(t, err)
	require.NoError(t, Set(lock, e, Transform{Offset: *lin.NewT()}))
	require.NoError(t, Unset[Transform](lock, e))
	lock.Release()

	events := obs.Drain()
	require.Len(t, events, 2)
	assert.Equal(t, EventAdded, events[0].Kind)
	assert.Equal(t, EventRemoved, events[1].Kind)
	assert.Equal(t, e, events[0].Entity)
}

func TestObserveOnlyDeliversItsOwnKind(t *testing.T) {
	reg := newTestRegistry()
	transformObs := Observe[Transform](reg)
	defer transformObs.Close()
	nameObs := Observe[Name](reg)
	defer nameObs.Close()

	lock, err := reg.StartTransaction(AccessSet{Write: []Kind{KindTransform, KindName}, AddRemove: true}, nil)
	require.NoError(t, err)
	defer lock.Release()
	e, err := lock.NewEntity()
	require.NoError(t, err)
	require.NoError(t, Set(lock, e, Transform{Offset: *lin.NewT()}))

	assert.Len(t, transformObs.Drain(), 1)
	assert.Empty(t, nameObs.Drain())
}

func TestObserverCloseStopsDelivery(t *testing.T) {
	reg := newTestRegistry()
	obs := Observe[Transform](reg)

	lock, err := reg.StartTransaction(AccessSet{Write: []Kind{KindTransform}, AddRemove: true}, nil)
	require.NoError(t, err)
	e, err := lock.NewEntity()
	require.NoError(t, err)
	require.NoError(t, Set(lock, e, Transform{Offset: *lin.NewT()}))
	lock.Release()
	obs.Drain()

	obs.Close()

	lock2, err := reg.StartTransaction(AccessSet{Write: []Kind{KindTransform}, AddRemove: true}, nil)
	require.NoError(t, err)
	e2, err := lock2.NewEntity()
	require.NoError(t, err)
	require.NoError(t, Set(lock2, e2, Transform{Offset: *lin.NewT()}))
	lock2.Release()

	assert.Empty(t, obs.Drain())
}
