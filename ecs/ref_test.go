// Copyright © 2024 Galvanized Logic Inc.

package ecs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEntityByNameInternsOnce(t *testing.T) {
	refs := NewReferenceManager(time.Hour)
	a := refs.GetEntityByName("level1.box")
	b := refs.GetEntityByName("level1.box")
	assert.Same(t, a, b)
}

func TestTickSweepsUntouchedNamesWithNoLiveOrStagingID(t *testing.T) {
	refs := NewReferenceManager(5 * time.Millisecond)
	swept := refs.GetEntityByName("level1.box") // interns it, touches it once

	time.Sleep(20 * time.Millisecond) // outlast the grace TTL
	refs.Tick(5 * time.Millisecond)

	// A fresh GetEntityByName call after the sweep must intern a new ref,
	// not resolve the swept one, proving the name was actually removed.
	fresh := refs.GetEntityByName("level1.box")
	assert.NotSame(t, swept, fresh)
	_, hasLive := fresh.Live()
	_, hasStaging := fresh.Staging()
	assert.False(t, hasLive)
	assert.False(t, hasStaging)
}

func TestTickDoesNotSweepRefsWithAnAssignedID(t *testing.T) {
	refs := NewReferenceManager(5 * time.Millisecond)
	reg := NewRegistry(Live, refs)
	lock, err := reg.StartTransaction(AccessSet{Write: []Kind{KindName}, AddRemove: true}, nil)
	require.NoError(t, err)
	defer lock.Release()

	e, err := lock.NewEntity()
	require.NoError(t, err)
	require.NoError(t, BindName(lock, e, "level1", "box"))

	time.Sleep(20 * time.Millisecond)
	refs.Tick(5 * time.Millisecond)

	ref := refs.GetEntityByName(QualifiedName("level1", "box"))
	liveID, ok := ref.Live()
	require.True(t, ok)
	assert.Equal(t, e.ID, liveID)
}

func TestGetSignalInternsOncePerKey(t *testing.T) {
	refs := NewReferenceManager(time.Hour)
	ref := refs.GetEntityByName("level1.box")
	key := SignalKey{Entity: ref, Signal: "health"}

	a := refs.GetSignal(key)
	b := refs.GetSignal(key)
	assert.Same(t, a, b)
}

func TestGetSignalsPrefixFilter(t *testing.T) {
	refs := NewReferenceManager(time.Hour)
	ref := refs.GetEntityByName("level1.box")
	refs.GetSignal(SignalKey{Entity: ref, Signal: "health"})
	refs.GetSignal(SignalKey{Entity: ref, Signal: "shield"})

	other := refs.GetEntityByName("level1.door")
	refs.GetSignal(SignalKey{Entity: other, Signal: "open"})

	matches := refs.GetSignals("level1.box/")
	assert.Len(t, matches, 2)
}
