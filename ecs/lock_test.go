// Copyright © 2024 Galvanized Logic Inc.

package ecs

import (
	"testing"

	"github.com/lumenforge/lumen/math/lin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	return NewRegistry(Live, NewReferenceManager(0))
}

func TestGetSetUnsetRoundTrip(t *testing.T) {
	reg := newTestRegistry()
	lock, err := reg.StartTransaction(AccessSet{Write: []Kind{KindTransform}, Read: []Kind{KindTransform}, AddRemove: true}, nil)
	require.NoError(t, err)
	defer lock.Release()

	e, err := lock.NewEntity()
	require.NoError(t, err)

	_, ok, err := Get[Transform](lock, e)
	require.NoError(t, err)
	assert.False(t, ok)

	want := Transform{Offset: *lin.NewT(), Scale: lin.V3{X: 3, Y: 3, Z: 3}}
	require.NoError(t, Set(lock, e, want))

	got, ok, err := Get[Transform](lock, e)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3.0, got.Scale.X)
	assert.True(t, lock.Has(e, KindTransform))

	require.NoError(t, Unset[Transform](lock, e))
	_, ok, err = Get[Transform](lock, e)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, lock.Has(e, KindTransform))
}

func TestGetDeniesUndeclaredKind(t *testing.T) {
	reg := newTestRegistry()
	lock, err := reg.StartTransaction(AccessSet{AddRemove: true}, nil)
	require.NoError(t, err)
	defer lock.Release()

	e, err := lock.NewEntity()
	require.NoError(t, err)

	_, _, err = Get[Transform](lock, e)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestSetDeniesWithoutWriteAccess(t *testing.T) {
	reg := newTestRegistry()
	setupLock, err := reg.StartTransaction(AccessSet{Write: []Kind{KindTransform}, AddRemove: true}, nil)
	require.NoError(t, err)
	e, err := setupLock.NewEntity()
	require.NoError(t, err)
	setupLock.Release()

	readOnly, err := reg.StartTransaction(AccessSet{Read: []Kind{KindTransform}}, nil)
	require.NoError(t, err)
	defer readOnly.Release()

	err = Set(readOnly, e, Transform{Offset: *lin.NewT()})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestNewEntityAndDestroyEntityRequireAddRemove(t *testing.T) {
	reg := newTestRegistry()
	lock, err := reg.StartTransaction(AccessSet{Read: []Kind{KindTransform}}, nil)
	require.NoError(t, err)
	defer lock.Release()

	_, err = lock.NewEntity()
	assert.ErrorIs(t, err, ErrAccessDenied)

	err = lock.DestroyEntity(Entity{})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestNestedTransactionRejectsUpgrade(t *testing.T) {
	reg := newTestRegistry()
	parent, err := reg.StartTransaction(AccessSet{Read: []Kind{KindTransform}}, nil)
	require.NoError(t, err)
	defer parent.Release()

	_, err = reg.StartTransaction(AccessSet{Write: []Kind{KindTransform}}, parent)
	assert.ErrorIs(t, err, ErrLockUpgradeForbidden)

	child, err := reg.StartTransaction(AccessSet{Read: []Kind{KindTransform}}, parent)
	require.NoError(t, err)
	child.Release()
}

func TestNestedTransactionRejectsDifferentRegistry(t *testing.T) {
	reg := newTestRegistry()
	other := newTestRegistry()
	parent, err := reg.StartTransaction(AccessSet{Read: []Kind{KindTransform}}, nil)
	require.NoError(t, err)
	defer parent.Release()

	_, err = other.StartTransaction(AccessSet{Read: []Kind{KindTransform}}, parent)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestEachFiltersByComponentSet(t *testing.T) {
	reg := newTestRegistry()
	lock, err := reg.StartTransaction(AccessSet{Write: []Kind{KindTransform, KindName}, Read: []Kind{KindTransform, KindName}, AddRemove: true}, nil)
	require.NoError(t, err)
	defer lock.Release()

	withBoth, err := lock.NewEntity()
	require.NoError(t, err)
	require.NoError(t, Set(lock, withBoth, Transform{Offset: *lin.NewT()}))
	require.NoError(t, BindName(lock, withBoth, "scene", "a"))

	onlyTransform, err := lock.NewEntity()
	require.NoError(t, err)
	require.NoError(t, Set(lock, onlyTransform, Transform{Offset: *lin.NewT()}))

	var matched []Entity
	require.NoError(t, lock.Each([]Kind{KindTransform, KindName}, func(e Entity) {
		matched = append(matched, e)
	}))
	require.Len(t, matched, 1)
	assert.Equal(t, withBoth, matched[0])
}

func TestEachDeniesUndeclaredKind(t *testing.T) {
	reg := newTestRegistry()
	lock, err := reg.StartTransaction(AccessSet{Read: []Kind{KindTransform}}, nil)
	require.NoError(t, err)
	defer lock.Release()

	err = lock.Each([]Kind{KindName}, func(Entity) {})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestDeferRunsOutsideOriginatingTransaction(t *testing.T) {
	reg := newTestRegistry()
	setupLock, err := reg.StartTransaction(AccessSet{Write: []Kind{KindTransform}, AddRemove: true}, nil)
	require.NoError(t, err)
	e, err := setupLock.NewEntity()
	require.NoError(t, err)
	setupLock.Release()

	readLock, err := reg.StartTransaction(AccessSet{Read: []Kind{KindTransform}}, nil)
	require.NoError(t, err)
	readLock.Defer(AccessSet{Write: []Kind{KindTransform}}, func(l *Lock) {
		_ = Set(l, e, Transform{Offset: *lin.NewT(), Scale: lin.V3{X: 9, Y: 9, Z: 9}})
	})
	readLock.Release()

	reg.DrainDeferred()

	verify, err := reg.StartTransaction(AccessSet{Read: []Kind{KindTransform}}, nil)
	require.NoError(t, err)
	defer verify.Release()
	got, ok, err := Get[Transform](verify, e)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 9.0, got.Scale.X)
}
