// Copyright © 2024 Galvanized Logic Inc.

package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualifiedName(t *testing.T) {
	assert.Equal(t, "level1.box", QualifiedName("level1", "box"))
	assert.Equal(t, "box", QualifiedName("", "box"))
}

func TestBindNameRejectsCollisionWithinInstance(t *testing.T) {
	refs := NewReferenceManager(0)
	reg := NewRegistry(Live, refs)
	lock, err := reg.StartTransaction(AccessSet{Write: []Kind{KindName}, AddRemove: true}, nil)
	require.NoError(t, err)
	defer lock.Release()

	first, err := lock.NewEntity()
	require.NoError(t, err)
	require.NoError(t, BindName(lock, first, "level1", "box"))

	second, err := lock.NewEntity()
	require.NoError(t, err)
	err = BindName(lock, second, "level1", "box")
	assert.ErrorIs(t, err, ErrNameTaken)
}

func TestBindNameAllowsSameQualifiedNameAcrossInstances(t *testing.T) {
	refs := NewReferenceManager(0)
	staging := NewRegistry(Staging, refs)
	live := NewRegistry(Live, refs)

	stageLock, err := staging.StartTransaction(AccessSet{Write: []Kind{KindName}, AddRemove: true}, nil)
	require.NoError(t, err)
	se, err := stageLock.NewEntity()
	require.NoError(t, err)
	require.NoError(t, BindName(stageLock, se, "level1", "box"))
	stageLock.Release()

	liveLock, err := live.StartTransaction(AccessSet{Write: []Kind{KindName}, AddRemove: true}, nil)
	require.NoError(t, err)
	defer liveLock.Release()
	le, err := liveLock.NewEntity()
	require.NoError(t, err)
	assert.NoError(t, BindName(liveLock, le, "level1", "box"))
}

func TestUnbindNameFreesTheNameForReuse(t *testing.T) {
	refs := NewReferenceManager(0)
	reg := NewRegistry(Live, refs)
	lock, err := reg.StartTransaction(AccessSet{Write: []Kind{KindName}, AddRemove: true}, nil)
	require.NoError(t, err)
	defer lock.Release()

	first, err := lock.NewEntity()
	require.NoError(t, err)
	require.NoError(t, BindName(lock, first, "level1", "box"))
	require.NoError(t, UnbindName(lock, first))

	second, err := lock.NewEntity()
	require.NoError(t, err)
	assert.NoError(t, BindName(lock, second, "level1", "box"))
}
