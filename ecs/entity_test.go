// Copyright © 2024 Galvanized Logic Inc.

package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstanceString(t *testing.T) {
	assert.Equal(t, "live", Live.String())
	assert.Equal(t, "staging", Staging.String())
}

func TestEntityStringNil(t *testing.T) {
	assert.Equal(t, "entity(nil)", Nil.String())
	assert.NotEqual(t, "entity(nil)", Entity{ID: newEntityTable().create(), Instance: Live}.String())
}

func TestEntityTableCreateAssignsDistinctIndices(t *testing.T) {
	tbl := newEntityTable()
	a := tbl.create()
	b := tbl.create()
	assert.NotEqual(t, a.index(), b.index())
	assert.True(t, tbl.valid(a))
	assert.True(t, tbl.valid(b))
}

func TestEntityTableDestroyThenCreateReusesIndexWithBumpedGeneration(t *testing.T) {
	tbl := newEntityTable()
	a := tbl.create()
	assert.True(t, tbl.destroy(a))
	assert.False(t, tbl.valid(a))

	b := tbl.create()
	assert.Equal(t, a.index(), b.index())
	assert.Equal(t, a.generation()+1, b.generation())
	assert.False(t, tbl.valid(a), "stale handle to the reused index must not validate")
	assert.True(t, tbl.valid(b))
}

func TestEntityTableDestroyUnknownIDFails(t *testing.T) {
	tbl := newEntityTable()
	assert.False(t, tbl.destroy(newID(0, 0)))

	a := tbl.create()
	stale := newID(a.index(), a.generation()+1)
	assert.False(t, tbl.destroy(stale))
}

func TestEntityTableEachVisitsOnlyAlive(t *testing.T) {
	tbl := newEntityTable()
	a := tbl.create()
	b := tbl.create()
	tbl.destroy(a)

	var seen []ID
	tbl.each(func(id ID) { seen = append(seen, id) })
	assert.Equal(t, []ID{b}, seen)
}
