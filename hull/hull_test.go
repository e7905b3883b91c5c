// Copyright © 2024 Galvanized Logic Inc.

package hull

import (
	"bytes"
	"testing"
	"time"

	"github.com/lumenforge/lumen/math/lin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cubeMesh() ([]lin.V3, []uint32) {
	verts := []lin.V3{
		{X: -1, Y: -1, Z: -1}, {X: 1, Y: -1, Z: -1}, {X: 1, Y: 1, Z: -1}, {X: -1, Y: 1, Z: -1},
		{X: -1, Y: -1, Z: 1}, {X: 1, Y: -1, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: -1, Y: 1, Z: 1},
	}
	indices := []uint32{
		0, 1, 2, 0, 2, 3,
		4, 6, 5, 4, 7, 6,
		0, 4, 5, 0, 5, 1,
		3, 2, 6, 3, 6, 7,
		1, 5, 6, 1, 6, 2,
		0, 3, 7, 0, 7, 4,
	}
	return verts, indices
}

func TestCacheFileRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	modelHash := Hash128{Hi: 1, Lo: 2}
	settingsHash := Hash128{Hi: 3, Lo: 4}
	payload := []byte{1, 2, 3, 4, 5}

	require.NoError(t, WriteCacheFile(&buf, modelHash, settingsHash, payload))

	got, err := ReadCacheFile(bytes.NewReader(buf.Bytes()), modelHash, settingsHash)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestCacheFileRejectsHashMismatch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCacheFile(&buf, Hash128{Hi: 1}, Hash128{Hi: 2}, []byte{9}))

	_, err := ReadCacheFile(bytes.NewReader(buf.Bytes()), Hash128{Hi: 99}, Hash128{Hi: 2})
	assert.ErrorIs(t, err, ErrHashMismatch)
}

func TestCacheFileRejectsBadMagic(t *testing.T) {
	buf := make([]byte, headerSize)
	_, err := ReadCacheFile(bytes.NewReader(buf), Hash128{}, Hash128{})
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestBuildSingleHullWrapsAllVertices(t *testing.T) {
	verts, indices := cubeMesh()
	set := Build(verts, indices, DefaultSettings())
	require.Len(t, set.Hulls, 1)
	assert.NotEmpty(t, set.Hulls[0].Indices)
}

func TestBuildDecomposeSplitsOnMaxVertices(t *testing.T) {
	verts, indices := cubeMesh()
	set := Build(verts, indices, Settings{Decompose: true, MaxVertices: 4})
	assert.GreaterOrEqual(t, len(set.Hulls), 1)
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	verts, indices := cubeMesh()
	set := Build(verts, indices, DefaultSettings())

	buf := Marshal(set)
	got, err := Unmarshal(buf)
	require.NoError(t, err)
	require.Len(t, got.Hulls, len(set.Hulls))
	assert.Equal(t, len(set.Hulls[0].Vertices), len(got.Hulls[0].Vertices))
}

func TestSettingsClampOutOfRange(t *testing.T) {
	s := Settings{VolumePercentError: -5, MaxVertices: 1, VoxelResolution: 0}.Clamp()
	assert.Equal(t, uint32(400_000), s.VoxelResolution)
	assert.Equal(t, 1.0, s.VolumePercentError)
	assert.Equal(t, uint32(64), s.MaxVertices)
}

func TestCacheLoadBuildsOnceAndReusesResult(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, time.Minute)
	verts, indices := cubeMesh()

	calls := 0
	build := func() (ConvexHullSet, error) {
		calls++
		return Build(verts, indices, DefaultSettings()), nil
	}

	_, err := c.Load("cube", Hash128{Hi: 1}, Hash128{Hi: 2}, build)
	require.NoError(t, err)
	_, err = c.Load("cube", Hash128{Hi: 1}, Hash128{Hi: 2}, build)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestCacheLoadFallsBackToDiskAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	verts, indices := cubeMesh()
	build := func() (ConvexHullSet, error) { return Build(verts, indices, DefaultSettings()), nil }

	c1 := NewCache(dir, time.Minute)
	_, err := c1.Load("cube", Hash128{Hi: 1}, Hash128{Hi: 2}, build)
	require.NoError(t, err)

	c2 := NewCache(dir, time.Minute)
	calls := 0
	set, err := c2.Load("cube", Hash128{Hi: 1}, Hash128{Hi: 2}, func() (ConvexHullSet, error) {
		calls++
		return Build(verts, indices, DefaultSettings()), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, calls)
	assert.NotEmpty(t, set.Hulls)
}
