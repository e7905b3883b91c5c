// Copyright © 2024 Galvanized Logic Inc.

package ecs

import (
	"testing"

	"github.com/lumenforge/lumen/math/lin"
	"github.com/stretchr/testify/assert"
)

func TestAllKindsCoversEveryRegisteredKind(t *testing.T) {
	kinds := AllKinds()
	assert.Len(t, kinds, int(numKinds))
	assert.Equal(t, KindName, kinds[0])
	assert.Equal(t, KindSignalBindings, kinds[len(kinds)-1])
}

func TestKindStringKnownAndUnknown(t *testing.T) {
	assert.Equal(t, "Transform", KindTransform.String())
	assert.Equal(t, "Unknown", Kind(numKinds).String())
}

func TestPhysicsTypeString(t *testing.T) {
	assert.Equal(t, "Static", Static.String())
	assert.Equal(t, "Dynamic", Dynamic.String())
	assert.Equal(t, "Kinematic", Kinematic.String())
	assert.Equal(t, "SubActor", SubActor.String())
	assert.Equal(t, "Unknown", PhysicsType(99).String())
}

func TestTransformFieldReader(t *testing.T) {
	tr := IdentityTransform()
	tr.Offset.Loc.Y = 4
	tr.Scale.Z = 2

	v, ok := tr.Field("y")
	assert.True(t, ok)
	assert.Equal(t, 4.0, v)

	v, ok = tr.Field("scale_z")
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)

	_, ok = tr.Field("bogus")
	assert.False(t, ok)
}

func TestTransformSnapshotFieldDelegatesToWorld(t *testing.T) {
	snap := TransformSnapshot{World: IdentityTransform()}
	snap.World.Offset.Loc.X = 9

	v, ok := snap.Field("x")
	assert.True(t, ok)
	assert.Equal(t, 9.0, v)
}

func TestLightSensorField(t *testing.T) {
	s := LightSensor{Reading: 0.75}
	v, ok := s.Field("reading")
	assert.True(t, ok)
	assert.Equal(t, 0.75, v)

	_, ok = s.Field("other")
	assert.False(t, ok)
}

func TestSceneGravityIsUniform(t *testing.T) {
	g := lin.V3{X: 0, Y: -9.8, Z: 0}
	props := SceneProperties{Gravity: g}
	somewhereElse := lin.V3{X: 100, Y: 0, Z: -50}
	assert.Equal(t, g, props.GetGravity(somewhereElse))
}
