// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"testing"

	"github.com/lumenforge/lumen/math/lin"
	"github.com/stretchr/testify/assert"
)

func TestNewSphereIsMovable(t *testing.T) {
	b := NewSphere(1.0, false)
	assert.False(t, b.IsFixed())
	assert.Greater(t, b.Mass(), 0.0)
}

func TestNewBoxStaticHasNoMass(t *testing.T) {
	b := NewBox(1, 1, 1, true)
	assert.True(t, b.IsFixed())
	assert.Equal(t, 0.0, b.Mass())
}

func TestSimulateFallsUnderGravity(t *testing.T) {
	b := NewSphere(0.5, false)
	b.SetPosition(lin.V3{X: 0, Y: 10, Z: 0})
	bods := []Body{*b}
	Simulate(bods, 1.0/60.0)
	assert.Less(t, bods[0].Position().Y, 10.0)
}

func TestSimulateIgnoresFixedBodies(t *testing.T) {
	b := NewBox(1, 1, 1, true)
	b.SetPosition(lin.V3{X: 0, Y: 5, Z: 0})
	bods := []Body{*b}
	Simulate(bods, 1.0/60.0)
	assert.Equal(t, 5.0, bods[0].Position().Y)
}
