// Copyright © 2024 Galvanized Logic Inc.

package signal

import (
	"math"
	"testing"

	"github.com/lumenforge/lumen/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(g *Graph, refs *ecs.ReferenceManager) *Context {
	return &Context{Graph: g, Refs: refs}
}

func TestSetValueAndRead(t *testing.T) {
	g := NewGraph()
	refs := ecs.NewReferenceManager(0)
	ref := refs.GetSignal(ecs.SignalKey{Entity: refs.GetEntityByName("player"), Signal: "health"})

	require.NoError(t, g.SetValue(ref, 42))
	assert.Equal(t, 42.0, g.GetSignal(newTestContext(g, refs), ref, 0))
}

func TestSetValueRejectsNaNAndInf(t *testing.T) {
	g := NewGraph()
	refs := ecs.NewReferenceManager(0)
	ref := refs.GetSignal(ecs.SignalKey{Entity: refs.GetEntityByName("e"), Signal: "s"})

	assert.ErrorIs(t, g.SetValue(ref, math.Inf(1)), ErrInvalidValue)
	assert.ErrorIs(t, g.SetValue(ref, math.NaN()), ErrInvalidValue)
}

func TestBindingArithmetic(t *testing.T) {
	g := NewGraph()
	refs := ecs.NewReferenceManager(0)

	a := refs.GetSignal(ecs.SignalKey{Entity: refs.GetEntityByName("e"), Signal: "a"})
	b := refs.GetSignal(ecs.SignalKey{Entity: refs.GetEntityByName("e"), Signal: "b"})
	require.NoError(t, g.SetValue(a, 3))
	require.NoError(t, g.SetValue(b, 4))

	sum := refs.GetSignal(ecs.SignalKey{Entity: refs.GetEntityByName("e"), Signal: "sum"})
	require.NoError(t, g.SetBinding(sum, "e/a + e/b"))

	assert.Equal(t, 7.0, g.GetSignal(newTestContext(g, refs), sum, 0))
}

func TestBindingDivisionByZeroReturnsZero(t *testing.T) {
	g := NewGraph()
	refs := ecs.NewReferenceManager(0)
	zero := refs.GetSignal(ecs.SignalKey{Entity: refs.GetEntityByName("e"), Signal: "z"})
	require.NoError(t, g.SetValue(zero, 0))

	ratio := refs.GetSignal(ecs.SignalKey{Entity: refs.GetEntityByName("e"), Signal: "ratio"})
	require.NoError(t, g.SetBinding(ratio, "10 / e/z"))

	assert.Equal(t, 0.0, g.GetSignal(newTestContext(g, refs), ratio, 0))
}

func TestBindingDirtyPropagation(t *testing.T) {
	g := NewGraph()
	refs := ecs.NewReferenceManager(0)

	src := refs.GetSignal(ecs.SignalKey{Entity: refs.GetEntityByName("e"), Signal: "src"})
	require.NoError(t, g.SetValue(src, 1))

	derived := refs.GetSignal(ecs.SignalKey{Entity: refs.GetEntityByName("e"), Signal: "derived"})
	require.NoError(t, g.SetBinding(derived, "e/src * 2"))

	ctx := newTestContext(g, refs)
	assert.Equal(t, 2.0, g.GetSignal(ctx, derived, 0))

	require.NoError(t, g.SetValue(src, 5))
	assert.Equal(t, 10.0, g.GetSignal(ctx, derived, 0))
}

func TestParseRejectsBareIdentifier(t *testing.T) {
	_, err := Parse("foo")
	assert.Error(t, err)
}

func TestParseComparisonAndBoolean(t *testing.T) {
	expr, err := Parse("(1 + 1) > 1 && 1")
	require.NoError(t, err)
	ctx := &Context{Graph: NewGraph()}
	assert.Equal(t, 1.0, expr.root.eval(ctx))
}

func TestParseFunctionsAndFocus(t *testing.T) {
	expr, err := Parse("max(1, 2)")
	require.NoError(t, err)
	assert.Equal(t, 2.0, expr.root.eval(&Context{Graph: NewGraph()}))

	expr, err = Parse("is_focused(Game)")
	require.NoError(t, err)
	assert.Equal(t, 0.0, expr.root.eval(&Context{Graph: NewGraph()}))
}

func TestMaxDepthReturnsZero(t *testing.T) {
	g := NewGraph()
	refs := ecs.NewReferenceManager(0)
	ref := refs.GetSignal(ecs.SignalKey{Entity: refs.GetEntityByName("e"), Signal: "self"})
	require.NoError(t, g.SetBinding(ref, "e/self + 1"))

	assert.Equal(t, 0.0, g.GetSignal(newTestContext(g, refs), ref, 0))
}
