// Copyright © 2024 Galvanized Logic Inc.

package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/ecs"
)

func TestPreloadSceneWithNoConvexShapesResolvesImmediately(t *testing.T) {
	r := newTestRuntime(t)
	shapes := []ecs.PhysicsShape{{Variant: ecs.ShapeBox}}

	select {
	case err := <-r.PreloadScene("level1", shapes):
		require.NoError(t, err)
	default:
		t.Fatal("expected PreloadScene to resolve synchronously when there are no ConvexMesh shapes")
	}
}

func TestPreloadSceneWaitsForHullThenTickAdmits(t *testing.T) {
	r := newTestRuntime(t)
	shapes := []ecs.PhysicsShape{{Variant: ecs.ShapeConvexMesh, Model: "crate", HullSettingsName: "convex0"}}

	done := r.PreloadScene("level1", shapes)

	select {
	case <-done:
		t.Fatal("should not resolve before the hull build completes and a tick runs")
	default:
	}

	require.Eventually(t, func() bool {
		r.preload.tick(r)
		select {
		case err := <-done:
			assert.NoError(t, err)
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}
