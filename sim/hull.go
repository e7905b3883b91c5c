// Copyright © 2024 Galvanized Logic Inc.

package sim

import (
	"github.com/lumenforge/lumen/asset"
	"github.com/lumenforge/lumen/ecs"
	"github.com/lumenforge/lumen/hull"
	"github.com/lumenforge/lumen/math/lin"
	"github.com/lumenforge/lumen/physics"
)

// hull.go resolves a ConvexMesh PhysicsShape to a physics.NewConvexHull
// input, going through the hull.Cache asynchronously (spec §4.5.1 "add
// new shapes... convex meshes via the hull cache's async future") so a
// slow decomposition never stalls the physics frame.

// hullFuture tracks one in-flight or resolved hull.Cache.Load call,
// keyed by "model/hullSettingsName" so concurrent shapes referencing the
// same source mesh and settings share one build.
type hullFuture struct {
	future *asset.Future[hull.ConvexHullSet]
	ready  hull.ConvexHullSet
	done   bool
}

func hullKey(model, settingsName string) string { return model + "/" + settingsName }

// pollHull resolves shape (a ConvexMesh variant) to its built hull set,
// submitting a build on first reference and polling thereafter. ok is
// false while the build is still in flight.
func (r *Runtime) pollHull(e ecs.Entity, shape ecs.PhysicsShape) (hull.ConvexHullSet, bool) {
	key := hullKey(shape.Model, shape.HullSettingsName)

	f, exists := r.hullFutures[key]
	if !exists {
		info := r.PhysicsInfo[shape.Model]
		settings, ok := info[shape.HullSettingsName]
		if !ok {
			r.Log.Warn().Str("model", shape.Model).Str("settings", shape.HullSettingsName).
				Msg("physics: hull settings not found")
			return hull.ConvexHullSet{}, false
		}

		f = &hullFuture{}
		r.hullFutures[key] = f
		f.future = asset.Submit(r.Loader, func() (hull.ConvexHullSet, error) {
			return r.buildHull(shape.Model, settings.MeshIndex, settings.Settings, key)
		})
	}

	if f.done {
		return f.ready, true
	}
	v, ready, err := f.future.Poll()
	if !ready {
		return hull.ConvexHullSet{}, false
	}
	if err != nil {
		r.Log.Error().Err(err).Str("model", shape.Model).Msg("physics: hull build failed")
		return hull.ConvexHullSet{}, false
	}
	f.ready, f.done = v, true
	if r.Metrics != nil {
		r.Metrics.HullCacheMiss()
	}
	return v, true
}

func (r *Runtime) buildHull(model string, meshIndex int, settings hull.Settings, key string) (hull.ConvexHullSet, error) {
	modelHash, err := r.Models.ContentHash(model)
	if err != nil {
		return hull.ConvexHullSet{}, err
	}
	settingsHash := hull.HashSettings(settings)

	return r.Hull.Load(key, hull.Hash128{Hi: modelHash.Hi, Lo: modelHash.Lo}, settingsHash, func() (hull.ConvexHullSet, error) {
		verts, idxs, err := r.Models.MeshGeometry(model, meshIndex)
		if err != nil {
			return hull.ConvexHullSet{}, err
		}
		return hull.Build(verts, idxs, settings), nil
	})
}

// buildConvexBody resolves a single ConvexMesh PhysicsShape directly to a
// physics.Body (the len(Shapes)==1 fast path in buildBody).
func (r *Runtime) buildConvexBody(e ecs.Entity, s ecs.PhysicsShape, static bool) (*physics.Body, bool) {
	set, ok := r.pollHull(e, s)
	if !ok {
		return nil, false
	}
	var verts []lin.V3
	var idxs []uint32
	for _, h := range set.Hulls {
		base := uint32(len(verts))
		verts = append(verts, h.Vertices...)
		for _, i := range h.Indices {
			idxs = append(idxs, base+i)
		}
	}
	return physics.NewConvexHull(verts, idxs, static), true
}
