// Copyright © 2024 Galvanized Logic Inc.

package sim

import "github.com/lumenforge/lumen/ecs"

// preload.go is spec §4.5 Phase 1: the physics thread's pre-frame,
// out-of-transaction step that drains a queue of staging scenes waiting
// on their convex-hull sets to resolve before they're admissible to the
// live world. Grounded on hull.go's hullFuture/pollHull machinery and
// spec §4.5.2's "await the future, non-blocking" rule extended to whole
// -scene admission.

// preloadRequest is one staging scene waiting on a set of hull builds.
type preloadRequest struct {
	scene string
	keys  []string
	done  chan error
}

// preloadQueue holds scenes the engine has asked to admit to the live
// instance but whose ConvexMesh shapes haven't all resolved yet.
type preloadQueue struct {
	pending []*preloadRequest
}

func newPreloadQueue() *preloadQueue { return &preloadQueue{} }

// Enqueue submits a hull build for every ConvexMesh shape in shapes that
// isn't already in flight, and returns a channel that receives nil once
// every one of them has resolved. The engine package calls this when a
// staging scene finishes loading and wants to flatten it into the live
// instance once its physics assets are ready.
func (q *preloadQueue) Enqueue(r *Runtime, scene string, shapes []ecs.PhysicsShape) <-chan error {
	done := make(chan error, 1)

	var keys []string
	for _, s := range shapes {
		if s.Variant != ecs.ShapeConvexMesh {
			continue
		}
		key := hullKey(s.Model, s.HullSettingsName)
		keys = append(keys, key)
		if _, exists := r.hullFutures[key]; !exists {
			r.pollHull(ecs.Entity{}, s) // submits the build as a side effect; result polled by tick.
		}
	}

	if len(keys) == 0 {
		done <- nil
		return done
	}
	q.pending = append(q.pending, &preloadRequest{scene: scene, keys: keys, done: done})
	return done
}

// PreloadScene submits hull builds for every ConvexMesh shape in shapes
// and returns a channel that receives nil once all of them resolve. The
// engine package calls this after staging-loading a scene and before
// flattening it into the live instance, so a scene is only admitted once
// its physics assets are ready (spec §4.5.2's "await the future" rule
// extended to whole-scene admission).
func (r *Runtime) PreloadScene(scene string, shapes []ecs.PhysicsShape) <-chan error {
	return r.preload.Enqueue(r, scene, shapes)
}

// tick is spec §4.5 Phase 1: verify every pending scene's referenced
// convex-hull sets are either ready or still in-flight, admitting
// (signalling done) a scene only once every one of its hulls resolves.
func (q *preloadQueue) tick(r *Runtime) {
	remaining := q.pending[:0]
	for _, req := range q.pending {
		ready := true
		for _, key := range req.keys {
			f, exists := r.hullFutures[key]
			if exists && !f.done {
				if v, ok, err := f.future.Poll(); ok && err == nil {
					f.ready, f.done = v, true
				}
			}
			if !exists || !f.done {
				ready = false
				break
			}
		}
		if ready {
			req.done <- nil
			close(req.done)
		} else {
			remaining = append(remaining, req)
		}
	}
	q.pending = remaining
}
