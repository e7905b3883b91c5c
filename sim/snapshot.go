// Copyright © 2024 Galvanized Logic Inc.

package sim

import (
	"github.com/lumenforge/lumen/ecs"
	"github.com/lumenforge/lumen/math/lin"
	"github.com/lumenforge/lumen/physics"
)

// snapshot.go covers spec §4.5 steps 3 and 4: writing dynamic actors'
// settled backend pose back into the ECS, then flattening every
// TransformTree into a TransformSnapshot for entities whose local pose
// or ancestor chain actually changed. Grounded on
// original_source/src/physics/physx/PhysxManager.cc's "fetch results,
// write back to scene graph" pass and gazed-vu's pov.go scene-graph
// composition, generalized through math/lin.T.

// dirtyState is the tri-state cache SPEC_FULL.md §D describes: clean/dirty
// record what the *last* resolution found, and the frame-end reset folds
// both back to unknown. The state is recorded only; whether an entity is
// recomputed is decided by comparing its cached local pose and parent,
// and one pass memoizes its results in a map of its own.
type dirtyState uint8

const (
	stateUnknown dirtyState = iota
	stateClean
	stateDirty
)

// snapshotEntry is the per-entity cache refreshNonDynamicSnapshots uses
// to decide whether an entity's flattened pose needs recomputing.
type snapshotEntry struct {
	localPose ecs.Transform
	parentID  ecs.ID
	hasParent bool
	state     dirtyState
}

// poseEq reports whether two Transforms are close enough that no
// TransformSnapshot update is needed.
func poseEq(a, b ecs.Transform) bool {
	return a.Offset.Aeq(&b.Offset) && a.Scale.Aeq(&b.Scale)
}

// composeTransform returns parent's global transform composed with a
// child's local Transform: rotations combine (parent applied after
// child, matching math/lin.T.Mult's a*b convention), the child's
// location is rotated into the parent's frame and offset by the
// parent's location (math/lin.T.App), and scale multiplies
// componentwise since neither shape nor shear is modeled.
func composeTransform(parent, local ecs.Transform) ecs.Transform {
	result := ecs.IdentityTransform()
	result.Offset.Rot.Mult(parent.Offset.Rot, local.Offset.Rot)
	loc := *local.Offset.Loc
	parent.Offset.App(&loc)
	result.Offset.Loc.Set(&loc)
	result.Scale = lin.V3{
		X: parent.Scale.X * local.Scale.X,
		Y: parent.Scale.Y * local.Scale.Y,
		Z: parent.Scale.Z * local.Scale.Z,
	}
	return result
}

// writeBackDynamicSnapshots is spec §4.5 step 3: pull each dynamic
// actor's settled pose out of the backend body and into its
// TransformTree's local pose. If the pose a script or editor left on
// the entity this frame doesn't match what we wrote back last frame,
// something repositioned the entity out from under the simulation; the
// body is teleported to match instead of being silently overwritten,
// matching PhysxManager.cc's "scene authoritative over physics" rule
// for dynamic actors that get scripted.
func (r *Runtime) writeBackDynamicSnapshots(lock *ecs.Lock) {
	for id, actor := range r.actors {
		if actor.Type != ecs.Dynamic {
			continue
		}
		e := ecs.Entity{ID: id, Instance: lock.Instance()}
		tt, ok, err := ecs.Get[ecs.TransformTree](lock, e)
		if !ok || err != nil {
			continue
		}
		body := r.backend.get(actor.BodyIndex)

		prev, had := r.dynamicPrev[id]
		switch {
		case had && !poseEq(prev, tt.Pose):
			// Something (a script, the editor) moved the entity since our
			// last write-back; the scene is authoritative, so the body
			// teleports to match rather than being silently overwritten.
			r.teleportActor(body, tt.Pose)
		default:
			pos, rot := body.Position(), body.Rotation()
			if had {
				velocity := lin.V3{}
				velocity.Sub(&pos, prev.Offset.Loc)
				velocity.Scale(&velocity, 1/r.Interval.Seconds())
				body.SetLinearVelocity(velocity)
			}
			tt.Pose.Offset.Loc.Set(&pos)
			tt.Pose.Offset.Rot.Set(&rot)
		}

		_ = ecs.Set(lock, e, tt)
		r.dynamicPrev[id] = tt.Pose
	}
}

func (r *Runtime) teleportActor(body *physics.Body, pose ecs.Transform) {
	body.SetPosition(*pose.Offset.Loc)
	body.SetRotation(*pose.Offset.Rot)
	body.SetLinearVelocity(lin.V3{})
	body.SetAngularVelocity(lin.V3{})
	body.Wake()
}

// refreshNonDynamicSnapshots is spec §4.5 step 4: recompute
// TransformSnapshot for every entity whose TransformTree pose or
// ancestor chain changed since it was last observed, walking parent
// chains bounded by maxSceneDepth the same way sceneProperties does.
// The tri-state cache resets to unknown once every entity in this pass
// has been resolved (SPEC_FULL.md §D): a dirty/clean verdict is only
// valid for the frame that produced it.
func (r *Runtime) refreshNonDynamicSnapshots(lock *ecs.Lock) {
	type resolved struct {
		global  ecs.Transform
		changed bool
	}
	computed := map[ecs.ID]resolved{}

	var resolve func(e ecs.Entity, depth int) (ecs.Transform, bool)
	resolve = func(e ecs.Entity, depth int) (ecs.Transform, bool) {
		if got, ok := computed[e.ID]; ok {
			return got.global, got.changed
		}
		if depth >= maxSceneDepth {
			g := ecs.IdentityTransform()
			computed[e.ID] = resolved{g, false}
			return g, false
		}

		tt, ok, err := ecs.Get[ecs.TransformTree](lock, e)
		if !ok || err != nil {
			g := ecs.IdentityTransform()
			computed[e.ID] = resolved{g, false}
			return g, false
		}

		parentGlobal := ecs.IdentityTransform()
		parentChanged := false
		hasParent := false
		var parentID ecs.ID
		if tt.HasParent && tt.Parent != nil {
			if pid, ok2 := tt.Parent.Resolve(lock.Instance()); ok2 {
				hasParent = true
				parentID = pid
				pe := ecs.Entity{ID: pid, Instance: lock.Instance()}
				parentGlobal, parentChanged = resolve(pe, depth+1)
			}
		}

		global := composeTransform(parentGlobal, tt.Pose)
		cache, existed := r.snapshots[e.ID]
		localChanged := !existed || !poseEq(cache.localPose, tt.Pose) ||
			cache.hasParent != hasParent || (hasParent && cache.parentID != parentID)
		changed := parentChanged || localChanged

		state := stateClean
		if changed {
			state = stateDirty
			_ = ecs.Set(lock, e, ecs.TransformSnapshot{World: global})
		}
		r.snapshots[e.ID] = &snapshotEntry{localPose: tt.Pose, parentID: parentID, hasParent: hasParent, state: state}
		computed[e.ID] = resolved{global, changed}
		return global, changed
	}

	lock.Each([]ecs.Kind{ecs.KindTransformTree}, func(e ecs.Entity) {
		resolve(e, 0)
	})

	for _, entry := range r.snapshots {
		entry.state = stateUnknown
	}
}

// simulateBackend is Phase 3 (spec §4.5): step the physics backend with
// no ECS lock held, matching PhysxManager.cc's "simulate outside the
// scene lock" structure.
func (r *Runtime) simulateBackend() {
	physics.Simulate(r.backend.slice(), r.Interval.Seconds())
}
