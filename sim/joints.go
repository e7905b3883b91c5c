// Copyright © 2024 Galvanized Logic Inc.

package sim

import (
	"github.com/lumenforge/lumen/ecs"
	"github.com/lumenforge/lumen/math/lin"
	"github.com/lumenforge/lumen/physics"
)

// joints.go is spec §4.5 step 10. physics.Body exposes an internal PBD
// hinge/spherical constraint solver (physics/pbd.go) but no exported way
// to attach one to an entity-level joint, and no collision-pair filter
// at all. JointForce is implemented as a clamped spring force toward the
// other body each frame, grounded on Body.AddForce. JointNoClip and
// JointTemporaryNoClip can't actually suppress the backend's contact
// resolution (Simulate takes a flat body slice with no exclusion list);
// they're kept as bookkeeping only, with TemporaryNoClip expiring after
// one frame, and documented in DESIGN.md as a disclosed simplification
// rather than implemented collision filtering.

// resolveJoints is spec §4.5 step 10.
func (r *Runtime) resolveJoints(lock *ecs.Lock) {
	lock.Each([]ecs.Kind{ecs.KindPhysicsJoints}, func(e ecs.Entity) {
		pj, ok, err := ecs.Get[ecs.PhysicsJoints](lock, e)
		if !ok || err != nil {
			return
		}
		actor, ok := r.actors[e.ID]
		if !ok {
			return
		}
		body := r.backend.get(actor.BodyIndex)

		kept := pj.Joints[:0]
		changed := false
		for _, j := range pj.Joints {
			switch j.Type {
			case ecs.JointForce:
				r.applyJointForce(lock, body, j)
				kept = append(kept, j)
			case ecs.JointNoClip:
				kept = append(kept, j)
			case ecs.JointTemporaryNoClip:
				changed = true // dropped: one-frame grace period has elapsed.
			}
		}
		if changed {
			pj.Joints = kept
			_ = ecs.Set(lock, e, pj)
		}
	})
}

// applyJointForce pulls body toward j.Other with a force proportional to
// separation distance, clamped to j.ForceLimit.
func (r *Runtime) applyJointForce(lock *ecs.Lock, body *physics.Body, j ecs.Joint) {
	if j.Other == nil {
		return
	}
	otherID, ok := j.Other.Resolve(lock.Instance())
	if !ok {
		return
	}
	otherActor, ok := r.actors[otherID]
	if !ok {
		return
	}
	other := r.backend.get(otherActor.BodyIndex)

	delta := lin.V3{}
	otherPos, bodyPos := other.Position(), body.Position()
	delta.Sub(&otherPos, &bodyPos)
	dist := delta.Len()
	if dist < 1e-6 {
		return
	}
	mag := dist * body.Mass()
	if j.ForceLimit > 0 && mag > j.ForceLimit {
		mag = j.ForceLimit
	}
	dir := delta
	dir.Unit()
	force := lin.V3{}
	force.Scale(&dir, mag)
	body.AddForce(body.Position(), force, true)
}
