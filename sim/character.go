// Copyright © 2024 Galvanized Logic Inc.

package sim

import (
	"github.com/lumenforge/lumen/ecs"
	"github.com/lumenforge/lumen/math/lin"
	"github.com/lumenforge/lumen/signal"
)

// character.go is spec §4.5 step 2: for each CharacterController, read
// movement signals and scene gravity, sweep the capsule through the
// backend, and write the resulting pose back to TransformTree plus the
// grounded flag. Grounded on original_source/src/physics/physx/
// PhysxManager.cc's character-controller step and physics.Body's sphere/
// box collider surface; the "capsule-controller sweep" itself is treated
// as the black box spec §4.5.1 calls the backend, approximated here by
// integrating velocity and clamping against the top of a non-dynamic
// actor's bounding sphere along -Y, since physics.Body exposes no native sweep
// primitive (see DESIGN.md).

const groundProbeDistance = 0.05

// stepCharacterControllers is spec §4.5 step 2.
func (r *Runtime) stepCharacterControllers(lock *ecs.Lock) {
	ctx := &signal.Context{Graph: r.Signals, Refs: r.Refs, Registry: r.Live, Focus: r.Focus}
	interval := r.Interval.Seconds()

	lock.Each([]ecs.Kind{ecs.KindCharacterController, ecs.KindTransformTree}, func(e ecs.Entity) {
		cc, ok, err := ecs.Get[ecs.CharacterController](lock, e)
		if !ok || err != nil {
			return
		}
		tt, ok, err := ecs.Get[ecs.TransformTree](lock, e)
		if !ok || err != nil {
			return
		}

		var moveX, moveZ float64
		if cc.MoveSignal != "" {
			moveX = r.readEntitySignal(ctx, e, cc.MoveSignal+"_x")
			moveZ = r.readEntitySignal(ctx, e, cc.MoveSignal+"_z")
		}

		gravity := lin.V3{Y: -10}
		if props, ok, err := r.sceneProperties(lock, e); ok && err == nil {
			gravity = props.GetGravity(*tt.Pose.Offset.Loc)
		}

		vel := cc.Velocity
		vel.X, vel.Z = moveX, moveZ
		vel.Y += gravity.Y * interval

		displaced := lin.V3{
			X: tt.Pose.Offset.Loc.X + vel.X*interval,
			Y: tt.Pose.Offset.Loc.Y + vel.Y*interval,
			Z: tt.Pose.Offset.Loc.Z + vel.Z*interval,
		}

		grounded, floor := r.probeGround(e, displaced, cc.Radius+cc.HalfHeight)
		if grounded {
			displaced.Y = floor
			vel.Y = 0
		}

		tt.Pose.Offset.Loc.Set(&displaced)
		cc.Velocity = vel
		cc.Grounded = grounded
		_ = ecs.Set(lock, e, tt)
		_ = ecs.Set(lock, e, cc)
	})
}

// readEntitySignal reads a named signal relative to e's bound entity
// reference, returning 0 if e has no binding or the signal has no value.
func (r *Runtime) readEntitySignal(ctx *signal.Context, e ecs.Entity, name string) float64 {
	ref := r.Refs.GetEntityRef(e)
	if ref == nil {
		return 0
	}
	sig := r.Refs.GetSignal(ecs.SignalKey{Entity: ref, Signal: name})
	return r.Signals.GetSignal(ctx, sig, 0)
}

// probeGround approximates the capsule sweep's floor contact: true if the
// top of any static/kinematic actor's bounding sphere lies within
// groundProbeDistance above or below the controller's feet (the first
// such actor found is used), returning the world Y to clamp to.
func (r *Runtime) probeGround(self ecs.Entity, pos lin.V3, feetOffset float64) (grounded bool, floorY float64) {
	feet := pos.Y - feetOffset
	for id, actor := range r.actors {
		if id == self.ID || actor.Type == ecs.Dynamic {
			continue
		}
		body := r.backend.get(actor.BodyIndex)
		top := body.Position().Y + body.BoundingRadius()
		dx, dz := pos.X-body.Position().X, pos.Z-body.Position().Z
		if dx*dx+dz*dz > body.BoundingRadius()*body.BoundingRadius() {
			continue
		}
		if top >= feet-groundProbeDistance && top <= feet+groundProbeDistance {
			return true, top + feetOffset
		}
	}
	return false, pos.Y
}
