// Copyright © 2024 Galvanized Logic Inc.

package sim

import (
	"math"

	"github.com/lumenforge/lumen/ecs"
	"github.com/lumenforge/lumen/signal"
)

// animationstep.go is spec §4.5 step 6: each Animation reads its
// state/target signal pair, advances a continuous animation-state value
// toward the target keyframe one adjacent keyframe at a time, and writes
// the interpolated pose into TransformTree. Grounded on
// original_source/Animation.{hh,cc}: animation_state is a continuous
// double ("a state value of 0.5 represents a state half way between
// states 0 and 1"), GetCurrNextState splits it into the two adjacent
// keyframes via floor/fractional-part, and "moving from state 2.0 to 0.0
// follows the path through state 1.0, rather than moving directly."

// animTracker is the per-entity animation playhead: the continuous
// animation-state value, ranging from 0 to len(Keyframes)-1.
type animTracker struct {
	position float64
}

// animCurrNext mirrors original_source's Animation::GetCurrNextState:
// splits a continuous state value into the two adjacent keyframe indices
// it currently lies between, the completion fraction within that pair,
// and the direction state is moving. When target is at or ahead of
// state, current is floor(state), next the keyframe after it, and
// completion the fractional part. When target is behind and state sits
// exactly on a keyframe, next is the keyframe before it with completion
// 0; when target is behind and state is mid-segment, current is the
// keyframe ahead of state with completion measured from that side. Either
// way completion and direction describe the segment state is moving
// through.
func animCurrNext(state, target float64) ecs.AnimCurrNext {
	floorState := math.Floor(state)
	completion := state - floorState
	floor := int(floorState)

	switch {
	case target >= state:
		return ecs.AnimCurrNext{Current: floor, Next: floor + 1, Completion: completion, Direction: 1}
	case completion == 0:
		return ecs.AnimCurrNext{Current: floor, Next: floor - 1, Completion: 0, Direction: -1}
	default:
		return ecs.AnimCurrNext{Current: floor + 1, Next: floor, Completion: 1 - completion, Direction: -1}
	}
}

// interpolateAnimation is spec §4.5 step 6.
func (r *Runtime) interpolateAnimation(lock *ecs.Lock) {
	ctx := &signal.Context{Graph: r.Signals, Refs: r.Refs, Registry: r.Live, Focus: r.Focus}
	interval := r.Interval.Seconds()

	lock.Each([]ecs.Kind{ecs.KindAnimation, ecs.KindTransformTree}, func(e ecs.Entity) {
		anim, ok, err := ecs.Get[ecs.Animation](lock, e)
		if !ok || err != nil || len(anim.Keyframes) == 0 {
			return
		}
		tt, ok, err := ecs.Get[ecs.TransformTree](lock, e)
		if !ok || err != nil {
			return
		}
		last := float64(len(anim.Keyframes) - 1)

		tracker := r.animState[e.ID]
		if tracker == nil {
			tracker = &animTracker{}
			r.animState[e.ID] = tracker
		}

		target := 0.0
		if anim.TargetSignal != "" {
			target = clamp(r.readEntitySignal(ctx, e, anim.TargetSignal), 0, last)
		}
		state := clamp(tracker.position, 0, last)

		if state != target {
			step := animCurrNext(state, target)
			segmentDelay := anim.Keyframes[clampIndex(step.Next, len(anim.Keyframes))].Delay
			if segmentDelay <= 0 {
				segmentDelay = interval
			}
			state += float64(step.Direction) * interval / segmentDelay
			state = clamp(state, 0, last)
			if (step.Direction > 0 && state > target) || (step.Direction < 0 && state < target) {
				state = target
			}
		}
		tracker.position = state

		step := animCurrNext(state, target)
		curr := anim.Keyframes[clampIndex(step.Current, len(anim.Keyframes))]
		next := anim.Keyframes[clampIndex(step.Next, len(anim.Keyframes))]
		tt.Pose = interpolatePose(anim.Mode, curr, next, step.Completion, step.Direction)
		_ = ecs.Set(lock, e, tt)

		if anim.StateSignal != "" {
			r.writeSignalNamed(ctx, e, anim.StateSignal, state)
		}
	})
}

func clampIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// interpolatePose blends two adjacent keyframes per mode. Cubic follows
// original_source's Hermite form (Animation.cc's Cubic branch): each
// keyframe's own tangent vector, scaled by the segment direction and the
// next keyframe's delay, so the curve's speed through a keyframe is
// configurable per keyframe rather than an even ease.
func interpolatePose(mode ecs.InterpolationMode, from, to ecs.AnimKeyframe, t float64, direction int) ecs.Transform {
	switch mode {
	case ecs.InterpStep:
		if t >= 1 {
			return to.Pose
		}
		return from.Pose
	case ecs.InterpCubic:
		return hermitePose(from, to, t, direction)
	}

	result := ecs.IdentityTransform()
	result.Offset.Loc.Lerp(from.Pose.Offset.Loc, to.Pose.Offset.Loc, t)
	result.Offset.Rot.Nlerp(from.Pose.Offset.Rot, to.Pose.Offset.Rot, t)
	result.Scale.Lerp(&from.Pose.Scale, &to.Pose.Scale, t)
	return result
}

// hermitePose implements Animation.cc's Cubic branch: tangentScale =
// direction * nextState.delay, then the standard four Hermite basis
// functions (av1/at1/av2/at2) blend each keyframe's position/scale with
// its tangent. Rotation has no tangent in the original (Animation only
// overrides translate/scale), so it stays an Nlerp over the same t.
func hermitePose(from, to ecs.AnimKeyframe, t float64, direction int) ecs.Transform {
	tangentScale := float64(direction) * to.Delay
	t2 := t * t
	t3 := t2 * t
	av1 := 2*t3 - 3*t2 + 1
	at1 := tangentScale * (t3 - 2*t2 + t)
	av2 := -2*t3 + 3*t2
	at2 := tangentScale * (t3 - t2)

	blend := func(a, b, ta, tb float64) float64 { return av1*a + at1*ta + av2*b + at2*tb }

	result := ecs.IdentityTransform()
	result.Offset.Loc.SetS(
		blend(from.Pose.Offset.Loc.X, to.Pose.Offset.Loc.X, from.TangentPos.X, to.TangentPos.X),
		blend(from.Pose.Offset.Loc.Y, to.Pose.Offset.Loc.Y, from.TangentPos.Y, to.TangentPos.Y),
		blend(from.Pose.Offset.Loc.Z, to.Pose.Offset.Loc.Z, from.TangentPos.Z, to.TangentPos.Z),
	)
	result.Offset.Rot.Nlerp(from.Pose.Offset.Rot, to.Pose.Offset.Rot, t)
	result.Scale.SetS(
		blend(from.Pose.Scale.X, to.Pose.Scale.X, from.TangentScale.X, to.TangentScale.X),
		blend(from.Pose.Scale.Y, to.Pose.Scale.Y, from.TangentScale.Y, to.TangentScale.Y),
		blend(from.Pose.Scale.Z, to.Pose.Scale.Z, from.TangentScale.Z, to.TangentScale.Z),
	)
	return result
}

func (r *Runtime) writeSignalNamed(ctx *signal.Context, e ecs.Entity, name string, value float64) {
	ref := r.Refs.GetEntityRef(e)
	if ref == nil {
		return
	}
	sig := r.Refs.GetSignal(ecs.SignalKey{Entity: ref, Signal: name})
	r.Signals.SetValue(sig, value)
}
