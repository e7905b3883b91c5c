// Copyright © 2024 Galvanized Logic Inc.

package sim

import "github.com/lumenforge/lumen/ecs"

// triggers.go is spec §4.5 step 5: each trigger volume tests its actor's
// bounding sphere against every other actor's, recording the overlap set
// on TriggerArea and logging enter/leave transitions computed as the set
// difference against the previous frame (components.go's doc comment on
// TriggerArea). Grounded on the same bounding-sphere approximation
// character.go's probeGround already uses,
// since physics.Body exposes no native overlap-test primitive.

// updateTriggers is spec §4.5 step 5.
func (r *Runtime) updateTriggers(lock *ecs.Lock) {
	lock.Each([]ecs.Kind{ecs.KindTriggerArea}, func(e ecs.Entity) {
		ta, ok, err := ecs.Get[ecs.TriggerArea](lock, e)
		if !ok || err != nil {
			return
		}
		actor, ok := r.actors[e.ID]
		if !ok {
			return // trigger volume has no reconciled actor yet this frame.
		}
		body := r.backend.get(actor.BodyIndex)

		current := map[ecs.ID]bool{}
		for otherID, other := range r.actors {
			if otherID == e.ID {
				continue
			}
			otherBody := r.backend.get(other.BodyIndex)
			dx := body.Position().X - otherBody.Position().X
			dy := body.Position().Y - otherBody.Position().Y
			dz := body.Position().Z - otherBody.Position().Z
			reach := body.BoundingRadius() + otherBody.BoundingRadius()
			if dx*dx+dy*dy+dz*dz <= reach*reach {
				current[otherID] = true
			}
		}

		prev := r.triggerPrev[e.ID]
		for id := range current {
			if !prev[id] {
				r.Log.Debug().Str("trigger", ta.Group).Uint32("entered", uint32(id)).Msg("trigger enter")
			}
		}
		for id := range prev {
			if !current[id] {
				r.Log.Debug().Str("trigger", ta.Group).Uint32("left", uint32(id)).Msg("trigger leave")
			}
		}

		ta.Overlaps = current
		_ = ecs.Set(lock, e, ta)
		r.triggerPrev[e.ID] = current
	})
}
