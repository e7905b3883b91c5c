// Copyright © 2024 Galvanized Logic Inc.

package sim

import (
	"github.com/lumenforge/lumen/ecs"
	"github.com/lumenforge/lumen/math/lin"
)

// queries.go is spec §4.5 step 11: resolve each pending PhysicsQuery
// against the backend's actors. Grounded on the same bounding-sphere
// approximation used throughout sim (character.go's probeGround,
// triggers.go's overlap test), since
// physics.Body exposes no native raycast/sweep primitive. Sweep is
// treated as a raycast thickened by the requesting actor's own bounding
// radius, not a true swept-volume test.

// resolveQueries is spec §4.5 step 11.
func (r *Runtime) resolveQueries(lock *ecs.Lock) {
	lock.Each([]ecs.Kind{ecs.KindPhysicsQuery}, func(e ecs.Entity) {
		q, ok, err := ecs.Get[ecs.PhysicsQuery](lock, e)
		if !ok || err != nil || q.Resolved {
			return
		}

		switch q.Type {
		case ecs.QueryRaycast, ecs.QuerySweep:
			r.resolveCast(e, &q)
		case ecs.QueryOverlap:
			r.resolveOverlap(e, &q)
		}
		q.Resolved = true
		_ = ecs.Set(lock, e, q)
	})
}

func (r *Runtime) resolveCast(self ecs.Entity, q *ecs.PhysicsQuery) {
	dir := q.Direction
	dir.Unit()

	padding := 0.0
	if q.Type == ecs.QuerySweep {
		if actor, ok := r.actors[self.ID]; ok {
			padding = r.backend.get(actor.BodyIndex).BoundingRadius()
		}
	}

	bestDist := q.MaxDistance
	hit := false
	var hitPoint lin.V3
	var hitEntity ecs.ID

	for id, actor := range r.actors {
		if id == self.ID || (q.FilterGroup != 0 && actor.Group != q.FilterGroup) {
			continue
		}
		body := r.backend.get(actor.BodyIndex)
		pos := body.Position()
		toBody := lin.V3{}
		toBody.Sub(&pos, &q.Origin)

		along := toBody.Dot(&dir)
		if along < 0 || along > bestDist {
			continue
		}
		closest := lin.V3{}
		closest.Scale(&dir, along)
		closest.Add(&closest, &q.Origin)
		offset := lin.V3{}
		offset.Sub(&pos, &closest)
		reach := body.BoundingRadius() + padding
		if offset.LenSqr() > reach*reach {
			continue
		}
		if !hit || along < bestDist {
			hit = true
			bestDist = along
			hitPoint = closest
			hitEntity = id
		}
	}

	q.Hit = hit
	if hit {
		q.HitPoint = hitPoint
		q.HitEntity = hitEntity
	}
}

func (r *Runtime) resolveOverlap(self ecs.Entity, q *ecs.PhysicsQuery) {
	radius := 0.0
	if actor, ok := r.actors[self.ID]; ok {
		radius = r.backend.get(actor.BodyIndex).BoundingRadius()
	}
	if q.MaxDistance > radius {
		radius = q.MaxDistance
	}

	for id, actor := range r.actors {
		if id == self.ID || (q.FilterGroup != 0 && actor.Group != q.FilterGroup) {
			continue
		}
		body := r.backend.get(actor.BodyIndex)
		pos := body.Position()
		delta := lin.V3{}
		delta.Sub(&pos, &q.Origin)
		reach := radius + body.BoundingRadius()
		if delta.LenSqr() <= reach*reach {
			q.Hit = true
			q.HitPoint = pos
			q.HitEntity = id
			return
		}
	}
	q.Hit = false
}
