// Copyright © 2024 Galvanized Logic Inc.

package sim

import (
	"math"

	"github.com/lumenforge/lumen/ecs"
	"github.com/lumenforge/lumen/math/lin"
)

// lasers.go is spec §4.5 steps 12 and 14: raycast-and-reflect each
// LaserEmitter off OpticalElement surfaces up to its bounce budget,
// adding its current intensity to the LaserSensor of every surface it
// hits, then (step 14,
// debug-flag gated) dump a position cross for every active actor into
// any LaserLine marked Debug. Grounded on the same bounding-sphere
// surface model queries.go and triggers.go use, since physics.Body has
// no per-shape raycast primitive — here refined to an actual ray-sphere
// intersection (rather than a coarse along-ray distance check) since
// laser propagation needs a real hit point and surface normal to
// reflect off of.

// opticalSurface is one OpticalElement candidate a laser might hit,
// snapshotted once per propagateLasers call rather than re-queried per
// bounce.
type opticalSurface struct {
	entity ecs.ID
	pos    lin.V3
	radius float64
	elem   ecs.OpticalElement
}

// propagateLasers is spec §4.5 step 12.
func (r *Runtime) propagateLasers(lock *ecs.Lock) {
	var surfaces []opticalSurface
	lock.Each([]ecs.Kind{ecs.KindOpticalElement}, func(e ecs.Entity) {
		elem, ok, err := ecs.Get[ecs.OpticalElement](lock, e)
		if !ok || err != nil {
			return
		}
		actor, ok := r.actors[e.ID]
		if !ok {
			return
		}
		body := r.backend.get(actor.BodyIndex)
		surfaces = append(surfaces, opticalSurface{entity: e.ID, pos: body.Position(), radius: body.BoundingRadius(), elem: elem})
	})

	lock.Each([]ecs.Kind{ecs.KindLaserEmitter, ecs.KindTransformSnapshot}, func(e ecs.Entity) {
		emitter, ok, err := ecs.Get[ecs.LaserEmitter](lock, e)
		if !ok || err != nil {
			return
		}
		snap, ok, err := ecs.Get[ecs.TransformSnapshot](lock, e)
		if !ok || err != nil {
			return
		}

		origin := *snap.World.Offset.Loc
		dir := emitter.Direction
		dir.Unit()
		intensity := emitter.Intensity
		bounces := emitter.MaxBounces
		if bounces <= 0 {
			bounces = 1
		}

		var segments []ecs.LaserSegment
		for i := 0; i < bounces && intensity > 0; i++ {
			hit, ok := closestOpticalHit(origin, dir, surfaces)
			if !ok {
				far := lin.V3{}
				far.Scale(&dir, 1000)
				far.Add(&far, &origin)
				segments = append(segments, ecs.LaserSegment{Start: origin, End: far})
				break
			}

			segments = append(segments, ecs.LaserSegment{Start: origin, End: hit.point})
			r.depositLaserSensor(lock, hit.surface.entity, intensity)

			if hit.surface.elem.Absorptive {
				break
			}
			intensity *= hit.surface.elem.Reflectivity

			dn := dir.Dot(&hit.normal)
			reflected := lin.V3{}
			reflected.Scale(&hit.normal, 2*dn)
			next := lin.V3{}
			next.Sub(&dir, &reflected)
			dir = next
			origin = hit.point
		}

		line, _, _ := ecs.Get[ecs.LaserLine](lock, e)
		line.Segments = segments
		_ = ecs.Set(lock, e, line)
	})
}

type opticalHit struct {
	point   lin.V3
	normal  lin.V3
	surface opticalSurface
}

// closestOpticalHit finds the nearest ray-sphere intersection among
// surfaces, treating each OpticalElement's actor bounding sphere as its
// reflective surface.
func closestOpticalHit(origin, dir lin.V3, surfaces []opticalSurface) (opticalHit, bool) {
	best := opticalHit{}
	bestT := -1.0
	for _, s := range surfaces {
		toCenter := lin.V3{}
		toCenter.Sub(&s.pos, &origin)
		tca := toCenter.Dot(&dir)
		if tca < 0 {
			continue
		}
		d2 := toCenter.LenSqr() - tca*tca
		r2 := s.radius * s.radius
		if d2 > r2 {
			continue
		}
		thc := math.Sqrt(r2 - d2)
		t0 := tca - thc
		if t0 < 0 {
			continue
		}
		if bestT < 0 || t0 < bestT {
			bestT = t0
			point := lin.V3{}
			point.Scale(&dir, t0)
			point.Add(&point, &origin)
			normal := lin.V3{}
			normal.Sub(&point, &s.pos)
			normal.Unit()
			best = opticalHit{point: point, normal: normal, surface: s}
		}
	}
	return best, bestT >= 0
}

func (r *Runtime) depositLaserSensor(lock *ecs.Lock, id ecs.ID, intensity float64) {
	e := ecs.Entity{ID: id, Instance: lock.Instance()}
	sensor, ok, err := ecs.Get[ecs.LaserSensor](lock, e)
	if !ok || err != nil {
		return
	}
	sensor.Intensity += intensity
	_ = ecs.Set(lock, e, sensor)
}

// dumpDebugLines is spec §4.5 step 14: when debug rendering is enabled,
// mark every actor's current position on any LaserLine flagged Debug.
// physics.Body has no debug-line buffer of its own to drain, so this
// draws a small axis cross at each active body instead of the backend's
// internal solver state (documented simplification, see DESIGN.md).
func (r *Runtime) dumpDebugLines(lock *ecs.Lock) {
	if !r.Debug {
		return
	}
	const armLength = 0.1

	lock.Each([]ecs.Kind{ecs.KindLaserLine}, func(e ecs.Entity) {
		line, ok, err := ecs.Get[ecs.LaserLine](lock, e)
		if !ok || err != nil || !line.Debug {
			return
		}
		segments := make([]ecs.LaserSegment, 0, len(r.actors)*3)
		for _, actor := range r.actors {
			p := r.backend.get(actor.BodyIndex).Position()
			segments = append(segments,
				ecs.LaserSegment{Start: lin.V3{X: p.X - armLength, Y: p.Y, Z: p.Z}, End: lin.V3{X: p.X + armLength, Y: p.Y, Z: p.Z}},
				ecs.LaserSegment{Start: lin.V3{X: p.X, Y: p.Y - armLength, Z: p.Z}, End: lin.V3{X: p.X, Y: p.Y + armLength, Z: p.Z}},
				ecs.LaserSegment{Start: lin.V3{X: p.X, Y: p.Y, Z: p.Z - armLength}, End: lin.V3{X: p.X, Y: p.Y, Z: p.Z + armLength}},
			)
		}
		line.Segments = segments
		_ = ecs.Set(lock, e, line)
	})
}
