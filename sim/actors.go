// Copyright © 2024 Galvanized Logic Inc.

package sim

import (
	"github.com/lumenforge/lumen/ecs"
	"github.com/lumenforge/lumen/math/lin"
	"github.com/lumenforge/lumen/physics"
)

// actors.go is the reconciliation core (spec §4.5.1): walk every entity
// carrying ecs.Physics and bring the backend physics.Body pool into
// agreement with it, then apply per-entity gravity. Grounded on
// original_source/src/physics/physx/PhysxManager.cc's actor-sync pass,
// adapted to physics.Body's one-collider-per-body constructor surface
// (NewSphere/NewBox/NewConvexHull each build exactly one collider, with
// no incremental add/remove-collider primitive) by diffing at the whole
// -actor level instead of per-shape: a multi-shape entity collapses to
// one approximate hull, a Capsule becomes a bounding Sphere, a Plane
// becomes a large thin Box. This is a disclosed simplification of the
// "walk the backend's current shapes" wording, not an oversight — see
// DESIGN.md.

// maxSceneDepth bounds the TransformTree walk sceneProperties performs
// to find an entity's governing scene root, mirroring
// signal.MaxSignalBindingDepth's role of turning a hypothetical cycle
// into a bounded no-op rather than an infinite loop.
const maxSceneDepth = 64

// backend is the stable-index pool of physics.Body values simulated
// each Phase 3. Indexes are reused via a free-list (entity.go's
// entityTable pattern) so Actor.BodyIndex stays valid across frames
// until the actor is destroyed.
type backend struct {
	bodies []physics.Body
	free   []int
}

// create installs b at a free (or newly appended) slot and returns its
// index.
func (p *backend) create(b physics.Body) int {
	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		p.bodies[idx] = b
		return idx
	}
	p.bodies = append(p.bodies, b)
	return len(p.bodies) - 1
}

// destroy tombstones idx with a tiny static sphere rather than a
// zero-value Body: a zero Body has fixed=false and inverse_mass=0,
// which divides by zero inside physics.Simulate's gravity computation.
func (p *backend) destroy(idx int) {
	p.bodies[idx] = *physics.NewSphere(0.0001, true)
	p.free = append(p.free, idx)
}

func (p *backend) get(idx int) *physics.Body { return &p.bodies[idx] }

// slice returns the live backing slice physics.Simulate mutates in
// place; no copy-back step is needed afterward.
func (p *backend) slice() []physics.Body { return p.bodies }

// shapeFingerprint is a cheap, comparable summary of a Physics
// component's shape list, used to detect "did the actor's geometry
// change" without walking individual backend shapes.
type shapeFingerprint struct {
	variant ecs.ShapeVariant
	model   string
	radius  float64
	extents lin.V3
}

func fingerprintOf(p ecs.Physics) []shapeFingerprint {
	out := make([]shapeFingerprint, len(p.Shapes))
	for i, s := range p.Shapes {
		f := shapeFingerprint{variant: s.Variant, model: s.Model}
		switch s.Variant {
		case ecs.ShapeSphere:
			f.radius = s.Radius
		case ecs.ShapeCapsule:
			f.radius = s.Radius
		case ecs.ShapeBox:
			f.extents = s.Extents
		case ecs.ShapePlane:
			f.extents = s.Extents
		}
		out[i] = f
	}
	return out
}

func fingerprintsEqual(a, b []shapeFingerprint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Actor is the engine-side record attached to every entity carrying
// ecs.Physics once reconciled. Physics.Body.UserData points back at its
// Actor so Phase 3's gravity pass (none needed — compensation happens
// here in Phase 2) and debugging can recover the ECS side from a body.
type Actor struct {
	Entity      ecs.Entity
	BodyIndex   int
	Type        ecs.PhysicsType
	Group       uint32
	shapes      []shapeFingerprint
	hullFuture  *hullFuture
	gravityLast lin.V3
	hasGravity  bool
}

// reconcileParentActors is spec §4.5 step 8: entities whose Physics has
// no HasParentActor (top-level actors), create-if-missing, type-change,
// shape-diff, kinematic/static pose push, and gravity.
func (r *Runtime) reconcileParentActors(lock *ecs.Lock) {
	lock.Each([]ecs.Kind{ecs.KindPhysics}, func(e ecs.Entity) {
		phys, ok, err := ecs.Get[ecs.Physics](lock, e)
		if !ok || err != nil || phys.HasParentActor {
			return
		}
		r.reconcileOne(lock, e, phys)
	})
}

// reconcileSubActors is spec §4.5 step 9: entities whose Physics names a
// parent actor get no body of their own; mergeSubActorShapes marks the
// named parent's actor for a rebuild. The sub-actor's shapes are not
// added to the parent's body.
func (r *Runtime) reconcileSubActors(lock *ecs.Lock) {
	lock.Each([]ecs.Kind{ecs.KindPhysics}, func(e ecs.Entity) {
		phys, ok, err := ecs.Get[ecs.Physics](lock, e)
		if !ok || err != nil || !phys.HasParentActor || phys.ParentActor == nil {
			return
		}
		parentID, ok := phys.ParentActor.Resolve(lock.Instance())
		if !ok {
			return
		}
		parent := ecs.Entity{ID: parentID, Instance: lock.Instance()}
		parentActor, ok := r.actors[parent.ID]
		if !ok {
			return // parent not yet reconciled this frame; picked up next frame.
		}
		r.mergeSubActorShapes(lock, e, phys, parentActor)
	})
}

func (r *Runtime) reconcileOne(lock *ecs.Lock, e ecs.Entity, phys ecs.Physics) {
	actor, existed := r.actors[e.ID]

	if existed && actor.Type != phys.Type {
		r.backend.destroy(actor.BodyIndex)
		delete(r.actors, e.ID)
		existed = false
	}

	fp := fingerprintOf(phys)

	if !existed {
		body, ready := r.buildBody(e, phys, fp)
		if !ready {
			return // convex-hull future not resolved yet; try again next frame.
		}
		idx := r.backend.create(*body)
		actor = &Actor{Entity: e, BodyIndex: idx, Type: phys.Type, Group: phys.Group, shapes: fp}
		r.backend.get(idx).UserData = actor
		r.actors[e.ID] = actor
	} else if !fingerprintsEqual(actor.shapes, fp) {
		body, ready := r.buildBody(e, phys, fp)
		if ready {
			old := r.backend.get(actor.BodyIndex)
			body.SetPosition(old.Position())
			body.SetRotation(old.Rotation())
			body.SetLinearVelocity(old.LinearVelocity())
			body.SetAngularVelocity(old.AngularVelocity())
			body.UserData = actor
			r.backend.bodies[actor.BodyIndex] = *body
			actor.shapes = fp
		}
	}

	r.pushPose(lock, e, phys, actor)
	r.applyGravity(lock, e, actor)
}

// buildBody constructs a fresh physics.Body for phys's shape list. Multi
// -shape entities merge into one convex hull; Capsule approximates as a
// Sphere of its Radius; Plane approximates as a large thin Box. ready is
// false only when a ConvexMesh shape's hull is still being computed
// asynchronously (spec §4.5.1 "await the future, non-blocking").
func (r *Runtime) buildBody(e ecs.Entity, phys ecs.Physics, fp []shapeFingerprint) (body *physics.Body, ready bool) {
	static := phys.Type == ecs.Static || phys.Type == ecs.Kinematic

	if len(phys.Shapes) == 0 {
		return physics.NewSphere(0.01, static), true
	}

	if len(phys.Shapes) == 1 {
		s := phys.Shapes[0]
		switch s.Variant {
		case ecs.ShapeSphere:
			return physics.NewSphere(s.Radius, static), true
		case ecs.ShapeCapsule:
			return physics.NewSphere(s.Radius, static), true
		case ecs.ShapeBox:
			return physics.NewBox(s.Extents.X, s.Extents.Y, s.Extents.Z, static), true
		case ecs.ShapePlane:
			return physics.NewBox(s.Extents.X, 0.01, s.Extents.Z, static), true
		case ecs.ShapeConvexMesh:
			return r.buildConvexBody(e, s, static)
		}
	}

	// Multiple shapes: merge every shape's local-space vertices into one
	// convex hull body. While any ConvexMesh shape's hull is unresolved no
	// body is built (the whole actor waits for the slowest shape).
	var verts []lin.V3
	var idxs []uint32
	for _, s := range phys.Shapes {
		switch s.Variant {
		case ecs.ShapeSphere, ecs.ShapeCapsule:
			verts = append(verts, boxVertices(s.Radius, s.Radius, s.Radius)...)
		case ecs.ShapeBox:
			verts = append(verts, boxVertices(s.Extents.X, s.Extents.Y, s.Extents.Z)...)
		case ecs.ShapePlane:
			verts = append(verts, boxVertices(s.Extents.X, 0.01, s.Extents.Z)...)
		case ecs.ShapeConvexMesh:
			set, ok := r.pollHull(e, s)
			if !ok {
				return nil, false
			}
			for _, h := range set.Hulls {
				verts = append(verts, h.Vertices...)
			}
		}
	}
	for i := 0; i+2 < len(verts); i += 3 {
		idxs = append(idxs, uint32(i), uint32(i+1), uint32(i+2))
	}
	return physics.NewConvexHull(verts, idxs, static), true
}

func boxVertices(hx, hy, hz float64) []lin.V3 {
	return []lin.V3{
		{X: -hx, Y: -hy, Z: -hz}, {X: hx, Y: -hy, Z: -hz}, {X: hx, Y: hy, Z: -hz},
		{X: -hx, Y: hy, Z: -hz}, {X: -hx, Y: -hy, Z: hz}, {X: hx, Y: -hy, Z: hz},
		{X: hx, Y: hy, Z: hz}, {X: -hx, Y: hy, Z: hz},
	}
}

// pushPose writes the actor's authoritative transform into the backend
// body: Kinematic/Static actors are driven by the ECS pose (spec
// §4.5.1 "kinematic target / static pose"); Dynamic actors are left to
// the solver and read back in snapshot.go's write-back step instead.
func (r *Runtime) pushPose(lock *ecs.Lock, e ecs.Entity, phys ecs.Physics, actor *Actor) {
	if phys.Type != ecs.Kinematic && phys.Type != ecs.Static {
		return
	}
	tt, ok, err := ecs.Get[ecs.TransformTree](lock, e)
	if !ok || err != nil {
		return
	}
	body := r.backend.get(actor.BodyIndex)
	body.SetPosition(*tt.Pose.Offset.Loc)
	body.SetRotation(*tt.Pose.Offset.Rot)
}

// applyGravity is spec §4.5.1's gravity step: read the owning scene's
// SceneProperties.GetGravity at the actor's position and, since
// physics.Simulate hardcodes a single global downward force, add a
// compensating force so the net acceleration matches the per-entity
// value. The body wakes when its effective gravity changes, except when
// it is already asleep and the new gravity is exactly zero (no reason
// to wake a sleeping body into stillness).
func (r *Runtime) applyGravity(lock *ecs.Lock, e ecs.Entity, actor *Actor) {
	body := r.backend.get(actor.BodyIndex)
	if body.IsFixed() {
		return
	}
	props, ok, err := r.sceneProperties(lock, e)
	if !ok || err != nil {
		return
	}
	desired := props.GetGravity(body.Position())
	const defaultGravityY = -10.0

	if !actor.hasGravity || desired != actor.gravityLast {
		zero := desired.X == 0 && desired.Y == 0 && desired.Z == 0
		if !(body.IsActive() == false && zero) {
			body.Wake()
		}
		actor.gravityLast = desired
		actor.hasGravity = true
	}

	mass := body.Mass()
	if mass <= 0 {
		return
	}
	extra := lin.V3{X: (desired.X - 0) * mass, Y: (desired.Y - defaultGravityY) * mass, Z: (desired.Z - 0) * mass}
	body.AddForce(body.Position(), extra, true)
}

// sceneProperties finds the SceneProperties component governing e. This
// engine attaches one SceneProperties per scene root rather than
// per-entity, so the lookup walks up the TransformTree to the root.
func (r *Runtime) sceneProperties(lock *ecs.Lock, e ecs.Entity) (ecs.SceneProperties, bool, error) {
	cur := e
	for i := 0; i < maxSceneDepth; i++ {
		if props, ok, err := ecs.Get[ecs.SceneProperties](lock, cur); ok || err != nil {
			return props, ok, err
		}
		tt, ok, err := ecs.Get[ecs.TransformTree](lock, cur)
		if !ok || err != nil || !tt.HasParent || tt.Parent == nil {
			break
		}
		parentID, ok := tt.Parent.Resolve(lock.Instance())
		if !ok {
			break
		}
		cur = ecs.Entity{ID: parentID, Instance: lock.Instance()}
	}
	return ecs.SceneProperties{}, false, nil
}

// mergeSubActorShapes clears the parent actor's cached fingerprint
// whenever the sub-actor has shapes, so the parent body is rebuilt on the
// next reconcileParentActors pass. That rebuild uses the parent entity's
// own Physics shapes only: the sub-actor's shapes are not added to the
// parent's body, and a separate per-shape attach point isn't
// representable given physics.Body's single-collider construction.
func (r *Runtime) mergeSubActorShapes(lock *ecs.Lock, e ecs.Entity, phys ecs.Physics, parent *Actor) {
	subFp := fingerprintOf(phys)
	combined := append(append([]shapeFingerprint{}, parent.shapes...), subFp...)
	if fingerprintsEqual(parent.shapes, combined) {
		return
	}
	parent.shapes = combined
	// Force parent rebuild on next reconcileParentActors pass by clearing
	// its cached fingerprint back to something that won't match.
	parent.shapes = nil
}
