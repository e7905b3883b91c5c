// Copyright © 2024 Galvanized Logic Inc.

package physics

import (
	"github.com/lumenforge/lumen/math/lin"
)

// appliedForce is a force vector applied at a point, accumulated each
// frame and cleared after the solver consumes it.
//
//	appliedForce : ../entity.cpp's add_force point/force pair.
type appliedForce struct {
	position lin.V3 // world-space application point.
	newtons  lin.V3 // force magnitude and direction.
}

// Body is one rigid entity participating in the PBD simulation.
// Body IDs (bid) are exactly the index into the bodies slice handed to
// Simulate and are only valid for that one simulation run. Simulate
// updates the slice elements in place, not the values returned by
// NewSphere/NewBox/NewConvexHull, so callers that need a stable handle
// across frames keep each body at a fixed index of the slice they pass
// and store engine-specific bookkeeping in UserData.
type Body struct {
	fixed  bool // true for static/unmoving bodies (inverse_mass == 0).
	active bool // false once the body's simulation island went to sleep.

	deactivation_time float64

	world_position lin.V3
	world_rotation lin.Q
	world_scale    lin.V3

	previous_world_position lin.V3
	previous_world_rotation lin.Q

	linear_velocity           lin.V3
	angular_velocity          lin.V3
	previous_linear_velocity  lin.V3
	previous_angular_velocity lin.V3

	inverse_mass           float64
	inertia_tensor         lin.M3
	inverse_inertia_tensor lin.M3
	bounding_sphere_radius float64

	static_friction_coefficient  float64
	dynamic_friction_coefficient float64
	restitution_coefficient     float64

	colliders []collider
	forces    []appliedForce

	// UserData is opaque engine bookkeeping (e.g. the sim package's actor
	// record) attached at actor-reconciliation time. Physics never reads it.
	UserData any
}

// body_create_ex constructs a body at the given pose with the given
// colliders and material properties. A zero or negative mass, or static
// true, produces a fixed (immovable) body.
func body_create_ex(world_position lin.V3, world_rotation lin.Q, world_scale lin.V3, mass float64,
	colliders []collider, static_friction_coefficient, dynamic_friction_coefficient, restitution_coefficient float64,
	static bool) *Body {
	b := &Body{
		world_position:               world_position,
		world_rotation:               world_rotation,
		world_scale:                  world_scale,
		previous_world_position:      world_position,
		previous_world_rotation:      world_rotation,
		colliders:                    colliders,
		static_friction_coefficient:  static_friction_coefficient,
		dynamic_friction_coefficient: dynamic_friction_coefficient,
		restitution_coefficient:      restitution_coefficient,
		active:                       true,
	}
	if static || mass <= 0 {
		b.fixed = true
		b.inverse_mass = 0
	} else {
		b.fixed = false
		b.inverse_mass = 1.0 / mass
	}
	b.bounding_sphere_radius = colliders_bounding_radius(colliders)
	b.inertia_tensor, b.inverse_inertia_tensor = body_inertia_tensors(mass, b.bounding_sphere_radius, b.fixed)
	return b
}

// colliders_bounding_radius returns the radius of a sphere, centered at
// the body origin, that contains every collider attached to the body.
func colliders_bounding_radius(colliders []collider) float64 {
	radius := 0.0
	for i := range colliders {
		c := &colliders[i]
		switch c.ctype {
		case collider_TYPE_SPHERE:
			r := float64(c.sphere.radius)
			if r > radius {
				radius = r
			}
		case collider_TYPE_CONVEX_HULL:
			for _, v := range c.convex_hull.vertices {
				if d := v.Len(); d > radius {
					radius = d
				}
			}
		}
	}
	return radius
}

// body_inertia_tensors approximates the inertia tensor as a solid sphere
// of the body's bounding radius. This is a deliberate simplification: the
// PBD solver only needs a plausible, invertible tensor to resolve angular
// response, not an exact one per collider shape.
func body_inertia_tensors(mass, radius float64, fixed bool) (lin.M3, lin.M3) {
	tensor := lin.M3{}
	inverse := lin.M3{}
	if fixed || mass <= 0 || radius <= 0 {
		return tensor, inverse
	}
	i := 0.4 * mass * radius * radius
	tensor.Xx, tensor.Yy, tensor.Zz = i, i, i
	if i > 0 {
		inverse.Xx, inverse.Yy, inverse.Zz = 1/i, 1/i, 1/i
	}
	return tensor, inverse
}

// body_get_by_id returns the body at the given index within the slice
// most recently passed to Simulate. Panics (index out of range) if called
// outside a simulation with a stale id, matching the original's raw
// array-indexing semantics.
func body_get_by_id(id bid) *Body { return &bodies[id] }

// SetPosition places the body at the given world position.
func (b *Body) SetPosition(position lin.V3) { b.world_position = position }

// SetRotation orients the body using the given world rotation.
func (b *Body) SetRotation(rotation lin.Q) { b.world_rotation = rotation }

// SetScale resizes the body. Colliders are expected to already be built
// at the desired scale; this only records the value for reporting.
func (b *Body) SetScale(scale lin.V3) { b.world_scale = scale }

// Position returns the body's current world position.
func (b *Body) Position() lin.V3 { return b.world_position }

// Rotation returns the body's current world rotation.
func (b *Body) Rotation() lin.Q { return b.world_rotation }

// Scale returns the body's recorded world scale.
func (b *Body) Scale() lin.V3 { return b.world_scale }

// LinearVelocity returns the current linear velocity in meters per second.
func (b *Body) LinearVelocity() lin.V3 { return b.linear_velocity }

// SetLinearVelocity directly sets the linear velocity.
func (b *Body) SetLinearVelocity(v lin.V3) { b.linear_velocity = v }

// AngularVelocity returns the current angular velocity.
func (b *Body) AngularVelocity() lin.V3 { return b.angular_velocity }

// SetAngularVelocity directly sets the angular velocity.
func (b *Body) SetAngularVelocity(v lin.V3) { b.angular_velocity = v }

// IsFixed reports whether the body is static (zero inverse mass).
func (b *Body) IsFixed() bool { return b.fixed }

// IsActive reports whether the body's simulation island is currently awake.
func (b *Body) IsActive() bool { return b.active }

// Wake marks the body (and the island it is part of) active again,
// resetting the deactivation timer.
func (b *Body) Wake() {
	b.active = true
	b.deactivation_time = 0
}

// BoundingRadius returns the radius of the sphere, centered at the
// body's world position, that contains every attached collider. Used by
// the sim package's trigger-overlap and raycast approximations, which
// treat every body as its bounding sphere rather than reaching into
// collider internals.
func (b *Body) BoundingRadius() float64 { return b.bounding_sphere_radius }

// Mass returns the body's mass, or 0 for fixed bodies.
func (b *Body) Mass() float64 {
	if b.inverse_mass == 0 {
		return 0
	}
	return 1.0 / b.inverse_mass
}

// AddForce accumulates a force to be applied for the next simulation
// substep. When global is true, position is a world-space application
// point; otherwise it is an offset from the body's center of mass.
func (b *Body) AddForce(position, force lin.V3, global bool) {
	if !global {
		position.Add(&position, &b.world_position)
	}
	b.forces = append(b.forces, appliedForce{position: position, newtons: force})
}

// clear_forces discards all forces accumulated this step.
func (b *Body) clear_forces() { b.forces = b.forces[:0] }
