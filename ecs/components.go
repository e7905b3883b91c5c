// Copyright © 2024 Galvanized Logic Inc.

package ecs

import (
	"reflect"

	"github.com/lumenforge/lumen/math/lin"
)

// components.go is the tagged-variant dispatch spec §9 Design Notes calls
// for: an enum of component-kind ids (Kind) plus typed storage registered
// once at package init, replacing the source's variadic-template "for
// each component type" expansion. Grounded on gazed-vu/app.go's per-kind
// component manager aggregation (app.povs, app.bodies, ...), generalized
// into one data-oriented table per kind (registry.go) instead of one Go
// field per kind.

// Kind enumerates every statically-known component type. Two pseudo-
// components are reserved by spec §3: Name and SceneInfo.
type Kind uint8

const (
	KindName Kind = iota
	KindSceneInfo
	KindTransform
	KindTransformTree
	KindTransformSnapshot
	KindPhysics
	KindCharacterController
	KindTriggerArea
	KindPhysicsJoints
	KindOpticalElement
	KindPhysicsQuery
	KindLaserEmitter
	KindLaserLine
	KindLaserSensor
	KindEventInput
	KindLightSensor
	KindSceneProperties
	KindScript
	KindAnimation
	KindSignalOutput
	KindSignalBindings
	numKinds
)

var kindNames = [numKinds]string{
	KindName:                "Name",
	KindSceneInfo:           "SceneInfo",
	KindTransform:           "Transform",
	KindTransformTree:       "TransformTree",
	KindTransformSnapshot:   "TransformSnapshot",
	KindPhysics:             "Physics",
	KindCharacterController: "CharacterController",
	KindTriggerArea:         "TriggerArea",
	KindPhysicsJoints:       "PhysicsJoints",
	KindOpticalElement:      "OpticalElement",
	KindPhysicsQuery:        "PhysicsQuery",
	KindLaserEmitter:        "LaserEmitter",
	KindLaserLine:           "LaserLine",
	KindLaserSensor:         "LaserSensor",
	KindEventInput:          "EventInput",
	KindLightSensor:         "LightSensor",
	KindSceneProperties:     "SceneProperties",
	KindScript:              "Script",
	KindAnimation:           "Animation",
	KindSignalOutput:        "SignalOutput",
	KindSignalBindings:      "SignalBindings",
}

// AllKinds returns every registered component Kind, for callers (scene
// loading, flattening) that need an AccessSet spanning the whole
// component set rather than the physics frame's fixed list.
func AllKinds() []Kind {
	kinds := make([]Kind, numKinds)
	for k := range kinds {
		kinds[k] = Kind(k)
	}
	return kinds
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// kindByType maps the Go type stored for a component to its Kind, filled
// in by registerKind below. FieldReader lookups (signal §4.3 component
// field access) go the other way, by name, via kindByName.
var kindByType = map[reflect.Type]Kind{}
var kindByName = map[string]Kind{}

// kindRemover deletes an entity's component of kind k from its typed
// backing map without the caller needing to know the static Go type T.
// Populated once per kind at registration time (below), since only the
// registerKind[T] call site knows T — this is the closure half of the
// "tagged-variant dispatch" Design Notes call for (the vtable half is
// the Kind enum itself; registry.go's removeRaw is the dispatch site).
var kindRemovers [numKinds]func(stores *[numKinds]any, idx uint32)

// kindFieldReaders holds, for each Kind whose Go type implements
// FieldReader, a closure that projects one stored value's named field
// to a float64 without the caller needing the static type T. Used by
// signal expressions' `entity#component.field` production (spec §3,
// §6), which reads by component name, not by Go type.
var kindFieldReaders [numKinds]func(stores *[numKinds]any, idx uint32, field string) (float64, bool)

// kindCopiers holds, for each Kind, a closure that copies one stored
// value from a source store/index into a destination store/index
// without the caller needing the static type T. Used by flatten.go to
// merge staging-instance components onto their live-instance entity
// (spec §3 "the live instance is populated by flattening stagings").
var kindCopiers [numKinds]func(src *[numKinds]any, srcIdx uint32, dst *[numKinds]any, dstIdx uint32) bool

func registerKind[T any](k Kind) {
	var zero T
	t := reflect.TypeOf(zero)
	kindByType[t] = k
	kindByName[kindNames[k]] = k
	kindRemovers[k] = func(stores *[numKinds]any, idx uint32) {
		if stores[k] == nil {
			return
		}
		m := stores[k].(map[uint32]T)
		delete(m, idx)
	}
	kindCopiers[k] = func(src *[numKinds]any, srcIdx uint32, dst *[numKinds]any, dstIdx uint32) bool {
		if src[k] == nil {
			return false
		}
		sm := src[k].(map[uint32]T)
		v, ok := sm[srcIdx]
		if !ok {
			return false
		}
		if dst[k] == nil {
			dst[k] = map[uint32]T{}
		}
		dm := dst[k].(map[uint32]T)
		dm[dstIdx] = v
		return true
	}
	_ = k // silences "declared and not used" when a future Kind has no other closure referencing k directly
	if _, ok := any(zero).(FieldReader); ok {
		kindFieldReaders[k] = func(stores *[numKinds]any, idx uint32, field string) (float64, bool) {
			if stores[k] == nil {
				return 0, false
			}
			m := stores[k].(map[uint32]T)
			v, ok := m[idx]
			if !ok {
				return 0, false
			}
			return any(v).(FieldReader).Field(field)
		}
	}
}

func init() {
	registerKind[Name](KindName)
	registerKind[SceneInfo](KindSceneInfo)
	registerKind[Transform](KindTransform)
	registerKind[TransformTree](KindTransformTree)
	registerKind[TransformSnapshot](KindTransformSnapshot)
	registerKind[Physics](KindPhysics)
	registerKind[CharacterController](KindCharacterController)
	registerKind[TriggerArea](KindTriggerArea)
	registerKind[PhysicsJoints](KindPhysicsJoints)
	registerKind[OpticalElement](KindOpticalElement)
	registerKind[PhysicsQuery](KindPhysicsQuery)
	registerKind[LaserEmitter](KindLaserEmitter)
	registerKind[LaserLine](KindLaserLine)
	registerKind[LaserSensor](KindLaserSensor)
	registerKind[EventInput](KindEventInput)
	registerKind[LightSensor](KindLightSensor)
	registerKind[SceneProperties](KindSceneProperties)
	registerKind[Script](KindScript)
	registerKind[Animation](KindAnimation)
	registerKind[SignalOutput](KindSignalOutput)
	registerKind[SignalBindings](KindSignalBindings)
}

func kindFor[T any]() Kind {
	var zero T
	t := reflect.TypeOf(zero)
	k, ok := kindByType[t]
	if !ok {
		panic("ecs: unregistered component type " + t.String())
	}
	return k
}

// FieldReader is implemented by components that expose numeric fields to
// signal expressions via the `entity#component.field` production (spec
// §3 Expression, §6 grammar). Components that don't implement it are
// simply not physics-readable, per spec §3 "not all components are
// physics-readable."
type FieldReader interface {
	Field(name string) (float64, bool)
}

// Name is a reserved pseudo-component: a (scene, local) pair unique
// within its owning Instance (spec §3 Invariant 1), interned via the
// Reference Manager.
type Name struct {
	Scene string
	Local string
}

// SceneInfo is a reserved pseudo-component carrying back-pointers to the
// owning scene, the prefab that produced the entity (if any), and the
// linked list of overriding stagings (spec §3).
type SceneInfo struct {
	Scene          string
	Prefab         string
	RootStagingID  ID
	NextStagingID  ID
	HasRootStaging bool
	HasNextStaging bool
}

// Transform is a (mat4 offset, vec3 scale) pair equivalent to TRS
// (spec §3). Offset excludes scale/shear, matching math/lin.T.
type Transform struct {
	Offset lin.T
	Scale  lin.V3
}

// IdentityTransform returns a Transform at the origin with no rotation
// and unit scale. lin.T's Loc/Rot are pointers with no usable zero
// value, so every fresh Transform a caller builds (rather than reading
// from storage) goes through this rather than a literal.
func IdentityTransform() Transform {
	return Transform{Offset: *lin.NewT(), Scale: lin.V3{X: 1, Y: 1, Z: 1}}
}

func (t Transform) Field(name string) (float64, bool) {
	switch name {
	case "x":
		return t.Offset.Loc.X, true
	case "y":
		return t.Offset.Loc.Y, true
	case "z":
		return t.Offset.Loc.Z, true
	case "scale_x":
		return t.Scale.X, true
	case "scale_y":
		return t.Scale.Y, true
	case "scale_z":
		return t.Scale.Z, true
	}
	return 0, false
}

// TransformTree attaches an optional parent EntityRef and a local pose
// to an entity (spec §3).
type TransformTree struct {
	Parent    *EntityRef
	Pose      Transform
	HasParent bool
}

// TransformSnapshot is the flattened global pose recomputed each
// physics frame (spec §3, Invariant 3).
type TransformSnapshot struct {
	World Transform
}

func (t TransformSnapshot) Field(name string) (float64, bool) {
	return t.World.Field(name)
}

// PhysicsType enumerates the kinds of physics actors spec §3 defines.
type PhysicsType uint8

const (
	Static PhysicsType = iota
	Dynamic
	Kinematic
	SubActor
)

func (t PhysicsType) String() string {
	switch t {
	case Static:
		return "Static"
	case Dynamic:
		return "Dynamic"
	case Kinematic:
		return "Kinematic"
	case SubActor:
		return "SubActor"
	}
	return "Unknown"
}

// ShapeVariant enumerates the PhysicsShape variants from spec §3.
type ShapeVariant uint8

const (
	ShapeSphere ShapeVariant = iota
	ShapeCapsule
	ShapeBox
	ShapePlane
	ShapeConvexMesh
)

// Material is the (static_μ, dynamic_μ, restitution) triple attached to
// every PhysicsShape (spec §3).
type Material struct {
	StaticFriction  float64
	DynamicFriction float64
	Restitution     float64
}

// PhysicsShape is one shape attached to a Physics component, carrying a
// local Transform offset and material (spec §3).
type PhysicsShape struct {
	Variant  ShapeVariant
	Offset   Transform
	Material Material

	// Sphere
	Radius float64
	// Capsule
	HalfHeight float64
	// Box
	Extents lin.V3
	// ConvexMesh
	Model            string
	HullSettingsName string
}

// Physics is the component that drives actor reconciliation (spec §3,
// §4.5.1). At most one per entity (Invariant 2).
type Physics struct {
	Shapes                  []PhysicsShape
	Type                    PhysicsType
	Group                   uint32
	Mass                    float64
	Density                 float64
	AngularDamping          float64
	LinearDamping           float64
	ContactReportThreshold  float64
	ParentActor             *EntityRef
	HasParentActor          bool
}

// CharacterController drives the capsule-sweep character movement
// sub-step (spec §4.5 step 2).
type CharacterController struct {
	Radius       float64
	HalfHeight   float64
	MoveSignal   string // signal key name, relative to the owning entity
	Grounded     bool
	Velocity     lin.V3
}

// TriggerArea marks an entity's shape as a trigger-overlap volume,
// grouped for set-difference enter/leave events (spec §4.5 step 5).
type TriggerArea struct {
	Group      string
	Overlaps   map[ID]bool
}

// JointType enumerates the constraint kinds spec §4.5 step 10 describes.
type JointType uint8

const (
	JointForce JointType = iota
	JointNoClip
	JointTemporaryNoClip
)

// Joint is one constraint between this entity's actor and Other.
type Joint struct {
	Type        JointType
	Other       *EntityRef
	ForceLimit  float64
	TorqueLimit float64
}

// PhysicsJoints is the set of constraints an entity's actor participates
// in (spec §4.5 step 10).
type PhysicsJoints struct {
	Joints []Joint
}

// OpticalElement is a laser-reflective surface consulted during laser
// propagation (spec §4.5 step 12).
type OpticalElement struct {
	Reflectivity float64
	Absorptive   bool
}

// QueryType enumerates the physics query kinds spec §4.5 step 11 names.
type QueryType uint8

const (
	QueryRaycast QueryType = iota
	QuerySweep
	QueryOverlap
)

// PhysicsQuery is a pending raycast/sweep/overlap request, resolved
// during the physics frame (spec §4.5 step 11).
type PhysicsQuery struct {
	Type        QueryType
	Origin      lin.V3
	Direction   lin.V3
	MaxDistance float64
	FilterGroup uint32

	Resolved bool
	Hit      bool
	HitPoint lin.V3
	HitEntity ID
}

// LaserSegment is one bounce leg of a propagated laser path.
type LaserSegment struct {
	Start lin.V3
	End   lin.V3
}

// LaserEmitter repeatedly raycast-and-reflects up to a fixed bounce
// budget (spec §4.5 step 12).
type LaserEmitter struct {
	Direction   lin.V3
	MaxBounces  int
	Intensity   float64
}

// LaserLine holds the accumulated path segments for an emitter, or, when
// Debug is set, the backend's debug render buffer (spec §4.5 step 14).
type LaserLine struct {
	Segments []LaserSegment
	Debug    bool
}

// LaserSensor accumulates intensity deposited by laser hits.
type LaserSensor struct {
	Intensity float64
}

// InputEvent is one OS/window event dispatched to a subscribed entity's
// EventInput queue (spec §4.5 step 1).
type InputEvent struct {
	Name string
	X, Y float64
}

// EventInput is a FIFO queue of input events for one entity (spec §5
// "Event queues are FIFO per subscriber.").
type EventInput struct {
	Events []InputEvent
}

// LightSensor reads ambient light for scripts/signals; left as a scalar
// reading since lighting computation itself is a rendering concern
// (spec §1 Non-goals).
type LightSensor struct {
	Reading float64
}

func (l LightSensor) Field(name string) (float64, bool) {
	if name == "reading" {
		return l.Reading, true
	}
	return 0, false
}

// SceneProperties holds per-scene simulation parameters such as gravity
// (spec §4.5.1 step 7).
type SceneProperties struct {
	Gravity lin.V3
}

// GetGravity returns the gravity vector to apply at the given world
// position. Uniform gravity for now; left as a method so a future
// position-dependent field (e.g. a gravity well) stays a one-line change.
func (s SceneProperties) GetGravity(position lin.V3) lin.V3 { return s.Gravity }

// Script names the registered script to run against this entity during
// the physics frame's step 13 (spec §4.5 step 13).
type Script struct {
	Name string
}

// AnimKeyframe is one state an Animation can transition through (spec
// §4.5 step 6). TangentPos/TangentScale are the Cubic-interpolation
// derivative vectors consulted only in InterpCubic mode, named after
// original_source/Animation.hh's AnimationState.tangentPos/tangentScale.
type AnimKeyframe struct {
	Pose         Transform
	Delay        float64
	TangentPos   lin.V3
	TangentScale lin.V3
}

// InterpolationMode enumerates the animation blending modes spec §4.5
// step 6 names.
type InterpolationMode uint8

const (
	InterpStep InterpolationMode = iota
	InterpLinear
	InterpCubic
)

// Animation is the per-entity keyframe track consulted by the
// animation-interpolation sub-step.
type Animation struct {
	Keyframes   []AnimKeyframe
	Mode        InterpolationMode
	StateSignal string // e.g. "animation_state"
	TargetSignal string // e.g. "animation_target"
}

// AnimCurrNext is the original's CurrNextState value: the reusable
// {current, next, completion, direction} tuple consumed by both
// interpolation and (not built here) editor preview. Named per
// SPEC_FULL.md §C.4 rather than kept anonymous.
type AnimCurrNext struct {
	Current    int
	Next       int
	Completion float64
	Direction  int
}

// SignalOutput is the staging-only direct-value half of a signal
// binding, merged into the live Signals slab during flattening
// (SPEC_FULL.md §C.3).
type SignalOutput struct {
	Values map[string]float64
}

// SignalBindings is the staging-only expression-bound half of a signal
// binding (SPEC_FULL.md §C.3). If a name is present in both
// SignalOutput and SignalBindings, SignalOutput wins during flattening.
type SignalBindings struct {
	Expressions map[string]string
}
