// Copyright © 2024 Galvanized Logic Inc.

// Package asset loads scene and PhysicsInfo files (spec §6) and dispatches
// asset/hull-cook work to a small worker pool (spec §5 "a dispatch queue
// backed by a small worker pool for asset and hull cooks"). GLTF container
// parsing itself is an external collaborator (ModelSource) per spec §1.
package asset

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/lumenforge/lumen/ecs"
	"github.com/lumenforge/lumen/math/lin"
)

// scene.go parses the scene file schema spec §6 documents: a top-level
// "entities" array, each with a "name" and a set of component blobs keyed
// by component name. Grounded on that conceptual schema; gjson
// (r3e-network/service_layer) is used rather than a single static
// encoding/json struct because each entity's blob set varies per entity —
// exactly gjson's path-query use case (DESIGN.md's asset section).

// LoadScene parses raw scene JSON and creates one entity per array element
// under "entities", applying every recognized component blob. lock must
// hold AddRemove plus Write access to every component kind this scene can
// populate. Unrecognized component keys are logged and skipped (spec §7
// "Validation... warn, substitute a safe default, continue").
func LoadScene(lock *ecs.Lock, refs *ecs.ReferenceManager, sceneName string, raw []byte, warn func(string)) error {
	doc := gjson.ParseBytes(raw)
	entities := doc.Get("entities")
	if !entities.Exists() || !entities.IsArray() {
		return fmt.Errorf("asset: scene %q: missing \"entities\" array", sceneName)
	}

	var firstErr error
	entities.ForEach(func(_, entityJSON gjson.Result) bool {
		name := entityJSON.Get("name").String()
		if name == "" {
			if warn != nil {
				warn(fmt.Sprintf("asset: scene %q: entity missing \"name\", skipped", sceneName))
			}
			return true
		}

		e, err := lock.NewEntity()
		if err != nil {
			firstErr = fmt.Errorf("asset: scene %q: create entity %q: %w", sceneName, name, err)
			return false
		}
		if err := ecs.BindName(lock, e, sceneName, name); err != nil {
			if warn != nil {
				warn(fmt.Sprintf("asset: scene %q: entity %q: %v", sceneName, name, err))
			}
		}
		if err := ecs.Set(lock, e, ecs.SceneInfo{Scene: sceneName}); err != nil {
			firstErr = err
			return false
		}

		entityJSON.ForEach(func(key, blob gjson.Result) bool {
			k := key.String()
			if k == "name" {
				return true
			}
			if err := applyComponent(lock, refs, sceneName, e, k, blob); err != nil {
				if warn != nil {
					warn(fmt.Sprintf("asset: scene %q: entity %q: component %q: %v", sceneName, name, k, err))
				}
			}
			return true
		})
		return true
	})
	return firstErr
}

// applyComponent decodes one component blob by name and writes it onto e.
// This is the scene loader's half of spec §9's "tagged-variant dispatch":
// ecs/components.go dispatches by Kind at storage time, this switch
// dispatches by the JSON key's component name at load time, since scene
// files name components by string, not by Go type.
func applyComponent(lock *ecs.Lock, refs *ecs.ReferenceManager, scene string, e ecs.Entity, key string, blob gjson.Result) error {
	switch key {
	case "Transform":
		var t transformJSON
		if err := json.Unmarshal([]byte(blob.Raw), &t); err != nil {
			return err
		}
		return ecs.Set(lock, e, t.toTransform())
	case "TransformTree":
		var t transformTreeJSON
		if err := json.Unmarshal([]byte(blob.Raw), &t); err != nil {
			return err
		}
		tree := ecs.TransformTree{Pose: t.Pose.toTransform()}
		if t.Parent != "" {
			tree.Parent = refs.GetEntityByName(ecs.QualifiedName(scene, t.Parent))
			tree.HasParent = true
		}
		return ecs.Set(lock, e, tree)
	case "Physics":
		var p physicsJSON
		if err := json.Unmarshal([]byte(blob.Raw), &p); err != nil {
			return err
		}
		return ecs.Set(lock, e, p.toPhysics(scene, refs))
	case "CharacterController":
		var c ecs.CharacterController
		if err := json.Unmarshal([]byte(blob.Raw), &c); err != nil {
			return err
		}
		return ecs.Set(lock, e, c)
	case "TriggerArea":
		var t struct{ Group string `json:"group"` }
		if err := json.Unmarshal([]byte(blob.Raw), &t); err != nil {
			return err
		}
		return ecs.Set(lock, e, ecs.TriggerArea{Group: t.Group, Overlaps: map[ecs.ID]bool{}})
	case "SceneProperties":
		var s struct{ Gravity [3]float64 `json:"gravity"` }
		if err := json.Unmarshal([]byte(blob.Raw), &s); err != nil {
			return err
		}
		return ecs.Set(lock, e, ecs.SceneProperties{Gravity: lin.V3{X: s.Gravity[0], Y: s.Gravity[1], Z: s.Gravity[2]}})
	case "LaserEmitter":
		var l struct {
			Direction  [3]float64 `json:"direction"`
			MaxBounces int        `json:"max_bounces"`
			Intensity  float64    `json:"intensity"`
		}
		if err := json.Unmarshal([]byte(blob.Raw), &l); err != nil {
			return err
		}
		return ecs.Set(lock, e, ecs.LaserEmitter{
			Direction:  lin.V3{X: l.Direction[0], Y: l.Direction[1], Z: l.Direction[2]},
			MaxBounces: l.MaxBounces,
			Intensity:  l.Intensity,
		})
	case "OpticalElement":
		var o ecs.OpticalElement
		if err := json.Unmarshal([]byte(blob.Raw), &o); err != nil {
			return err
		}
		return ecs.Set(lock, e, o)
	case "Script":
		var s ecs.Script
		if err := json.Unmarshal([]byte(blob.Raw), &s); err != nil {
			return err
		}
		return ecs.Set(lock, e, s)
	case "SignalOutput":
		var values map[string]float64
		if err := json.Unmarshal([]byte(blob.Raw), &values); err != nil {
			return err
		}
		return ecs.Set(lock, e, ecs.SignalOutput{Values: values})
	case "SignalBindings":
		var exprs map[string]string
		if err := json.Unmarshal([]byte(blob.Raw), &exprs); err != nil {
			return err
		}
		return ecs.Set(lock, e, ecs.SignalBindings{Expressions: exprs})
	case "Animation":
		var a animationJSON
		if err := json.Unmarshal([]byte(blob.Raw), &a); err != nil {
			return err
		}
		return ecs.Set(lock, e, a.toAnimation())
	default:
		return fmt.Errorf("unrecognized component kind")
	}
}

// transformJSON mirrors ecs.Transform's documented scene-file shape.
type transformJSON struct {
	Pos   [3]float64 `json:"pos"`
	Rot   [4]float64 `json:"rot"`
	Scale [3]float64 `json:"scale"`
}

func (t transformJSON) toTransform() ecs.Transform {
	scale := t.Scale
	if scale == ([3]float64{}) {
		scale = [3]float64{1, 1, 1}
	}
	rot := t.Rot
	if rot == ([4]float64{}) {
		rot = [4]float64{0, 0, 0, 1}
	}
	return ecs.Transform{
		Offset: lin.T{
			Loc: &lin.V3{X: t.Pos[0], Y: t.Pos[1], Z: t.Pos[2]},
			Rot: &lin.Q{X: rot[0], Y: rot[1], Z: rot[2], W: rot[3]},
		},
		Scale: lin.V3{X: scale[0], Y: scale[1], Z: scale[2]},
	}
}

type transformTreeJSON struct {
	Parent string        `json:"parent"`
	Pose   transformJSON `json:"pose"`
}

type shapeJSON struct {
	Variant          string     `json:"variant"`
	Offset           transformJSON `json:"offset"`
	StaticFriction   float64    `json:"static_friction"`
	DynamicFriction  float64    `json:"dynamic_friction"`
	Restitution      float64    `json:"restitution"`
	Radius           float64    `json:"radius"`
	HalfHeight       float64    `json:"half_height"`
	Extents          [3]float64 `json:"extents"`
	Model            string     `json:"model"`
	HullSettingsName string     `json:"hull_settings_name"`
}

func (s shapeJSON) toShape() ecs.PhysicsShape {
	variant := ecs.ShapeSphere
	switch s.Variant {
	case "Capsule":
		variant = ecs.ShapeCapsule
	case "Box":
		variant = ecs.ShapeBox
	case "Plane":
		variant = ecs.ShapePlane
	case "ConvexMesh":
		variant = ecs.ShapeConvexMesh
	}
	return ecs.PhysicsShape{
		Variant: variant,
		Offset:  s.Offset.toTransform(),
		Material: ecs.Material{
			StaticFriction:  s.StaticFriction,
			DynamicFriction: s.DynamicFriction,
			Restitution:     s.Restitution,
		},
		Radius:           s.Radius,
		HalfHeight:       s.HalfHeight,
		Extents:          lin.V3{X: s.Extents[0], Y: s.Extents[1], Z: s.Extents[2]},
		Model:            s.Model,
		HullSettingsName: s.HullSettingsName,
	}
}

type physicsJSON struct {
	Shapes                 []shapeJSON `json:"shapes"`
	Type                   string      `json:"type"`
	Group                  uint32      `json:"group"`
	Mass                   float64     `json:"mass"`
	Density                float64     `json:"density"`
	AngularDamping         float64     `json:"angular_damping"`
	LinearDamping          float64     `json:"linear_damping"`
	ContactReportThreshold float64     `json:"contact_report_threshold"`
	ParentActor            string      `json:"parent_actor"`
}

func (p physicsJSON) toPhysics(scene string, refs *ecs.ReferenceManager) ecs.Physics {
	shapes := make([]ecs.PhysicsShape, len(p.Shapes))
	for i, s := range p.Shapes {
		shapes[i] = s.toShape()
	}
	physicsType := ecs.Static
	switch p.Type {
	case "Dynamic":
		physicsType = ecs.Dynamic
	case "Kinematic":
		physicsType = ecs.Kinematic
	case "SubActor":
		physicsType = ecs.SubActor
	}
	phys := ecs.Physics{
		Shapes:                 shapes,
		Type:                   physicsType,
		Group:                  p.Group,
		Mass:                   p.Mass,
		Density:                p.Density,
		AngularDamping:         p.AngularDamping,
		LinearDamping:          p.LinearDamping,
		ContactReportThreshold: p.ContactReportThreshold,
	}
	if p.ParentActor != "" {
		phys.ParentActor = refs.GetEntityByName(ecs.QualifiedName(scene, p.ParentActor))
		phys.HasParentActor = true
	}
	return phys
}

type animationJSON struct {
	Keyframes []struct {
		Pose         transformJSON `json:"pose"`
		Delay        float64       `json:"delay"`
		TangentPos   [3]float64    `json:"tangent_pos"`
		TangentScale [3]float64    `json:"tangent_scale"`
	} `json:"keyframes"`
	Mode         string `json:"mode"`
	StateSignal  string `json:"state_signal"`
	TargetSignal string `json:"target_signal"`
}

func (a animationJSON) toAnimation() ecs.Animation {
	mode := ecs.InterpStep
	switch a.Mode {
	case "Linear":
		mode = ecs.InterpLinear
	case "Cubic":
		mode = ecs.InterpCubic
	}
	keys := make([]ecs.AnimKeyframe, len(a.Keyframes))
	for i, k := range a.Keyframes {
		keys[i] = ecs.AnimKeyframe{
			Pose:         k.Pose.toTransform(),
			Delay:        k.Delay,
			TangentPos:   lin.V3{X: k.TangentPos[0], Y: k.TangentPos[1], Z: k.TangentPos[2]},
			TangentScale: lin.V3{X: k.TangentScale[0], Y: k.TangentScale[1], Z: k.TangentScale[2]},
		}
	}
	return ecs.Animation{
		Keyframes:    keys,
		Mode:         mode,
		StateSignal:  a.StateSignal,
		TargetSignal: a.TargetSignal,
	}
}
