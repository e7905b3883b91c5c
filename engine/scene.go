// Copyright © 2024 Galvanized Logic Inc.

package engine

import (
	"fmt"

	"github.com/lumenforge/lumen/asset"
	"github.com/lumenforge/lumen/ecs"
)

// scene.go is spec §3's scene lifecycle: "scenes populate [the staging
// instance]... the live instance is populated by flattening stagings."
// LoadScene stages a scene file's entities; PromoteScene waits on that
// scene's convex-hull builds (sim.Runtime.PreloadScene, spec §4.5 Phase
// 1) before flattening it onto the live instance (ecs.Flatten), so a
// scene is never simulated with unresolved collision geometry.

// sceneAccess is the AccessSet a scene load/flatten needs: every
// component kind, since a scene file's entities may carry any of them
// (unlike the physics frame's fixed frameAccess).
var sceneAccess = ecs.AccessSet{Read: ecs.AllKinds(), Write: ecs.AllKinds(), AddRemove: true}

// LoadScene reads name from the locator's SCENE directory and populates
// it into the staging instance. Returns the bare scene name (its
// ".scene.json"/".json" suffix stripped) the way asset.LoadScene's
// caller is expected to track it.
func (e *Engine) LoadScene(name string) (string, error) {
	raw, err := e.Locator.Read("SCENE", name)
	if err != nil {
		return "", fmt.Errorf("engine: load scene %q: %w", name, err)
	}

	lock, err := e.Staging.StartTransaction(sceneAccess, nil)
	if err != nil {
		return "", fmt.Errorf("engine: stage scene %q: %w", name, err)
	}
	defer lock.Release()

	scene := asset.SceneName(name)
	if err := asset.LoadScene(lock, e.Refs, scene, raw, func(msg string) {
		e.Log.For("engine").Warn().Msg(msg)
	}); err != nil {
		return "", fmt.Errorf("engine: stage scene %q: %w", name, err)
	}
	return scene, nil
}

// PromoteScene admits a staged scene to the live instance: it collects
// every ConvexMesh shape the scene's entities reference, waits for their
// hulls to resolve via the physics thread's preload queue, then flattens
// the scene onto live. Call with ascending priority (lowest-priority
// scene first) so a later PromoteScene's Flatten overwrites an earlier
// one's components on any shared entity name, matching spec §3's
// "higher-priority stagings override lower."
func (e *Engine) PromoteScene(scene string) error {
	shapes, err := e.sceneConvexShapes(scene)
	if err != nil {
		return err
	}
	if err := <-e.Physics.PreloadScene(scene, shapes); err != nil {
		return fmt.Errorf("engine: promote scene %q: hull preload: %w", scene, err)
	}

	stageLock, err := e.Staging.StartTransaction(ecs.AccessSet{Read: ecs.AllKinds()}, nil)
	if err != nil {
		return fmt.Errorf("engine: promote scene %q: %w", scene, err)
	}
	defer stageLock.Release()

	liveLock, err := e.Live.StartTransaction(sceneAccess, nil)
	if err != nil {
		return fmt.Errorf("engine: promote scene %q: %w", scene, err)
	}
	defer liveLock.Release()

	n, err := ecs.Flatten(stageLock, liveLock, scene)
	if err != nil {
		return fmt.Errorf("engine: promote scene %q: %w", scene, err)
	}
	liveLock.Release()

	if err := e.mergeSceneSignals(scene); err != nil {
		return err
	}
	e.Log.For("engine").Info().Str("scene", scene).Int("entities", n).Msg("scene promoted to live")
	return nil
}

// sceneConvexShapes collects every ConvexMesh PhysicsShape belonging to
// scene's staged entities, lazily loading each referenced model's
// PhysicsInfo table along the way.
func (e *Engine) sceneConvexShapes(scene string) ([]ecs.PhysicsShape, error) {
	lock, err := e.Staging.StartTransaction(ecs.AccessSet{Read: []ecs.Kind{ecs.KindName, ecs.KindPhysics}}, nil)
	if err != nil {
		return nil, fmt.Errorf("engine: scan scene %q physics shapes: %w", scene, err)
	}
	defer lock.Release()

	var shapes []ecs.PhysicsShape
	var firstErr error
	lock.Each([]ecs.Kind{ecs.KindName, ecs.KindPhysics}, func(ent ecs.Entity) {
		name, ok, err := ecs.Get[ecs.Name](lock, ent)
		if !ok || err != nil || name.Scene != scene {
			return
		}
		phys, ok, err := ecs.Get[ecs.Physics](lock, ent)
		if !ok || err != nil {
			return
		}
		for _, s := range phys.Shapes {
			if s.Variant != ecs.ShapeConvexMesh {
				continue
			}
			if err := e.ensurePhysicsInfo(s.Model); err != nil && firstErr == nil {
				firstErr = err
				continue
			}
			shapes = append(shapes, s)
		}
	})
	return shapes, firstErr
}
