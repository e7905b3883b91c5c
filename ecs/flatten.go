// Copyright © 2024 Galvanized Logic Inc.

package ecs

// flatten.go is the live instance's sole population path spec §3
// describes: "the live instance is simulated, populated by *flattening*
// stagings (higher-priority stagings override lower)." It is the caller
// of kindCopiers, the per-Kind copy closures components.go's
// registerKind builds specifically so this file never needs the static
// component type T. Grounded on gazed-vu/app.go's entity-creation path
// (NewEntity, then per-kind Set calls) generalized into a bulk copy
// driven by a staging scene's entity set rather than one entity at a
// time.

// Flatten copies every entity carrying a Name bound to scene from
// staging into live: an existing live entity bound to the same
// qualified name has its components overwritten (later calls for a
// higher-priority staging win), a newly-seen name gets a fresh live
// entity. live must be held under an AddRemove lock with Write access to
// every component Kind that might appear in scene; staging needs only a
// Read lock. Returns the number of live entities created or updated.
func Flatten(staging, live *Lock, scene string) (int, error) {
	if staging.registry.instance != Staging {
		panic("ecs: Flatten's first lock must be over the staging instance")
	}
	if live.registry.instance != Live {
		panic("ecs: Flatten's second lock must be over the live instance")
	}
	if !live.access.AddRemove {
		return 0, ErrAccessDenied
	}

	refs := live.registry.refs
	count := 0
	var firstErr error

	staging.registry.EachEntity(func(se Entity) {
		name, ok, err := Get[Name](staging, se)
		if !ok || err != nil || name.Scene != scene {
			return
		}
		qualified := QualifiedName(name.Scene, name.Local)

		var le Entity
		found := false
		if refs != nil {
			if ref := refs.GetEntityByName(qualified); ref != nil {
				if id, ok := ref.Resolve(Live); ok {
					le = Entity{ID: id, Instance: Live}
					found = live.registry.Exists(le)
				}
			}
		}
		if !found {
			var err error
			le, err = live.NewEntity()
			if err != nil {
				firstErr = err
				return
			}
			if err := BindName(live, le, name.Scene, name.Local); err != nil {
				firstErr = err
				return
			}
		}

		srcIdx := se.ID.index()
		dstIdx := le.ID.index()
		dstBits := live.registry.bitsets[dstIdx]
		for k, copyFn := range kindCopiers {
			if copyFn == nil {
				continue
			}
			if copyFn(&staging.registry.stores, srcIdx, &live.registry.stores, dstIdx) {
				dstBits.set(Kind(k))
				live.registry.fireObservers(Kind(k), ComponentEvent{Kind: EventAdded, Entity: le})
			}
		}
		count++
	})

	return count, firstErr
}
