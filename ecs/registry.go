// Copyright © 2024 Galvanized Logic Inc.

package ecs

import "sync"

// registry.go is per-instance component storage: a bitset plus a typed
// slice (here, a typed map keyed by entity index) per component kind.
// Grounded on gazed-vu/app.go's component-manager aggregation (app.povs,
// app.bodies, ...) generalized into one data-oriented table per spec
// §4.1, dispatched by Kind per spec §9's "tagged-variant dispatch."

// bitset tracks which Kinds an entity carries. numKinds is well under 64
// so a single uint64 suffices; no dynamic growth needed.
type bitset uint64

func (b bitset) has(k Kind) bool  { return b&(1<<k) != 0 }
func (b *bitset) set(k Kind)      { *b |= 1 << k }
func (b *bitset) clear(k Kind)    { *b &^= 1 << k }

// EventKind distinguishes component add/remove observer events.
type EventKind uint8

const (
	EventAdded EventKind = iota
	EventRemoved
)

// ComponentEvent is one add/remove notification for a given component
// kind (spec §4.1 observer API).
type ComponentEvent struct {
	Kind   EventKind
	Entity Entity
}

// Registry is one ECS instance: either the staging (authoring) world or
// the live (simulated) world (spec §3 "Two instances"). Entity ids in
// the two instances are distinct and never compared across instances.
type Registry struct {
	mu sync.RWMutex

	instance   Instance
	instanceID uint64 // monotonic id used to validate locks were acquired here.

	entities *entityTable
	bitsets  map[uint32]*bitset

	// stores[k] is a map[uint32]T for whatever T was registered against
	// Kind k; lazily created so a Registry that never holds a component
	// kind never allocates its store.
	stores [numKinds]any

	observers   [numKinds][]chan ComponentEvent
	observersMu sync.Mutex

	deferredMu sync.Mutex
	deferred   []deferredOp

	refs *ReferenceManager
}

type deferredOp struct {
	access AccessSet
	fn     func(*Lock)
}

var nextInstanceID uint64
var nextInstanceIDMu sync.Mutex

// NewRegistry constructs an empty Registry for the given Instance,
// sharing refs (the engine's single Reference Manager) across both the
// live and staging registries.
func NewRegistry(instance Instance, refs *ReferenceManager) *Registry {
	nextInstanceIDMu.Lock()
	nextInstanceID++
	id := nextInstanceID
	nextInstanceIDMu.Unlock()

	return &Registry{
		instance:   instance,
		instanceID: id,
		entities:   newEntityTable(),
		bitsets:    map[uint32]*bitset{},
		refs:       refs,
	}
}

// Instance reports whether this registry is Live or Staging.
func (r *Registry) Instance() Instance { return r.instance }

// storeFor lazily creates and returns the typed backing map for Kind k.
func storeFor[T any](r *Registry, k Kind) map[uint32]T {
	if r.stores[k] == nil {
		r.stores[k] = map[uint32]T{}
	}
	return r.stores[k].(map[uint32]T)
}

// NewEntity allocates a new entity id in this instance. Entities are
// created by scene load or prefab scripts under a staging write lock
// (spec §3 Lifecycles) or by sim internally when flattening.
func (r *Registry) NewEntity() Entity {
	id := r.entities.create()
	bs := bitset(0)
	r.bitsets[id.index()] = &bs
	return Entity{ID: id, Instance: r.instance}
}

// DestroyEntity removes an entity and every component it carries,
// firing remove observer events for each kind it had. Expects the
// caller to already hold an AddRemove lock; called from within
// Lock.DestroyEntity, not directly.
func (r *Registry) destroyEntity(e Entity) {
	idx := e.ID.index()
	bs, ok := r.bitsets[idx]
	if !ok {
		return
	}
	for k := Kind(0); k < numKinds; k++ {
		if bs.has(k) {
			r.removeRaw(k, e)
		}
	}
	r.entities.destroy(e.ID)
	delete(r.bitsets, idx)
	if r.refs != nil {
		r.refs.UnsetEntity(e)
	}
}

func (r *Registry) removeRaw(k Kind, e Entity) {
	idx := e.ID.index()
	if remove := kindRemovers[k]; remove != nil {
		remove(&r.stores, idx)
	}
	bs := r.bitsets[idx]
	bs.clear(k)
	r.fireObservers(k, ComponentEvent{Kind: EventRemoved, Entity: e})
}

func (r *Registry) fireObservers(k Kind, ev ComponentEvent) {
	r.observersMu.Lock()
	chans := r.observers[k]
	r.observersMu.Unlock()
	for _, c := range chans {
		select {
		case c <- ev:
		default: // observer queue full; drop rather than block the writer.
		}
	}
}

// FieldValue projects entity e's component named componentName to the
// named numeric field, for signal expressions' `entity#component.field`
// production (spec §3, §6). Bypasses the permission lock deliberately:
// field access is restricted by component *type* (only FieldReader
// implementers are reachable at all, per spec "not all components are
// physics-readable"), not by which lock a caller happens to hold.
func (r *Registry) FieldValue(e Entity, componentName, field string) (float64, bool) {
	k, ok := kindByName[componentName]
	if !ok {
		return 0, false
	}
	reader := kindFieldReaders[k]
	if reader == nil {
		return 0, false
	}
	return reader(&r.stores, e.ID.index(), field)
}

// Exists reports whether e is currently allocated in this registry.
func (r *Registry) Exists(e Entity) bool { return r.entities.valid(e.ID) }

// EachEntity calls fn for every currently-allocated entity.
func (r *Registry) EachEntity(fn func(Entity)) {
	r.entities.each(func(id ID) { fn(Entity{ID: id, Instance: r.instance}) })
}
