// Copyright © 2024 Galvanized Logic Inc.

package ecs

import (
	"errors"
)

// lock.go is the permission algebra spec §4.1 describes: a lock carries
// a static set of capabilities (Read<T...>, Write<T...>, AddRemove),
// obtained via StartTransaction, guaranteeing consistency (writers
// exclusive, readers concurrent), atomicity (all mutations under one
// write lock become visible together), and type safety (reading an
// undeclared component is rejected). Grounded on the original's
// Lock<...> template usage throughout PhysxManager.cc — in particular
// the "union of read/write sets acquired once per physics frame" shape
// (spec §4.5 Phase 2).
//
// Go has no variadic type-level parameter packs, so the capability set
// is a runtime AccessSet checked at StartTransaction and on every typed
// access, rather than encoded in the lock's Go type. Nesting (spec
// §4.1's "requesting stricter permissions than a currently-held
// compatible lock... fails with LockUpgradeForbidden") is made explicit
// by passing the enclosing *Lock as the parent argument instead of
// relying on thread-local state, per Design Notes' "avoid true
// globals"/explicit-context guidance.

var (
	// ErrLockUpgradeForbidden is returned when a nested transaction asks
	// for permissions its parent lock does not already hold.
	ErrLockUpgradeForbidden = errors.New("ecs: lock upgrade forbidden")
	// ErrAccessDenied is returned when a typed access targets a component
	// kind outside the lock's declared read/write set.
	ErrAccessDenied = errors.New("ecs: access denied")
)

// AccessSet is the static capability declaration a transaction requests:
// Read<T...>, Write<T...>, and/or AddRemove (spec §4.1).
type AccessSet struct {
	Read      []Kind
	Write     []Kind
	AddRemove bool
}

func (a AccessSet) canRead(k Kind) bool {
	for _, x := range a.Read {
		if x == k {
			return true
		}
	}
	return a.canWrite(k)
}

func (a AccessSet) canWrite(k Kind) bool {
	for _, x := range a.Write {
		if x == k {
			return true
		}
	}
	return false
}

// subsetOf reports whether every capability in a is also granted by b —
// used to validate a nested transaction against its parent.
func (a AccessSet) subsetOf(b AccessSet) bool {
	if a.AddRemove && !b.AddRemove {
		return false
	}
	for _, k := range a.Write {
		if !b.canWrite(k) {
			return false
		}
	}
	for _, k := range a.Read {
		if !b.canRead(k) {
			return false
		}
	}
	return true
}

// exclusive reports whether the access set requires the registry's
// write lock (any Write or AddRemove capability).
func (a AccessSet) exclusive() bool { return a.AddRemove || len(a.Write) > 0 }

// Lock is a transaction handle over one Registry instance, carrying the
// AccessSet it was granted.
type Lock struct {
	registry *Registry
	access   AccessSet
	unlock   func()
	released bool
}

// StartTransaction begins a new transaction with the given access set
// over r. If parent is non-nil, access must be a subset of the parent's
// access (the nested lock shares the parent's already-held critical
// section instead of re-acquiring); otherwise ErrLockUpgradeForbidden is
// returned. Top-level (parent == nil) calls acquire r's reader-writer
// lock: exclusive for any Write/AddRemove capability, shared otherwise.
func (r *Registry) StartTransaction(access AccessSet, parent *Lock) (*Lock, error) {
	if parent != nil {
		if parent.registry != r {
			return nil, ErrAccessDenied
		}
		if !access.subsetOf(parent.access) {
			return nil, ErrLockUpgradeForbidden
		}
		return &Lock{registry: r, access: access, unlock: func() {}}, nil
	}
	if access.exclusive() {
		r.mu.Lock()
		return &Lock{registry: r, access: access, unlock: r.mu.Unlock}, nil
	}
	r.mu.RLock()
	return &Lock{registry: r, access: access, unlock: r.mu.RUnlock}, nil
}

// Release ends the transaction by releasing the underlying critical
// section (if this lock owns one). Deferred closures are not run here;
// Registry.DrainDeferred runs them. Safe to call multiple times.
func (l *Lock) Release() {
	if l.released {
		return
	}
	l.released = true
	l.unlock()
}

// Registry returns the registry this lock transacts over.
func (l *Lock) Registry() *Registry { return l.registry }

// Instance reports the instance (Live/Staging) this lock transacts over.
func (l *Lock) Instance() Instance { return l.registry.instance }

// Get reads entity e's component of type T. ok is false if the entity
// doesn't carry the component; err is ErrAccessDenied if T is outside
// the lock's declared read/write set.
func Get[T any](l *Lock, e Entity) (value T, ok bool, err error) {
	k := kindFor[T]()
	if !l.access.canRead(k) {
		return value, false, ErrAccessDenied
	}
	m := storeFor[T](l.registry, k)
	value, ok = m[e.ID.index()]
	return value, ok, nil
}

// Set writes entity e's component of type T, adding it (and firing an
// EventAdded observer event) if not already present.
func Set[T any](l *Lock, e Entity, value T) error {
	k := kindFor[T]()
	if !l.access.canWrite(k) {
		return ErrAccessDenied
	}
	m := storeFor[T](l.registry, k)
	idx := e.ID.index()
	_, existed := m[idx]
	m[idx] = value
	if !existed {
		bs, ok := l.registry.bitsets[idx]
		if !ok {
			b := bitset(0)
			bs = &b
			l.registry.bitsets[idx] = bs
		}
		bs.set(k)
		l.registry.fireObservers(k, ComponentEvent{Kind: EventAdded, Entity: e})
	}
	return nil
}

// Unset removes entity e's component of type T, firing an EventRemoved
// observer event if it was present.
func Unset[T any](l *Lock, e Entity) error {
	k := kindFor[T]()
	if !l.access.canWrite(k) {
		return ErrAccessDenied
	}
	idx := e.ID.index()
	m := storeFor[T](l.registry, k)
	if _, ok := m[idx]; !ok {
		return nil
	}
	delete(m, idx)
	if bs, ok := l.registry.bitsets[idx]; ok {
		bs.clear(k)
	}
	l.registry.fireObservers(k, ComponentEvent{Kind: EventRemoved, Entity: e})
	return nil
}

// Has reports whether entity e carries component kind k, without
// requiring read access to k's Go type (existence is always queryable,
// per spec §3 "component existence is queryable without access").
func (l *Lock) Has(e Entity, k Kind) bool {
	bs, ok := l.registry.bitsets[e.ID.index()]
	return ok && bs.has(k)
}

// NewEntity allocates a new entity under an AddRemove lock.
func (l *Lock) NewEntity() (Entity, error) {
	if !l.access.AddRemove {
		return Entity{}, ErrAccessDenied
	}
	return l.registry.NewEntity(), nil
}

// DestroyEntity removes an entity and all its components under an
// AddRemove lock.
func (l *Lock) DestroyEntity(e Entity) error {
	if !l.access.AddRemove {
		return ErrAccessDenied
	}
	l.registry.destroyEntity(e)
	return nil
}

// Each calls fn for every entity carrying every kind in all (spec §4.1
// "entity iteration filtered by has all of a component set"). Each kind
// in all must be within the lock's read or write set.
func (l *Lock) Each(all []Kind, fn func(Entity)) error {
	for _, k := range all {
		if !l.access.canRead(k) {
			return ErrAccessDenied
		}
	}
	l.registry.EachEntity(func(e Entity) {
		bs, ok := l.registry.bitsets[e.ID.index()]
		if !ok {
			return
		}
		for _, k := range all {
			if !bs.has(k) {
				return
			}
		}
		fn(e)
	})
	return nil
}

// Defer enqueues fn to run later, outside the current critical section,
// under an independently-acquired lock with the given access (spec
// §4.1 "Deferred transactions"). This lets code running under a
// read-only iteration enqueue logically-mutating work (e.g. a script
// writing signals) without causing re-entrant deadlock.
func (l *Lock) Defer(access AccessSet, fn func(*Lock)) {
	l.registry.deferredMu.Lock()
	l.registry.deferred = append(l.registry.deferred, deferredOp{access: access, fn: fn})
	l.registry.deferredMu.Unlock()
}

// DrainDeferred runs every closure enqueued via Defer since the last
// drain, each under its own freshly-acquired transaction. Must be
// called outside the critical section that enqueued them.
func (r *Registry) DrainDeferred() {
	r.deferredMu.Lock()
	ops := r.deferred
	r.deferred = nil
	r.deferredMu.Unlock()

	for _, op := range ops {
		lock, err := r.StartTransaction(op.access, nil)
		if err != nil {
			continue
		}
		op.fn(lock)
		lock.Release()
	}
}
