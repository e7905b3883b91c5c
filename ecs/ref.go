// Copyright © 2024 Galvanized Logic Inc.

package ecs

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// ref.go is the Reference Manager (spec §4.2), grounded line-for-line on
// original_source/src/core/ecs/ReferenceManager.{hh,cc} and EntityRef.cc:
// the double-checked-lock interning pattern and the per-instance reverse
// maps (SPEC_FULL.md §C.2 decides to follow the original's two-reverse-
// map structure rather than a single map disambiguated by an instance
// tag). The legacy EntityReferenceManager is not carried forward
// (SPEC_FULL.md §D / spec §9 Open Questions).

// EntityRef is a shared handle containing (Name, atomic live id, atomic
// staging id). Two EntityRef values compare equal iff they name the same
// entity; handles survive entity destruction and silently resolve to a
// null id (spec §3).
type EntityRef struct {
	name    string
	liveID  atomic.Uint32
	stageID atomic.Uint32
}

// Name returns the interned name this ref resolves.
func (r *EntityRef) Name() string { return r.name }

// Live resolves the ref against the live instance. ok is false if the
// name has never been bound live or the live entity was destroyed
// without a corresponding Unset.
func (r *EntityRef) Live() (ID, bool) {
	v := r.liveID.Load()
	if v == 0 {
		return 0, false
	}
	return ID(v - 1), true
}

// Staging resolves the ref against the staging instance.
func (r *EntityRef) Staging() (ID, bool) {
	v := r.stageID.Load()
	if v == 0 {
		return 0, false
	}
	return ID(v - 1), true
}

// Resolve returns the ref's id for the given Instance.
func (r *EntityRef) Resolve(inst Instance) (ID, bool) {
	if inst == Staging {
		return r.Staging()
	}
	return r.Live()
}

func (r *EntityRef) set(inst Instance, id ID) {
	v := uint32(id) + 1
	if inst == Staging {
		r.stageID.Store(v)
	} else {
		r.liveID.Store(v)
	}
}

func (r *EntityRef) clear(inst Instance) {
	if inst == Staging {
		r.stageID.Store(0)
	} else {
		r.liveID.Store(0)
	}
}

// SignalKey is (EntityRef, signal_name); interned so equality and
// hashing are by identity of the interned *SignalRef (spec §3).
type SignalKey struct {
	Entity *EntityRef
	Signal string
}

// SignalRef is the interned handle for one SignalKey. It caches the
// slot index assigned by the signal package's dense storage, refreshed
// whenever the slot is resolved under a lock (spec §4.3 "SignalRef
// retains a cached slot index").
type SignalRef struct {
	Key SignalKey

	mu        sync.Mutex
	slot      int
	slotValid bool
}

// String returns the "entity/signal" textual form of the key.
func (s *SignalRef) String() string { return s.Key.Entity.Name() + "/" + s.Key.Signal }

// Slot returns the cached slab index and whether it is still valid.
func (s *SignalRef) Slot() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot, s.slotValid
}

// SetSlot refreshes the cached slab index.
func (s *SignalRef) SetSlot(slot int) {
	s.mu.Lock()
	s.slot = slot
	s.slotValid = true
	s.mu.Unlock()
}

// InvalidateSlot forces the next access to re-resolve the slab index,
// e.g. after the signal's slot was freed and potentially reused.
func (s *SignalRef) InvalidateSlot() {
	s.mu.Lock()
	s.slotValid = false
	s.mu.Unlock()
}

// ReferenceManager interns entity names and signal keys, and resolves
// names to their current live/staging entity id. Thread safety is a
// reader-writer mutex per map; readers dominate, creation takes the
// write lock (spec §4.2).
type ReferenceManager struct {
	namesMu sync.RWMutex
	names   map[string]*EntityRef

	signalsMu sync.RWMutex
	signals   map[string]*SignalRef

	liveReverseMu sync.RWMutex
	liveReverse   map[ID]*EntityRef

	stageReverseMu sync.RWMutex
	stageReverse   map[ID]*EntityRef

	// touched holds every name looked up via GetEntityByName, expiring it
	// grace after its last lookup; Tick sweeps names no longer in it.
	// An expirable LRU gives the TTL accounting for free instead of a
	// hand-rolled timestamp scan (golang-lru/v2, r3e-network/service_layer
	// indirect dependency).
	touched *lru.LRU[string, struct{}]
	touchedMu sync.Mutex
}

// NewReferenceManager constructs an empty Reference Manager. grace is the
// default TTL used by touched-name bookkeeping ahead of Tick sweeps.
func NewReferenceManager(grace time.Duration) *ReferenceManager {
	return &ReferenceManager{
		names:        map[string]*EntityRef{},
		signals:      map[string]*SignalRef{},
		liveReverse:  map[ID]*EntityRef{},
		stageReverse: map[ID]*EntityRef{},
		touched:      lru.NewLRU[string, struct{}](0, nil, grace),
	}
}

// GetEntityByName returns the existing interned ref for name, or creates
// one under a short write-lock. The returned ref's id fields are
// populated on first SetEntity (spec §4.2).
func (m *ReferenceManager) GetEntityByName(name string) *EntityRef {
	m.namesMu.RLock()
	r, ok := m.names[name]
	m.namesMu.RUnlock()
	if ok {
		m.touch(name)
		return r
	}

	m.namesMu.Lock()
	defer m.namesMu.Unlock()
	if r, ok := m.names[name]; ok { // double-checked
		m.touch(name)
		return r
	}
	r = &EntityRef{name: name}
	m.names[name] = r
	m.touch(name)
	return r
}

func (m *ReferenceManager) touch(name string) {
	m.touchedMu.Lock()
	m.touched.Add(name, struct{}{})
	m.touchedMu.Unlock()
}

// SetEntity updates the live or staging id (determined by entity's
// Instance tag) and the corresponding reverse map.
func (m *ReferenceManager) SetEntity(name string, entity Entity) {
	r := m.GetEntityByName(name)
	r.set(entity.Instance, entity.ID)
	if entity.Instance == Staging {
		m.stageReverseMu.Lock()
		m.stageReverse[entity.ID] = r
		m.stageReverseMu.Unlock()
	} else {
		m.liveReverseMu.Lock()
		m.liveReverse[entity.ID] = r
		m.liveReverseMu.Unlock()
	}
}

// UnsetEntity clears the id binding for entity's instance, e.g. on
// destroy, without dropping the interned name itself.
func (m *ReferenceManager) UnsetEntity(entity Entity) {
	name := ""
	if entity.Instance == Staging {
		m.stageReverseMu.Lock()
		if r, ok := m.stageReverse[entity.ID]; ok {
			name = r.name
			delete(m.stageReverse, entity.ID)
		}
		m.stageReverseMu.Unlock()
	} else {
		m.liveReverseMu.Lock()
		if r, ok := m.liveReverse[entity.ID]; ok {
			name = r.name
			delete(m.liveReverse, entity.ID)
		}
		m.liveReverseMu.Unlock()
	}
	if name != "" {
		m.GetEntityByName(name).clear(entity.Instance)
	}
}

// GetEntityRef performs the reverse lookup: entity id to interned ref.
// Returns nil if no interned name is associated (spec §4.2).
func (m *ReferenceManager) GetEntityRef(entity Entity) *EntityRef {
	if entity.Instance == Staging {
		m.stageReverseMu.RLock()
		defer m.stageReverseMu.RUnlock()
		return m.stageReverse[entity.ID]
	}
	m.liveReverseMu.RLock()
	defer m.liveReverseMu.RUnlock()
	return m.liveReverse[entity.ID]
}

// GetEntityNames returns every interned name with the given prefix
// (linear scan per spec §4.2).
func (m *ReferenceManager) GetEntityNames(prefix string) []string {
	m.namesMu.RLock()
	defer m.namesMu.RUnlock()
	out := []string{}
	for name := range m.names {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}

// GetSignal returns the existing interned SignalRef for key, or creates
// one under a short write-lock (same pattern as GetEntityByName).
func (m *ReferenceManager) GetSignal(key SignalKey) *SignalRef {
	full := key.Entity.Name() + "/" + key.Signal
	m.signalsMu.RLock()
	r, ok := m.signals[full]
	m.signalsMu.RUnlock()
	if ok {
		return r
	}
	m.signalsMu.Lock()
	defer m.signalsMu.Unlock()
	if r, ok := m.signals[full]; ok {
		return r
	}
	r = &SignalRef{Key: key}
	m.signals[full] = r
	return r
}

// GetSignals returns every interned signal ref whose "entity/signal"
// textual form has the given prefix.
func (m *ReferenceManager) GetSignals(prefix string) []*SignalRef {
	m.signalsMu.RLock()
	defer m.signalsMu.RUnlock()
	out := []*SignalRef{}
	for full, r := range m.signals {
		if strings.HasPrefix(full, prefix) {
			out = append(out, r)
		}
	}
	return out
}

// Tick sweeps entity name refs that have not been touched (via
// GetEntityByName) within maxInterval; swept refs are removed from both
// reverse maps so a stale EntityRef is never handed out for a name
// nobody has asked about recently (spec §4.2 "tick(max_interval)"). This
// mirrors strayphotons' "no external strong users" sweep using a
// recency window instead of a refcount, since Go ref-counts would
// require a finalizer-based scheme this engine avoids per spec §9's
// "avoid true globals"/explicit-context guidance.
//
// Callers must pass the same interval the manager was constructed with
// (NewReferenceManager's grace): freshness is tracked by the touched
// LRU's own TTL, not recomputed per call, so maxInterval documents the
// contract rather than parameterizing it per tick.
func (m *ReferenceManager) Tick(maxInterval time.Duration) {
	m.namesMu.Lock()
	defer m.namesMu.Unlock()
	for name, ref := range m.names {
		m.touchedMu.Lock()
		_, fresh := m.touched.Get(name)
		m.touchedMu.Unlock()
		if fresh {
			continue
		}
		if _, ok := ref.Live(); ok {
			continue
		}
		if _, ok := ref.Staging(); ok {
			continue
		}
		delete(m.names, name)
		m.liveReverseMu.Lock()
		for id, r := range m.liveReverse {
			if r == ref {
				delete(m.liveReverse, id)
			}
		}
		m.liveReverseMu.Unlock()
		m.stageReverseMu.Lock()
		for id, r := range m.stageReverse {
			if r == ref {
				delete(m.stageReverse, id)
			}
		}
		m.stageReverseMu.Unlock()
	}
}
