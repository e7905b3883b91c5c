// Copyright © 2024 Galvanized Logic Inc.

// Package signal implements the signal graph: a dense slab of named,
// continuously-sampled values that may be either set directly or bound
// to an expression over other signals, entity component fields, and
// focus state.
package signal

import (
	"container/heap"
	"errors"
	"math"
	"sync"

	"github.com/lumenforge/lumen/ecs"
)

// signal.go is the dense slab plus free-list spec §4.3 "Storage"
// describes, grounded on
// original_source/src/core/ecs/components/Signals.hh's
// `std::vector<Signal> signals` and
// `std::priority_queue<size_t, ..., std::greater<size_t>> freeIndexes`
// (a min-heap so reused indices are the smallest available, keeping the
// slab dense). `container/heap` gives the same min-heap for free with
// Go's standard idiom instead of a hand-rolled heap array.

// MaxSignalBindingDepth bounds both dirty-propagation BFS and recursive
// expression evaluation (spec §4.3).
const MaxSignalBindingDepth = 10

// ErrInvalidValue is returned by SetValue for NaN or ±Inf (spec §4.3
// "must not be a NaN/Inf"); ±Inf is reserved internally to mean "unset."
var ErrInvalidValue = errors.New("signal: value must not be NaN or Inf")

const unset = math.Inf(-1)

type slot struct {
	value float64 // unset (-Inf) falls back to expr then 0.
	expr  *expression

	ref *ecs.SignalRef

	// dependencies/dependents form the bidirectional edge set: this
	// slot's expr reads from dependencies; dependents are slots whose
	// expr reads from this one, walked by markDirty.
	dependencies map[int]struct{}
	dependents   map[int]struct{}

	cacheable   bool
	dirty       bool
	cachedValue float64

	inUse bool
}

func freshSlot() slot {
	return slot{value: unset, dependencies: map[int]struct{}{}, dependents: map[int]struct{}{}, inUse: true}
}

type minHeap []int

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x any)         { *h = append(*h, x.(int)) }
func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// Graph owns the signal slab for one simulation instance (live or
// staging each have their own Graph, matching the engine's two-Registry
// split per spec §3).
type Graph struct {
	mu       sync.RWMutex
	slots    []slot
	freeList minHeap
}

// NewGraph constructs an empty signal graph.
func NewGraph() *Graph {
	return &Graph{}
}

// resolve returns the slab index backing ref, allocating one on first
// use. Mirrors SignalRef's cached-slot-index contract (spec §4.3
// "Storage").
func (g *Graph) resolve(ref *ecs.SignalRef) int {
	if idx, ok := ref.Slot(); ok {
		g.mu.RLock()
		if idx < len(g.slots) && g.slots[idx].inUse && g.slots[idx].ref == ref {
			g.mu.RUnlock()
			return idx
		}
		g.mu.RUnlock()
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.freeList) > 0 {
		idx := heap.Pop(&g.freeList).(int)
		g.slots[idx] = freshSlot()
		g.slots[idx].ref = ref
		ref.SetSlot(idx)
		return idx
	}
	idx := len(g.slots)
	s := freshSlot()
	s.ref = ref
	g.slots = append(g.slots, s)
	ref.SetSlot(idx)
	return idx
}

// Free releases a signal's slab slot back to the free-list, e.g. when
// its owning entity is destroyed. Safe to call only once per ref.
func (g *Graph) Free(ref *ecs.SignalRef) {
	idx, ok := ref.Slot()
	if !ok {
		return
	}
	g.mu.Lock()
	if idx < len(g.slots) && g.slots[idx].inUse {
		s := &g.slots[idx]
		for dep := range s.dependencies {
			delete(g.slots[dep].dependents, idx)
		}
		*s = slot{}
		heap.Push(&g.freeList, idx)
	}
	g.mu.Unlock()
	ref.InvalidateSlot()
}

// SetValue overwrites ref's stored value, marking all transitive
// subscribers dirty and clearing the slot's own cached value (spec
// §4.3 "Writes").
func (g *Graph) SetValue(ref *ecs.SignalRef, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrInvalidValue
	}
	idx := g.resolve(ref)
	g.mu.Lock()
	g.slots[idx].value = v
	g.slots[idx].dirty = true
	g.mu.Unlock()
	g.markDirty(idx, 0)
	return nil
}

// ClearValue sets the value to "unset", falling back to the bound
// expression (or 0 if none) on the next read (spec §4.3 "Writes").
func (g *Graph) ClearValue(ref *ecs.SignalRef) {
	idx := g.resolve(ref)
	g.mu.Lock()
	g.slots[idx].value = unset
	g.mu.Unlock()
	g.markDirty(idx, 0)
}

// SetBinding parses exprText (an empty string is a parse error, see
// Parse) and rebuilds ref's
// dependency edges: it unsubscribes from the old dependency set and
// subscribes to the new one (spec §4.3 "Writes"). A parse error leaves
// the signal in a null-binding state (spec §4.3 "Failure model").
func (g *Graph) SetBinding(ref *ecs.SignalRef, exprText string) error {
	expr, err := Parse(exprText)
	if err != nil {
		g.ClearBinding(ref)
		return err
	}
	idx := g.resolve(ref)

	g.mu.Lock()
	s := &g.slots[idx]
	for dep := range s.dependencies {
		delete(g.slots[dep].dependents, idx)
	}
	s.dependencies = map[int]struct{}{}
	s.expr = expr
	s.cacheable = expr.cacheable()
	s.dirty = true
	g.mu.Unlock()

	g.markDirty(idx, 0)
	return nil
}

// ClearBinding removes ref's expression and unsubscribes from whatever
// it referenced (spec §4.3 "Writes").
func (g *Graph) ClearBinding(ref *ecs.SignalRef) {
	idx := g.resolve(ref)
	g.mu.Lock()
	s := &g.slots[idx]
	for dep := range s.dependencies {
		delete(g.slots[dep].dependents, idx)
	}
	s.dependencies = map[int]struct{}{}
	s.expr = nil
	s.cacheable = false
	s.dirty = false
	g.mu.Unlock()
}

// subscribe records that slot `from` reads slot `to`, maintaining both
// the forward dependency set (for unsubscribe on rebind) and the
// reverse subscriber set (for markDirty). Called by expression
// evaluation the first time a signal reference actually resolves, so
// edges reflect runtime reachability rather than static parse-time
// guesses about entity resolution.
func (g *Graph) subscribe(from, to int) {
	g.mu.Lock()
	g.slots[from].dependencies[to] = struct{}{}
	g.slots[to].dependents[from] = struct{}{}
	g.mu.Unlock()
}

// markDirty walks subscribers breadth-first up to MaxSignalBindingDepth,
// setting each reached signal's dirty bit (spec §4.3 "Dirty
// propagation"). A cycle is simply truncated by the depth bound.
func (g *Graph) markDirty(idx int, depth int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	frontier := []int{idx}
	for ; depth <= MaxSignalBindingDepth && len(frontier) > 0; depth++ {
		var next []int
		for _, i := range frontier {
			for s := range g.slots[i].dependents {
				if !g.slots[s].dirty {
					g.slots[s].dirty = true
					next = append(next, s)
				}
			}
		}
		frontier = next
	}
}

// GetSignal returns ref's current value per spec §4.3 "Reads": the
// stored value if set, else the bound expression evaluated (tracking
// dependency edges and the cacheable-and-clean fast path), else 0.
func (g *Graph) GetSignal(ctx *Context, ref *ecs.SignalRef, depth int) float64 {
	idx := g.resolve(ref)
	return g.getSignal(ctx, idx, depth)
}

func (g *Graph) getSignal(ctx *Context, idx int, depth int) float64 {
	if depth > MaxSignalBindingDepth {
		return 0
	}
	g.mu.RLock()
	s := g.slots[idx]
	g.mu.RUnlock()

	if s.value != unset {
		return s.value
	}
	if s.expr == nil {
		return 0
	}
	if s.cacheable && !s.dirty {
		return s.cachedValue
	}

	sub := *ctx
	sub.depth = depth + 1
	sub.fromSlot = idx
	v := s.expr.root.eval(&sub)

	if s.cacheable {
		g.mu.Lock()
		g.slots[idx].cachedValue = v
		g.slots[idx].dirty = false
		g.mu.Unlock()
	}
	return v
}
