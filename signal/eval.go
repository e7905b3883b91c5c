// Copyright © 2024 Galvanized Logic Inc.

package signal

import (
	"math"

	"github.com/lumenforge/lumen/ecs"
)

// eval.go holds the expression AST node types and their evaluation,
// grounded on
// original_source/src/core/ecs/SignalExpression.hh's `expression::Node`/
// `Context` split and the function/operator table documented in
// `DocsDescriptionSignalExpression` (spec §6). Parsing (expr.go) builds
// these nodes; Graph.getSignal (signal.go) drives evaluation.

// FocusLayer names one of the UI focus layers a signal expression can
// query (spec §6 "Focus functions").
type FocusLayer string

const (
	FocusGame    FocusLayer = "Game"
	FocusMenu    FocusLayer = "Menu"
	FocusOverlay FocusLayer = "Overlay"
)

// FocusState answers is_focused/if_focused queries. The engine's window
// layer implements this; tests can supply a trivial stub.
type FocusState interface {
	IsFocused(FocusLayer) bool
}

// Context carries everything an expression node needs to evaluate:
// where to resolve entity and signal names, how to read component
// fields, and the current focus state. One Context is built per
// top-level GetSignal call and threaded (with incremented depth) through
// recursive evaluation.
type Context struct {
	Graph    *Graph
	Refs     *ecs.ReferenceManager
	Registry *ecs.Registry
	Focus    FocusState

	depth    int
	fromSlot int
}

type node interface {
	eval(ctx *Context) float64
	cacheable() bool
}

type numberNode float64

func (n numberNode) eval(*Context) float64 { return float64(n) }
func (numberNode) cacheable() bool         { return true }

type unaryNode struct {
	op byte // '-' or '!'
	x  node
}

func (n unaryNode) eval(ctx *Context) float64 {
	v := n.x.eval(ctx)
	switch n.op {
	case '-':
		return -v
	case '!':
		return boolTo(!truthy(v))
	}
	return 0
}
func (n unaryNode) cacheable() bool { return n.x.cacheable() }

type binaryNode struct {
	op   string
	l, r node
}

func truthy(v float64) bool { return v >= 0.5 }
func boolTo(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (n binaryNode) eval(ctx *Context) float64 {
	l := n.l.eval(ctx)
	r := n.r.eval(ctx)
	switch n.op {
	case "+":
		return l + r
	case "-":
		return l - r
	case "*":
		return l * r
	case "/":
		if r == 0 {
			return 0
		}
		return l / r
	case "&&":
		return boolTo(truthy(l) && truthy(r))
	case "||":
		return boolTo(truthy(l) || truthy(r))
	case ">":
		return boolTo(l > r)
	case ">=":
		return boolTo(l >= r)
	case "<":
		return boolTo(l < r)
	case "<=":
		return boolTo(l <= r)
	case "==":
		return boolTo(l == r)
	case "!=":
		return boolTo(l != r)
	}
	return 0
}

func (n binaryNode) cacheable() bool { return n.l.cacheable() && n.r.cacheable() }

type callNode struct {
	name string
	args []node
}

func (n callNode) eval(ctx *Context) float64 {
	a := func(i int) float64 {
		if i < len(n.args) {
			return n.args[i].eval(ctx)
		}
		return 0
	}
	switch n.name {
	case "sin":
		return math.Sin(a(0))
	case "cos":
		return math.Cos(a(0))
	case "tan":
		return math.Tan(a(0))
	case "floor":
		return math.Floor(a(0))
	case "ceil":
		return math.Ceil(a(0))
	case "abs":
		return math.Abs(a(0))
	case "min":
		return math.Min(a(0), a(1))
	case "max":
		return math.Max(a(0), a(1))
	}
	return 0
}

func (n callNode) cacheable() bool {
	for _, a := range n.args {
		if !a.cacheable() {
			return false
		}
	}
	return true
}

// focusNode is is_focused(layer) or if_focused(layer, x). The layer is
// a bare identifier captured at parse time, not an evaluated node.
type focusNode struct {
	layer FocusLayer
	arg   node // nil for is_focused
}

func (n focusNode) eval(ctx *Context) float64 {
	focused := ctx.Focus != nil && ctx.Focus.IsFocused(n.layer)
	if n.arg == nil {
		return boolTo(focused)
	}
	if !focused {
		return 0
	}
	return n.arg.eval(ctx)
}

// focusNode is never cacheable: focus state can change between frames
// without any signal's dirty bit being set, so a cached value would go
// stale silently (spec §4.3 "Caching" excludes focus queries for
// exactly this reason).
func (focusNode) cacheable() bool { return false }

// signalNode is the `<entity>/<signal>` production (spec §6 "Entity
// signal access"). Missing entity or signal resolves to 0.0, never an
// error (spec §4.3 "Failure model").
type signalNode struct {
	entity string
	signal string
}

func (n signalNode) eval(ctx *Context) float64 {
	if ctx.Refs == nil {
		return 0
	}
	entity := ctx.Refs.GetEntityByName(n.entity)
	ref := ctx.Refs.GetSignal(ecs.SignalKey{Entity: entity, Signal: n.signal})
	idx := ctx.Graph.resolve(ref)
	if ctx.fromSlot >= 0 {
		ctx.Graph.subscribe(ctx.fromSlot, idx)
	}
	v := ctx.Graph.getSignal(ctx, idx, ctx.depth)
	if ctx.fromSlot >= 0 {
		g := ctx.Graph
		g.mu.Lock()
		if dep := &g.slots[idx]; dep.expr != nil && !dep.cacheable {
			g.slots[ctx.fromSlot].cacheable = false // reads an uncacheable binding.
		}
		g.mu.Unlock()
	}
	return v
}

// signalNode reports cacheable: a signal reference never itself performs
// component-field or focus access (component/focus access is what
// disqualifies a binding). The referenced signal's own cacheable bit is
// applied at evaluation time instead: signalNode.eval clears the reading
// slot's cacheable bit when the referenced signal is an uncacheable
// binding, so uncacheability propagates to everything that reads it.
func (signalNode) cacheable() bool { return true }

// fieldNode is the `<entity>#<component>.<field>` production (spec §6
// "Component field access"). Out-of-range or missing fields resolve to
// 0.0 (spec §4.3 "Failure model").
type fieldNode struct {
	entity    string
	component string
	field     string
}

func (n fieldNode) eval(ctx *Context) float64 {
	if ctx.Refs == nil || ctx.Registry == nil {
		return 0
	}
	ref := ctx.Refs.GetEntityByName(n.entity)
	id, ok := ref.Resolve(ctx.Registry.Instance())
	if !ok {
		return 0
	}
	v, ok := ctx.Registry.FieldValue(ecs.Entity{ID: id, Instance: ctx.Registry.Instance()}, n.component, n.field)
	if !ok {
		return 0
	}
	return v
}

// fieldNode disqualifies a binding from caching: component state can
// change without going through the signal graph's dirty propagation at
// all, so a cached value could go stale (spec §4.3 "Caching": cacheable
// iff "no component-field access").
func (fieldNode) cacheable() bool { return false }
