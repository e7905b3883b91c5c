// Copyright © 2024 Galvanized Logic Inc.

// Package script is the external-collaborator boundary for physics
// scripts (spec §4.5 step 13 "Script on-physics-update"). The physics
// loop only depends on the Script/Registry contract in this file; a
// concrete interpreter (lua.go) is one implementation among possibly
// several.
package script

import (
	"fmt"
	"sync"
	"time"

	"github.com/lumenforge/lumen/ecs"
)

// Context carries what a script needs to run for one entity during the
// frame's write transaction: the entity it was attached to via
// ecs.Script, the frame's lock (already holding the access the physics
// loop acquired for phase 2), and the fixed frame interval.
type Context struct {
	Entity   ecs.Entity
	Lock     *ecs.Lock
	Interval time.Duration
}

// Script is one registered physics script, looked up by the name an
// ecs.Script component carries.
type Script interface {
	Name() string
	OnPhysicsUpdate(ctx *Context) error
}

// Registry is the set of scripts the engine knows about, keyed by name.
// Scripts are added with Register and looked up by name every frame; the
// engine package constructs an empty Registry and registers none itself.
type Registry struct {
	mu      sync.RWMutex
	scripts map[string]Script
}

// NewRegistry constructs an empty script registry.
func NewRegistry() *Registry {
	return &Registry{scripts: map[string]Script{}}
}

// Register adds s under its own Name(), replacing any existing script
// registered under that name.
func (r *Registry) Register(s Script) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts[s.Name()] = s
}

// Run looks up name and invokes its OnPhysicsUpdate. Returns an error if
// no script is registered under name, matching spec §7's "Validation...
// warn, substitute a safe default, continue" — the caller (sim/scripts.go)
// logs and skips rather than aborting the frame.
func (r *Registry) Run(name string, ctx *Context) error {
	r.mu.RLock()
	s, ok := r.scripts[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("script: %q not registered", name)
	}
	return s.OnPhysicsUpdate(ctx)
}
