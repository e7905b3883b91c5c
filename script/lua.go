// Copyright © 2024 Galvanized Logic Inc.

package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// lua.go is the gopher-lua Script implementation, grounded on
// totodo713-vamplite/internal/core/ecs/lua's LuaBridgeImpl: one
// *lua.LState per script, a sandboxing pass that strips io/os/debug/
// package/require before any user code runs, and reflection-free
// Go<->Lua marshaling of the handful of scalar values a physics script
// actually needs (position/velocity/dt), rather than that file's general
// struct-via-reflection converter — a physics script's surface is small
// and fixed, so a hand-written table beats reflecting over ecs types.

// LuaScript runs a fixed Lua source string once, at construction, then
// calls its global `update` function on each OnPhysicsUpdate call, exposing a small `ctx` table ({dt}) and a `body` table the
// script may read/write positions and velocities through. The engine
// wires the actual component transfer in via BeforeCall/AfterCall so
// this file stays engine-component-agnostic.
type LuaScript struct {
	name   string
	source string
	state  *lua.LState

	// BeforeCall populates the `body` global table ahead of each run;
	// AfterCall reads it back after. Both are optional.
	BeforeCall func(L *lua.LState)
	AfterCall  func(L *lua.LState)
}

// NewLuaScript compiles source once and returns a ready-to-run script
// named name. Sandboxing matches the teacher example's applySandbox:
// file, OS, and module-loading globals are stripped so a physics script
// cannot touch the filesystem or spawn processes.
func NewLuaScript(name, source string) (*LuaScript, error) {
	state := lua.NewState()
	sandbox(state)
	if err := state.DoString(source); err != nil {
		state.Close()
		return nil, fmt.Errorf("script: lua %q: compile: %w", name, err)
	}
	return &LuaScript{name: name, source: source, state: state}, nil
}

func sandbox(state *lua.LState) {
	state.SetGlobal("io", lua.LNil)
	state.SetGlobal("os", lua.LNil)
	state.SetGlobal("dofile", lua.LNil)
	state.SetGlobal("loadfile", lua.LNil)
	state.SetGlobal("debug", lua.LNil)
	state.SetGlobal("package", lua.LNil)
	state.SetGlobal("require", lua.LNil)
}

func (s *LuaScript) Name() string { return s.name }

// OnPhysicsUpdate sets ctx.dt, calls BeforeCall, invokes the script's
// global `update` function if present, then calls AfterCall.
func (s *LuaScript) OnPhysicsUpdate(ctx *Context) error {
	L := s.state
	ctxTable := L.NewTable()
	ctxTable.RawSetString("dt", lua.LNumber(ctx.Interval.Seconds()))
	L.SetGlobal("ctx", ctxTable)

	if s.BeforeCall != nil {
		s.BeforeCall(L)
	}

	fn := L.GetGlobal("update")
	if fn.Type() == lua.LTFunction {
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
			return fmt.Errorf("script: lua %q: update: %w", s.name, err)
		}
	}

	if s.AfterCall != nil {
		s.AfterCall(L)
	}
	return nil
}

// Close releases the underlying Lua state.
func (s *LuaScript) Close() { s.state.Close() }
