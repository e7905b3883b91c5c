// Copyright © 2024 Galvanized Logic Inc.

package script

import (
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLuaScriptRunsUpdateWithDt(t *testing.T) {
	s, err := NewLuaScript("mover", `
		seenDt = nil
		function update()
			seenDt = ctx.dt
		end
	`)
	require.NoError(t, err)
	defer s.Close()

	err = s.OnPhysicsUpdate(&Context{Interval: 16 * time.Millisecond})
	require.NoError(t, err)

	dt := s.state.GetGlobal("seenDt")
	assert.InDelta(t, 0.016, float64(dt.(lua.LNumber)), 1e-6)
}

func TestLuaScriptBeforeAfterCallHooks(t *testing.T) {
	s, err := NewLuaScript("echo", `
		function update()
			body.y = body.x + 1
		end
	`)
	require.NoError(t, err)
	defer s.Close()

	var seen float64
	s.BeforeCall = func(L *lua.LState) {
		body := L.NewTable()
		body.RawSetString("x", lua.LNumber(41))
		L.SetGlobal("body", body)
	}
	s.AfterCall = func(L *lua.LState) {
		body := L.GetGlobal("body").(*lua.LTable)
		seen = float64(body.RawGetString("y").(lua.LNumber))
	}

	require.NoError(t, s.OnPhysicsUpdate(&Context{}))
	assert.Equal(t, 42.0, seen)
}

func TestLuaScriptSandboxStripsIO(t *testing.T) {
	s, err := NewLuaScript("safe", `
		function update()
			if io ~= nil then error("io should be sandboxed away") end
		end
	`)
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.OnPhysicsUpdate(&Context{}))
}

func TestLuaScriptCompileError(t *testing.T) {
	_, err := NewLuaScript("broken", "this is not valid lua (((")
	assert.Error(t, err)
}

func TestLuaScriptUpdateRuntimeError(t *testing.T) {
	s, err := NewLuaScript("boom", `
		function update()
			error("kaboom")
		end
	`)
	require.NoError(t, err)
	defer s.Close()

	err = s.OnPhysicsUpdate(&Context{})
	assert.Error(t, err)
}
