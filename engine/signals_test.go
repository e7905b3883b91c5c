// Copyright © 2024 Galvanized Logic Inc.

package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/ecs"
	"github.com/lumenforge/lumen/signal"
)

// TestMergeSceneSignalsOutputWinsOverBindings exercises components.go's
// documented precedence rule directly: when an entity carries both a
// SignalBindings expression and a SignalOutput value for the same
// signal name, the direct SignalOutput value must win.
func TestMergeSceneSignalsOutputWinsOverBindings(t *testing.T) {
	e := newTestEngine(t)

	sceneDir := t.TempDir()
	e.Locator.Dir("SCENE", sceneDir)
	scenePath := filepath.Join(sceneDir, "level1.json")
	sceneJSON := `{
		"entities": [
			{
				"name": "box",
				"SignalBindings": {"health": "50"},
				"SignalOutput": {"health": 100}
			}
		]
	}`
	require.NoError(t, os.WriteFile(scenePath, []byte(sceneJSON), 0o644))

	scene, err := e.LoadScene("level1.json")
	require.NoError(t, err)
	require.NoError(t, e.PromoteScene(scene))

	ref := e.Refs.GetEntityByName(ecs.QualifiedName(scene, "box"))
	sig := e.Refs.GetSignal(ecs.SignalKey{Entity: ref, Signal: "health"})
	ctx := &signal.Context{Graph: e.Signals, Refs: e.Refs, Registry: e.Live, Focus: e.Focus}

	assert.Equal(t, 100.0, e.Signals.GetSignal(ctx, sig, 0),
		"SignalOutput must overwrite a binding-derived value for the same key")
}
