// Copyright © 2024 Galvanized Logic Inc.

package engine

import (
	"fmt"

	"github.com/lumenforge/lumen/ecs"
)

// signals.go folds a newly-flattened scene's staging-only SignalOutput/
// SignalBindings components into the live Signal Graph (SPEC_FULL.md
// §C.3): components.go's doc comment on SignalBindings is explicit that
// "if a name is present in both SignalOutput and SignalBindings,
// SignalOutput wins," so bound expressions are installed first and
// direct values applied after, overwriting any binding-derived value for
// the same key.

// mergeSceneSignals walks every entity PromoteScene just flattened into
// live and applies its SignalBindings then SignalOutput onto the Signal
// Graph, keyed by the entity's interned EntityRef.
func (e *Engine) mergeSceneSignals(scene string) error {
	lock, err := e.Live.StartTransaction(ecs.AccessSet{Read: []ecs.Kind{ecs.KindName, ecs.KindSignalOutput, ecs.KindSignalBindings}}, nil)
	if err != nil {
		return fmt.Errorf("engine: merge scene %q signals: %w", scene, err)
	}
	defer lock.Release()

	var firstErr error
	lock.Each([]ecs.Kind{ecs.KindName}, func(ent ecs.Entity) {
		name, ok, err := ecs.Get[ecs.Name](lock, ent)
		if !ok || err != nil || name.Scene != scene {
			return
		}
		ref := e.Refs.GetEntityRef(ent)
		if ref == nil {
			return
		}

		if bindings, ok, err := ecs.Get[ecs.SignalBindings](lock, ent); ok && err == nil {
			for signalName, expr := range bindings.Expressions {
				sig := e.Refs.GetSignal(ecs.SignalKey{Entity: ref, Signal: signalName})
				if err := e.Signals.SetBinding(sig, expr); err != nil && firstErr == nil {
					firstErr = fmt.Errorf("engine: scene %q entity %q signal %q: %w", scene, name.Local, signalName, err)
				}
			}
		}
		if output, ok, err := ecs.Get[ecs.SignalOutput](lock, ent); ok && err == nil {
			for signalName, value := range output.Values {
				sig := e.Refs.GetSignal(ecs.SignalKey{Entity: ref, Signal: signalName})
				e.Signals.ClearBinding(sig)
				if err := e.Signals.SetValue(sig, value); err != nil && firstErr == nil {
					firstErr = fmt.Errorf("engine: scene %q entity %q signal %q: %w", scene, name.Local, signalName, err)
				}
			}
		}
	})
	return firstErr
}
