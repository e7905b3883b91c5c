// Copyright © 2024 Galvanized Logic Inc.

package sim

import (
	"github.com/lumenforge/lumen/ecs"
	"github.com/lumenforge/lumen/script"
)

// scripts.go is spec §4.5 step 13: run each entity's registered script
// against the current frame's write-locked transaction. Grounded on
// script.Registry.Run and script.Context's existing surface.

// runScripts is spec §4.5 step 13.
func (r *Runtime) runScripts(lock *ecs.Lock) {
	if r.Scripts == nil {
		return
	}
	lock.Each([]ecs.Kind{ecs.KindScript}, func(e ecs.Entity) {
		s, ok, err := ecs.Get[ecs.Script](lock, e)
		if !ok || err != nil || s.Name == "" {
			return
		}
		if err := r.Scripts.Run(s.Name, &script.Context{Entity: e, Lock: lock, Interval: r.Interval}); err != nil {
			r.Log.Error().Err(err).Str("script", s.Name).Msg("physics script failed")
		}
	})
}
