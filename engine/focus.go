// Copyright © 2024 Galvanized Logic Inc.

package engine

import (
	"sync"

	"github.com/lumenforge/lumen/signal"
)

// focus.go is the minimal signal.FocusState implementation this module
// owns so signal.Context always has one to evaluate is_focused/
// if_focused expressions against. Spec §1 treats the window/input layer
// as an external collaborator; this is a plain settable map rather than
// a real input-focus stack, since no SPEC_FULL.md component drives focus
// changes from window events.

// Focus tracks which UI focus layers are currently active. The (out of
// scope) window layer would call SetFocused as the player's input focus
// changes; tests and cmd/ entry points can drive it directly.
type Focus struct {
	mu     sync.RWMutex
	active map[signal.FocusLayer]bool
}

// NewFocus returns a Focus with FocusGame active, the natural default
// for a headless engine instance with no menu/overlay yet open.
func NewFocus() *Focus {
	return &Focus{active: map[signal.FocusLayer]bool{signal.FocusGame: true}}
}

// SetFocused marks layer active or inactive.
func (f *Focus) SetFocused(layer signal.FocusLayer, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active[layer] = active
}

// IsFocused implements signal.FocusState.
func (f *Focus) IsFocused(layer signal.FocusLayer) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.active[layer]
}
