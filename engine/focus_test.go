// Copyright © 2024 Galvanized Logic Inc.

package engine

import (
	"testing"

	"github.com/lumenforge/lumen/signal"
	"github.com/stretchr/testify/assert"
)

func TestNewFocusDefaultsToGameLayerActive(t *testing.T) {
	f := NewFocus()
	assert.True(t, f.IsFocused(signal.FocusGame))
	assert.False(t, f.IsFocused(signal.FocusMenu))
}

func TestSetFocusedTogglesLayers(t *testing.T) {
	f := NewFocus()
	f.SetFocused(signal.FocusMenu, true)
	assert.True(t, f.IsFocused(signal.FocusMenu))

	f.SetFocused(signal.FocusGame, false)
	assert.False(t, f.IsFocused(signal.FocusGame))
}
