// Copyright © 2024 Galvanized Logic Inc.

package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScript struct {
	name string
	ran  bool
}

func (f *fakeScript) Name() string { return f.name }
func (f *fakeScript) OnPhysicsUpdate(ctx *Context) error {
	f.ran = true
	return nil
}

func TestRegistryRunsRegisteredScript(t *testing.T) {
	r := NewRegistry()
	s := &fakeScript{name: "bob"}
	r.Register(s)

	require.NoError(t, r.Run("bob", &Context{}))
	assert.True(t, s.ran)
}

func TestRegistryRunUnregisteredScript(t *testing.T) {
	r := NewRegistry()
	err := r.Run("missing", &Context{})
	assert.Error(t, err)
}

func TestRegisterReplacesExisting(t *testing.T) {
	r := NewRegistry()
	first := &fakeScript{name: "bob"}
	second := &fakeScript{name: "bob"}
	r.Register(first)
	r.Register(second)

	require.NoError(t, r.Run("bob", &Context{}))
	assert.False(t, first.ran)
	assert.True(t, second.ran)
}
