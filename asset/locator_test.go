// Copyright © 2024 Galvanized Logic Inc.

package asset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneNameStripsSuffixes(t *testing.T) {
	assert.Equal(t, "level1", SceneName("level1.json"))
	assert.Equal(t, "level1", SceneName("level1.scene.json"))
	assert.Equal(t, "level1", SceneName("level1"))
}

func TestLocatorReadsFromConfiguredDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "crate.physicsinfo.json"), []byte(`{}`), 0o644))

	l := NewLocator().Dir("PHYSICSINFO", dir)
	data, err := l.Read("PHYSICSINFO", "crate.physicsinfo.json")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestLocatorMissingFile(t *testing.T) {
	l := NewLocator().Dir("SCENE", t.TempDir())
	_, err := l.Read("SCENE", "missing.json")
	assert.Error(t, err)
}
