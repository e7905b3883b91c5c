// Copyright © 2024 Galvanized Logic Inc.

package telemetry

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelDefaultsAndSetLevel(t *testing.T) {
	l := New(nil, zerolog.InfoLevel)
	assert.Equal(t, zerolog.InfoLevel, l.Level())

	l.SetLevel(zerolog.DebugLevel)
	assert.Equal(t, zerolog.DebugLevel, l.Level())
}

func TestLogForTagsComponent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.log")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	l := New(f, zerolog.InfoLevel)
	l.For("physics").Warn().Msg("frame overran budget")

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "physics")
	assert.Contains(t, string(contents), "frame overran budget")
}

func TestLogSetLevelSuppressesBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	w, err := os.CreateTemp(t.TempDir(), "log")
	require.NoError(t, err)
	defer w.Close()

	l := New(w, zerolog.InfoLevel)
	l.SetLevel(zerolog.WarnLevel)
	l.For("physics").Info().Msg("should not appear")
	l.For("physics").Warn().Msg("should appear")

	data, err := os.ReadFile(w.Name())
	require.NoError(t, err)
	buf.Write(data)
	assert.NotContains(t, buf.String(), "should not appear")
	assert.Contains(t, buf.String(), "should appear")
}
