// Copyright © 2024 Galvanized Logic Inc.

package thread

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRunsFramesAndStops(t *testing.T) {
	var frames atomic.Int64
	th := New("test", time.Millisecond, Hooks{
		Frame: func() { frames.Add(1) },
	})
	require.True(t, th.Start(false))
	time.Sleep(20 * time.Millisecond)
	th.Stop(true)

	assert.Equal(t, Stopped, th.State())
	assert.Greater(t, frames.Load(), int64(0))
}

func TestStartTwiceFails(t *testing.T) {
	th := New("test", time.Millisecond, Hooks{Frame: func() {}})
	require.True(t, th.Start(false))
	assert.False(t, th.Start(false))
	th.Stop(true)
}

func TestThreadInitFalseStopsImmediately(t *testing.T) {
	th := New("test", time.Millisecond, Hooks{
		ThreadInit: func() bool { return false },
		Frame:      func() { t.Fatal("frame should never run") },
	})
	require.True(t, th.Start(false))
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, Stopped, th.State())
}

func TestStepModeRunsExactCount(t *testing.T) {
	var frames atomic.Int64
	th := New("test", time.Millisecond, Hooks{
		Frame: func() { frames.Add(1) },
	})
	th.Pause(true)
	require.True(t, th.Start(true))

	th.Step(3)
	assert.Equal(t, int64(3), frames.Load())

	th.Step(2)
	assert.Equal(t, int64(5), frames.Load())

	th.Stop(true)
}
