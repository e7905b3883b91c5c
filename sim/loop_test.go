// Copyright © 2024 Galvanized Logic Inc.

package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRuntimeThreadStartsAndStopsCleanly(t *testing.T) {
	r := newTestRuntime(t)
	th := r.Thread()

	require.True(t, th.Start(false))
	time.Sleep(20 * time.Millisecond) // let a few empty frames run
	th.Stop(true)
}
