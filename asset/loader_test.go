// Copyright © 2024 Galvanized Logic Inc.

package asset

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitPollResolvesEventually(t *testing.T) {
	l := NewLoader(2)
	f := Submit(l, func() (int, error) {
		time.Sleep(10 * time.Millisecond)
		return 7, nil
	})

	_, ready, _ := f.Poll()
	assert.False(t, ready)

	require.Eventually(t, func() bool {
		_, ready, _ := f.Poll()
		return ready
	}, time.Second, time.Millisecond)

	v, ready, err := f.Poll()
	require.True(t, ready)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestSubmitWaitBlocksForResult(t *testing.T) {
	l := NewLoader(1)
	f := Submit(l, func() (string, error) { return "done", nil })

	v, err := f.Wait()
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestSubmitPropagatesError(t *testing.T) {
	l := NewLoader(1)
	wantErr := errors.New("boom")
	f := Submit(l, func() (int, error) { return 0, wantErr })

	_, err := f.Wait()
	assert.ErrorIs(t, err, wantErr)
}

func TestLoaderWaitBlocksUntilAllTasksComplete(t *testing.T) {
	l := NewLoader(4)
	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		Submit(l, func() (int, error) {
			done <- struct{}{}
			return 0, nil
		})
	}
	l.Wait()
	assert.Len(t, done, 3)
}

func TestTokenBucketTakeConsumesAndRefills(t *testing.T) {
	b := NewTokenBucket(1000, 100) // 1000 bytes/sec, 100 byte capacity, starts full

	start := time.Now()
	b.Take(100) // drains the bucket instantly
	b.Take(50)  // must wait ~50ms for refill
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
}
