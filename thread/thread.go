// Copyright © 2024 Galvanized Logic Inc.

// Package thread implements the registered-thread runtime: a named
// worker loop with a fixed frame interval, pause/step control, and
// measured FPS, used by both the physics loop and any other engine
// subsystem that runs on its own cadence.
package thread

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// thread.go is a direct Go port of
// original_source/src/common/common/RegisteredThread.{hh,cc} (spec
// §4.4): the Stopped/Started/Stopping atomic state machine, the
// step_count/max_step_count wait/notify pair, and the
// `frameEnd += interval` catch-up-avoidance reset with a 100ns grace
// window. `eng.go`'s own hand-rolled frame-timing loop in the teacher
// (`dt := 0.02`, `time.Sleep` to pace the frame) is the Go-idiom
// precedent for "a loop that paces itself against a target interval
// with time.Sleep" that this generalizes into a reusable, named,
// pausable/steppable thread type. Standard-library only
// (`sync/atomic`, `time`): no pack dependency models a worker-thread
// lifecycle state machine, and introducing one here would obscure the
// original's exact wait/notify shape.

// State is the registered thread's lifecycle state (spec §4.4).
type State uint32

const (
	Stopped State = iota
	Started
	Stopping
)

func (s State) String() string {
	switch s {
	case Started:
		return "started"
	case Stopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Hooks are the callbacks a registered thread drives each iteration
// (spec §4.4). ThreadInit runs once before the first Frame; returning
// false aborts startup. PreFrame runs every iteration; returning false
// skips Frame/PostFrame for that iteration but preserves cadence.
// PostFrame runs after Frame on every iteration whose PreFrame returned
// true, receiving whether this iteration ran in step mode; in step mode
// it runs even when no stepped frame was pending.
type Hooks struct {
	ThreadInit func() bool
	PreFrame   func() bool
	Frame      func()
	PostFrame  func(stepMode bool)
}

// Thread is a named worker loop paced to a fixed interval (or yielding
// between iterations if interval is 0), matching
// RegisteredThread's two constructors (explicit interval, or a target
// frames-per-second converted to an interval).
type Thread struct {
	Name     string
	interval time.Duration
	hooks    Hooks
	trace    bool

	state State

	stepMode    atomic.Bool
	stepCount   atomic.Uint64
	maxStepCnt  atomic.Uint64
	stepCond    *sync.Cond
	stepCondMu  sync.Mutex

	stateCond   *sync.Cond
	stateCondMu sync.Mutex

	measuredFPS atomic.Uint32

	done chan struct{}
}

// New constructs a thread with an explicit frame interval. interval <= 0
// means "yield between frames" rather than sleep to a target.
func New(name string, interval time.Duration, hooks Hooks) *Thread {
	t := &Thread{Name: name, interval: interval, hooks: hooks, state: Stopped}
	t.stepCond = sync.NewCond(&t.stepCondMu)
	t.stateCond = sync.NewCond(&t.stateCondMu)
	return t
}

// NewAtFPS constructs a thread targeting framesPerSecond, converting it
// to an interval the same way the original's second constructor does.
func NewAtFPS(name string, framesPerSecond float64, hooks Hooks) *Thread {
	var interval time.Duration
	if framesPerSecond > 0 {
		interval = time.Duration(1e9 / framesPerSecond)
	}
	return New(name, interval, hooks)
}

// MeasuredFPS returns the most recently measured frames-per-second,
// updated once per second of wall-clock run time.
func (t *Thread) MeasuredFPS() uint32 { return t.measuredFPS.Load() }

// State reports the current lifecycle state.
func (t *Thread) State() State {
	t.stateCondMu.Lock()
	defer t.stateCondMu.Unlock()
	return t.state
}

// Start transitions Stopped → Started and launches the worker goroutine.
// Returns false if the thread was not Stopped.
func (t *Thread) Start(startPaused bool) bool {
	t.stateCondMu.Lock()
	if t.state != Stopped {
		t.stateCondMu.Unlock()
		return false
	}
	t.state = Started
	t.stateCond.Broadcast()
	t.stateCondMu.Unlock()

	if startPaused {
		t.Pause(true)
	}

	t.done = make(chan struct{})
	go t.run()
	return true
}

// Pause sets (or clears) step mode, per RegisteredThread::Pause.
func (t *Thread) Pause(pause bool) { t.stepMode.Store(pause) }

// Step adds count to the max step counter and blocks until the worker's
// step count catches up — only meaningful while paused (spec §4.4).
func (t *Thread) Step(count uint64) {
	if count == 0 {
		count = 1
	}
	target := t.maxStepCnt.Add(count)
	t.stepCondMu.Lock()
	for t.stepCount.Load() < target {
		t.stepCond.Wait()
	}
	t.stepCondMu.Unlock()
}

// Stop transitions Started → Stopping; the worker observes this at the
// top of its loop and transitions to Stopped on exit. If waitForExit,
// Stop blocks until that transition completes.
func (t *Thread) Stop(waitForExit bool) {
	t.stateCondMu.Lock()
	if t.state == Stopped {
		t.stateCondMu.Unlock()
		return
	}
	t.state = Stopping
	t.stateCond.Broadcast()
	for waitForExit && t.state != Stopped {
		t.stateCond.Wait()
	}
	t.stateCondMu.Unlock()
}

func (t *Thread) setState(s State) {
	t.stateCondMu.Lock()
	t.state = s
	t.stateCond.Broadcast()
	t.stateCondMu.Unlock()
}

func (t *Thread) run() {
	defer close(t.done)
	defer t.setState(Stopped)

	if t.hooks.ThreadInit != nil && !t.hooks.ThreadInit() {
		return
	}

	frameEnd := time.Now()
	fpsWindowStart := frameEnd
	framesThisWindow := 0

	for t.State() == Started {
		ran := true
		if t.hooks.PreFrame != nil {
			ran = t.hooks.PreFrame()
		}
		if ran {
			if t.stepMode.Load() {
				for t.stepCount.Load() < t.maxStepCnt.Load() {
					if t.hooks.Frame != nil {
						t.hooks.Frame()
					}
					t.stepCondMu.Lock()
					t.stepCount.Add(1)
					t.stepCond.Broadcast()
					t.stepCondMu.Unlock()
					framesThisWindow++
				}
				if t.hooks.PostFrame != nil {
					t.hooks.PostFrame(true)
				}
			} else {
				if t.hooks.Frame != nil {
					t.hooks.Frame()
				}
				if t.hooks.PostFrame != nil {
					t.hooks.PostFrame(false)
				}
				framesThisWindow++
			}
		}

		now := time.Now()
		if since := now.Sub(fpsWindowStart); since >= time.Second {
			t.measuredFPS.Store(uint32(float64(framesThisWindow) / since.Seconds()))
			framesThisWindow = 0
			fpsWindowStart = now
		}

		if t.interval > 0 {
			frameEnd = frameEnd.Add(t.interval)
			if now.After(frameEnd) || now.Equal(frameEnd) {
				// Falling behind: reset the target instead of spiraling to
				// catch up, leaving a small grace window for other threads
				// to start transactions.
				frameEnd = now.Add(100 * time.Nanosecond)
			}
			time.Sleep(time.Until(frameEnd))
		} else {
			runtime.Gosched()
		}
	}
}
