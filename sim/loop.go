// Copyright © 2024 Galvanized Logic Inc.

// Package sim is the physics loop: one registered thread that, each
// frame, dispatches input, steps character controllers, refreshes
// transform snapshots, resolves triggers and animation, reconciles
// backend physics actors against the ECS, resolves joints and queries,
// propagates lasers, runs physics scripts, and finally steps the
// physics backend itself. Grounded on
// original_source/src/physics/physx/PhysxManager.cc — the only file in
// the retrieved corpus that implements this reconciliation loop — with
// the fixed-interval pacing style of gazed-vu's eng.go, generalized
// through the thread package's registered-thread runtime.
package sim

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/lumenforge/lumen/asset"
	"github.com/lumenforge/lumen/ecs"
	"github.com/lumenforge/lumen/hull"
	"github.com/lumenforge/lumen/script"
	"github.com/lumenforge/lumen/signal"
	"github.com/lumenforge/lumen/telemetry"
	"github.com/lumenforge/lumen/thread"
)

// frameAccess is the union read/write set acquired once per physics
// frame (spec §4.5 Phase 2).
var frameAccess = ecs.AccessSet{
	Read: []ecs.Kind{
		ecs.KindLaserEmitter, ecs.KindLightSensor, ecs.KindEventInput,
		ecs.KindPhysics, ecs.KindSceneProperties, ecs.KindScript,
	},
	Write: []ecs.Kind{
		ecs.KindAnimation, ecs.KindTransformSnapshot, ecs.KindTransformTree,
		ecs.KindTriggerArea, ecs.KindPhysicsJoints, ecs.KindCharacterController,
		ecs.KindOpticalElement, ecs.KindPhysicsQuery, ecs.KindLaserLine, ecs.KindLaserSensor,
		ecs.KindEventInput,
	},
}

// InputDispatch is one OS/window event waiting to be routed to a named
// entity's EventInput queue (spec §4.5 step 1). The window layer (out of
// scope) pushes these; Runtime drains them every frame.
type InputDispatch struct {
	EntityName string
	Event      ecs.InputEvent
}

// Runtime owns everything the physics loop touches each frame: the live
// ECS instance, the shared reference manager, the live signal graph, the
// convex-hull cache, the asset loader and model/physics-info sources,
// the script registry, and the engine-side bookkeeping (actors, dirty
// caches, trigger overlap sets) that has no ECS home of its own.
type Runtime struct {
	Live    *ecs.Registry
	Refs    *ecs.ReferenceManager
	Signals *signal.Graph
	Focus   signal.FocusState

	Hull        *hull.Cache
	Loader      *asset.Loader
	Models      asset.ModelSource
	PhysicsInfo map[string]asset.PhysicsInfo // model name -> hull settings table

	Scripts *script.Registry

	Log     zerolog.Logger
	Metrics *telemetry.Metrics

	Interval time.Duration
	Debug    bool

	Inbox chan InputDispatch

	backend   backend
	actors    map[ecs.ID]*Actor
	physicsObs *ecs.Observer

	animState   map[ecs.ID]*animTracker
	triggerPrev map[ecs.ID]map[ecs.ID]bool
	snapshots   map[ecs.ID]*snapshotEntry
	dynamicPrev map[ecs.ID]ecs.Transform

	hullFutures map[string]*hullFuture

	preload *preloadQueue

	frame *ecs.Lock // valid only while a Phase 2 transaction is open; used by helper methods.
}

// NewRuntime constructs a physics Runtime. interval is the fixed frame
// timestep (spec §4.4, §4.5); 1/120s matches the documented 120Hz
// nominal rate.
func NewRuntime(live *ecs.Registry, refs *ecs.ReferenceManager, signals *signal.Graph, focus signal.FocusState,
	hullCache *hull.Cache, loader *asset.Loader, models asset.ModelSource, physicsInfo map[string]asset.PhysicsInfo,
	scripts *script.Registry, log zerolog.Logger, metrics *telemetry.Metrics, interval time.Duration) *Runtime {

	return &Runtime{
		Live: live, Refs: refs, Signals: signals, Focus: focus,
		Hull: hullCache, Loader: loader, Models: models, PhysicsInfo: physicsInfo,
		Scripts: scripts, Log: log, Metrics: metrics, Interval: interval,
		Inbox:       make(chan InputDispatch, 1024),
		actors:      map[ecs.ID]*Actor{},
		animState:   map[ecs.ID]*animTracker{},
		triggerPrev: map[ecs.ID]map[ecs.ID]bool{},
		snapshots:   map[ecs.ID]*snapshotEntry{},
		dynamicPrev: map[ecs.ID]ecs.Transform{},
		hullFutures: map[string]*hullFuture{},
		preload:     newPreloadQueue(),
	}
}

// Thread builds the registered thread driving this Runtime at its
// configured interval (spec §4.4, §4.5's "physics thread").
func (r *Runtime) Thread() *thread.Thread {
	return thread.New("physics", r.Interval, thread.Hooks{
		ThreadInit: r.threadInit,
		PreFrame:   r.preFrame,
		Frame:      r.frame1,
		PostFrame:  r.postFrame,
	})
}

func (r *Runtime) threadInit() bool {
	r.physicsObs = ecs.Observe[ecs.Physics](r.Live)
	r.Log.Info().Dur("interval", r.Interval).Msg("physics thread starting")
	return true
}

// preFrame is Phase 1: out-of-transaction scene-preload admission (spec
// §4.5 "Phase 1").
func (r *Runtime) preFrame() bool {
	r.preload.tick(r)
	return true
}

// frame1 is Phase 2 + Phase 3 + Phase 4: the write transaction running
// sub-steps 1-14, then the no-lock backend step, then the cache tick
// (spec §4.5).
func (r *Runtime) frame1() {
	start := time.Now()

	lock, err := r.Live.StartTransaction(frameAccess, nil)
	if err != nil {
		r.Log.Error().Err(err).Msg("physics frame: acquire transaction")
		return
	}
	r.frame = lock

	r.dispatchInput(lock)          // step 1
	r.stepCharacterControllers(lock) // step 2
	r.writeBackDynamicSnapshots(lock) // step 3
	r.refreshNonDynamicSnapshots(lock) // step 4
	r.updateTriggers(lock)         // step 5
	r.interpolateAnimation(lock)   // step 6
	r.drainPhysicsObserver(lock)   // step 7
	r.reconcileParentActors(lock)  // step 8
	r.reconcileSubActors(lock)     // step 9
	r.resolveJoints(lock)          // step 10
	r.resolveQueries(lock)         // step 11
	r.propagateLasers(lock)        // step 12
	r.runScripts(lock)             // step 13
	r.dumpDebugLines(lock)         // step 14

	lock.Release()
	r.frame = nil
	r.Live.DrainDeferred()

	r.simulateBackend() // Phase 3
	r.Hull.Tick(r.Interval) // Phase 4

	if r.Metrics != nil {
		r.Metrics.ObservePhysicsFrame(time.Since(start).Seconds())
		r.Metrics.SetActorCount(len(r.actors))
	}
}

func (r *Runtime) postFrame(stepMode bool) {}

// The measured frame rate is read from the *thread.Thread that Thread
// returns, through its MeasuredFPS method (SPEC_FULL.md §C.1).
