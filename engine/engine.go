// Copyright © 2024 Galvanized Logic Inc.

// Package engine is the top-level wiring Design Notes call for: it owns
// the staging and live ECS registries, the shared Reference Manager, the
// signal graph, the hull cache, the asset loader/locator, the script
// registry, and the registered threads, handing sub-references to each
// at construction instead of reaching for package globals (Design Notes'
// "Global state"). Grounded on gazed-vu/eng.go and app.go's
// engine-owns-everything shape (the engine struct aggregating gc, dev,
// stage, ...) and config.go's functional-options bootstrap.
package engine

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/lumenforge/lumen/asset"
	"github.com/lumenforge/lumen/config"
	"github.com/lumenforge/lumen/ecs"
	"github.com/lumenforge/lumen/hull"
	"github.com/lumenforge/lumen/script"
	"github.com/lumenforge/lumen/sim"
	"github.com/lumenforge/lumen/signal"
	"github.com/lumenforge/lumen/telemetry"
)

// Engine is the process-wide instance every subsystem is constructed
// from, rather than reached for as a package global.
type Engine struct {
	Config config.Config
	Log    *telemetry.Log

	Staging *ecs.Registry
	Live    *ecs.Registry
	Refs    *ecs.ReferenceManager
	Signals *signal.Graph
	Focus   *Focus

	Hull    *hull.Cache
	Loader  *asset.Loader
	Locator *asset.Locator
	Models  asset.ModelSource

	Scripts *script.Registry
	Physics *sim.Runtime

	metrics *telemetry.Metrics
	cron    *cron.Cron
}

// New wires an Engine from cfg. models is the GLTF/GLB container parser
// (spec §1 external collaborator); promReg may be nil to run with
// metrics disabled.
func New(cfg config.Config, models asset.ModelSource, log *telemetry.Log, promReg *prometheus.Registry) (*Engine, error) {
	refs := ecs.NewReferenceManager(cfg.RefGraceTTL)
	physicsInfo := map[string]asset.PhysicsInfo{}

	e := &Engine{
		Config:  cfg,
		Log:     log,
		Staging: ecs.NewRegistry(ecs.Staging, refs),
		Live:    ecs.NewRegistry(ecs.Live, refs),
		Refs:    refs,
		Signals: signal.NewGraph(),
		Focus:   NewFocus(),
		Hull:    hull.NewCache(cfg.HullCacheDir, cfg.HullCacheTTL),
		Loader:  asset.NewLoader(4),
		Locator: asset.NewLocator(),
		Models:  models,
		Scripts: script.NewRegistry(),
		metrics: telemetry.NewMetrics(promReg),
	}

	e.Physics = sim.NewRuntime(e.Live, e.Refs, e.Signals, e.Focus, e.Hull, e.Loader, e.Models, physicsInfo,
		e.Scripts, log.For("physics"), e.metrics, cfg.PhysicsInterval())
	e.Physics.Debug = cfg.DebugLaserLines

	return e, nil
}

// RegisterPhysicsInfo installs a model's hull-settings table directly,
// overriding whatever ensurePhysicsInfo would otherwise lazily load from
// disk. Safe to call before Start.
func (e *Engine) RegisterPhysicsInfo(model string, info asset.PhysicsInfo) {
	e.Physics.PhysicsInfo[model] = info
}

// ensurePhysicsInfo lazily loads model's "<model>.physicsinfo.json" file
// via the Locator on first reference, caching the result (spec §6
// "PhysicsInfo files"). A scene's convex-mesh shapes drive this rather
// than an eager startup scan, since a deployment's live scene set
// dictates which models are ever actually needed.
func (e *Engine) ensurePhysicsInfo(model string) error {
	if _, ok := e.Physics.PhysicsInfo[model]; ok {
		return nil
	}
	raw, err := e.Locator.Read("PHYSICSINFO", model+".physicsinfo.json")
	if err != nil {
		return fmt.Errorf("engine: physicsinfo %q: %w", model, err)
	}
	info, err := asset.LoadPhysicsInfo(model, raw, func(msg string) {
		e.Log.For("engine").Warn().Msg(msg)
	})
	if err != nil {
		return fmt.Errorf("engine: physicsinfo %q: %w", model, err)
	}
	e.Physics.PhysicsInfo[model] = info
	return nil
}

// Start launches the registered threads and the cron-scheduled
// Reference Manager sweep (spec §4.2 "tick(max_interval)" as independent
// bookkeeping, not a per-physics-frame sub-step — see DESIGN.md).
func (e *Engine) Start() error {
	e.cron = cron.New()
	if _, err := e.cron.AddFunc("@every 30s", func() {
		e.Refs.Tick(e.Config.RefGraceTTL)
	}); err != nil {
		return fmt.Errorf("engine: schedule reference sweep: %w", err)
	}
	e.cron.Start()

	if !e.Physics.Thread().Start(false) {
		return fmt.Errorf("engine: physics thread failed to start")
	}
	e.Log.For("engine").Info().Msg("engine started")
	return nil
}

// Stop halts the cron scheduler and every registered thread, waiting for
// the physics thread to fully exit before returning.
func (e *Engine) Stop() {
	if e.cron != nil {
		ctx := e.cron.Stop()
		<-ctx.Done()
	}
	e.Physics.Thread().Stop(true)
	e.Log.For("engine").Info().Msg("engine stopped")
}
