// Copyright © 2024 Galvanized Logic Inc.

package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics.go wraps github.com/prometheus/client_golang for the "tracing
// subsystem (zone counters)" spec §6 names. Counters are created against
// a caller-supplied *prometheus.Registry; when Metrics is constructed
// with a nil registry every method becomes a no-op, matching the "must be
// inert when disabled" requirement without branching at every call site.
type Metrics struct {
	enabled bool

	physicsFrame  prometheus.Histogram
	renderFrame   prometheus.Histogram
	hullCacheHit  prometheus.Counter
	hullCacheMiss prometheus.Counter
	signalEvals   prometheus.Counter
	actorCount    prometheus.Gauge
}

// NewMetrics registers the engine's counters against reg. A nil reg
// produces an inert Metrics whose methods are all safe, zero-cost no-ops.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		enabled: true,
		physicsFrame: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "engine_physics_frame_seconds",
			Help:    "Wall-clock duration of one physics loop frame.",
			Buckets: prometheus.DefBuckets,
		}),
		renderFrame: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "engine_render_frame_seconds",
			Help:    "Wall-clock duration of one render loop frame.",
			Buckets: prometheus.DefBuckets,
		}),
		hullCacheHit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_hull_cache_hits_total",
			Help: "Convex-hull cache lookups served without a rebuild.",
		}),
		hullCacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_hull_cache_misses_total",
			Help: "Convex-hull cache lookups that triggered a rebuild.",
		}),
		signalEvals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "engine_signal_evaluations_total",
			Help: "Signal expression evaluations performed.",
		}),
		actorCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "engine_physics_actors",
			Help: "Number of backend physics actors currently allocated.",
		}),
	}
	reg.MustRegister(m.physicsFrame, m.renderFrame, m.hullCacheHit, m.hullCacheMiss, m.signalEvals, m.actorCount)
	return m
}

func (m *Metrics) ObservePhysicsFrame(seconds float64) {
	if m.enabled {
		m.physicsFrame.Observe(seconds)
	}
}

func (m *Metrics) ObserveRenderFrame(seconds float64) {
	if m.enabled {
		m.renderFrame.Observe(seconds)
	}
}

func (m *Metrics) HullCacheHit() {
	if m.enabled {
		m.hullCacheHit.Inc()
	}
}

func (m *Metrics) HullCacheMiss() {
	if m.enabled {
		m.hullCacheMiss.Inc()
	}
}

func (m *Metrics) SignalEvaluated() {
	if m.enabled {
		m.signalEvals.Inc()
	}
}

func (m *Metrics) SetActorCount(n int) {
	if m.enabled {
		m.actorCount.Set(float64(n))
	}
}
