// Copyright © 2024 Galvanized Logic Inc.

package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsNilRegistryIsInert(t *testing.T) {
	m := NewMetrics(nil)
	// All methods must be safe zero-cost no-ops (spec §6 "must be inert
	// when disabled") — this only needs to not panic.
	m.ObservePhysicsFrame(0.016)
	m.HullCacheHit()
	m.HullCacheMiss()
	m.SignalEvaluated()
	m.SetActorCount(42)
}

func TestMetricsRegisteredCountersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.HullCacheHit()
	m.HullCacheHit()
	m.HullCacheMiss()
	m.SetActorCount(7)

	families, err := reg.Gather()
	require.NoError(t, err)

	var hit, miss, actors float64
	for _, fam := range families {
		switch fam.GetName() {
		case "engine_hull_cache_hits_total":
			hit = metricValue(fam.Metric[0])
		case "engine_hull_cache_misses_total":
			miss = metricValue(fam.Metric[0])
		case "engine_physics_actors":
			actors = metricValue(fam.Metric[0])
		}
	}
	assert.Equal(t, 2.0, hit)
	assert.Equal(t, 1.0, miss)
	assert.Equal(t, 7.0, actors)
}

func metricValue(m *dto.Metric) float64 {
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	if m.Gauge != nil {
		return m.Gauge.GetValue()
	}
	return 0
}
