package scenarios

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/fleetsim/core/metrics"
	"github.com/kilianp07/fleetsim/core/model"
	"github.com/kilianp07/fleetsim/core/sim"
	"github.com/kilianp07/fleetsim/infra/logger"
	"github.com/kilianp07/fleetsim/infra/metrics"
)

// RunScenario runs sc twice, checks that both runs record the same history
// and applies the expected bounds to the last sample.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	require.NoError(t, err, "prom sink")

	first := runOnce(t, sc, sim.WithSink(sink))
	second := runOnce(t, sc)
	require.Equal(t, sc.Ticks, len(first))
	assert.JSONEq(t, mustJSON(t, first), mustJSON(t, second), "runs with the same seed diverged")

	last := first[len(first)-1]
	exp := sc.Expected
	checks := []struct {
		name string
		b    Bounds
		v    float64
	}{
		{"availability", exp.Availability, last.VehicleAvailability},
		{"utilization", exp.Utilization, last.VehicleUtilization},
		{"average_wait", exp.AverageWait, last.AverageWaitTime},
		{"riders", exp.Riders, float64(last.Riders)},
		{"pickups", exp.Pickups, float64(last.Pickups)},
	}
	for _, c := range checks {
		assert.NoError(t, c.b.Check(c.v), c.name)
	}
	for name, want := range exp.StateCounts {
		var st model.VehicleState
		require.NoError(t, st.UnmarshalText([]byte(name)))
		assert.Equal(t, want, last.StateCounts[st], "vehicles in state %s", name)
	}

	assert.Equal(t, float64(sc.Ticks), gaugeValue(t, reg, "fleetsim_tick"))
	assert.Equal(t, last.VehicleAvailability, gaugeValue(t, reg, "fleetsim_vehicle_availability_percent"))
	assert.Equal(t, float64(sc.Simulation.Vehicles), gaugeValue(t, reg, "fleetsim_fleet_size"))
}

func runOnce(t *testing.T, sc *Scenario, opts ...sim.Option) []coremetrics.Sample {
	t.Helper()
	opts = append(opts, sim.WithLogger(logger.NopLogger{}))
	e, err := sim.New(sc.Simulation, sc.Seed, opts...)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()
	require.NoError(t, e.Run(context.Background(), sc.Ticks))
	return e.MetricsHistory()
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func gaugeValue(t *testing.T, g prometheus.Gatherer, name string) float64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name && len(mf.GetMetric()) > 0 {
			return mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not gathered", name)
	return 0
}
