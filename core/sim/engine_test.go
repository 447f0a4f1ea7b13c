package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetsim/core/demand"
	"github.com/kilianp07/fleetsim/core/grid"
	"github.com/kilianp07/fleetsim/core/metrics"
	"github.com/kilianp07/fleetsim/core/model"
	"github.com/kilianp07/fleetsim/core/random"
	"github.com/kilianp07/fleetsim/core/scheduler"
)

// isolated returns a config with one vehicle, one station and no demand so
// that tests control every rider.
func isolated() Config {
	cfg := DefaultConfig()
	cfg.Vehicles = 1
	cfg.Riders = 0
	cfg.Stations = 1
	cfg.UserDemandProbability = 0
	return cfg
}

func newEngine(t *testing.T, cfg Config, opts ...Option) *Engine {
	t.Helper()
	e, err := New(cfg, 42, opts...)
	require.NoError(t, err)
	return e
}

func (e *Engine) vehicle(t *testing.T, id model.AgentID) *model.Vehicle {
	t.Helper()
	v, ok := e.agents[id].(*model.Vehicle)
	require.True(t, ok, "agent %d is not a vehicle", id)
	return v
}

func (e *Engine) putRider(t *testing.T, p grid.Pos) *model.Rider {
	t.Helper()
	r := model.NewRider(e.newID())
	require.NoError(t, e.addAgent(r, p))
	return r
}

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debugf(string, ...any)         {}
func (l *recordingLogger) Debugw(string, map[string]any) {}
func (l *recordingLogger) Infof(string, ...any)          {}
func (l *recordingLogger) Errorf(string, ...any)         {}
func (l *recordingLogger) Warnf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

type recordingSink struct {
	samples []metrics.Sample
	runs    []metrics.RunInfo
	err     error
}

func (s *recordingSink) RecordSample(sm metrics.Sample) error {
	s.samples = append(s.samples, sm)
	return s.err
}

func (s *recordingSink) RecordRunStart(info metrics.RunInfo) error {
	s.runs = append(s.runs, info)
	return nil
}

func TestNewPopulatesWorld(t *testing.T) {
	cfg := DefaultConfig()
	e := newEngine(t, cfg)

	assert.Len(t, e.agents, cfg.Vehicles+cfg.Riders+cfg.Stations)
	assert.Equal(t, len(e.agents), e.grid.Len())
	assert.Equal(t, len(e.agents), e.sched.Len())
	assert.Len(t, e.stations, cfg.Stations)

	for id := model.AgentID(0); id < model.AgentID(cfg.Vehicles); id++ {
		v := e.vehicle(t, id)
		assert.Equal(t, model.StateAvailable, v.State)
		assert.Equal(t, model.FullBattery, v.Battery)
		assert.Nil(t, v.Destination)
	}
	for i := 0; i < cfg.Riders; i++ {
		_, ok := e.agents[model.AgentID(cfg.Vehicles+i)].(*model.Rider)
		assert.True(t, ok)
	}
	assert.Equal(t, model.AgentID(cfg.Vehicles+cfg.Riders), e.stations[0].ID())
	assert.Empty(t, e.MetricsHistory())
}

func TestNewInvalidConfiguration(t *testing.T) {
	cases := map[string]func(*Config){
		"zero width":         func(c *Config) { c.Width = 0 },
		"negative riders":    func(c *Config) { c.Riders = -1 },
		"no stations":        func(c *Config) { c.Stations = 0 },
		"zero trip duration": func(c *Config) { c.TripDuration = 0 },
		"negative recharge":  func(c *Config) { c.RechargeRate = -1 },
		"threshold too high": func(c *Config) { c.LowBatteryThreshold = 101 },
		"probability > 1":    func(c *Config) { c.HotZone.Probability = 1.5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			_, err := New(cfg, 1)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestTickInvariants(t *testing.T) {
	cfgs := []Config{DefaultConfig()}
	busy := DefaultConfig()
	busy.Width, busy.Height = 6, 4
	busy.Vehicles, busy.Riders = 12, 8
	busy.BatteryDepletionRate = 60
	busy.TripDuration = 2
	busy.UserDemandProbability = 0.5
	busy.HotZone.Probability = 0.7
	cfgs = append(cfgs, busy)

	for i, cfg := range cfgs {
		t.Run(fmt.Sprintf("config-%d", i), func(t *testing.T) {
			e := newEngine(t, cfg)
			for tick := 1; tick <= 300; tick++ {
				s, err := e.Tick()
				require.NoError(t, err)
				require.Equal(t, tick, s.Tick)

				require.Equal(t, len(e.agents), e.grid.Len())
				require.Equal(t, len(e.agents), e.sched.Len())
				for id, a := range e.agents {
					p, ok := e.grid.PosOf(id)
					require.True(t, ok, "agent %d missing from grid", id)
					require.Equal(t, a.Pos(), p, "agent %d position mismatch", id)
					require.Contains(t, e.grid.Neighbors(p, 0), id)
					if v, ok := a.(*model.Vehicle); ok {
						require.GreaterOrEqual(t, v.Battery, 0.0)
						require.LessOrEqual(t, v.Battery, model.FullBattery)
					}
				}
				require.GreaterOrEqual(t, s.VehicleAvailability, 0.0)
				require.LessOrEqual(t, s.VehicleAvailability+s.VehicleUtilization, 100.0)
			}
		})
	}
}

func TestDeterministicHistory(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UserDemandProbability = 0.4

	run := func() []byte {
		e := newEngine(t, cfg)
		require.NoError(t, e.Run(context.Background(), 200))
		b, err := json.Marshal(e.MetricsHistory())
		require.NoError(t, err)
		return b
	}
	first, second := run(), run()
	assert.Equal(t, string(first), string(second))

	other, err := New(cfg, 7)
	require.NoError(t, err)
	require.NoError(t, other.Run(context.Background(), 200))
	b, err := json.Marshal(other.MetricsHistory())
	require.NoError(t, err)
	assert.NotEqual(t, string(first), string(b), "different seeds should diverge")
}

func TestRechargeCompletesInOneTick(t *testing.T) {
	cfg := isolated()
	cfg.RechargeRate = 20
	e := newEngine(t, cfg)
	v := e.vehicle(t, 0)
	v.State = model.StateRecharging
	v.Battery = 80

	_, err := e.Tick()
	require.NoError(t, err)
	assert.Equal(t, model.FullBattery, v.Battery)
	assert.Equal(t, model.StateAvailable, v.State)
	assert.Nil(t, v.Destination)
}

func TestRechargeClampsToFull(t *testing.T) {
	cfg := isolated()
	cfg.RechargeRate = 30
	e := newEngine(t, cfg)
	v := e.vehicle(t, 0)
	v.State = model.StateRecharging
	v.Battery = 50

	_, err := e.Tick()
	require.NoError(t, err)
	assert.Equal(t, 80.0, v.Battery)
	assert.Equal(t, model.StateRecharging, v.State)

	_, err = e.Tick()
	require.NoError(t, err)
	assert.Equal(t, model.FullBattery, v.Battery)
	assert.Equal(t, model.StateAvailable, v.State)
}

func TestVehicleStepsTowardRider(t *testing.T) {
	cfg := isolated()
	cfg.UserRange = 5
	e := newEngine(t, cfg)
	v := e.vehicle(t, 0)
	require.NoError(t, e.moveAgent(v, grid.Pos{X: 0, Y: 0}))
	e.putRider(t, grid.Pos{X: 2, Y: 0})

	_, err := e.Tick()
	require.NoError(t, err)
	assert.Equal(t, grid.Pos{X: 1, Y: 0}, v.Pos())
	require.NotNil(t, v.Destination)
	assert.Equal(t, grid.Pos{X: 2, Y: 0}, *v.Destination)
	assert.Equal(t, model.StateAvailable, v.State)
}

func TestVehiclePicksFirstRiderInRowMajorOrder(t *testing.T) {
	cfg := isolated()
	cfg.UserRange = 3
	e := newEngine(t, cfg)
	v := e.vehicle(t, 0)
	require.NoError(t, e.moveAgent(v, grid.Pos{X: 4, Y: 4}))
	e.putRider(t, grid.Pos{X: 2, Y: 5})
	e.putRider(t, grid.Pos{X: 6, Y: 3})

	_, err := e.Tick()
	require.NoError(t, err)
	require.NotNil(t, v.Destination)
	assert.Equal(t, grid.Pos{X: 6, Y: 3}, *v.Destination)
	assert.Equal(t, grid.Pos{X: 5, Y: 3}, v.Pos())
}

// vehicleFirstSeed returns a seed whose first scheduler step activates
// vehicle before rider over the engine's current roster.
func (e *Engine) vehicleFirstSeed(t *testing.T, vehicle, rider model.AgentID) int64 {
	t.Helper()
	for seed := int64(1); seed < 1000; seed++ {
		s := scheduler.New[model.AgentID]()
		for _, id := range e.sched.Keys() {
			require.NoError(t, s.Add(id))
		}
		var order []model.AgentID
		require.NoError(t, s.Step(random.New(seed), func(id model.AgentID) error {
			order = append(order, id)
			return nil
		}))
		if slices.Index(order, vehicle) < slices.Index(order, rider) {
			return seed
		}
	}
	t.Fatal("no seed activates the vehicle first")
	return 0
}

func TestPickupReplacesRider(t *testing.T) {
	cfg := isolated()
	e := newEngine(t, cfg)
	v := e.vehicle(t, 0)
	require.NoError(t, e.moveAgent(v, grid.Pos{X: 3, Y: 3}))
	r := e.putRider(t, grid.Pos{X: 4, Y: 3})

	// The scheduler's first draw of the tick is the permutation.
	e.src = random.New(e.vehicleFirstSeed(t, v.ID(), r.ID()))
	e.demand = demand.New(e.src, cfg.Width, cfg.Height, cfg.HotZone, cfg.UserDemandProbability)

	s, err := e.Tick()
	require.NoError(t, err)

	assert.Equal(t, model.StateInUse, v.State)
	assert.Equal(t, grid.Pos{X: 4, Y: 3}, v.Pos())
	require.NotNil(t, v.Destination)
	assert.True(t, e.grid.InBounds(*v.Destination))

	assert.NotContains(t, e.agents, r.ID())
	assert.False(t, e.sched.Contains(r.ID()))
	_, onGrid := e.grid.PosOf(r.ID())
	assert.False(t, onGrid)
	assert.Zero(t, r.WaitTime, "removed rider must be skipped for the rest of the tick")

	assert.Equal(t, 1, s.Riders)
	assert.Equal(t, 1, s.Pickups)
	assert.Equal(t, 1, s.RidersSpawned)
	assert.Equal(t, 100.0, s.VehicleUtilization)
	for _, a := range e.agents {
		if nr, ok := a.(*model.Rider); ok {
			assert.Greater(t, nr.ID(), r.ID())
			assert.Zero(t, nr.WaitTime, "replacement must not be activated in the tick it was spawned")
		}
	}
}

func TestTripDrainsBatteryAndEnds(t *testing.T) {
	cfg := isolated()
	cfg.BatteryDepletionRate = 10
	cfg.TripDuration = 5
	e := newEngine(t, cfg)
	v := e.vehicle(t, 0)
	require.NoError(t, e.moveAgent(v, grid.Pos{X: 0, Y: 0}))
	v.State = model.StateInUse
	v.SetDestination(grid.Pos{X: 3, Y: 1})

	for i := 0; i < 2; i++ {
		_, err := e.Tick()
		require.NoError(t, err)
		assert.Equal(t, model.StateInUse, v.State)
	}
	_, err := e.Tick()
	require.NoError(t, err)
	assert.Equal(t, grid.Pos{X: 3, Y: 1}, v.Pos())
	assert.InDelta(t, 94.0, v.Battery, 1e-9)
	assert.Equal(t, model.StateAvailable, v.State)
	assert.Nil(t, v.Destination)
}

func TestTripEndingEmptyNeedsRecharging(t *testing.T) {
	cfg := isolated()
	cfg.BatteryDepletionRate = 10
	cfg.TripDuration = 1
	e := newEngine(t, cfg)
	v := e.vehicle(t, 0)
	require.NoError(t, e.moveAgent(v, grid.Pos{X: 0, Y: 0}))
	v.State = model.StateInUse
	v.Battery = 5
	v.SetDestination(grid.Pos{X: 1, Y: 1})

	_, err := e.Tick()
	require.NoError(t, err)
	assert.Equal(t, 0.0, v.Battery)
	assert.Equal(t, model.StateNeedsRecharging, v.State)
	assert.Nil(t, v.Destination)
}

func TestLowBatteryGoesToNearestStation(t *testing.T) {
	cfg := isolated()
	cfg.Stations = 3
	e := newEngine(t, cfg)
	v := e.vehicle(t, 0)
	require.NoError(t, e.moveAgent(v, grid.Pos{X: 5, Y: 5}))
	require.NoError(t, e.moveAgent(e.stations[0], grid.Pos{X: 9, Y: 9}))
	require.NoError(t, e.moveAgent(e.stations[1], grid.Pos{X: 5, Y: 7}))
	require.NoError(t, e.moveAgent(e.stations[2], grid.Pos{X: 3, Y: 5}))
	v.Battery = 30

	_, err := e.Tick()
	require.NoError(t, err)
	assert.Equal(t, model.StateGoingToRecharge, v.State)
	require.NotNil(t, v.Destination)
	assert.Equal(t, grid.Pos{X: 5, Y: 7}, *v.Destination, "ties go to the first station")
	assert.Equal(t, grid.Pos{X: 5, Y: 5}, v.Pos())

	_, err = e.Tick()
	require.NoError(t, err)
	assert.Equal(t, grid.Pos{X: 5, Y: 6}, v.Pos())
	assert.Equal(t, model.StateGoingToRecharge, v.State)

	_, err = e.Tick()
	require.NoError(t, err)
	assert.Equal(t, grid.Pos{X: 5, Y: 7}, v.Pos())
	assert.Equal(t, model.StateRecharging, v.State)
}

func TestNeedsRechargingStrandsVehicle(t *testing.T) {
	log := &recordingLogger{}
	cfg := isolated()
	e := newEngine(t, cfg, WithLogger(log))
	v := e.vehicle(t, 0)
	v.State = model.StateNeedsRecharging
	v.Battery = 0
	start := v.Pos()

	_, err := e.Tick()
	require.NoError(t, err)
	assert.Equal(t, model.StateGoingToRecharge, v.State)
	assert.Nil(t, v.Destination)

	for i := 0; i < 10; i++ {
		_, err := e.Tick()
		require.NoError(t, err)
	}
	assert.Equal(t, model.StateGoingToRecharge, v.State)
	assert.Equal(t, start, v.Pos())
	assert.Len(t, log.warns, 1)
}

func TestZeroRidersWaitIsZero(t *testing.T) {
	e := newEngine(t, isolated())
	s, err := e.Tick()
	require.NoError(t, err)
	assert.Equal(t, 0, s.Riders)
	assert.Equal(t, 0.0, s.AverageWaitTime)
}

func TestRiderWaitGrows(t *testing.T) {
	cfg := isolated()
	cfg.UserRange = 0
	e := newEngine(t, cfg)
	v := e.vehicle(t, 0)
	require.NoError(t, e.moveAgent(v, grid.Pos{X: 0, Y: 0}))
	r := e.putRider(t, grid.Pos{X: 9, Y: 9})

	_, err := e.Tick()
	require.NoError(t, err)
	s, err := e.Tick()
	require.NoError(t, err)
	assert.Equal(t, 2, r.WaitTime)
	assert.Equal(t, 2.0, s.AverageWaitTime)
}

func TestHaltedEngine(t *testing.T) {
	cfg := isolated()
	cfg.Width, cfg.Height = 5, 5
	e := newEngine(t, cfg)
	require.NoError(t, e.grid.Remove(0))

	_, err := e.Tick()
	require.Error(t, err)
	assert.ErrorIs(t, err, grid.ErrNotFound)
	assert.Equal(t, 0, e.CurrentTick())

	_, err = e.Tick()
	assert.ErrorIs(t, err, ErrHalted)
	assert.ErrorIs(t, err, grid.ErrNotFound)
	assert.Error(t, e.Halted())
	assert.Empty(t, e.MetricsHistory())
}

func TestRun(t *testing.T) {
	e := newEngine(t, DefaultConfig())
	require.NoError(t, e.Run(context.Background(), 10))
	assert.Equal(t, 10, e.CurrentTick())
	assert.Len(t, e.MetricsHistory(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.Run(ctx, 0)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 10, e.CurrentTick())
}

func TestSinkAndEvents(t *testing.T) {
	sink := &recordingSink{err: errors.New("unavailable")}
	e := newEngine(t, DefaultConfig(), WithSink(sink))
	assert.NotEmpty(t, e.RunID())
	require.Len(t, sink.runs, 1)
	assert.Equal(t, int64(42), sink.runs[0].Seed)
	assert.Equal(t, e.RunID(), sink.runs[0].RunID)

	ch := e.Subscribe()
	s, err := e.Tick()
	require.NoError(t, err, "sink errors must not halt the run")
	require.Len(t, sink.samples, 1)
	assert.Equal(t, s, sink.samples[0])

	ev := <-ch
	assert.Equal(t, 1, ev.Tick)
	assert.Equal(t, s, ev.Sample)

	late := e.Subscribe()
	ev = <-late
	assert.Equal(t, 1, ev.Tick)

	e.Unsubscribe(ch)
	require.NoError(t, e.Close())
	_, open := <-late
	assert.False(t, open)
}

func TestHistoryIsolatedFromCallers(t *testing.T) {
	sink := &recordingSink{}
	e := newEngine(t, DefaultConfig(), WithSink(sink))
	ch := e.Subscribe()
	s, err := e.Tick()
	require.NoError(t, err)
	want := s.StateCounts[model.StateAvailable]

	h := e.MetricsHistory()
	h[0].StateCounts[model.StateAvailable] = 999
	ev := <-ch
	ev.Sample.StateCounts[model.StateAvailable] = 998
	sink.samples[0].StateCounts[model.StateAvailable] = 997
	s.StateCounts[model.StateAvailable] = 996
	last, ok := e.Latest()
	require.True(t, ok)
	last.StateCounts[model.StateAvailable] = 995

	assert.Equal(t, want, e.MetricsHistory()[0].StateCounts[model.StateAvailable])
	latest, _ := e.Latest()
	assert.Equal(t, want, latest.StateCounts[model.StateAvailable])
}
