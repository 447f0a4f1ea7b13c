// Package sim runs the micromobility fleet simulation: it owns the grid, the
// scheduler, the demand generator and the metrics collector, and advances
// them one tick at a time.
//
// An Engine is driven from a single goroutine. Only the event bus returned by
// Subscribe may be consumed concurrently.
package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kilianp07/fleetsim/core/demand"
	"github.com/kilianp07/fleetsim/core/grid"
	"github.com/kilianp07/fleetsim/core/metrics"
	"github.com/kilianp07/fleetsim/core/model"
	"github.com/kilianp07/fleetsim/core/random"
	"github.com/kilianp07/fleetsim/core/scheduler"
	"github.com/kilianp07/fleetsim/infra/logger"
	"github.com/kilianp07/fleetsim/internal/eventbus"
)

// TickEvent is published on the engine bus after every completed tick.
type TickEvent struct {
	Tick   int            `json:"tick"`
	Sample metrics.Sample `json:"sample"`
}

// Engine is the simulation world.
type Engine struct {
	cfg   Config
	runID string

	src       *random.Source
	grid      *grid.Grid[model.AgentID]
	sched     *scheduler.Scheduler[model.AgentID]
	demand    *demand.Generator
	collector *metrics.Collector

	agents   map[model.AgentID]model.Agent
	stations []*model.ChargingStation
	nextID   model.AgentID

	tick     int
	spawned  int
	pickups  int
	stranded map[model.AgentID]struct{}
	halted   error

	sink metrics.MetricsSink
	log  logger.Logger
	bus  *eventbus.TypedBus[TickEvent]
}

// New validates cfg and populates a new world from seed. Vehicles, initial
// riders and charging stations are created in that order and draw their
// positions from the shared random source in the same order.
func New(cfg Config, seed int64, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	src := random.New(seed)
	e := &Engine{
		cfg:       cfg,
		runID:     uuid.NewString(),
		src:       src,
		grid:      grid.New[model.AgentID](cfg.Width, cfg.Height),
		sched:     scheduler.New[model.AgentID](),
		demand:    demand.New(src, cfg.Width, cfg.Height, cfg.HotZone, cfg.UserDemandProbability),
		collector: metrics.NewCollector(),
		agents:    make(map[model.AgentID]model.Agent),
		stranded:  make(map[model.AgentID]struct{}),
		sink:      metrics.NopSink{},
		log:       logger.NopLogger{},
		bus:       eventbus.NewTyped[TickEvent](),
	}
	for _, opt := range opts {
		opt(e)
	}

	for i := 0; i < cfg.Vehicles; i++ {
		v := model.NewVehicle(e.newID())
		if err := e.addAgent(v, e.randomCell()); err != nil {
			return nil, fmt.Errorf("add vehicle: %w", err)
		}
	}
	for i := 0; i < cfg.Riders; i++ {
		if _, err := e.spawnRider(); err != nil {
			return nil, fmt.Errorf("add rider: %w", err)
		}
	}
	for i := 0; i < cfg.Stations; i++ {
		cs := model.NewChargingStation(e.newID())
		if err := e.addAgent(cs, e.randomCell()); err != nil {
			return nil, fmt.Errorf("add charging station: %w", err)
		}
		e.stations = append(e.stations, cs)
	}

	if rr, ok := e.sink.(metrics.RunRecorder); ok {
		info := metrics.RunInfo{
			RunID:    e.runID,
			Seed:     seed,
			Width:    cfg.Width,
			Height:   cfg.Height,
			Vehicles: cfg.Vehicles,
			Stations: cfg.Stations,
		}
		if err := rr.RecordRunStart(info); err != nil {
			e.log.Warnf("record run start: %v", err)
		}
	}
	e.log.Infof("simulation %s initialized: %dx%d grid, %d vehicles, %d riders, %d stations, seed %d",
		e.runID, cfg.Width, cfg.Height, cfg.Vehicles, cfg.Riders, cfg.Stations, seed)
	return e, nil
}

// Tick advances the world exactly one step: every live agent is activated
// once in a fresh random order, then one organic rider may be injected and
// the tick's sample is recorded.
//
// A failing tick halts the engine; every later call returns ErrHalted.
func (e *Engine) Tick() (metrics.Sample, error) {
	if e.halted != nil {
		return metrics.Sample{}, fmt.Errorf("%w: %w", ErrHalted, e.halted)
	}
	if err := e.step(); err != nil {
		e.halted = fmt.Errorf("tick %d: %w", e.tick+1, err)
		e.log.Errorf("simulation %s halted: %v", e.runID, e.halted)
		return metrics.Sample{}, e.halted
	}
	e.tick++

	s := metrics.Measure(e.liveAgents(), e.cfg.Vehicles)
	s.Tick = e.tick
	s.RidersSpawned = e.spawned
	s.Pickups = e.pickups
	e.collector.Record(s)

	if err := e.sink.RecordSample(s.Clone()); err != nil {
		e.log.Warnf("record sample for tick %d: %v", e.tick, err)
	}
	e.bus.Publish(TickEvent{Tick: e.tick, Sample: s.Clone()})
	e.log.Debugw("tick", map[string]any{
		"tick":         s.Tick,
		"availability": s.VehicleAvailability,
		"utilization":  s.VehicleUtilization,
		"wait":         s.AverageWaitTime,
		"riders":       s.Riders,
	})
	return s, nil
}

func (e *Engine) step() error {
	if err := e.sched.Step(e.src, e.activate); err != nil {
		return err
	}
	if e.demand.ShouldInject() {
		if _, err := e.injectRider(); err != nil {
			return fmt.Errorf("inject rider: %w", err)
		}
	}
	return nil
}

// Run advances up to n ticks, or until ctx is done when n <= 0. The context
// is only checked between ticks.
func (e *Engine) Run(ctx context.Context, n int) error {
	for i := 0; n <= 0 || i < n; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if _, err := e.Tick(); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) activate(id model.AgentID) error {
	a, ok := e.agents[id]
	if !ok {
		return fmt.Errorf("agent %d: %w", id, scheduler.ErrNotFound)
	}
	switch a := a.(type) {
	case *model.Vehicle:
		return e.stepVehicle(a)
	case *model.Rider:
		a.Wait()
	case *model.ChargingStation:
	}
	return nil
}

// MetricsHistory returns the samples of every completed tick in order.
func (e *Engine) MetricsHistory() []metrics.Sample { return e.collector.History() }

// Latest returns the sample of the last completed tick.
func (e *Engine) Latest() (metrics.Sample, bool) { return e.collector.Latest() }

// Subscribe returns a channel of tick events. The latest event, if any, is
// delivered first.
func (e *Engine) Subscribe() <-chan TickEvent { return e.bus.Subscribe() }

// Unsubscribe cancels a subscription obtained from Subscribe.
func (e *Engine) Unsubscribe(ch <-chan TickEvent) { e.bus.Unsubscribe(ch) }

// Close closes every subscription.
func (e *Engine) Close() error {
	e.bus.Close()
	return nil
}

func (e *Engine) RunID() string    { return e.runID }
func (e *Engine) Seed() int64      { return e.src.Seed() }
func (e *Engine) Config() Config   { return e.cfg }
func (e *Engine) CurrentTick() int { return e.tick }

// Halted returns the error that stopped the engine, or nil.
func (e *Engine) Halted() error { return e.halted }

func (e *Engine) newID() model.AgentID {
	id := e.nextID
	e.nextID++
	return id
}

func (e *Engine) randomCell() grid.Pos {
	x := e.src.Intn(e.cfg.Width)
	y := e.src.Intn(e.cfg.Height)
	return grid.Pos{X: x, Y: y}
}

func (e *Engine) addAgent(a model.Agent, p grid.Pos) error {
	if err := e.grid.Place(a.ID(), p); err != nil {
		return err
	}
	if err := e.sched.Add(a.ID()); err != nil {
		return errors.Join(err, e.grid.Remove(a.ID()))
	}
	a.SetPos(p)
	e.agents[a.ID()] = a
	return nil
}

func (e *Engine) removeAgent(a model.Agent) error {
	if err := e.grid.Remove(a.ID()); err != nil {
		return err
	}
	if err := e.sched.Remove(a.ID()); err != nil {
		return err
	}
	delete(e.agents, a.ID())
	return nil
}

func (e *Engine) moveAgent(a model.Agent, p grid.Pos) error {
	if err := e.grid.Move(a.ID(), p); err != nil {
		return fmt.Errorf("move agent %d: %w", a.ID(), err)
	}
	a.SetPos(p)
	return nil
}

// spawnRider places a new rider at a demand-generated position.
func (e *Engine) spawnRider() (*model.Rider, error) {
	r := model.NewRider(e.newID())
	if err := e.addAgent(r, e.demand.Position()); err != nil {
		return nil, err
	}
	return r, nil
}

func (e *Engine) injectRider() (*model.Rider, error) {
	r, err := e.spawnRider()
	if err != nil {
		return nil, err
	}
	e.spawned++
	return r, nil
}

// liveAgents lists the live agents in roster order so that every aggregate
// over them is reproducible.
func (e *Engine) liveAgents() []model.Agent {
	keys := e.sched.Keys()
	out := make([]model.Agent, 0, len(keys))
	for _, id := range keys {
		out = append(out, e.agents[id])
	}
	return out
}
