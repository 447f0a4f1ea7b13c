package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/fleetsim/core/metrics"
	"github.com/kilianp07/fleetsim/core/model"
)

// PromSink exposes the latest simulation sample as Prometheus gauges.
type PromSink struct {
	availability prometheus.Gauge
	utilization  prometheus.Gauge
	wait         prometheus.Gauge
	riders       prometheus.Gauge
	battery      prometheus.Gauge
	tick         prometheus.Gauge
	pickups      prometheus.Gauge
	states       *prometheus.GaugeVec
	runInfo      *prometheus.GaugeVec
	fleet        prometheus.Gauge
}

// NewPromSink registers the simulation gauges on the default Prometheus registerer.
// The HTTP endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers the gauges on reg, reusing collectors that
// are already registered. A nil registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.availability, err = register(reg, gauge("fleetsim_vehicle_availability_percent", "Share of vehicles available for a ride")); err != nil {
		return nil, err
	}
	if s.utilization, err = register(reg, gauge("fleetsim_vehicle_utilization_percent", "Share of vehicles on a trip")); err != nil {
		return nil, err
	}
	if s.wait, err = register(reg, gauge("fleetsim_rider_wait_ticks_average", "Mean wait time of live riders in ticks")); err != nil {
		return nil, err
	}
	if s.riders, err = register(reg, gauge("fleetsim_riders", "Number of live riders")); err != nil {
		return nil, err
	}
	if s.battery, err = register(reg, gauge("fleetsim_vehicle_battery_mean_percent", "Mean battery level of the fleet")); err != nil {
		return nil, err
	}
	if s.tick, err = register(reg, gauge("fleetsim_tick", "Last completed tick")); err != nil {
		return nil, err
	}
	if s.pickups, err = register(reg, gauge("fleetsim_pickups", "Riders picked up since the run started")); err != nil {
		return nil, err
	}
	if s.states, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleetsim_vehicles",
		Help: "Number of vehicles per state",
	}, []string{"state"})); err != nil {
		return nil, err
	}
	if s.runInfo, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fleetsim_run_info",
		Help: "Identity of the current simulation run",
	}, []string{"run_id", "seed"})); err != nil {
		return nil, err
	}
	if s.fleet, err = register(reg, gauge("fleetsim_fleet_size", "Configured number of vehicles")); err != nil {
		return nil, err
	}
	return s, nil
}

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSample sets every gauge to the values of s.
func (s *PromSink) RecordSample(sm coremetrics.Sample) error {
	s.availability.Set(sm.VehicleAvailability)
	s.utilization.Set(sm.VehicleUtilization)
	s.wait.Set(sm.AverageWaitTime)
	s.riders.Set(float64(sm.Riders))
	s.battery.Set(sm.MeanBattery)
	s.tick.Set(float64(sm.Tick))
	s.pickups.Set(float64(sm.Pickups))
	for _, st := range model.AllVehicleStates {
		s.states.WithLabelValues(st.String()).Set(float64(sm.StateCounts[st]))
	}
	return nil
}

// RecordRunStart labels the run and records the fleet size.
func (s *PromSink) RecordRunStart(info coremetrics.RunInfo) error {
	s.runInfo.Reset()
	s.runInfo.WithLabelValues(info.RunID, strconv.FormatInt(info.Seed, 10)).Set(1)
	s.fleet.Set(float64(info.Vehicles))
	return nil
}
