package metrics

import (
	"github.com/kilianp07/fleetsim/core/model"
)

// Sample is the fleet statistics recorded after one tick.
type Sample struct {
	Tick int `json:"tick"`
	// VehicleAvailability is the share of vehicles in state Available, in percent.
	VehicleAvailability float64 `json:"vehicle_availability"`
	// VehicleUtilization is the share of vehicles in state InUse, in percent.
	VehicleUtilization float64 `json:"vehicle_utilization"`
	// AverageWaitTime is the mean wait counter of live riders, 0 without riders.
	AverageWaitTime float64 `json:"average_wait_time"`

	Vehicles      int                        `json:"vehicles"`
	Riders        int                        `json:"riders"`
	StateCounts   map[model.VehicleState]int `json:"state_counts"`
	MeanBattery   float64                    `json:"mean_battery"`
	RidersSpawned int                        `json:"riders_spawned"`
	Pickups       int                        `json:"pickups"`
}

// Clone returns a copy of s that shares no state with it.
func (s Sample) Clone() Sample {
	if s.StateCounts != nil {
		counts := make(map[model.VehicleState]int, len(s.StateCounts))
		for st, n := range s.StateCounts {
			counts[st] = n
		}
		s.StateCounts = counts
	}
	return s
}

// RunInfo describes a run when it starts.
type RunInfo struct {
	RunID    string
	Seed     int64
	Width    int
	Height   int
	Vehicles int
	Stations int
}

// MetricsSink records per-tick samples for observability purposes.
type MetricsSink interface {
	RecordSample(s Sample) error
}

// RunRecorder records run start events.
type RunRecorder interface {
	RecordRunStart(info RunInfo) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSample(Sample) error    { return nil }
func (NopSink) RecordRunStart(RunInfo) error { return nil }

// MultiSink fans samples out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSample forwards the sample to all sinks, returning the first error encountered.
func (m *MultiSink) RecordSample(s Sample) error {
	for _, sink := range m.Sinks {
		if err := sink.RecordSample(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordRunStart forwards run start events when supported by the sink.
func (m *MultiSink) RecordRunStart(info RunInfo) error {
	for _, sink := range m.Sinks {
		if rr, ok := sink.(RunRecorder); ok {
			if err := rr.RecordRunStart(info); err != nil {
				return err
			}
		}
	}
	return nil
}
