package metrics

import (
	coremetrics "github.com/kilianp07/fleetsim/core/metrics"
	"github.com/kilianp07/fleetsim/infra/logger"
)

// LogSink writes a summary line every N ticks.
type LogSink struct {
	log   logger.Logger
	every int
}

// NewLogSink returns a sink logging one sample out of every. Values below 1
// log every sample.
func NewLogSink(l logger.Logger, every int) *LogSink {
	if l == nil {
		l = logger.NopLogger{}
	}
	if every < 1 {
		every = 1
	}
	return &LogSink{log: l, every: every}
}

func (s *LogSink) RecordSample(sm coremetrics.Sample) error {
	if sm.Tick%s.every != 0 {
		return nil
	}
	s.log.Infof("tick %d: availability %.1f%%, utilization %.1f%%, avg wait %.2f, riders %d, pickups %d",
		sm.Tick, sm.VehicleAvailability, sm.VehicleUtilization, sm.AverageWaitTime, sm.Riders, sm.Pickups)
	return nil
}

func (s *LogSink) RecordRunStart(info coremetrics.RunInfo) error {
	s.log.Infof("run %s started: seed %d, %dx%d grid, %d vehicles, %d stations",
		info.RunID, info.Seed, info.Width, info.Height, info.Vehicles, info.Stations)
	return nil
}
