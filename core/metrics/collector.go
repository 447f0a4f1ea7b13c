package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/fleetsim/core/model"
)

// Collector computes a Sample from the live agents and keeps the ordered
// series of recorded samples. Every sample is a pure function of the agents
// passed to Collect.
type Collector struct {
	history []Sample
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector { return &Collector{} }

// Measure computes the statistics of agents without recording them.
// totalVehicles is the configured fleet size used as percentage denominator.
func Measure(agents []model.Agent, totalVehicles int) Sample {
	s := Sample{StateCounts: make(map[model.VehicleState]int, len(model.AllVehicleStates))}
	for _, st := range model.AllVehicleStates {
		s.StateCounts[st] = 0
	}
	var waits, batteries []float64
	for _, a := range agents {
		switch v := a.(type) {
		case *model.Vehicle:
			s.Vehicles++
			s.StateCounts[v.State]++
			batteries = append(batteries, v.Battery)
		case *model.Rider:
			s.Riders++
			waits = append(waits, float64(v.WaitTime))
		}
	}
	if totalVehicles > 0 {
		s.VehicleAvailability = float64(s.StateCounts[model.StateAvailable]) / float64(totalVehicles) * 100
		s.VehicleUtilization = float64(s.StateCounts[model.StateInUse]) / float64(totalVehicles) * 100
	}
	if len(waits) > 0 {
		s.AverageWaitTime = stat.Mean(waits, nil)
	}
	if len(batteries) > 0 {
		s.MeanBattery = stat.Mean(batteries, nil)
	}
	return s
}

// Record appends a copy of s to the history.
func (c *Collector) Record(s Sample) { c.history = append(c.history, s.Clone()) }

// Latest returns the most recent sample.
func (c *Collector) Latest() (Sample, bool) {
	if len(c.history) == 0 {
		return Sample{}, false
	}
	return c.history[len(c.history)-1].Clone(), true
}

// History returns a deep copy of the recorded samples in tick order.
func (c *Collector) History() []Sample {
	out := make([]Sample, len(c.history))
	for i, s := range c.history {
		out[i] = s.Clone()
	}
	return out
}

// Len returns the number of recorded samples.
func (c *Collector) Len() int { return len(c.history) }
