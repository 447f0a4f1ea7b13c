package scenarios

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/fleetsim/core/sim"
)

// Bounds is an optional closed range. A nil side is unbounded.
type Bounds struct {
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`
}

// Check reports whether v lies within the bounds.
func (b Bounds) Check(v float64) error {
	if b.Min != nil && v < *b.Min {
		return fmt.Errorf("%v below minimum %v", v, *b.Min)
	}
	if b.Max != nil && v > *b.Max {
		return fmt.Errorf("%v above maximum %v", v, *b.Max)
	}
	return nil
}

// Expected lists the checks applied to the last sample of a scenario.
type Expected struct {
	Availability Bounds `yaml:"availability"`
	Utilization  Bounds `yaml:"utilization"`
	AverageWait  Bounds `yaml:"average_wait"`
	Riders       Bounds `yaml:"riders"`
	Pickups      Bounds `yaml:"pickups"`
	// StateCounts pins the number of vehicles in the named states.
	StateCounts map[string]int `yaml:"state_counts,omitempty"`
}

type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Seed        int64      `yaml:"seed"`
	Ticks       int        `yaml:"ticks"`
	Simulation  sim.Config `yaml:"simulation"`
	Expected    Expected   `yaml:"expected"`
}

// Load reads a scenario file. Simulation keys absent from the file keep
// their default value.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := Scenario{Simulation: sim.DefaultConfig()}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if sc.Ticks <= 0 {
		return nil, fmt.Errorf("%s: ticks must be positive", path)
	}
	return &sc, nil
}
