package config

import "fmt"

const (
	DefaultSeed  int64 = 42
	DefaultTicks       = 100
)

// RunConfig controls how the CLI drives a simulation.
type RunConfig struct {
	// Ticks is the number of ticks to run; 0 runs until interrupted.
	Ticks int   `json:"ticks"`
	Seed  int64 `json:"seed"`
	// PrometheusAddr enables the /metrics endpoint when set, e.g. ":9100".
	PrometheusAddr string `json:"prometheus_addr"`
	// SummaryEvery is the number of ticks between progress log lines.
	SummaryEvery int `json:"summary_every"`
}

// SetDefaults applies sane defaults.
func (c *RunConfig) SetDefaults() {
	if c.SummaryEvery <= 0 {
		c.SummaryEvery = 10
	}
}

// Validate checks the run bounds.
func (c RunConfig) Validate() error {
	if c.Ticks < 0 {
		return fmt.Errorf("ticks must not be negative, got %d", c.Ticks)
	}
	return nil
}
