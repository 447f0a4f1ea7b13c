// Package scheduler implements random activation: every live agent is
// activated exactly once per step, in a fresh uniformly random order drawn
// from the run's random source at the start of the step.
package scheduler
