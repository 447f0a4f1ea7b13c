package sim

import "errors"

var (
	// ErrInvalidConfiguration is returned by New when the configuration cannot be run.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrHalted is returned by Tick once an earlier tick failed.
	ErrHalted = errors.New("simulation halted")
)
