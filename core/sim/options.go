package sim

import (
	"github.com/kilianp07/fleetsim/core/metrics"
	"github.com/kilianp07/fleetsim/infra/logger"
)

// Option customizes an Engine created by New.
type Option func(*Engine)

// WithLogger sets the logger used by the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithSink sets the sink receiving every tick's sample.
func WithSink(s metrics.MetricsSink) Option {
	return func(e *Engine) {
		if s != nil {
			e.sink = s
		}
	}
}
