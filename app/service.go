// Package app wires a simulation engine to its configured metric sinks,
// logging and Prometheus endpoint.
package app

import (
	"context"
	"fmt"

	"github.com/kilianp07/fleetsim/config"
	coremetrics "github.com/kilianp07/fleetsim/core/metrics"
	"github.com/kilianp07/fleetsim/core/sim"
	"github.com/kilianp07/fleetsim/infra/logger"
	"github.com/kilianp07/fleetsim/infra/metrics"
)

// Service runs one simulation as configured.
type Service struct {
	Engine   *sim.Engine
	log      logger.Logger
	ticks    int
	promAddr string
}

// New creates a Service from the configuration. A log sink summarizing every
// run.summary_every ticks is always appended to the configured sinks.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	logg := logger.New("service")

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	summary := metrics.NewLogSink(logger.New("summary"), cfg.Run.SummaryEvery)
	sink = coremetrics.NewMultiSink(sink, summary)

	if cfg.Run.PrometheusAddr != "" && !hasSink(cfg.Metrics.Sinks, "prometheus") {
		prom, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sink = coremetrics.NewMultiSink(sink, prom)
	}

	engine, err := sim.New(cfg.Simulation, cfg.Run.Seed,
		sim.WithLogger(logger.New("engine")),
		sim.WithSink(sink),
	)
	if err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}
	return &Service{Engine: engine, log: logg, ticks: cfg.Run.Ticks, promAddr: cfg.Run.PrometheusAddr}, nil
}

func hasSink(cfgs []coremetrics.ModuleConfig, typ string) bool {
	for _, c := range cfgs {
		if c.Type == typ {
			return true
		}
	}
	return false
}

// Run advances the simulation for the configured number of ticks, or until
// the context is cancelled when no tick count is set. It returns the last
// recorded sample.
func (s *Service) Run(ctx context.Context) (coremetrics.Sample, error) {
	if s.promAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	s.log.Infof("running simulation %s for %d ticks", s.Engine.RunID(), s.ticks)
	err := s.Engine.Run(ctx, s.ticks)
	last, _ := s.Engine.Latest()
	if err != nil && ctx.Err() == nil {
		return last, err
	}
	s.log.Infof("simulation %s stopped after %d ticks", s.Engine.RunID(), s.Engine.CurrentTick())
	return last, nil
}

// Close releases resources held by the service.
func (s *Service) Close() error { return s.Engine.Close() }
