// Package metrics provides the built-in sinks for simulation samples and the
// Prometheus HTTP endpoint. Importing it registers the "nop", "log" and
// "prometheus" sink types.
package metrics

import (
	coremetrics "github.com/kilianp07/fleetsim/core/metrics"
	"github.com/kilianp07/fleetsim/infra/logger"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("log", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		c := struct {
			Every     int    `json:"every"`
			Component string `json:"component"`
		}{Every: 1, Component: "metrics"}
		if err := coremetrics.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewLogSink(logger.New(c.Component), c.Every), nil
	})

	// The HTTP endpoint is started by the caller with StartPromServer.
	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSink()
	})
}
