package metrics

// Package metrics derives fleet-level statistics from the agent set after
// every tick. Collector keeps the ordered series of samples; MetricsSink
// implementations forward each sample to observability backends and can be
// combined with NewMultiSink. NewMetricsSink builds sinks from configuration
// using the factories registered by infra/metrics.
