package metrics

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []ModuleConfig `json:"sinks" yaml:"sinks"`
}
