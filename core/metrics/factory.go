package metrics

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

// ModuleConfig contains the sink type name and its raw settings.
type ModuleConfig struct {
	Type string         `json:"type" yaml:"type"`
	Conf map[string]any `json:"conf" yaml:"conf"`
}

// Factory constructs a sink from raw settings.
type Factory func(conf map[string]any) (MetricsSink, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// RegisterMetricsSink adds a sink factory identified by name.
func RegisterMetricsSink(name string, f Factory) error {
	if f == nil {
		return fmt.Errorf("factory nil for %s", name)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[name]; ok {
		return fmt.Errorf("factory already registered for %s", name)
	}
	registry[name] = f
	return nil
}

// RegisteredSinks lists the registered sink names in sorted order.
func RegisteredSinks() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func create(cfg ModuleConfig) (MetricsSink, error) {
	registryMu.RLock()
	f, ok := registry[cfg.Type]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown metrics sink type %s", cfg.Type)
	}
	return f(cfg.Conf)
}

// NewMetricsSink creates a MetricsSink from the provided configuration.
// No configuration yields a NopSink, several a MultiSink.
func NewMetricsSink(cfgs []ModuleConfig) (MetricsSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return create(cfgs[0])
	}
	sinks := make([]MetricsSink, len(cfgs))
	for i, c := range cfgs {
		s, err := create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}

// Decode fills out the provided struct from raw settings using json tags.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}
