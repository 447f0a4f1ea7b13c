package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/fleetsim/core/metrics"
	"github.com/kilianp07/fleetsim/core/sim"
)

// EnvPrefix selects the environment variables overriding file values.
// FLEETSIM_SIMULATION__NUM_VEHICLES=12 sets simulation.num_vehicles.
const EnvPrefix = "FLEETSIM_"

type Config struct {
	Simulation sim.Config     `json:"simulation"`
	Run        RunConfig      `json:"run"`
	Metrics    metrics.Config `json:"metrics"`
	Logging    LoggingConfig  `json:"logging"`
}

// Default returns the configuration used for keys absent from every source.
func Default() Config {
	cfg := Config{Simulation: sim.DefaultConfig(), Run: RunConfig{Ticks: DefaultTicks, Seed: DefaultSeed}}
	cfg.Run.SetDefaults()
	cfg.Logging.SetDefaults()
	return cfg
}

// Load reads the yaml or json file at path, applies environment overrides and
// validates the result. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Run.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Simulation.Validate(); err != nil {
		return nil, fmt.Errorf("simulation: %w", err)
	}
	if err := cfg.Run.Validate(); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	return &cfg, nil
}
