package sim

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/fleetsim/core/demand"
)

// Config holds the parameters of a simulation run. Values are expected to be
// range-checked by the caller's input surface; Validate only rejects values
// the engine cannot run with.
type Config struct {
	Width    int `json:"width" yaml:"width"`
	Height   int `json:"height" yaml:"height"`
	Vehicles int `json:"num_vehicles" yaml:"num_vehicles"`
	// Riders is the initial number of riders.
	Riders   int `json:"num_riders" yaml:"num_riders"`
	Stations int `json:"num_charging_stations" yaml:"num_charging_stations"`

	// BatteryDepletionRate is the battery consumed over a trip of TripDuration steps.
	BatteryDepletionRate float64 `json:"battery_depletion_rate" yaml:"battery_depletion_rate"`
	// RechargeRate is the battery gained per tick at a station.
	RechargeRate float64 `json:"recharge_rate" yaml:"recharge_rate"`
	TripDuration int     `json:"trip_duration" yaml:"trip_duration"`
	// UserRange is the Chebyshev radius in which a vehicle detects riders.
	UserRange           int     `json:"user_range" yaml:"user_range"`
	LowBatteryThreshold float64 `json:"low_battery_threshold" yaml:"low_battery_threshold"`
	// UserDemandProbability is the per-tick chance of one organic rider.
	UserDemandProbability float64        `json:"user_demand_probability" yaml:"user_demand_probability"`
	HotZone               demand.HotZone `json:"hot_zone" yaml:"hot_zone"`
}

// DefaultConfig returns the reference scenario: a 10x10 grid with a small
// fleet and a hot-zone around (3,2).
func DefaultConfig() Config {
	return Config{
		Width:                 10,
		Height:                10,
		Vehicles:              7,
		Riders:                3,
		Stations:              5,
		BatteryDepletionRate:  10,
		RechargeRate:          20,
		TripDuration:          5,
		UserRange:             2,
		LowBatteryThreshold:   35,
		UserDemandProbability: 0,
		HotZone: demand.HotZone{
			CenterX:     3,
			CenterY:     2,
			Radius:      1,
			Probability: 0.1,
		},
	}
}

// Validate reports every invalid field, wrapped in ErrInvalidConfiguration.
func (c Config) Validate() error {
	var errs []error
	positive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %d", name, v))
		}
	}
	nonNegative := func(name string, v float64) {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %v", name, v))
		}
	}
	probability := func(name string, v float64) {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0,1], got %v", name, v))
		}
	}
	positive("width", c.Width)
	positive("height", c.Height)
	positive("num_vehicles", c.Vehicles)
	positive("num_charging_stations", c.Stations)
	positive("trip_duration", c.TripDuration)
	nonNegative("num_riders", float64(c.Riders))
	nonNegative("battery_depletion_rate", c.BatteryDepletionRate)
	nonNegative("recharge_rate", c.RechargeRate)
	nonNegative("user_range", float64(c.UserRange))
	nonNegative("hot_zone.radius", float64(c.HotZone.Radius))
	if c.LowBatteryThreshold < 0 || c.LowBatteryThreshold > 100 {
		errs = append(errs, fmt.Errorf("low_battery_threshold must be within [0,100], got %v", c.LowBatteryThreshold))
	}
	probability("user_demand_probability", c.UserDemandProbability)
	probability("hot_zone.probability", c.HotZone.Probability)
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfiguration, errors.Join(errs...))
}

// DecodeConfig reads a Config in the given format ("yaml", "yml" or "json")
// from r. Keys absent from the document keep their DefaultConfig value.
func DecodeConfig(r io.Reader, format string) (Config, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	return cfg, nil
}
