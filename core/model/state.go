package model

import "fmt"

// Kind identifies the agent variant.
type Kind int

const (
	KindVehicle Kind = iota
	KindRider
	KindChargingStation
)

// String returns a human-readable representation of the agent kind.
func (k Kind) String() string {
	switch k {
	case KindVehicle:
		return "vehicle"
	case KindRider:
		return "rider"
	case KindChargingStation:
		return "charging_station"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	for _, c := range []Kind{KindVehicle, KindRider, KindChargingStation} {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown agent kind %q", b)
}

// VehicleState is the dispatch/charging state of a vehicle.
type VehicleState int

const (
	StateAvailable VehicleState = iota
	StateInUse
	StateGoingToRecharge
	StateRecharging
	StateNeedsRecharging
)

// AllVehicleStates lists every state in declaration order.
var AllVehicleStates = []VehicleState{
	StateAvailable,
	StateInUse,
	StateGoingToRecharge,
	StateRecharging,
	StateNeedsRecharging,
}

// String returns a human-readable representation of the vehicle state.
func (s VehicleState) String() string {
	switch s {
	case StateAvailable:
		return "Available"
	case StateInUse:
		return "In Use"
	case StateGoingToRecharge:
		return "Going to Recharge"
	case StateRecharging:
		return "Recharging"
	case StateNeedsRecharging:
		return "Needs Recharging"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s VehicleState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *VehicleState) UnmarshalText(b []byte) error {
	for _, st := range AllVehicleStates {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown vehicle state %q", b)
}
