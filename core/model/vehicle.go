package model

import (
	"github.com/kilianp07/fleetsim/core/grid"
)

// FullBattery is the battery level of a fully charged vehicle.
const FullBattery = 100.0

// AgentID is the stable identity of an agent for its lifetime.
type AgentID int

// Agent is the capability shared by all agent variants. The set of variants
// is closed: *Vehicle, *Rider and *ChargingStation. Callers dispatch on the
// concrete type with a type switch.
type Agent interface {
	ID() AgentID
	Kind() Kind
	Pos() grid.Pos
	// SetPos records the cell the agent is registered in. Only the owner of
	// the grid should call it, right after a successful grid mutation.
	SetPos(grid.Pos)
	agent()
}

type base struct {
	id  AgentID
	pos grid.Pos
}

func (b *base) ID() AgentID       { return b.id }
func (b *base) Pos() grid.Pos     { return b.pos }
func (b *base) SetPos(p grid.Pos) { b.pos = p }
func (b *base) agent()            {}

// Vehicle is a shared micromobility vehicle.
type Vehicle struct {
	base
	State   VehicleState
	Battery float64 // charge level in [0,100]
	// Destination is the current routing target, nil when none was chosen.
	Destination *grid.Pos
}

// NewVehicle returns a fully charged, available vehicle.
func NewVehicle(id AgentID) *Vehicle {
	return &Vehicle{base: base{id: id}, State: StateAvailable, Battery: FullBattery}
}

func (v *Vehicle) Kind() Kind { return KindVehicle }

// SetDestination sets the routing target.
func (v *Vehicle) SetDestination(p grid.Pos) { v.Destination = &p }

// ClearDestination drops the routing target.
func (v *Vehicle) ClearDestination() { v.Destination = nil }

// AtDestination reports whether a destination is set and reached.
func (v *Vehicle) AtDestination() bool {
	return v.Destination != nil && *v.Destination == v.pos
}

// Drain lowers the battery by amount, clamped to [0,100].
func (v *Vehicle) Drain(amount float64) {
	v.Battery = clampBattery(v.Battery - amount)
}

// Charge raises the battery by amount, clamped to [0,100].
func (v *Vehicle) Charge(amount float64) {
	v.Battery = clampBattery(v.Battery + amount)
}

func clampBattery(b float64) float64 {
	if b < 0 {
		return 0
	}
	if b > FullBattery {
		return FullBattery
	}
	return b
}

// Rider is a user waiting for a vehicle.
type Rider struct {
	base
	WaitTime int // ticks spent waiting
}

// NewRider returns a rider that has not waited yet.
func NewRider(id AgentID) *Rider { return &Rider{base: base{id: id}} }

func (r *Rider) Kind() Kind { return KindRider }

// Wait advances the rider's wait counter by one tick.
func (r *Rider) Wait() { r.WaitTime++ }

// ChargingStation is an immobile recharge point.
type ChargingStation struct {
	base
}

// NewChargingStation returns a station with the given identity.
func NewChargingStation(id AgentID) *ChargingStation {
	return &ChargingStation{base: base{id: id}}
}

func (c *ChargingStation) Kind() Kind { return KindChargingStation }
