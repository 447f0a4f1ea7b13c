package sim

import (
	"fmt"

	"github.com/kilianp07/fleetsim/core/grid"
	"github.com/kilianp07/fleetsim/core/model"
	"github.com/kilianp07/fleetsim/core/random"
)

// stepVehicle runs one transition of the vehicle state machine.
func (e *Engine) stepVehicle(v *model.Vehicle) error {
	switch v.State {
	case model.StateInUse:
		return e.stepTrip(v)
	case model.StateAvailable:
		return e.stepAvailable(v)
	case model.StateGoingToRecharge:
		return e.stepToStation(v)
	case model.StateRecharging:
		e.stepRecharge(v)
	default:
		// A vehicle stranded here gets no charging destination.
		if v.Battery <= e.cfg.LowBatteryThreshold {
			v.State = model.StateGoingToRecharge
		}
	}
	return nil
}

func (e *Engine) stepTrip(v *model.Vehicle) error {
	if v.Destination == nil {
		return nil
	}
	if err := e.moveAgent(v, grid.StepToward(v.Pos(), *v.Destination)); err != nil {
		return err
	}
	v.Drain(e.cfg.BatteryDepletionRate / float64(e.cfg.TripDuration))
	if !v.AtDestination() {
		return nil
	}
	v.ClearDestination()
	if v.Battery <= 0 {
		v.State = model.StateNeedsRecharging
		e.log.Debugf("vehicle %d ended its trip at %s with an empty battery", v.ID(), v.Pos())
	} else {
		v.State = model.StateAvailable
	}
	return nil
}

func (e *Engine) stepAvailable(v *model.Vehicle) error {
	if v.Battery <= e.cfg.LowBatteryThreshold {
		cs := e.nearestStation(v.Pos())
		v.State = model.StateGoingToRecharge
		v.SetDestination(cs.Pos())
		e.log.Debugf("vehicle %d heading to station %d at %s (battery %.1f)", v.ID(), cs.ID(), cs.Pos(), v.Battery)
		return nil
	}

	r := e.firstRiderNear(v.Pos())
	if r == nil {
		cell, ok := random.Choice(e.src, e.grid.NeighborCells(v.Pos(), 1, false))
		if !ok {
			return nil
		}
		return e.moveAgent(v, cell)
	}

	v.SetDestination(r.Pos())
	if v.Pos() != r.Pos() {
		if err := e.moveAgent(v, grid.StepToward(v.Pos(), r.Pos())); err != nil {
			return err
		}
	}
	if v.Pos() != r.Pos() {
		return nil
	}
	return e.pickUp(v, r)
}

// pickUp starts a trip to a random cell, removes r from the world and spawns
// a replacement rider.
func (e *Engine) pickUp(v *model.Vehicle, r *model.Rider) error {
	v.State = model.StateInUse
	v.SetDestination(e.randomCell())
	if err := e.removeAgent(r); err != nil {
		return fmt.Errorf("remove rider %d: %w", r.ID(), err)
	}
	if _, err := e.injectRider(); err != nil {
		return fmt.Errorf("replace rider %d: %w", r.ID(), err)
	}
	e.pickups++
	e.log.Debugf("vehicle %d picked up rider %d at %s, trip to %s", v.ID(), r.ID(), v.Pos(), *v.Destination)
	return nil
}

func (e *Engine) stepToStation(v *model.Vehicle) error {
	if v.Destination == nil {
		if _, seen := e.stranded[v.ID()]; !seen {
			e.stranded[v.ID()] = struct{}{}
			e.log.Warnf("vehicle %d at %s is going to recharge without a destination", v.ID(), v.Pos())
		}
		return nil
	}
	if err := e.moveAgent(v, grid.StepToward(v.Pos(), *v.Destination)); err != nil {
		return err
	}
	if v.AtDestination() {
		v.State = model.StateRecharging
		e.log.Debugf("vehicle %d recharging at %s", v.ID(), v.Pos())
	}
	return nil
}

func (e *Engine) stepRecharge(v *model.Vehicle) {
	if v.Battery < model.FullBattery {
		v.Charge(e.cfg.RechargeRate)
	}
	if v.Battery >= model.FullBattery {
		v.State = model.StateAvailable
		v.ClearDestination()
		e.log.Debugf("vehicle %d fully charged at %s", v.ID(), v.Pos())
	}
}

// nearestStation returns the station closest to p in Euclidean distance. Ties
// go to the station created first.
func (e *Engine) nearestStation(p grid.Pos) *model.ChargingStation {
	var best *model.ChargingStation
	bestDist := 0
	for _, cs := range e.stations {
		dx, dy := cs.Pos().X-p.X, cs.Pos().Y-p.Y
		d := dx*dx + dy*dy
		if best == nil || d < bestDist {
			best, bestDist = cs, d
		}
	}
	return best
}

// firstRiderNear returns the first rider within the user range of p in the
// grid's neighbor order.
func (e *Engine) firstRiderNear(p grid.Pos) *model.Rider {
	for _, id := range e.grid.Neighbors(p, e.cfg.UserRange) {
		if r, ok := e.agents[id].(*model.Rider); ok {
			return r
		}
	}
	return nil
}
