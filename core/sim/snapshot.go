package sim

import (
	"sort"

	"github.com/kilianp07/fleetsim/core/grid"
	"github.com/kilianp07/fleetsim/core/model"
)

// AgentView is a read-only copy of one live agent for rendering.
type AgentView struct {
	ID   model.AgentID `json:"id"`
	Kind model.Kind    `json:"kind"`
	Pos  grid.Pos      `json:"pos"`

	// Vehicle fields.
	State       *model.VehicleState `json:"state,omitempty"`
	Battery     *float64            `json:"battery,omitempty"`
	Destination *grid.Pos           `json:"destination,omitempty"`

	// Rider fields.
	WaitTime *int `json:"wait_time,omitempty"`
}

// Snapshot is the state of the world after the last completed tick.
type Snapshot struct {
	Tick   int         `json:"tick"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Agents []AgentView `json:"agents"`
}

// Snapshot copies every live agent, ordered by ascending id. Mutating the
// result does not affect the engine.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Tick:   e.tick,
		Width:  e.cfg.Width,
		Height: e.cfg.Height,
		Agents: make([]AgentView, 0, len(e.agents)),
	}
	for _, a := range e.agents {
		s.Agents = append(s.Agents, viewOf(a))
	}
	sort.Slice(s.Agents, func(i, j int) bool { return s.Agents[i].ID < s.Agents[j].ID })
	return s
}

func viewOf(a model.Agent) AgentView {
	av := AgentView{ID: a.ID(), Kind: a.Kind(), Pos: a.Pos()}
	switch a := a.(type) {
	case *model.Vehicle:
		st, battery := a.State, a.Battery
		av.State, av.Battery = &st, &battery
		if a.Destination != nil {
			d := *a.Destination
			av.Destination = &d
		}
	case *model.Rider:
		w := a.WaitTime
		av.WaitTime = &w
	}
	return av
}
