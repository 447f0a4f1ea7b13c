// Package demand places new riders on the grid. Placement is biased toward a
// configurable hot-zone and every draw comes from the run's random source.
package demand

import (
	"github.com/kilianp07/fleetsim/core/grid"
	"github.com/kilianp07/fleetsim/core/random"
)

// HotZone describes the region where demand concentrates.
type HotZone struct {
	CenterX     int     `json:"center_x" yaml:"center_x"`
	CenterY     int     `json:"center_y" yaml:"center_y"`
	Radius      int     `json:"radius" yaml:"radius"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// Generator draws rider positions and organic demand events.
type Generator struct {
	zone        HotZone
	width       int
	height      int
	probability float64 // per-tick organic injection probability
	src         *random.Source
}

// New returns a Generator for a width x height grid.
func New(src *random.Source, width, height int, zone HotZone, demandProbability float64) *Generator {
	return &Generator{
		zone:        zone,
		width:       width,
		height:      height,
		probability: demandProbability,
		src:         src,
	}
}

// Position draws the cell of a new rider. With the hot-zone probability the
// cell is uniform over the hot-zone box clipped to the grid, otherwise uniform
// over the whole grid. A box lying entirely outside the grid falls back to the
// whole grid.
func (g *Generator) Position() grid.Pos {
	if g.src.Float64() < g.zone.Probability {
		minX, maxX := max(g.zone.CenterX-g.zone.Radius, 0), min(g.zone.CenterX+g.zone.Radius, g.width-1)
		minY, maxY := max(g.zone.CenterY-g.zone.Radius, 0), min(g.zone.CenterY+g.zone.Radius, g.height-1)
		if minX <= maxX && minY <= maxY {
			return grid.Pos{X: g.src.IntRange(minX, maxX), Y: g.src.IntRange(minY, maxY)}
		}
	}
	return grid.Pos{X: g.src.Intn(g.width), Y: g.src.Intn(g.height)}
}

// ShouldInject draws whether an organic rider appears this tick.
func (g *Generator) ShouldInject() bool {
	return g.src.Float64() < g.probability
}
