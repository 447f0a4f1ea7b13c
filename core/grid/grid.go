package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is returned when a target cell lies outside the grid.
	ErrOutOfBounds = errors.New("position out of bounds")
	// ErrNotFound is returned when an agent is not registered on the grid.
	ErrNotFound = errors.New("agent not on grid")
	// ErrAlreadyPlaced is returned when placing an agent that already occupies a cell.
	ErrAlreadyPlaced = errors.New("agent already placed")
)

// Pos identifies a cell by its integer coordinates.
type Pos struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Pos) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// StepToward returns the cell one Chebyshev step from `from` in the direction of `to`.
func StepToward(from, to Pos) Pos {
	return Pos{X: from.X + sign(to.X-from.X), Y: from.Y + sign(to.Y-from.Y)}
}

// Grid is a bounded, non-toroidal multi-occupancy grid. It indexes agents by
// key only; ownership of the agents stays with the caller.
//
// Thread-safety: NOT thread-safe. Must be called from a single goroutine.
type Grid[K comparable] struct {
	width  int
	height int
	cells  [][]K // index y*width+x, keys in registration order
	where  map[K]Pos
}

// New creates an empty width x height grid.
func New[K comparable](width, height int) *Grid[K] {
	n := 0
	if width > 0 && height > 0 {
		n = width * height
	}
	return &Grid[K]{
		width:  width,
		height: height,
		cells:  make([][]K, n),
		where:  make(map[K]Pos),
	}
}

func (g *Grid[K]) Width() int  { return g.width }
func (g *Grid[K]) Height() int { return g.height }

// Len returns the number of registered agents.
func (g *Grid[K]) Len() int { return len(g.where) }

// InBounds reports whether p lies in [0,W)x[0,H).
func (g *Grid[K]) InBounds(p Pos) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

func (g *Grid[K]) index(p Pos) int { return p.Y*g.width + p.X }

// Place registers k at p.
func (g *Grid[K]) Place(k K, p Pos) error {
	if !g.InBounds(p) {
		return fmt.Errorf("place %v at %s: %w", k, p, ErrOutOfBounds)
	}
	if old, ok := g.where[k]; ok {
		return fmt.Errorf("place %v at %s (currently %s): %w", k, p, old, ErrAlreadyPlaced)
	}
	i := g.index(p)
	g.cells[i] = append(g.cells[i], k)
	g.where[k] = p
	return nil
}

// Move relocates k to p. Moving to the current cell keeps the registration order.
func (g *Grid[K]) Move(k K, p Pos) error {
	if !g.InBounds(p) {
		return fmt.Errorf("move %v to %s: %w", k, p, ErrOutOfBounds)
	}
	old, ok := g.where[k]
	if !ok {
		return fmt.Errorf("move %v: %w", k, ErrNotFound)
	}
	if old == p {
		return nil
	}
	g.detach(k, old)
	i := g.index(p)
	g.cells[i] = append(g.cells[i], k)
	g.where[k] = p
	return nil
}

// Remove deregisters k from its cell.
func (g *Grid[K]) Remove(k K) error {
	old, ok := g.where[k]
	if !ok {
		return fmt.Errorf("remove %v: %w", k, ErrNotFound)
	}
	g.detach(k, old)
	delete(g.where, k)
	return nil
}

// detach removes k from the cell slice while preserving the order of the others.
func (g *Grid[K]) detach(k K, p Pos) {
	i := g.index(p)
	cell := g.cells[i]
	for j, other := range cell {
		if other == k {
			g.cells[i] = append(cell[:j], cell[j+1:]...)
			return
		}
	}
}

// PosOf returns the cell k is registered in.
func (g *Grid[K]) PosOf(k K) (Pos, bool) {
	p, ok := g.where[k]
	return p, ok
}

// Neighbors returns every key within Chebyshev distance radius of p,
// including keys registered at p itself. Cells are visited row-major
// (y ascending, then x ascending) clipped to the grid; keys within a cell
// follow registration order.
func (g *Grid[K]) Neighbors(p Pos, radius int) []K {
	var out []K
	for _, c := range g.NeighborCells(p, radius, true) {
		out = append(out, g.cells[g.index(c)]...)
	}
	return out
}

// NeighborCells lists the in-bounds cells within Chebyshev distance radius of
// p in row-major order. The center cell is listed only when includeCenter is set.
func (g *Grid[K]) NeighborCells(p Pos, radius int, includeCenter bool) []Pos {
	if radius < 0 {
		return nil
	}
	minY, maxY := max(0, p.Y-radius), min(g.height-1, p.Y+radius)
	minX, maxX := max(0, p.X-radius), min(g.width-1, p.X+radius)
	var out []Pos
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			c := Pos{X: x, Y: y}
			if c == p && !includeCenter {
				continue
			}
			out = append(out, c)
		}
	}
	return out
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
