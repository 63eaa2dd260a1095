package grid

import (
	"github.com/matzehuels/worldmap/pkg/layout"
)

// Component is one connected group of the placing adjacency after packing.
type Component struct {
	IDs []string     // Node IDs in placement order, seed first
	Min layout.Coord // Inclusive lattice bounding box
	Max layout.Coord
}

// Placement is the lattice result of the grid engine.
type Placement struct {
	Coords     map[string]layout.Coord
	Components []Component

	// Displaced lists nodes that could not take the cell their edge asked
	// for, in placement order.
	Displaced []string
}

// Place assigns every node of g a unique lattice cell.
//
// Seeds are taken in canonical order; each unplaced seed starts a
// breadth-first walk of its component at local (0,0). A neighbour goes to
// its parent's cell plus the edge offset, or to the nearest free cell found
// by a bounded ring search around that cell. Finished components are packed
// left to right.
func (e *Engine) Place(g *layout.Graph) *Placement {
	p := &Placement{Coords: make(map[string]layout.Coord, g.NodeCount())}
	cursor := 0

	for _, seed := range g.IDs() {
		if _, done := p.Coords[seed]; done {
			continue
		}
		comp, local := e.placeComponent(g, seed, p)

		offset := layout.Coord{X: cursor - comp.Min.X, Y: -comp.Min.Y}
		for _, id := range comp.IDs {
			p.Coords[id] = local[id].Add(offset)
		}
		comp.Max = comp.Max.Add(offset)
		comp.Min = comp.Min.Add(offset)
		p.Components = append(p.Components, comp)

		cursor = comp.Max.X + 1 + e.opts.ComponentGap
	}
	return p
}

func (e *Engine) placeComponent(g *layout.Graph, seed string, p *Placement) (Component, map[string]layout.Coord) {
	local := map[string]layout.Coord{seed: {}}
	occupied := map[layout.Coord]string{{}: seed}
	comp := Component{IDs: []string{seed}}
	maxX := 0

	for q := 0; q < len(comp.IDs); q++ {
		cur := comp.IDs[q]
		for _, nb := range g.Neighbors(cur) {
			if _, placed := local[nb.ID]; placed {
				continue
			}
			cand := local[cur].Add(nb.Key.Offset())
			cell := cand
			if _, taken := occupied[cand]; taken {
				cell = e.nearestFree(cand, occupied, maxX)
				p.Displaced = append(p.Displaced, nb.ID)
			}
			local[nb.ID] = cell
			occupied[cell] = nb.ID
			maxX = max(maxX, cell.X)
			comp.IDs = append(comp.IDs, nb.ID)
		}
	}

	first := true
	for _, c := range local {
		if first {
			comp.Min, comp.Max = c, c
			first = false
			continue
		}
		comp.Min.X = min(comp.Min.X, c.X)
		comp.Min.Y = min(comp.Min.Y, c.Y)
		comp.Max.X = max(comp.Max.X, c.X)
		comp.Max.Y = max(comp.Max.Y, c.Y)
	}
	return comp, local
}

// nearestFree searches rings of growing radius around center and returns the
// free cell of the first non-full ring that is closest to center. Equal
// distances keep ring order (clockwise from the top-left corner). When every
// ring up to the radius is full the cell right of the occupied area on the
// same row is used.
func (e *Engine) nearestFree(center layout.Coord, occupied map[layout.Coord]string, maxX int) layout.Coord {
	for r := 1; r <= e.opts.SpiralRadius; r++ {
		best, bestDist, found := layout.Coord{}, 0, false
		for _, c := range ring(center, r) {
			if _, taken := occupied[c]; taken {
				continue
			}
			dx, dy := c.X-center.X, c.Y-center.Y
			if d := dx*dx + dy*dy; !found || d < bestDist {
				best, bestDist, found = c, d, true
			}
		}
		if found {
			return best
		}
	}
	return layout.Coord{X: maxX + 1, Y: center.Y}
}

// ring lists the cells at Chebyshev distance r from c, clockwise starting at
// the top-left corner.
func ring(c layout.Coord, r int) []layout.Coord {
	out := make([]layout.Coord, 0, 8*r)
	for x := c.X - r; x < c.X+r; x++ {
		out = append(out, layout.Coord{X: x, Y: c.Y - r})
	}
	for y := c.Y - r; y < c.Y+r; y++ {
		out = append(out, layout.Coord{X: c.X + r, Y: y})
	}
	for x := c.X + r; x > c.X-r; x-- {
		out = append(out, layout.Coord{X: x, Y: c.Y + r})
	}
	for y := c.Y + r; y > c.Y-r; y-- {
		out = append(out, layout.Coord{X: c.X - r, Y: y})
	}
	return out
}
