package route

import (
	"github.com/matzehuels/worldmap/pkg/layout"
)

// Edge is a layout edge together with its routed path.
type Edge struct {
	layout.Edge
	Path Path `json:"path"`
}

// Anchor returns the plane position of port p on box b. Ports sit on the
// side midpoints; the out-port is moved by -spread along the side and the
// in-port by +spread, so an edge pair between the same sides stays apart.
func Anchor(b layout.Rect, p layout.Port, spread float64) layout.Point {
	c := b.Center()
	shift := -spread
	if p.Kind == layout.PortIn {
		shift = spread
	}
	switch p.Side {
	case layout.North:
		return layout.Point{X: c.X + shift, Y: b.Min.Y}
	case layout.South:
		return layout.Point{X: c.X + shift, Y: b.Max.Y}
	case layout.East:
		return layout.Point{X: b.Max.X, Y: c.Y + shift}
	case layout.West:
		return layout.Point{X: b.Min.X, Y: c.Y + shift}
	}
	return c
}

// RouteAll routes every edge of g whose endpoints both appear in nodes.
// External edges into another map are skipped when their target is not part
// of nodes. Every node box except the edge's own endpoints is an obstacle.
// The result follows the order of g.Edges.
func RouteAll(g *layout.Graph, nodes []layout.Node, opts Options) []Edge {
	r := New(opts)
	spread := r.opts.PortSpread

	byID := make(map[string]int, len(nodes))
	boxes := make([]layout.Rect, len(nodes))
	for i, n := range nodes {
		byID[n.ID] = i
		boxes[i] = n.Bounds()
	}

	var out []Edge
	obstacles := make([]layout.Rect, 0, len(nodes))
	for _, e := range g.Edges() {
		si, okS := byID[e.Source]
		ti, okT := byID[e.Target]
		if !okS || !okT || si == ti {
			continue
		}

		obstacles = obstacles[:0]
		for i, b := range boxes {
			if i != si && i != ti {
				obstacles = append(obstacles, b)
			}
		}

		req := Request{
			Source:    Anchor(boxes[si], e.SourcePort, spread),
			SourceDir: e.SourcePort.Side,
			Target:    Anchor(boxes[ti], e.TargetPort, spread),
			TargetDir: e.TargetPort.Side,
			Obstacles: obstacles,
		}
		out = append(out, Edge{Edge: e, Path: r.Route(req)})
	}
	return out
}

// Stats summarises a routing pass.
type Stats struct {
	Edges    int
	Adjusted int
	Blocked  int // Paths left crossing an obstacle
}

// Summarize counts adjusted and still-blocked paths.
func Summarize(edges []Edge) Stats {
	s := Stats{Edges: len(edges)}
	for _, e := range edges {
		if e.Path.Adjusted {
			s.Adjusted++
		}
		if e.Path.Hits > 0 {
			s.Blocked++
		}
	}
	return s
}
