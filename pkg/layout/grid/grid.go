package grid

import (
	"context"

	"github.com/matzehuels/worldmap/pkg/layout"
)

// Default option values.
const (
	DefaultNodeWidth    = 160.0
	DefaultNodeHeight   = 60.0
	DefaultMarginX      = 80.0
	DefaultMarginY      = 60.0
	DefaultComponentGap = 1
	DefaultSpiralRadius = 12
)

// Options configures the grid engine. Zero values are replaced by defaults.
type Options struct {
	NodeWidth  float64 // Node box width on the plane
	NodeHeight float64 // Node box height on the plane
	MarginX    float64 // Horizontal space between neighbouring cells
	MarginY    float64 // Vertical space between neighbouring cells

	// ComponentGap is the number of empty lattice columns between packed
	// components.
	ComponentGap int

	// SpiralRadius bounds the ring search for a free cell when the intended
	// cell is taken.
	SpiralRadius int
}

// SetDefaults fills zero fields with the package defaults.
func (o *Options) SetDefaults() {
	if o.NodeWidth <= 0 {
		o.NodeWidth = DefaultNodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = DefaultNodeHeight
	}
	if o.MarginX <= 0 {
		o.MarginX = DefaultMarginX
	}
	if o.MarginY <= 0 {
		o.MarginY = DefaultMarginY
	}
	if o.ComponentGap <= 0 {
		o.ComponentGap = DefaultComponentGap
	}
	if o.SpiralRadius <= 0 {
		o.SpiralRadius = DefaultSpiralRadius
	}
}

// Engine is the cardinal grid layout engine. It is stateless and safe for
// concurrent use.
type Engine struct {
	opts Options
}

// New returns a grid engine with opts applied over the defaults.
func New(opts Options) *Engine {
	opts.SetDefaults()
	return &Engine{opts: opts}
}

// Name implements [layout.Engine].
func (e *Engine) Name() string { return "grid" }

// Options returns the effective options.
func (e *Engine) Options() Options { return e.opts }

// Layout implements [layout.Engine]. It never returns an error.
func (e *Engine) Layout(_ context.Context, g *layout.Graph) ([]layout.Node, error) {
	return e.Position(g, e.Place(g)), nil
}

// Position converts a placement into plane coordinates. Each node keeps its
// lattice cell in Grid.
func (e *Engine) Position(g *layout.Graph, p *Placement) []layout.Node {
	nodes := g.Nodes()
	stepX := e.opts.NodeWidth + e.opts.MarginX
	stepY := e.opts.NodeHeight + e.opts.MarginY
	for i := range nodes {
		c, ok := p.Coords[nodes[i].ID]
		if !ok {
			continue
		}
		cell := c
		nodes[i].Grid = &cell
		nodes[i].Position = layout.Point{X: float64(c.X) * stepX, Y: float64(c.Y) * stepY}
		nodes[i].Width = e.opts.NodeWidth
		nodes[i].Height = e.opts.NodeHeight
	}
	return nodes
}
