package layout

import (
	"context"
	"fmt"
	"strings"
)

// =============================================================================
// Ports and Edge Classes
// =============================================================================

// PortKind tells the inbound port of a side from the outbound one.
type PortKind int

const (
	PortOut PortKind = iota
	PortIn
)

// Port is one of the eight fixed connection points of a node: an inbound and
// an outbound port on each of the four sides.
type Port struct {
	Side Direction
	Kind PortKind
}

// String returns a compact name such as "east-out".
func (p Port) String() string {
	if p.Kind == PortIn {
		return p.Side.String() + "-in"
	}
	return p.Side.String() + "-out"
}

// MarshalText encodes p as its compact name.
func (p Port) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText decodes a name produced by String.
func (p *Port) UnmarshalText(b []byte) error {
	side, kind, ok := strings.Cut(string(b), "-")
	d, known := ParseDirection(side)
	if !ok || !known || (kind != "in" && kind != "out") {
		return fmt.Errorf("invalid port %q", b)
	}
	p.Side, p.Kind = d, PortOut
	if kind == "in" {
		p.Kind = PortIn
	}
	return nil
}

// EdgeClass separates edges that constrain grid placement from edges that are
// only drawn.
type EdgeClass int

const (
	// ClassPlacing edges carry a cardinal direction between two nodes of the
	// same map.
	ClassPlacing EdgeClass = iota
	// ClassVertical edges are up/down exits. They use the north/south ports
	// but never move nodes.
	ClassVertical
	// ClassExternal edges lead into another map. Their target may be absent.
	ClassExternal
)

// String returns the class name.
func (c EdgeClass) String() string {
	switch c {
	case ClassVertical:
		return "vertical"
	case ClassExternal:
		return "external"
	}
	return "placing"
}

// MarshalText encodes c as its name.
func (c EdgeClass) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText decodes a class name.
func (c *EdgeClass) UnmarshalText(b []byte) error {
	switch string(b) {
	case "placing":
		*c = ClassPlacing
	case "vertical":
		*c = ClassVertical
	case "external":
		*c = ClassExternal
	default:
		return fmt.Errorf("unknown edge class %q", b)
	}
	return nil
}

// =============================================================================
// Node and Edge
// =============================================================================

// Node is a positioned room or area. Position is the top-left corner of the
// node box on the plane.
type Node struct {
	ID       string         `json:"id"`
	Label    string         `json:"label,omitempty"`
	Position Point          `json:"position"`
	Width    float64        `json:"width,omitempty"`
	Height   float64        `json:"height,omitempty"`
	Grid     *Coord         `json:"grid,omitempty"`
	Locked   bool           `json:"locked,omitempty"`
	Dirty    bool           `json:"dirty,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// Bounds returns the node box.
func (n Node) Bounds() Rect { return RectAt(n.Position, n.Width, n.Height) }

// Edge is a layout edge between two nodes. Key is the cardinal direction of
// Target as seen from Source; Direction keeps the raw exit direction.
type Edge struct {
	Source        string    `json:"source"`
	Target        string    `json:"target"`
	Key           Direction `json:"key"`
	Direction     Direction `json:"direction"`
	Class         EdgeClass `json:"class"`
	SourcePort    Port      `json:"source_port"`
	TargetPort    Port      `json:"target_port"`
	Bidirectional bool      `json:"bidirectional,omitempty"`
}

// Places reports whether the edge constrains grid placement.
func (e Edge) Places() bool { return e.Class == ClassPlacing }

// Neighbor is one placing adjacency entry: the node ID lies in direction Key.
type Neighbor struct {
	ID  string
	Key Direction
}

// =============================================================================
// Graph
// =============================================================================

// Graph is the output of the adjacency extractor. Nodes live in an arena in
// the canonical ID order; adjacency lists are parallel to the arena.
//
// A Graph is immutable after Build and safe for concurrent readers.
type Graph struct {
	nodes []Node
	index map[string]int
	adj   [][]Neighbor
	edges []Edge
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of layout edges of every class.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Nodes returns the unpositioned nodes in canonical order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Index returns the arena slot of id.
func (g *Graph) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Neighbors returns the placing adjacency of id, including reverse pairs.
func (g *Graph) Neighbors(id string) []Neighbor {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.adj[i]
}

// Edges returns all layout edges in extraction order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// PlacingEdges returns only the edges that constrain placement.
func (g *Graph) PlacingEdges() []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Places() {
			out = append(out, e)
		}
	}
	return out
}

// Engine produces node positions for a graph. Implementations must return
// one node per graph node, in the graph's canonical order.
type Engine interface {
	Name() string
	Layout(ctx context.Context, g *Graph) ([]Node, error)
}

// EngineNames lists the engine identifiers accepted by configuration.
var EngineNames = []string{"grid", "layered"}

// ValidateEngine returns an error when name is not a known engine.
func ValidateEngine(name string) error {
	for _, n := range EngineNames {
		if n == name {
			return nil
		}
	}
	return fmt.Errorf("unknown layout engine %q (want one of %v)", name, EngineNames)
}
