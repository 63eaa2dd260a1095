package graph

import (
	"math"

	"github.com/matzehuels/worldmap/pkg/layout"
	"github.com/matzehuels/worldmap/pkg/layout/route"
)

// =============================================================================
// Constants
// =============================================================================

// Engine names as they appear in serialized layouts.
const (
	EngineGrid    = "grid"
	EngineLayered = "layered"
)

// Current format version written by MarshalLayout.
const FormatVersion = 1

// =============================================================================
// Layout - Positioned Map
// =============================================================================

// Layout is the canonical serialization format for a laid-out map: every
// node box on the plane plus the routed exits between them. It is what the
// CLI writes, the server returns and the browser editor draws.
type Layout struct {
	Version int    `json:"version" bson:"version"`
	World   string `json:"world,omitempty" bson:"world,omitempty"`
	Engine  string `json:"engine" bson:"engine"`

	// Fallback is set when the requested engine failed and grid positions
	// were used instead.
	Fallback bool `json:"fallback,omitempty" bson:"fallback,omitempty"`

	// Frame dimensions: the bounding box of all nodes.
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`

	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges,omitempty" bson:"edges,omitempty"`
	Stats *Stats `json:"stats,omitempty" bson:"stats,omitempty"`
}

// Stats summarises routing quality.
type Stats struct {
	Edges    int `json:"edges" bson:"edges"`
	Adjusted int `json:"adjusted,omitempty" bson:"adjusted,omitempty"`
	Blocked  int `json:"blocked,omitempty" bson:"blocked,omitempty"`
}

// =============================================================================
// Node - Positioned Box
// =============================================================================

// Node is a positioned room or area. X and Y are the top-left corner.
type Node struct {
	ID     string         `json:"id" bson:"id"`
	Label  string         `json:"label,omitempty" bson:"label,omitempty"`
	X      float64        `json:"x" bson:"x"`
	Y      float64        `json:"y" bson:"y"`
	Width  float64        `json:"width" bson:"width"`
	Height float64        `json:"height" bson:"height"`
	Grid   *layout.Coord  `json:"grid,omitempty" bson:"grid,omitempty"`
	Locked bool           `json:"locked,omitempty" bson:"locked,omitempty"`
	Dirty  bool           `json:"dirty,omitempty" bson:"dirty,omitempty"`
	Meta   map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// =============================================================================
// Edge - Routed Exit
// =============================================================================

// Edge is a routed exit. Points is the orthogonal polyline from the source
// port to the target port.
type Edge struct {
	From          string         `json:"from" bson:"from"`
	To            string         `json:"to" bson:"to"`
	Direction     string         `json:"direction" bson:"direction"`
	Class         string         `json:"class,omitempty" bson:"class,omitempty"`
	SourcePort    string         `json:"source_port" bson:"source_port"`
	TargetPort    string         `json:"target_port" bson:"target_port"`
	Bidirectional bool           `json:"bidirectional,omitempty" bson:"bidirectional,omitempty"`
	Points        []layout.Point `json:"points" bson:"points"`
	Label         layout.Point   `json:"label" bson:"label"`
	Adjusted      bool           `json:"adjusted,omitempty" bson:"adjusted,omitempty"`
	Blocked       bool           `json:"blocked,omitempty" bson:"blocked,omitempty"`
}

// =============================================================================
// Conversion
// =============================================================================

// Export builds a Layout from positioned nodes and their routed edges.
// Placing edges are written with an empty class.
func Export(engine string, nodes []layout.Node, edges []route.Edge) Layout {
	out := Layout{
		Version: FormatVersion,
		Engine:  engine,
		Nodes:   FromNodes(nodes),
		Edges:   make([]Edge, 0, len(edges)),
	}
	out.Width, out.Height = frame(nodes)

	for _, e := range edges {
		class := e.Class.String()
		if e.Places() {
			class = ""
		}
		out.Edges = append(out.Edges, Edge{
			From:          e.Source,
			To:            e.Target,
			Direction:     e.Direction.String(),
			Class:         class,
			SourcePort:    e.SourcePort.String(),
			TargetPort:    e.TargetPort.String(),
			Bidirectional: e.Bidirectional,
			Points:        e.Path.Points,
			Label:         e.Path.Label,
			Adjusted:      e.Path.Adjusted,
			Blocked:       e.Path.Hits > 0,
		})
	}

	s := route.Summarize(edges)
	out.Stats = &Stats{Edges: s.Edges, Adjusted: s.Adjusted, Blocked: s.Blocked}
	return out
}

// FromNodes converts positioned layout nodes to their serialization format,
// preserving order.
func FromNodes(nodes []layout.Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = Node{
			ID:     n.ID,
			Label:  n.Label,
			X:      n.Position.X,
			Y:      n.Position.Y,
			Width:  n.Width,
			Height: n.Height,
			Grid:   copyCoord(n.Grid),
			Locked: n.Locked,
			Dirty:  n.Dirty,
			Meta:   copyMeta(n.Meta),
		}
	}
	return out
}

// ToNodes converts serialized nodes back to layout nodes.
func ToNodes(nodes []Node) []layout.Node {
	out := make([]layout.Node, len(nodes))
	for i, n := range nodes {
		out[i] = layout.Node{
			ID:       n.ID,
			Label:    n.Label,
			Position: layout.Point{X: n.X, Y: n.Y},
			Width:    n.Width,
			Height:   n.Height,
			Grid:     copyCoord(n.Grid),
			Locked:   n.Locked,
			Dirty:    n.Dirty,
			Meta:     copyMeta(n.Meta),
		}
	}
	return out
}

// =============================================================================
// Internal Helpers
// =============================================================================

// frame returns the size of the bounding box of nodes.
func frame(nodes []layout.Node) (w, h float64) {
	if len(nodes) == 0 {
		return 0, 0
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		b := n.Bounds()
		minX, minY = math.Min(minX, b.Min.X), math.Min(minY, b.Min.Y)
		maxX, maxY = math.Max(maxX, b.Max.X), math.Max(maxY, b.Max.Y)
	}
	return maxX - minX, maxY - minY
}

func copyCoord(c *layout.Coord) *layout.Coord {
	if c == nil {
		return nil
	}
	v := *c
	return &v
}

// copyMeta creates a shallow copy of metadata to avoid mutation.
// Returns nil if m is empty.
func copyMeta(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
