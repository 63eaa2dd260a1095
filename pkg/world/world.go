package world

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [World.AddNode] when the node ID is
	// empty. Every room or area must have a non-empty identifier.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [World.AddNode] when a node with the
	// same ID already exists in the world.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrInvalidExit is returned by [World.AddExit] when the exit has no
	// source or no destination.
	ErrInvalidExit = errors.New("exit must have a source and a destination")
)

// Metadata stores arbitrary key-value pairs attached to nodes, exits or the
// world itself (sector, terrain, flags). Metadata maps are never nil once
// added to a World.
type Metadata map[string]any

// NodeKind distinguishes rooms from whole areas. Area nodes appear when the
// editor shows the inter-area overview map.
type NodeKind int

const (
	// KindRoom is a single room (typically addressed by vnum).
	KindRoom NodeKind = iota
	// KindArea is an area file shown as one node on the overview map.
	KindArea
)

// String returns the wire name of the kind.
func (k NodeKind) String() string {
	if k == KindArea {
		return "area"
	}
	return "room"
}

// ParseKind converts a wire name into a NodeKind. Unknown names are rooms.
func ParseKind(s string) NodeKind {
	if s == "area" {
		return KindArea
	}
	return KindRoom
}

// Node is a room or area of the world.
type Node struct {
	ID    string   // Stable key, usually a vnum or area file name
	Label string   // Display label (defaults to ID)
	Kind  NodeKind // Room or area
	Meta  Metadata // Arbitrary metadata (never nil after AddNode)
}

// DisplayLabel returns Label when set, otherwise the ID.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Exit is a directional link from one node to another. Direction is the raw
// direction word from the world data ("north", "e", "up", ...); it is
// interpreted by the layout package, not here.
type Exit struct {
	From      string
	To        string
	Direction string
	// External marks links that lead into another map. Their destination is
	// not expected to exist in this world.
	External bool
	Meta     Metadata
}

// World is the domain graph handed to the layout engine: nodes stored in an
// arena with an id→index map, and the exits between them in insertion order.
//
// The zero value is not usable; use New. World is not safe for concurrent
// use without external synchronization.
type World struct {
	nodes []Node
	index map[string]int
	exits []Exit
	from  map[string][]int // source id -> indices into exits
	meta  Metadata

	skipped int // malformed exits dropped while decoding
}

// New creates an empty world with optional world-level metadata.
func New(meta Metadata) *World {
	if meta == nil {
		meta = Metadata{}
	}
	return &World{
		index: make(map[string]int),
		from:  make(map[string][]int),
		meta:  meta,
	}
}

// Meta returns the world-level metadata map.
func (w *World) Meta() Metadata { return w.meta }

// AddNode appends a node to the arena. Returns ErrInvalidNodeID for an empty
// ID and ErrDuplicateNodeID when the ID is already taken.
func (w *World) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := w.index[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	w.index[n.ID] = len(w.nodes)
	w.nodes = append(w.nodes, n)
	return nil
}

// AddExit records an exit. Exits may reference nodes that are not (yet) part
// of the world; the layout engine drops those defensively instead of failing
// the whole map. Only exits without endpoints are rejected.
func (w *World) AddExit(e Exit) error {
	if e.From == "" || e.To == "" {
		return ErrInvalidExit
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	w.from[e.From] = append(w.from[e.From], len(w.exits))
	w.exits = append(w.exits, e)
	return nil
}

// Node returns the node with the given ID.
func (w *World) Node(id string) (Node, bool) {
	i, ok := w.index[id]
	if !ok {
		return Node{}, false
	}
	return w.nodes[i], true
}

// HasNode reports whether a node with the given ID exists.
func (w *World) HasNode(id string) bool {
	_, ok := w.index[id]
	return ok
}

// Nodes returns a copy of all nodes in insertion order.
func (w *World) Nodes() []Node { return slices.Clone(w.nodes) }

// Exits returns a copy of all exits in insertion order.
func (w *World) Exits() []Exit { return slices.Clone(w.exits) }

// NodeCount returns the number of nodes.
func (w *World) NodeCount() int { return len(w.nodes) }

// ExitCount returns the number of exits.
func (w *World) ExitCount() int { return len(w.exits) }

// SkippedExits returns how many exits of the source document were dropped
// because they lacked a source or a destination.
func (w *World) SkippedExits() int { return w.skipped }

// ExitsFrom returns the exits leaving id, in insertion order.
func (w *World) ExitsFrom(id string) []Exit {
	idx := w.from[id]
	if len(idx) == 0 {
		return nil
	}
	out := make([]Exit, len(idx))
	for i, at := range idx {
		out[i] = w.exits[at]
	}
	return out
}

// SortedIDs returns all node IDs in the canonical stable order used by the
// layout engine (see [CompareIDs]).
func (w *World) SortedIDs() []string {
	ids := slices.Collect(maps.Keys(w.index))
	slices.SortFunc(ids, CompareIDs)
	return ids
}

// Clone returns a deep copy of the world. Metadata maps are copied shallowly.
func (w *World) Clone() *World {
	out := New(maps.Clone(w.meta))
	for _, n := range w.nodes {
		n.Meta = maps.Clone(n.Meta)
		_ = out.AddNode(n)
	}
	for _, e := range w.exits {
		e.Meta = maps.Clone(e.Meta)
		_ = out.AddExit(e)
	}
	out.skipped = w.skipped
	return out
}
