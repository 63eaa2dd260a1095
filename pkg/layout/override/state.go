package override

import (
	"maps"
	"slices"

	"github.com/matzehuels/worldmap/pkg/layout"
	"github.com/matzehuels/worldmap/pkg/world"
)

// State is the layout reconciliation state: the last automatic layout, the
// working node positions shown to the user, the locked overrides and the
// dirty set.
//
// State is a value. Every transition returns a new State and leaves the
// receiver untouched, so a State can be shared between goroutines and kept
// as an undo point. A node is never both locked and dirty.
type State struct {
	computed  []layout.Node
	nodes     []layout.Node
	index     map[string]int
	overrides Map
	dirty     map[string]bool
}

// New builds a State from a computed layout, persisted overrides and
// previously dirty node IDs. Dirty IDs that are locked are ignored.
func New(computed []layout.Node, overrides Map, dirty []string) State {
	s := State{
		computed:  slices.Clone(computed),
		overrides: overrides.Clone(),
		dirty:     make(map[string]bool, len(dirty)),
	}
	for _, id := range dirty {
		if _, locked := s.overrides[id]; !locked {
			s.dirty[id] = true
		}
	}
	s.nodes = Apply(s.computed, s.overrides, s.dirty)
	s.reindex()
	return s
}

func (s *State) reindex() {
	s.index = make(map[string]int, len(s.nodes))
	for i, n := range s.nodes {
		s.index[n.ID] = i
	}
}

// clone copies the mutable collections. The index is shared because no
// transition changes node membership.
func (s State) clone() State {
	return State{
		computed:  s.computed,
		nodes:     slices.Clone(s.nodes),
		index:     s.index,
		overrides: maps.Clone(s.overrides),
		dirty:     maps.Clone(s.dirty),
	}
}

// =============================================================================
// Transitions
// =============================================================================

// Drag moves node id to p and marks it dirty. Dragging a locked node
// releases its lock and removes its override. Unknown IDs leave the state
// unchanged.
func (s State) Drag(id string, p layout.Point) State {
	i, ok := s.index[id]
	if !ok {
		return s
	}
	next := s.clone()
	delete(next.overrides, id)
	next.dirty[id] = true
	next.nodes[i].Position = p
	next.nodes[i].Locked = false
	next.nodes[i].Dirty = true
	return next
}

// Lock pins node id at its current position and clears its dirty flag.
func (s State) Lock(id string) State {
	i, ok := s.index[id]
	if !ok {
		return s
	}
	next := s.clone()
	pos := next.nodes[i].Position
	next.overrides[id] = Entry{X: pos.X, Y: pos.Y, Locked: true}
	delete(next.dirty, id)
	next.nodes[i].Locked = true
	next.nodes[i].Dirty = false
	return next
}

// Unlock removes the pin on node id. The node stays where it is and becomes
// dirty until it is locked again or replaced by the next automatic layout.
// Unlocking a node that is not locked does nothing.
func (s State) Unlock(id string) State {
	if _, locked := s.overrides[id]; !locked {
		return s
	}
	next := s.clone()
	delete(next.overrides, id)
	next.dirty[id] = true
	if i, ok := next.index[id]; ok {
		next.nodes[i].Locked = false
		next.nodes[i].Dirty = true
	}
	return next
}

// Clear drops every override and dirty flag and returns to the computed
// layout. Callers follow up with a relayout.
func (s State) Clear() State {
	return New(s.computed, nil, nil)
}

// CompleteRelayout installs a fresh automatic layout. Unlocked working
// positions are discarded, overrides are re-applied and the dirty set is
// emptied.
func (s State) CompleteRelayout(computed []layout.Node) State {
	return New(computed, s.overrides, nil)
}

// =============================================================================
// Queries
// =============================================================================

// Nodes returns the working nodes with their Locked and Dirty flags.
func (s State) Nodes() []layout.Node { return slices.Clone(s.nodes) }

// Node returns the working node with the given ID.
func (s State) Node(id string) (layout.Node, bool) {
	i, ok := s.index[id]
	if !ok {
		return layout.Node{}, false
	}
	return s.nodes[i], true
}

// Computed returns the last automatic layout without overrides.
func (s State) Computed() []layout.Node { return slices.Clone(s.computed) }

// Overrides returns a copy of the locked override map. Entries for nodes
// that are not part of the current graph are kept.
func (s State) Overrides() Map { return s.overrides.Clone() }

// Dirty returns the dirty node IDs in canonical order.
func (s State) Dirty() []string {
	ids := slices.Collect(maps.Keys(s.dirty))
	slices.SortFunc(ids, world.CompareIDs)
	return ids
}

// IsLocked reports whether id has a locked override.
func (s State) IsLocked(id string) bool {
	_, ok := s.overrides[id]
	return ok
}

// IsDirty reports whether id is in the dirty set.
func (s State) IsDirty(id string) bool { return s.dirty[id] }

// Snapshot is the plain serializable form of the persisted layout state.
type Snapshot struct {
	Overrides Map      `json:"overrides" bson:"overrides"`
	Dirty     []string `json:"dirty,omitempty" bson:"dirty,omitempty"`
}

// Snapshot returns the override map and dirty set as plain data.
func (s State) Snapshot() Snapshot {
	return Snapshot{Overrides: s.Overrides(), Dirty: s.Dirty()}
}

// FromSnapshot restores a State over a freshly computed layout.
func FromSnapshot(computed []layout.Node, snap Snapshot) State {
	return New(computed, snap.Overrides, snap.Dirty)
}
