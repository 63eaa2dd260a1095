package override

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/matzehuels/worldmap/pkg/layout"
	"github.com/matzehuels/worldmap/pkg/world"
)

// Entry is a user-pinned node position.
type Entry struct {
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Locked bool    `json:"locked" bson:"locked"`
}

// Point returns the pinned position.
func (e Entry) Point() layout.Point { return layout.Point{X: e.X, Y: e.Y} }

// Map is the persisted layout: node ID to pinned position. Only locked
// entries are meaningful; unlocked entries are dropped when encoding and
// decoding.
type Map map[string]Entry

// Clone returns a copy of m holding only locked entries. The result is never
// nil.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for id, e := range m {
		if e.Locked {
			out[id] = e
		}
	}
	return out
}

// IDs returns the locked node IDs in canonical order.
func (m Map) IDs() []string {
	ids := slices.Collect(maps.Keys(m.Clone()))
	slices.SortFunc(ids, world.CompareIDs)
	return ids
}

// MarshalJSON encodes only locked entries.
func (m Map) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]Entry(m.Clone()))
}

// UnmarshalJSON decodes an override map, discarding unlocked entries.
func (m *Map) UnmarshalJSON(data []byte) error {
	var raw map[string]Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Map(raw).Clone()
	return nil
}

// Apply merges overrides onto computed nodes. A node with a locked entry
// takes the entry's position and is reported locked; every other node keeps
// its computed position and is reported dirty when dirty contains it. The
// computed slice is not modified.
func Apply(computed []layout.Node, overrides Map, dirty map[string]bool) []layout.Node {
	out := make([]layout.Node, len(computed))
	for i, n := range computed {
		if e, ok := overrides[n.ID]; ok && e.Locked {
			n.Position = e.Point()
			n.Locked = true
			n.Dirty = false
		} else {
			n.Locked = false
			n.Dirty = dirty[n.ID]
		}
		out[i] = n
	}
	return out
}
