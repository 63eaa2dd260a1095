package layout

import (
	"maps"
	"slices"

	"github.com/matzehuels/worldmap/pkg/world"
)

type adjKey struct {
	id  string
	key Direction
}

type edgeKey struct {
	source, target string
	key            Direction
	class          EdgeClass
}

// Build runs the adjacency extractor over w.
//
// Nodes are visited in [world.CompareIDs] order and each node's exits in
// insertion order, so unchanged input always yields the same graph. Exits are
// handled per the following rules:
//
//   - unknown or empty direction words, self-loops and exits from unknown
//     nodes are dropped
//   - exits to unknown nodes are dropped unless flagged external
//   - north/east/south/west exits become placing edges and add the pair
//     (target, key) to the source and (source, opposite key) to the target
//   - up/down exits become vertical edges keyed north/south
//   - a mirrored pair of exits is emitted once, marked bidirectional
//
// Build never fails.
func Build(w *world.World) *Graph {
	ids := w.SortedIDs()
	g := &Graph{
		nodes: make([]Node, len(ids)),
		index: make(map[string]int, len(ids)),
		adj:   make([][]Neighbor, len(ids)),
	}
	for i, id := range ids {
		n, _ := w.Node(id)
		g.nodes[i] = Node{ID: n.ID, Label: n.DisplayLabel(), Meta: maps.Clone(n.Meta)}
		g.index[id] = i
	}

	seenAdj := make([]map[adjKey]bool, len(ids))
	addAdj := func(at int, nb Neighbor) {
		if seenAdj[at] == nil {
			seenAdj[at] = make(map[adjKey]bool)
		}
		k := adjKey{nb.ID, nb.Key}
		if seenAdj[at][k] {
			return
		}
		seenAdj[at][k] = true
		g.adj[at] = append(g.adj[at], nb)
	}

	emitted := make(map[edgeKey]int)

	for si, id := range ids {
		for _, ex := range w.ExitsFrom(id) {
			dir, ok := ParseDirection(ex.Direction)
			if !ok || ex.To == id {
				continue
			}
			ti, known := g.index[ex.To]
			if !known && !ex.External {
				continue
			}

			class := ClassPlacing
			switch {
			case ex.External:
				class = ClassExternal
			case !dir.IsCardinal():
				class = ClassVertical
			}

			key := dir.Key()
			if class == ClassPlacing {
				addAdj(si, Neighbor{ID: ex.To, Key: key})
				addAdj(ti, Neighbor{ID: id, Key: key.Opposite()})
			}

			fwd := edgeKey{id, ex.To, key, class}
			if _, dup := emitted[fwd]; dup {
				continue
			}
			rev := edgeKey{ex.To, id, key.Opposite(), class}
			if at, ok := emitted[rev]; ok {
				g.edges[at].Bidirectional = true
				emitted[fwd] = at
				continue
			}

			emitted[fwd] = len(g.edges)
			g.edges = append(g.edges, Edge{
				Source:     id,
				Target:     ex.To,
				Key:        key,
				Direction:  dir,
				Class:      class,
				SourcePort: Port{Side: key, Kind: PortOut},
				TargetPort: Port{Side: key.Opposite(), Kind: PortIn},
			})
		}
	}

	return g
}

// Components returns the connected components of the placing adjacency, each
// listed in discovery order. Components are discovered from seeds in
// canonical order.
func (g *Graph) Components() [][]string {
	seen := make([]bool, len(g.nodes))
	var out [][]string
	for i := range g.nodes {
		if seen[i] {
			continue
		}
		seen[i] = true
		comp := []string{g.nodes[i].ID}
		for q := 0; q < len(comp); q++ {
			for _, nb := range g.Neighbors(comp[q]) {
				j := g.index[nb.ID]
				if !seen[j] {
					seen[j] = true
					comp = append(comp, nb.ID)
				}
			}
		}
		out = append(out, comp)
	}
	return out
}

// IDs returns the node IDs in canonical order.
func (g *Graph) IDs() []string {
	out := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.ID
	}
	return slices.Clip(out)
}
