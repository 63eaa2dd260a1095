// Package layout holds the shared model of the map layout engine and the
// adjacency extractor that produces it.
//
// # Pipeline
//
//	world.World ──Build──▶ layout.Graph ──Engine──▶ []layout.Node
//	                                                   │
//	                          override.State ◀─────────┘
//	                                │
//	                          route.RouteAll ──▶ orthogonal paths
//
// [Build] turns rooms and exits into a [Graph]: nodes in canonical order plus
// cardinal adjacency lists used by the grid engine, and the full [Edge] list
// (placing, vertical and external classes) used by the router.
//
// # Coordinates
//
// Plane coordinates are float64 with Y growing downwards, so north is -Y.
// [Node.Position] is the top-left corner of the node box. The grid engine
// additionally records the integer lattice cell in [Node.Grid].
//
// # Engines
//
// Subpackages implement [Engine]:
//
//   - grid: breadth-first cardinal placement (default)
//   - layered: Graphviz dot with compass ports
package layout
