// Package pkg holds the worldmap libraries: everything needed to turn a
// world of rooms connected by compass exits into a 2D map.
//
// # Overview
//
// A world is a set of rooms (or whole areas) whose exits point north, east,
// south, west, up or down. The libraries place every room on a lattice that
// follows those directions, draw each exit as an orthogonal path between
// compass ports, and keep positions the user locked by hand.
//
// # Architecture
//
// The data flow through worldmap:
//
//	World file (JSON or YAML)
//	         ↓
//	    [world] package (rooms, exits, metadata)
//	         ↓
//	    [layout] package (adjacency extraction, ports, edge classes)
//	         ↓
//	    [layout/grid] or [layout/layered] (node positions)
//	         ↓
//	    [layout/override] (locked positions, dirty flags)
//	         ↓
//	    [layout/route] (orthogonal exit paths)
//	         ↓
//	    [graph] (layout.json for the browser editor)
//
// # Quick Start
//
//	w, _ := world.ReadFile("midgaard.yaml")
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	res, _ := runner.Execute(ctx, w, override.Snapshot{}, pipeline.Options{})
//	_ = graph.WriteLayoutFile(res.Layout, "midgaard.layout.json")
//
// # Main Packages
//
// [world] - The domain graph: rooms, exits and metadata, read from JSON or
// YAML documents.
//
// [layout] - Geometry, directions and the layout graph built from a world.
// Placing edges drive the grid; vertical and external edges are only routed.
//
// [layout/grid] - The default engine. Places connected components on an
// integer lattice by breadth-first traversal and resolves collisions with a
// spiral search.
//
// [layout/layered] - The alternative engine, backed by Graphviz dot.
//
// [layout/override] - Immutable override state: drag, lock, unlock, clear
// and relayout transitions.
//
// [layout/route] - Orthogonal edge routing around node boxes.
//
// [editor] - An editing session with generation-checked asynchronous
// relayouts and grid fallback.
//
// [pipeline] - Extract, layout, override and route with caching. Used by
// the CLI and the HTTP server alike.
//
// [cache] - File, Redis and null caches for layout and route results.
//
// [store] - File and MongoDB stores for per-world override documents.
//
// [observability] - Hooks for layout, route, cache and server events.
//
// [errors] - Coded errors shared by the CLI and the HTTP API.
package pkg
