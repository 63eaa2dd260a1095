// Package graph provides serialization types for laid-out maps.
//
// This package defines the canonical wire format for worldmap output, used
// for JSON files, API responses, caching and the browser editor.
//
// # Architecture
//
// The package sits at the serialization boundary between internal
// representations and external formats:
//
//   - [Layout], [Node], [Edge]: Serialization types (this package)
//   - pkg/layout.Node: positioned node used by the engines
//   - pkg/layout/route.Edge: layout edge plus its routed path
//
// Use [Export] to build a Layout and [ToNodes] to recover engine output from
// a cached one.
//
// # Layout Serialization
//
//	{
//	  "version": 1,
//	  "engine": "grid",
//	  "width": 400, "height": 180,
//	  "nodes": [{"id": "3001", "x": 0, "y": 0, "width": 160, "height": 60}],
//	  "edges": [{"from": "3001", "to": "3002", "direction": "east",
//	             "source_port": "east-out", "target_port": "west-in",
//	             "points": [...], "label": {"x": 200, "y": 22}}]
//	}
//
// # Overrides Files
//
// User edits are stored separately from the computed layout. An [Overrides]
// document holds the locked positions keyed by node ID and the dirty set:
//
//	o, _ := graph.ReadOverridesFile("midgaard.layout.json")
//	state := override.FromSnapshot(computed, o.Snapshot())
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
