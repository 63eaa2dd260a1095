// Package world holds the domain graph the map editor lays out: rooms or
// areas connected by compass-direction exits.
//
// # Overview
//
// A [World] stores its nodes in an arena (a flat slice) with an id→index map,
// which keeps lookups O(1) and iteration order reproducible. Exits are kept
// in insertion order. The package performs no interpretation of exit
// directions; that belongs to the layout package.
//
//	w := world.New(nil)
//	_ = w.AddNode(world.Node{ID: "3001", Label: "Temple"})
//	_ = w.AddNode(world.Node{ID: "3002", Label: "Square"})
//	_ = w.AddExit(world.Exit{From: "3001", To: "3002", Direction: "east"})
//
// # Files
//
// [ReadFile] and [Read] accept JSON or YAML world documents. Exits can be a
// top-level list or nested per node in the MUD style:
//
//	nodes:
//	  - id: "3001"
//	    label: Temple
//	    exits:
//	      east: "3002"
//	      up: "3100"
//
// # Ordering
//
// [CompareIDs] defines the canonical ordering used for all traversals:
// numeric IDs ascending, then everything else lexicographically. Repeated
// runs over unchanged input therefore visit nodes identically.
package world
