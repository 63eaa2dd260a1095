// Package override reconciles automatic layouts with user intent.
//
// Two collections make up the persisted layout state:
//
//   - the override [Map]: node ID to {x, y, locked: true}, one entry per
//     pinned node
//   - the dirty set: nodes moved by hand since the last automatic layout or
//     lock, not yet reflected in the overrides
//
// [State] owns both together with the computed and working node lists, and
// changes only through pure transitions:
//
//	s := override.New(computed, saved, nil)
//	s = s.Drag("3001", layout.Point{X: 100, Y: 200}) // dirty
//	s = s.Lock("3001")                               // locked, clean
//	s = s.CompleteRelayout(fresh)                    // 3001 stays at (100,200)
//	s = s.Unlock("3001")                             // stays put, dirty again
//
// At every step a node is either locked, dirty or neither.
package override
