// Package route draws layout edges as orthogonal polylines between fixed
// compass ports.
//
// # Shapes
//
// Each path leaves its source port through a short perpendicular stub and
// enters its target port the same way. Between the stubs the router tries two
// six-point shapes:
//
//	horizontal-first              vertical-first
//	S─s1──┐                       S─s1
//	      │                          │
//	      └──t1─T                    └────────┐
//	                                          t1─T
//
// The shape with fewer obstacle crossings wins, then the shorter one, then
// the default orientation of the source side (east/west horizontal,
// north/south vertical), then horizontal-first.
//
// # Obstacles
//
// When the chosen shape still crosses a padded node box, its middle leg is
// moved just outside each blocking box, closest move first, and the first
// crossing-free variant is kept. If none exists the unadjusted path is
// returned with [Path.Hits] set. Routing never fails.
//
// [Router.Route] is a pure function of its request and options. [RouteAll]
// derives port anchors and obstacles from positioned nodes.
package route
