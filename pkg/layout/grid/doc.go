// Package grid implements the cardinal grid layout engine, the default
// producer of node positions.
//
// Every placing edge with key D from A to B asks for
//
//	B.cell = A.cell + offset(D)    north (0,-1)  east (1,0)  south (0,1)  west (-1,0)
//
// and the engine grants the request whenever the cell is still free. When
// two neighbours claim the same cell (a room with two "east" exits, or a
// loop whose directions do not close) the later one is moved to the nearest
// free cell found by a ring search bounded by [Options.SpiralRadius]. The
// result always has one node per cell, and the engine never fails.
//
// Connected components are laid out independently and packed left to right
// in discovery order, [Options.ComponentGap] columns apart. Lattice cells
// map to the plane by (NodeWidth+MarginX, NodeHeight+MarginY).
//
//	eng := grid.New(grid.Options{})
//	nodes, _ := eng.Layout(ctx, layout.Build(w))
package grid
