package graph_test

import (
	"context"
	"fmt"
	"os"

	"github.com/matzehuels/worldmap/pkg/graph"
	"github.com/matzehuels/worldmap/pkg/layout"
	"github.com/matzehuels/worldmap/pkg/layout/grid"
	"github.com/matzehuels/worldmap/pkg/layout/route"
	"github.com/matzehuels/worldmap/pkg/world"
)

func ExampleExport() {
	w := world.New(nil)
	_ = w.AddNode(world.Node{ID: "3001", Label: "Temple"})
	_ = w.AddNode(world.Node{ID: "3002", Label: "Square"})
	_ = w.AddExit(world.Exit{From: "3001", To: "3002", Direction: "east"})

	g := layout.Build(w)
	nodes, _ := grid.New(grid.Options{}).Layout(context.Background(), g)
	l := graph.Export(graph.EngineGrid, nodes, route.RouteAll(g, nodes, route.Options{}))

	for _, n := range l.Nodes {
		fmt.Printf("%s %s at (%v,%v)\n", n.ID, n.DisplayLabel(), n.X, n.Y)
	}
	for _, e := range l.Edges {
		fmt.Printf("%s -> %s via %s/%s\n", e.From, e.To, e.SourcePort, e.TargetPort)
	}
	fmt.Printf("frame %vx%v\n", l.Width, l.Height)
	// Output:
	// 3001 Temple at (0,0)
	// 3002 Square at (240,0)
	// 3001 -> 3002 via east-out/west-in
	// frame 400x60
}

func ExampleWriteOverrides() {
	_ = graph.WriteOverrides(graph.Overrides{World: "midgaard"}, os.Stdout)
	// Output:
	// {
	//   "world": "midgaard",
	//   "overrides": {}
	// }
}
