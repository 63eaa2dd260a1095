package layered

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matzehuels/worldmap/pkg/layout"
	"github.com/matzehuels/worldmap/pkg/world"
)

func testGraph() *layout.Graph {
	w := world.New(nil)
	for _, id := range []string{"1", "2", "3"} {
		_ = w.AddNode(world.Node{ID: id})
	}
	_ = w.AddExit(world.Exit{From: "1", To: "2", Direction: "east"})
	_ = w.AddExit(world.Exit{From: "2", To: "1", Direction: "west"})
	_ = w.AddExit(world.Exit{From: "2", To: "3", Direction: "up"})
	_ = w.AddExit(world.Exit{From: "3", To: "far:9", Direction: "north", External: true})
	return layout.Build(w)
}

func TestDOT(t *testing.T) {
	dot := New(Options{NodeWidth: 144, NodeHeight: 72}).DOT(testGraph())

	for _, want := range []string{
		"width=2, height=1",
		"n0 -> n1 [tailport=e, headport=w, dir=both];",
		"n1 -> n2 [tailport=n, headport=s, constraint=false];",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "far:9") {
		t.Error("external edge to an absent node should not be emitted")
	}
}

func TestParsePositions(t *testing.T) {
	out := []byte(`digraph G {
	graph [bb="0,0,200,100"];
	node [label="", shape=box];
	n0	[height=1, pos="36,64", width=2];
	n1	[height=1,
		pos="180.5,18",
		width=2];
	n0 -> n1	[pos="e,100,18 36,46 36,30"];
}
`)
	got, err := parsePositions(out)
	if err != nil {
		t.Fatalf("parsePositions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d positions, want 2: %v", len(got), got)
	}
	if got[0] != (layout.Point{X: 36, Y: 64}) || got[1] != (layout.Point{X: 180.5, Y: 18}) {
		t.Errorf("positions = %v", got)
	}

	if _, err := parsePositions([]byte("digraph G {}")); !errors.Is(err, ErrNoPositions) {
		t.Errorf("empty output: got %v, want ErrNoPositions", err)
	}
}

func TestPlace(t *testing.T) {
	e := New(Options{NodeWidth: 100, NodeHeight: 40})
	g := testGraph()
	nodes := g.Nodes()
	centers := map[int]layout.Point{
		0: {X: 54, Y: 110},
		1: {X: 204, Y: 110},
		2: {X: 54, Y: 20},
	}

	if err := e.place(nodes, centers); err != nil {
		t.Fatalf("place: %v", err)
	}
	want := []layout.Point{{X: 0, Y: 0}, {X: 150, Y: 0}, {X: 0, Y: 90}}
	for i, p := range want {
		if nodes[i].Position != p {
			t.Errorf("node %s at %+v, want %+v", nodes[i].ID, nodes[i].Position, p)
		}
		if nodes[i].Width != 100 || nodes[i].Height != 40 {
			t.Errorf("node %s size = %gx%g", nodes[i].ID, nodes[i].Width, nodes[i].Height)
		}
	}

	delete(centers, 1)
	if err := e.place(g.Nodes(), centers); !errors.Is(err, ErrNoPositions) {
		t.Errorf("missing centre: got %v, want ErrNoPositions", err)
	}
}

func TestLayoutEmptyGraph(t *testing.T) {
	nodes, err := New(Options{}).Layout(context.Background(), layout.Build(world.New(nil)))
	if err != nil || len(nodes) != 0 {
		t.Errorf("empty graph: nodes=%v err=%v", nodes, err)
	}
}

func TestLayoutPositionsEveryNode(t *testing.T) {
	if testing.Short() {
		t.Skip("runs Graphviz")
	}
	g := testGraph()
	nodes, err := New(Options{}).Layout(context.Background(), g)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if len(nodes) != g.NodeCount() {
		t.Fatalf("got %d nodes, want %d", len(nodes), g.NodeCount())
	}
	minX, minY := nodes[0].Position.X, nodes[0].Position.Y
	for _, n := range nodes {
		minX, minY = min(minX, n.Position.X), min(minY, n.Position.Y)
	}
	if minX != 0 || minY != 0 {
		t.Errorf("layout frame starts at (%g, %g), want (0, 0)", minX, minY)
	}
	for i, a := range nodes {
		for _, b := range nodes[i+1:] {
			if a.Bounds().Overlaps(b.Bounds()) {
				t.Errorf("nodes %s and %s overlap", a.ID, b.ID)
			}
		}
	}
}
