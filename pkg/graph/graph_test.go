package graph

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/worldmap/pkg/layout"
	"github.com/matzehuels/worldmap/pkg/layout/grid"
	"github.com/matzehuels/worldmap/pkg/layout/override"
	"github.com/matzehuels/worldmap/pkg/layout/route"
	"github.com/matzehuels/worldmap/pkg/world"
)

func buildLayout(t *testing.T) ([]layout.Node, []route.Edge) {
	t.Helper()
	w := world.New(nil)
	for _, id := range []string{"3001", "3002", "3003"} {
		if err := w.AddNode(world.Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	_ = w.AddExit(world.Exit{From: "3001", To: "3002", Direction: "east"})
	_ = w.AddExit(world.Exit{From: "3002", To: "3001", Direction: "west"})
	_ = w.AddExit(world.Exit{From: "3001", To: "3003", Direction: "south"})

	g := layout.Build(w)
	nodes, err := grid.New(grid.Options{}).Layout(context.Background(), g)
	if err != nil {
		t.Fatal(err)
	}
	return nodes, route.RouteAll(g, nodes, route.Options{})
}

func TestExport(t *testing.T) {
	nodes, edges := buildLayout(t)
	l := Export(EngineGrid, nodes, edges)

	if l.Version != FormatVersion || l.Engine != EngineGrid {
		t.Errorf("header = %d/%s", l.Version, l.Engine)
	}
	if len(l.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(l.Nodes))
	}
	if len(l.Edges) != 2 {
		t.Fatalf("edges = %d, want 2 (mirrored pair merged)", len(l.Edges))
	}
	// 2 columns and 2 rows of 160x60 boxes with 80/60 margins.
	if l.Width != 400 || l.Height != 180 {
		t.Errorf("frame = %vx%v, want 400x180", l.Width, l.Height)
	}

	e := l.Edges[0]
	if e.From != "3001" || e.To != "3002" || !e.Bidirectional {
		t.Errorf("first edge = %+v", e)
	}
	if e.SourcePort != "east-out" || e.TargetPort != "west-in" {
		t.Errorf("ports = %s -> %s", e.SourcePort, e.TargetPort)
	}
	if e.Class != "" {
		t.Errorf("placing edge class should be omitted, got %q", e.Class)
	}
	if len(e.Points) < 2 {
		t.Errorf("edge should have a path, got %v", e.Points)
	}
	if l.Stats == nil || l.Stats.Edges != 2 || l.Stats.Blocked != 0 {
		t.Errorf("stats = %+v", l.Stats)
	}
}

func TestNodesRoundTrip(t *testing.T) {
	nodes, _ := buildLayout(t)
	nodes[1].Locked = true
	nodes[1].Meta = map[string]any{"sector": "city"}

	got := ToNodes(FromNodes(nodes))
	if diff := cmp.Diff(nodes, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}

	got[0].Grid.X = 99
	if nodes[0].Grid.X == 99 {
		t.Error("ToNodes should copy grid coordinates")
	}
}

func TestLayoutRoundTrip(t *testing.T) {
	nodes, edges := buildLayout(t)
	l := Export(EngineGrid, nodes, edges)
	l.World = "midgaard"

	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteLayoutFile(l, path); err != nil {
		t.Fatal(err)
	}
	got, err := ReadLayoutFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(l, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalLayoutInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"BadJSON", `{`, "unmarshal layout"},
		{"FutureVersion", `{"version": 99, "nodes": []}`, "unsupported layout version"},
		{"MissingNodeID", `{"nodes": [{"x": 1}]}`, "missing id"},
		{"MissingEdgeEndpoint", `{"nodes": [{"id": "a"}], "edges": [{"from": "a"}]}`, "missing endpoint"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalLayout([]byte(tt.data))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestOverridesFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("Missing", func(t *testing.T) {
		o, err := ReadOverridesFile(filepath.Join(dir, "none.json"))
		if err != nil {
			t.Fatal(err)
		}
		if o.Overrides == nil || len(o.Overrides) != 0 {
			t.Errorf("missing file should yield empty overrides, got %v", o.Overrides)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		snap := override.Snapshot{
			Overrides: override.Map{
				"3001": {X: 10, Y: 20, Locked: true},
				"3002": {X: 5, Y: 5},
			},
			Dirty: []string{"3003"},
		}
		path := filepath.Join(dir, "midgaard.layout.json")
		if err := WriteOverridesFile(NewOverrides("midgaard", snap), path); err != nil {
			t.Fatal(err)
		}
		o, err := ReadOverridesFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if o.World != "midgaard" || o.UpdatedAt.IsZero() {
			t.Errorf("header = %q %v", o.World, o.UpdatedAt)
		}
		want := override.Snapshot{
			Overrides: override.Map{"3001": {X: 10, Y: 20, Locked: true}},
			Dirty:     []string{"3003"},
		}
		if diff := cmp.Diff(want, o.Snapshot()); diff != "" {
			t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		if _, err := ReadOverrides(bytes.NewBufferString("[")); err == nil {
			t.Error("expected decode error")
		}
	})
}
