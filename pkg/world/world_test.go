package world

import (
	"errors"
	"slices"
	"testing"
)

func TestAddNode(t *testing.T) {
	tests := []struct {
		name    string
		nodes   []Node
		wantErr error
	}{
		{name: "Single", nodes: []Node{{ID: "3001"}}},
		{name: "EmptyID", nodes: []Node{{ID: ""}}, wantErr: ErrInvalidNodeID},
		{name: "Duplicate", nodes: []Node{{ID: "a"}, {ID: "a"}}, wantErr: ErrDuplicateNodeID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(nil)
			var err error
			for _, n := range tt.nodes {
				if err = w.AddNode(n); err != nil {
					break
				}
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AddNode error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddNodeInitializesMeta(t *testing.T) {
	w := New(nil)
	if err := w.AddNode(Node{ID: "a"}); err != nil {
		t.Fatal(err)
	}
	n, ok := w.Node("a")
	if !ok {
		t.Fatal("node a not found")
	}
	if n.Meta == nil {
		t.Error("Meta should be initialized")
	}
}

func TestAddExit(t *testing.T) {
	w := New(nil)
	_ = w.AddNode(Node{ID: "1"})

	if err := w.AddExit(Exit{From: "1", To: "99", Direction: "north"}); err != nil {
		t.Errorf("exit to unknown node should be recorded, got %v", err)
	}
	if err := w.AddExit(Exit{From: "", To: "1"}); !errors.Is(err, ErrInvalidExit) {
		t.Errorf("missing source: got %v, want ErrInvalidExit", err)
	}
	if err := w.AddExit(Exit{From: "1", To: ""}); !errors.Is(err, ErrInvalidExit) {
		t.Errorf("missing destination: got %v, want ErrInvalidExit", err)
	}
	if got := w.ExitCount(); got != 1 {
		t.Errorf("ExitCount = %d, want 1", got)
	}
	if got := len(w.ExitsFrom("1")); got != 1 {
		t.Errorf("ExitsFrom(1) = %d exits, want 1", got)
	}
}

func TestSortedIDs(t *testing.T) {
	w := New(nil)
	for _, id := range []string{"b", "10", "2", "a", "007", "7"} {
		if err := w.AddNode(Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{"2", "007", "7", "10", "a", "b"}
	if got := w.SortedIDs(); !slices.Equal(got, want) {
		t.Errorf("SortedIDs = %v, want %v", got, want)
	}
}

func TestCompareIDs(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2", "10", -1},
		{"10", "2", 1},
		{"10", "a", -1},
		{"a", "10", 1},
		{"a", "b", -1},
		{"5", "5", 0},
		{"-3", "1", -1},
	}
	for _, tt := range tests {
		if got := CompareIDs(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareIDs(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestClone(t *testing.T) {
	w := New(Metadata{"name": "midgaard"})
	_ = w.AddNode(Node{ID: "1", Meta: Metadata{"sector": "city"}})
	_ = w.AddNode(Node{ID: "2"})
	_ = w.AddExit(Exit{From: "1", To: "2", Direction: "east"})

	c := w.Clone()
	c.nodes[0].Meta["sector"] = "field"
	_ = c.AddNode(Node{ID: "3"})

	n, _ := w.Node("1")
	if n.Meta["sector"] != "city" {
		t.Error("clone shares node metadata with the original")
	}
	if w.NodeCount() != 2 {
		t.Errorf("original NodeCount = %d, want 2", w.NodeCount())
	}
	if c.Name() != "midgaard" {
		t.Errorf("clone Name = %q, want midgaard", c.Name())
	}
}

func TestExitsFrom(t *testing.T) {
	w := New(nil)
	_ = w.AddExit(Exit{From: "1", To: "2", Direction: "east"})
	_ = w.AddExit(Exit{From: "2", To: "1", Direction: "west"})
	_ = w.AddExit(Exit{From: "1", To: "3", Direction: "south"})

	check := func(t *testing.T, w *World) {
		t.Helper()
		got := w.ExitsFrom("1")
		if len(got) != 2 || got[0].To != "2" || got[1].To != "3" {
			t.Errorf("ExitsFrom(1) = %+v, want exits to 2 then 3", got)
		}
		if got := w.ExitsFrom("3"); got != nil {
			t.Errorf("ExitsFrom(3) = %+v, want nil", got)
		}
	}
	check(t, w)

	c := w.Clone()
	_ = c.AddExit(Exit{From: "1", To: "4", Direction: "up"})
	check(t, w)
	if n := len(c.ExitsFrom("1")); n != 3 {
		t.Errorf("clone ExitsFrom(1) has %d exits, want 3", n)
	}
}

func TestDisplayLabel(t *testing.T) {
	if got := (Node{ID: "3001"}).DisplayLabel(); got != "3001" {
		t.Errorf("DisplayLabel = %q, want 3001", got)
	}
	if got := (Node{ID: "3001", Label: "Temple"}).DisplayLabel(); got != "Temple" {
		t.Errorf("DisplayLabel = %q, want Temple", got)
	}
}
