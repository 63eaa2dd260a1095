package override

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/worldmap/pkg/layout"
	"github.com/matzehuels/worldmap/pkg/layout/grid"
	"github.com/matzehuels/worldmap/pkg/world"
)

func computedNodes(ids ...string) []layout.Node {
	nodes := make([]layout.Node, len(ids))
	for i, id := range ids {
		nodes[i] = layout.Node{ID: id, Position: layout.Point{X: float64(i) * 100}, Width: 50, Height: 20}
	}
	return nodes
}

func checkExclusive(t *testing.T, s State) {
	t.Helper()
	for _, n := range s.Nodes() {
		if n.Locked && n.Dirty {
			t.Fatalf("node %s reported locked and dirty", n.ID)
		}
		if n.Locked != s.IsLocked(n.ID) {
			t.Fatalf("node %s Locked=%v but IsLocked=%v", n.ID, n.Locked, s.IsLocked(n.ID))
		}
		if s.IsLocked(n.ID) && s.IsDirty(n.ID) {
			t.Fatalf("node %s is in both the override map and the dirty set", n.ID)
		}
	}
}

func TestApply(t *testing.T) {
	computed := computedNodes("1", "2", "3")
	overrides := Map{
		"1":     {X: 5, Y: 6, Locked: true},
		"3":     {X: 9, Y: 9, Locked: false},
		"ghost": {X: 1, Y: 1, Locked: true},
	}
	got := Apply(computed, overrides, map[string]bool{"1": true, "2": true})

	want := []layout.Node{
		{ID: "1", Position: layout.Point{X: 5, Y: 6}, Width: 50, Height: 20, Locked: true},
		{ID: "2", Position: layout.Point{X: 100}, Width: 50, Height: 20, Dirty: true},
		{ID: "3", Position: layout.Point{X: 200}, Width: 50, Height: 20},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply mismatch (-want +got):\n%s", diff)
	}
	if computed[0].Position != (layout.Point{}) {
		t.Error("Apply modified its input")
	}
}

func TestDrag(t *testing.T) {
	s := New(computedNodes("1", "2"), nil, nil)
	next := s.Drag("2", layout.Point{X: 7, Y: 8})

	n, _ := next.Node("2")
	if n.Position != (layout.Point{X: 7, Y: 8}) || !n.Dirty || n.Locked {
		t.Errorf("dragged node = %+v, want dirty at (7,8)", n)
	}
	if old, _ := s.Node("2"); old.Position != (layout.Point{X: 100}) || old.Dirty {
		t.Errorf("Drag mutated the previous state: %+v", old)
	}

	again := next.Drag("2", layout.Point{X: 9, Y: 9})
	if diff := cmp.Diff([]string{"2"}, again.Dirty()); diff != "" {
		t.Errorf("dragging twice should keep one dirty entry:\n%s", diff)
	}

	if same := s.Drag("ghost", layout.Point{}); !cmp.Equal(same.Nodes(), s.Nodes()) {
		t.Error("dragging an unknown node should not change the state")
	}
}

func TestLock(t *testing.T) {
	s := New(computedNodes("1", "2"), nil, nil).
		Drag("1", layout.Point{X: 40, Y: 50}).
		Lock("1")

	if !s.IsLocked("1") || s.IsDirty("1") {
		t.Fatalf("after lock: locked=%v dirty=%v", s.IsLocked("1"), s.IsDirty("1"))
	}
	want := Map{"1": {X: 40, Y: 50, Locked: true}}
	if diff := cmp.Diff(want, s.Overrides()); diff != "" {
		t.Errorf("Overrides mismatch (-want +got):\n%s", diff)
	}
	checkExclusive(t, s)
}

func TestUnlockSemantics(t *testing.T) {
	p := layout.Point{X: 300, Y: 120}
	s := New(computedNodes("1", "2"), nil, nil).Drag("2", p).Lock("2")
	s = s.Unlock("2")

	n, _ := s.Node("2")
	if n.Position != p {
		t.Errorf("unlocked node moved to %v, want %v", n.Position, p)
	}
	if !s.IsDirty("2") || s.IsLocked("2") {
		t.Errorf("after unlock: dirty=%v locked=%v, want dirty and unlocked", s.IsDirty("2"), s.IsLocked("2"))
	}
	if _, ok := s.Overrides()["2"]; ok {
		t.Error("unlock should remove the override entry")
	}

	noop := New(computedNodes("1"), nil, nil)
	if got := noop.Unlock("1").Dirty(); len(got) != 0 {
		t.Errorf("unlocking an unlocked node marked it dirty: %v", got)
	}
	checkExclusive(t, s)
}

func TestClear(t *testing.T) {
	s := New(computedNodes("1", "2"), Map{"1": {X: 1, Y: 1, Locked: true}}, nil).
		Drag("2", layout.Point{X: 5, Y: 5}).
		Clear()

	if len(s.Overrides()) != 0 || len(s.Dirty()) != 0 {
		t.Errorf("Clear left overrides=%v dirty=%v", s.Overrides(), s.Dirty())
	}
	if diff := cmp.Diff(computedNodes("1", "2"), s.Nodes()); diff != "" {
		t.Errorf("Clear should restore computed positions (-want +got):\n%s", diff)
	}
}

func TestCompleteRelayout(t *testing.T) {
	s := New(computedNodes("1", "2", "3"), nil, nil).
		Drag("1", layout.Point{X: -5, Y: -5}).
		Lock("1").
		Drag("2", layout.Point{X: 999, Y: 999})

	fresh := computedNodes("3", "2", "1")
	s = s.CompleteRelayout(fresh)

	if len(s.Dirty()) != 0 {
		t.Errorf("dirty set should be empty after relayout, got %v", s.Dirty())
	}
	if n, _ := s.Node("2"); n.Position != (layout.Point{X: 100}) {
		t.Errorf("unlocked node kept its dragged position %v", n.Position)
	}
	if n, _ := s.Node("1"); n.Position != (layout.Point{X: -5, Y: -5}) || !n.Locked {
		t.Errorf("locked node = %+v, want locked at (-5,-5)", n)
	}
}

func TestScenarioLockSurvivesRelayout(t *testing.T) {
	w := world.New(nil)
	for _, id := range []string{"x", "y", "z"} {
		_ = w.AddNode(world.Node{ID: id})
	}
	_ = w.AddExit(world.Exit{From: "x", To: "y", Direction: "east"})
	_ = w.AddExit(world.Exit{From: "y", To: "z", Direction: "south"})
	g := layout.Build(w)
	eng := grid.New(grid.Options{})

	computed, _ := eng.Layout(context.Background(), g)
	s := New(computed, nil, nil).
		Drag("x", layout.Point{X: 100, Y: 200}).
		Lock("x")

	fresh, _ := eng.Layout(context.Background(), g)
	s = s.CompleteRelayout(fresh)

	n, _ := s.Node("x")
	if n.Position != (layout.Point{X: 100, Y: 200}) {
		t.Errorf("locked node at %v after relayout, want (100,200)", n.Position)
	}
	if !n.Locked || !s.IsLocked("x") {
		t.Error("node should still be locked after relayout")
	}
}

func TestScenarioDragLockedNode(t *testing.T) {
	s := New(computedNodes("y"), Map{"y": {X: 10, Y: 10, Locked: true}}, nil)
	s = s.Drag("y", layout.Point{X: 60, Y: 10})

	if !s.IsDirty("y") {
		t.Error("dragged node should be dirty")
	}
	if s.IsLocked("y") {
		t.Error("dragged node should no longer be locked")
	}
	if _, ok := s.Overrides()["y"]; ok {
		t.Error("override map should no longer contain the dragged node")
	}
	checkExclusive(t, s)
}

func TestMutualExclusionUnderRandomOps(t *testing.T) {
	ids := []string{"1", "2", "3", "4", "5"}
	rng := rand.New(rand.NewPCG(1, 2))
	s := New(computedNodes(ids...), nil, nil)

	for step := 0; step < 500; step++ {
		id := ids[rng.IntN(len(ids))]
		switch rng.IntN(5) {
		case 0:
			s = s.Drag(id, layout.Point{X: rng.Float64() * 500, Y: rng.Float64() * 500})
		case 1:
			s = s.Lock(id)
		case 2:
			s = s.Unlock(id)
		case 3:
			s = s.CompleteRelayout(computedNodes(ids...))
		case 4:
			if rng.IntN(10) == 0 {
				s = s.Clear()
			}
		}
		checkExclusive(t, s)
	}
}

func TestNewDropsDirtyLockedIDs(t *testing.T) {
	s := New(computedNodes("1", "2"), Map{"1": {X: 0, Y: 0, Locked: true}}, []string{"1", "2"})
	if diff := cmp.Diff([]string{"2"}, s.Dirty()); diff != "" {
		t.Errorf("Dirty mismatch (-want +got):\n%s", diff)
	}
	checkExclusive(t, s)
}

func TestKeepsOverridesForUnknownNodes(t *testing.T) {
	s := New(computedNodes("1"), Map{"gone": {X: 3, Y: 4, Locked: true}}, nil)
	s = s.Lock("1").CompleteRelayout(computedNodes("1"))

	if _, ok := s.Overrides()["gone"]; !ok {
		t.Error("override for a node outside the graph was dropped")
	}
}

func TestMapJSON(t *testing.T) {
	m := Map{
		"3001": {X: 100, Y: 200, Locked: true},
		"3002": {X: 1, Y: 2, Locked: false},
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := string(data), `{"3001":{"x":100,"y":200,"locked":true}}`; got != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}

	var back Map
	if err := json.Unmarshal([]byte(`{"a":{"x":1,"y":2,"locked":true},"b":{"x":0,"y":0}}`), &back); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Map{"a": {X: 1, Y: 2, Locked: true}}, back); diff != "" {
		t.Errorf("Unmarshal mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New(computedNodes("1", "2", "3"), nil, nil).
		Drag("1", layout.Point{X: 1, Y: 1}).
		Lock("1").
		Drag("3", layout.Point{X: 3, Y: 3})

	snap := s.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	restored := FromSnapshot(computedNodes("1", "2", "3"), decoded)
	if diff := cmp.Diff(s.Overrides(), restored.Overrides()); diff != "" {
		t.Errorf("overrides differ after restore:\n%s", diff)
	}
	if diff := cmp.Diff([]string{"3"}, restored.Dirty()); diff != "" {
		t.Errorf("dirty set differs after restore:\n%s", diff)
	}
}
