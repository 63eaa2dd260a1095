package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/worldmap/pkg/editor"
	"github.com/matzehuels/worldmap/pkg/layout"
	"github.com/matzehuels/worldmap/pkg/layout/grid"
	"github.com/matzehuels/worldmap/pkg/layout/override"
	"github.com/matzehuels/worldmap/pkg/world"
)

func testMapModel(t *testing.T, save saveFunc) mapModel {
	t.Helper()
	w := world.New(world.Metadata{"name": "temple"})
	for _, id := range []string{"1", "2", "3"} {
		if err := w.AddNode(world.Node{ID: id}); err != nil {
			t.Fatal(err)
		}
	}
	_ = w.AddExit(world.Exit{From: "1", To: "2", Direction: "east"})
	_ = w.AddExit(world.Exit{From: "2", To: "3", Direction: "south"})

	s := editor.NewSession(layout.Build(w), editor.Options{})
	return newMapModel(context.Background(), s, "temple", grid.Options{}, save)
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// send feeds msgs through Update and runs the returned commands until none
// is left, as the bubbletea runtime would. tea.Quit is not run.
func send(t *testing.T, m mapModel, msgs ...tea.Msg) (mapModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		next, c := m.Update(msg)
		m = next.(mapModel)
		cmd = c
		for cmd != nil {
			out := cmd()
			if _, quit := out.(tea.QuitMsg); quit {
				return m, cmd
			}
			next, c = m.Update(out)
			m = next.(mapModel)
			cmd = c
		}
	}
	return m, cmd
}

func position(t *testing.T, m mapModel, id string) layout.Node {
	t.Helper()
	n, ok := m.session.State().Node(id)
	if !ok {
		t.Fatalf("node %s missing", id)
	}
	return n
}

func TestMapModelSelection(t *testing.T) {
	m := testMapModel(t, nil)
	if got := m.selected(); got != "1" {
		t.Fatalf("initial selection = %q, want 1", got)
	}

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab}, tea.KeyMsg{Type: tea.KeyTab})
	if got := m.selected(); got != "3" {
		t.Errorf("after two tabs = %q, want 3", got)
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if got := m.selected(); got != "1" {
		t.Errorf("tab should wrap, got %q", got)
	}
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if got := m.selected(); got != "3" {
		t.Errorf("shift+tab should wrap backwards, got %q", got)
	}
}

func TestMapModelMoveByCell(t *testing.T) {
	m := testMapModel(t, nil)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRight}, runeKey('j'))
	n := position(t, m, "1")
	if want := (layout.Point{X: 240, Y: 120}); n.Position != want {
		t.Errorf("position = %+v, want %+v", n.Position, want)
	}
	if !n.Dirty {
		t.Error("moved node should be dirty")
	}
	if !m.unsaved {
		t.Error("model should track unsaved edits")
	}
}

func TestMapModelLockSurvivesRelayout(t *testing.T) {
	m := testMapModel(t, nil)

	m, _ = send(t, m, runeKey('l'), tea.KeyMsg{Type: tea.KeySpace})
	if !position(t, m, "1").Locked {
		t.Fatal("space should lock the selected node")
	}

	m, _ = send(t, m, runeKey('r'))
	n := position(t, m, "1")
	if !n.Locked || n.Position != (layout.Point{X: 240, Y: 0}) {
		t.Errorf("locked node after relayout = %+v", n)
	}
	if m.pending {
		t.Error("relayout should have completed")
	}
	if m.status != "laid out with grid" {
		t.Errorf("status = %q", m.status)
	}

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeySpace})
	n = position(t, m, "1")
	if n.Locked || !n.Dirty {
		t.Errorf("second space should unlock and leave the node dirty: %+v", n)
	}
}

func TestMapModelClear(t *testing.T) {
	m := testMapModel(t, nil)
	m, _ = send(t, m, runeKey('h'), tea.KeyMsg{Type: tea.KeySpace}, runeKey('c'))

	n := position(t, m, "1")
	if n.Locked || n.Position != (layout.Point{}) {
		t.Errorf("clear should restore the computed layout, got %+v", n)
	}
}

func TestMapModelToggleMode(t *testing.T) {
	m := testMapModel(t, nil)
	m, _ = send(t, m, runeKey('m'))
	if got := m.session.Mode(); got != editor.ModeLayered {
		t.Errorf("mode = %v, want layered", got)
	}
	m, _ = send(t, m, runeKey('m'))
	if got := m.session.Mode(); got != editor.ModeGrid {
		t.Errorf("mode = %v, want grid", got)
	}
}

func TestMapModelSave(t *testing.T) {
	var saved override.Snapshot
	m := testMapModel(t, func(_ context.Context, s override.Snapshot) error {
		saved = s
		return nil
	})

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeySpace}, runeKey('w'))
	want := override.Snapshot{Overrides: override.Map{"1": {X: 0, Y: 0, Locked: true}}}
	if diff := cmp.Diff(want, saved, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("saved snapshot mismatch (-want +got):\n%s", diff)
	}
	if m.unsaved || m.statusErr {
		t.Errorf("after save: unsaved=%v status=%q", m.unsaved, m.status)
	}
}

func TestMapModelSaveErrors(t *testing.T) {
	t.Run("no store", func(t *testing.T) {
		m, _ := send(t, testMapModel(t, nil), runeKey('w'))
		if !m.statusErr {
			t.Errorf("saving without a store should report an error, got %q", m.status)
		}
	})
	t.Run("store failure", func(t *testing.T) {
		m := testMapModel(t, func(context.Context, override.Snapshot) error {
			return errors.New("disk full")
		})
		m, _ = send(t, m, tea.KeyMsg{Type: tea.KeySpace}, runeKey('w'))
		if !m.statusErr || !strings.Contains(m.status, "disk full") {
			t.Errorf("status = %q", m.status)
		}
		if !m.unsaved {
			t.Error("failed save should keep the unsaved marker")
		}
	})
}

func TestMapModelStaleOutcomeIgnored(t *testing.T) {
	m := testMapModel(t, nil)
	m.pending = true
	m.status = "relayout running..."

	m, _ = send(t, m, relayoutMsg(editor.Outcome{Generation: m.session.Generation() + 1, Applied: true}))
	if !m.pending || m.status != "relayout running..." {
		t.Errorf("stale outcome changed the model: pending=%v status=%q", m.pending, m.status)
	}
}

func TestMapModelQuit(t *testing.T) {
	for _, key := range []tea.KeyMsg{runeKey('q'), {Type: tea.KeyEsc}, {Type: tea.KeyCtrlC}} {
		_, cmd := testMapModel(t, nil).Update(key)
		if cmd == nil {
			t.Fatalf("%s: expected a quit command", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: expected tea.QuitMsg", key)
		}
	}
}

func TestMapModelView(t *testing.T) {
	m := testMapModel(t, nil)
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeySpace})

	view := m.View()
	for _, want := range []string{"temple", "[#]", "locked", "(0, 0)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q:\n%s", want, view)
		}
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name          string
		at, lo, hi, n int
		want          int
	}{
		{"fits", 3, 0, 5, 10, 0},
		{"centred", 10, 0, 20, 5, 8},
		{"clamped low", 1, 0, 20, 5, 0},
		{"clamped high", 19, 0, 20, 5, 16},
		{"negative cells", -4, -6, 6, 3, -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := window(tt.at, tt.lo, tt.hi, tt.n); got != tt.want {
				t.Errorf("window(%d, %d, %d, %d) = %d, want %d", tt.at, tt.lo, tt.hi, tt.n, got, tt.want)
			}
		})
	}
}
