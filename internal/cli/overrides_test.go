package cli

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	apperr "github.com/matzehuels/worldmap/pkg/errors"
	"github.com/matzehuels/worldmap/pkg/graph"
	"github.com/matzehuels/worldmap/pkg/layout/override"
)

func TestOverridesLifecycle(t *testing.T) {
	dir := t.TempDir()
	cfg := writeTestConfig(t, dir)
	run := func(args ...string) error {
		t.Helper()
		root := testCLI().RootCommand()
		root.SetArgs(append([]string{"--config", cfg}, args...))
		return root.Execute()
	}

	snap := override.Snapshot{
		Overrides: override.Map{"3001": {X: 240, Y: -120, Locked: true}},
		Dirty:     []string{"3002"},
	}
	in := filepath.Join(dir, "in.json")
	if err := graph.WriteOverridesFile(graph.NewOverrides("temple", snap), in); err != nil {
		t.Fatal(err)
	}

	if err := run("overrides", "import", "temple", in); err != nil {
		t.Fatalf("import: %v", err)
	}
	if err := run("overrides", "list"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := run("overrides", "show", "temple"); err != nil {
		t.Fatalf("show: %v", err)
	}

	out := filepath.Join(dir, "out.json")
	if err := run("overrides", "export", "temple", "-o", out); err != nil {
		t.Fatalf("export: %v", err)
	}
	got, err := graph.ReadOverridesFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(snap, got.Snapshot(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("exported snapshot mismatch (-want +got):\n%s", diff)
	}
	if got.World != "temple" || got.UpdatedAt.IsZero() {
		t.Errorf("exported header = %q %v", got.World, got.UpdatedAt)
	}

	if err := run("overrides", "rm", "temple"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	err = run("overrides", "show", "temple")
	if !apperr.Is(err, apperr.ErrCodeNotFound) {
		t.Errorf("show after delete: got %v, want NOT_FOUND", err)
	}
	if err := run("overrides", "delete", "temple"); err != nil {
		t.Errorf("deleting a missing layout should not fail: %v", err)
	}
}

func TestOverridesImportMissingFile(t *testing.T) {
	dir := t.TempDir()
	root := testCLI().RootCommand()
	root.SetArgs([]string{"--config", writeTestConfig(t, dir), "overrides", "import", "temple", filepath.Join(dir, "nope.json")})
	if err := root.Execute(); err == nil {
		t.Error("expected an error for a missing overrides file")
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, "-"},
		{"minutes", now.Add(-5 * time.Minute), "5m ago"},
		{"hours", now.Add(-3*time.Hour - time.Minute), "3h ago"},
		{"days", now.Add(-49 * time.Hour), "2d ago"},
		{"old", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "Mar 1, 2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatRelativeTime(tt.t); got != tt.want {
				t.Errorf("formatRelativeTime() = %q, want %q", got, tt.want)
			}
		})
	}
}
