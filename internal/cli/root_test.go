package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
)

func testCLI() *CLI {
	return New(io.Discard, log.InfoLevel)
}

func TestRootCommandSubcommands(t *testing.T) {
	root := testCLI().RootCommand()

	var got []string
	for _, cmd := range root.Commands() {
		got = append(got, cmd.Name())
	}
	sort.Strings(got)

	want := []string{"cache", "completion", "edit", "layout", "overrides", "serve"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("subcommands mismatch (-want +got):\n%s", diff)
	}
}

func TestRootCommandFlags(t *testing.T) {
	root := testCLI().RootCommand()
	for _, name := range []string{"config", "no-cache"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag --%s", name)
		}
	}

	layout, _, err := root.Find([]string{"layout"})
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"engine", "output", "overrides", "store", "node-width", "rank-dir", "skip-routes", "refresh"} {
		if layout.Flags().Lookup(name) == nil {
			t.Errorf("layout: missing flag --%s", name)
		}
	}
}

func TestRootCommandVersion(t *testing.T) {
	root := testCLI().RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "worldmap ") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			root := testCLI().RootCommand()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs([]string{"completion", shell})
			if err := root.Execute(); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out.String(), "worldmap") {
				t.Errorf("%s completion should mention the program name", shell)
			}
		})
	}
}

func TestLayoutCommandRejectsUnknownEngine(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "temple.json")
	if err := os.WriteFile(input, []byte(`{"nodes":[{"id":"3001"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	root := testCLI().RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", writeTestConfig(t, dir), "layout", input, "--engine", "spring"})
	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "spring") {
		t.Errorf("expected an unknown engine error, got %v", err)
	}
}

func TestLayoutCommandWritesOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "temple.json")
	world := `{"nodes":[{"id":"3001","exits":{"east":"3002"}},{"id":"3002"}]}`
	if err := os.WriteFile(input, []byte(world), 0o644); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(dir, "out.json")

	root := testCLI().RootCommand()
	root.SetArgs([]string{"--config", writeTestConfig(t, dir), "--no-cache", "layout", input, "-o", output})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"3001"`, `"3002"`, `"engine": "grid"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("layout output should contain %s:\n%s", want, data)
		}
	}
}

// writeTestConfig writes a config keeping the cache and the store inside dir.
func writeTestConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	cfg := "[cache]\nbackend = \"file\"\ndir = " + quote(filepath.Join(dir, "cache")) +
		"\n\n[store]\nbackend = \"file\"\ndir = " + quote(filepath.Join(dir, "store")) + "\n"
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func quote(s string) string {
	return `'` + s + `'`
}
