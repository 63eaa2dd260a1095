package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/worldmap/pkg/editor"
	apperr "github.com/matzehuels/worldmap/pkg/errors"
	"github.com/matzehuels/worldmap/pkg/graph"
	"github.com/matzehuels/worldmap/pkg/layout"
	"github.com/matzehuels/worldmap/pkg/layout/layered"
	"github.com/matzehuels/worldmap/pkg/layout/override"
	"github.com/matzehuels/worldmap/pkg/store"
)

// editCommand creates the edit command running the terminal map editor.
func (c *CLI) editCommand() *cobra.Command {
	var (
		mode      string
		overrides string
	)

	cmd := &cobra.Command{
		Use:   "edit [world.json|world.yaml]",
		Short: "Edit a world map interactively",
		Long: `Open the terminal map editor for a world.

Move rooms with the arrow keys, lock them in place with space and relayout
with r. Locked positions survive every relayout. Press w to save them to the
layout store, or to the --overrides file when one is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := editor.ParseMode(mode)
			if err != nil {
				return apperr.Wrap(apperr.ErrCodeInvalidInput, err, "invalid --mode")
			}
			return c.runEdit(cmd.Context(), args[0], m, overrides)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "grid", "initial relayout engine: grid, layered")
	cmd.Flags().StringVar(&overrides, "overrides", "", "read and save locked positions in this file instead of the store")

	return cmd
}

func (c *CLI) runEdit(ctx context.Context, input string, mode editor.Mode, overridesPath string) error {
	w, err := c.readWorld(input)
	if err != nil {
		return err
	}
	if w.NodeCount() == 0 {
		return apperr.New(apperr.ErrCodeInvalidWorld, "world %s has no nodes", input)
	}
	name := w.Name()
	if name == "" {
		name = worldNameFromPath(input)
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	var (
		snap override.Snapshot
		save saveFunc
	)
	if overridesPath != "" {
		snap, err = readSnapshotFile(overridesPath)
		if err != nil {
			return err
		}
		save = func(_ context.Context, s override.Snapshot) error {
			return graph.WriteOverridesFile(graph.NewOverrides(name, s), overridesPath)
		}
	} else {
		st, err := c.newStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		snap, err = storedSnapshot(ctx, st, name)
		if err != nil {
			return err
		}
		save = storeSaver(st, name, mode.String())
	}

	opts := cfg.PipelineOptions()
	g := layout.Build(w)
	session := editor.NewSession(g, editor.Options{
		Grid:     opts.GridOptions(),
		Route:    opts.RouteOptions(),
		Mode:     mode,
		Layered:  layered.New(opts.LayeredOptions()),
		Timeout:  cfg.Layout.Timeout.Duration,
		Snapshot: &snap,
		Logger:   c.Logger,
	})
	c.Logger.Debug("opened editor", "world", name, "nodes", g.NodeCount(), "locked", len(snap.Overrides))

	if mode == editor.ModeLayered {
		<-session.Relayout(ctx)
	}

	model := newMapModel(ctx, session, name, opts.GridOptions(), save)
	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run editor: %w", err)
	}
	if fm, ok := final.(mapModel); ok && fm.unsaved {
		printWarning("Unsaved changes to %s were discarded", name)
	}
	return ctx.Err()
}

func readSnapshotFile(path string) (override.Snapshot, error) {
	o, err := graph.ReadOverridesFile(path)
	if err != nil {
		return override.Snapshot{}, fmt.Errorf("read overrides %s: %w", path, err)
	}
	return o.Snapshot(), nil
}

func storedSnapshot(ctx context.Context, st store.Store, name string) (override.Snapshot, error) {
	doc, err := st.Get(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return override.Snapshot{}, nil
	}
	if err != nil {
		return override.Snapshot{}, err
	}
	return doc.Snapshot(), nil
}

// storeSaver returns a saveFunc writing the snapshot into the world's
// document, creating it on first save.
func storeSaver(st store.Store, name, engine string) saveFunc {
	return func(ctx context.Context, s override.Snapshot) error {
		doc, err := st.Get(ctx, name)
		if errors.Is(err, store.ErrNotFound) {
			doc, err = store.NewDocument(name), nil
		}
		if err != nil {
			return err
		}
		doc.Engine = engine
		doc.SetSnapshot(s)
		return st.Save(ctx, doc)
	}
}
