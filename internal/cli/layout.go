package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	apperr "github.com/matzehuels/worldmap/pkg/errors"
	"github.com/matzehuels/worldmap/pkg/graph"
	"github.com/matzehuels/worldmap/pkg/layout"
	"github.com/matzehuels/worldmap/pkg/layout/override"
	"github.com/matzehuels/worldmap/pkg/pipeline"
	"github.com/matzehuels/worldmap/pkg/world"
)

// layoutFlags are the layout options settable on the command line. Only
// flags the user changed override the config file.
type layoutFlags struct {
	engine       string
	nodeWidth    float64
	nodeHeight   float64
	marginX      float64
	marginY      float64
	componentGap int
	rankDir      string
	skipRoutes   bool
	refresh      bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.engine, "engine", "e", pipeline.DefaultEngine, "layout engine: "+strings.Join(layout.EngineNames, ", "))
	cmd.Flags().Float64Var(&f.nodeWidth, "node-width", 0, "node box width")
	cmd.Flags().Float64Var(&f.nodeHeight, "node-height", 0, "node box height")
	cmd.Flags().Float64Var(&f.marginX, "margin-x", 0, "horizontal space between grid cells")
	cmd.Flags().Float64Var(&f.marginY, "margin-y", 0, "vertical space between grid cells")
	cmd.Flags().IntVar(&f.componentGap, "component-gap", 0, "empty grid columns between unconnected parts")
	cmd.Flags().StringVar(&f.rankDir, "rank-dir", pipeline.DefaultRankDir, "layered engine direction: TB, LR")
	cmd.Flags().BoolVar(&f.skipRoutes, "skip-routes", false, "write node positions only")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results")
}

// apply overlays the changed flags on opts.
func (f *layoutFlags) apply(cmd *cobra.Command, opts *pipeline.Options) error {
	changed := cmd.Flags().Changed
	if changed("engine") {
		if err := apperr.ValidateEngine(f.engine, layout.EngineNames); err != nil {
			return err
		}
		opts.Engine = f.engine
	}
	if changed("node-width") {
		opts.NodeWidth = f.nodeWidth
	}
	if changed("node-height") {
		opts.NodeHeight = f.nodeHeight
	}
	if changed("margin-x") {
		opts.MarginX = f.marginX
	}
	if changed("margin-y") {
		opts.MarginY = f.marginY
	}
	if changed("component-gap") {
		opts.ComponentGap = f.componentGap
	}
	if changed("rank-dir") {
		opts.RankDir = strings.ToUpper(f.rankDir)
	}
	opts.SkipRoutes = f.skipRoutes
	opts.Refresh = f.refresh
	return nil
}

// layoutCommand creates the layout command for computing map layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags     layoutFlags
		output    string
		overrides string
		useStore  bool
	)

	cmd := &cobra.Command{
		Use:   "layout [world.json|world.yaml]",
		Short: "Compute node positions and routed exits for a world",
		Long: `Compute node positions and routed exits for a world.

The layout command reads a world file (rooms or areas with compass exits),
places every node with the grid engine (or the layered engine with -e layered),
applies locked positions and routes each exit between its compass ports. The
output is a layout.json file the browser editor draws directly.

Locked positions come from an overrides file (--overrides) or from the layout
store (--store). Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts := cfg.PipelineOptions()
			if err := flags.apply(cmd, &opts); err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), args[0], opts, output, overrides, useStore)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVar(&overrides, "overrides", "", "overrides file with locked positions")
	cmd.Flags().BoolVar(&useStore, "store", false, "load locked positions from the layout store")
	cmd.MarkFlagsMutuallyExclusive("overrides", "store")
	flags.register(cmd)

	return cmd
}

// readWorld loads a world file and reports exits dropped for missing
// endpoints.
func (c *CLI) readWorld(input string) (*world.World, error) {
	w, err := world.ReadFile(input)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInvalidWorld, err, "load world %s", input)
	}
	if n := w.SkippedExits(); n > 0 {
		c.Logger.Warn("ignored malformed exits", "world", input, "count", n)
	}
	return w, nil
}

// runLayout loads the world, runs the pipeline and writes the layout.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output, overridesPath string, useStore bool) error {
	w, err := c.readWorld(input)
	if err != nil {
		return err
	}
	if w.Name() == "" {
		w.Meta()["name"] = worldNameFromPath(input)
	}

	snap, err := c.loadSnapshot(ctx, w.Name(), overridesPath, useStore)
	if err != nil {
		return err
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	prog := newProgress(c.Logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", opts.Engine))
	spinner.Start()

	res, err := runner.Execute(ctx, w, snap, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}
	if err := graph.WriteLayoutFile(res.Layout, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}
	prog.done("Laid out " + w.Name())

	printSuccess("Laid out %s", StyleHighlight.Render(w.Name()))
	printFile(outputPath)
	printLayoutResult(res, opts.Engine)
	printNextStep("Edit", "worldmap edit "+input)

	return nil
}

// loadSnapshot reads locked positions from an overrides file or the store.
// Both missing means no overrides.
func (c *CLI) loadSnapshot(ctx context.Context, name, path string, useStore bool) (override.Snapshot, error) {
	switch {
	case path != "":
		return readSnapshotFile(path)
	case useStore:
		cfg, err := c.loadConfig()
		if err != nil {
			return override.Snapshot{}, err
		}
		st, err := c.newStore(ctx, cfg)
		if err != nil {
			return override.Snapshot{}, err
		}
		defer st.Close()
		return storedSnapshot(ctx, st, name)
	}
	return override.Snapshot{}, nil
}

// worldNameFromPath derives a world name from a file name:
// "maps/midgaard.yaml" becomes "midgaard".
func worldNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
