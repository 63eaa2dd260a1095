// Package pipeline provides the batch layout pipeline for worldmap.
//
// This package implements the complete extract → layout → override → route
// pipeline used by the CLI and the HTTP server. By centralizing this logic,
// both entry points cache and fall back the same way.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Extract: Build the layout graph from the world (pkg/layout.Build)
//  2. Layout: Run the requested engine, memoised in the cache
//  3. Overrides: Merge the persisted locked positions over the result
//  4. Route: Route every exit between the final boxes, memoised as well
//
// A failing layered engine never fails the run: the grid engine takes over
// and the result is flagged as a fallback.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, w, snapshot, pipeline.Options{Engine: "grid"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	graph.WriteLayout(result.Layout, os.Stdout)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/worldmap/pkg/cache"
	"github.com/matzehuels/worldmap/pkg/graph"
	"github.com/matzehuels/worldmap/pkg/layout"
	"github.com/matzehuels/worldmap/pkg/layout/grid"
	"github.com/matzehuels/worldmap/pkg/layout/layered"
	"github.com/matzehuels/worldmap/pkg/layout/route"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultEngine is the layout engine used when none is requested.
	DefaultEngine = graph.EngineGrid

	// DefaultTimeout bounds a layered engine run. The grid engine is not
	// bounded.
	DefaultTimeout = 30 * time.Second

	// DefaultRankDir is the Graphviz rank direction of the layered engine.
	DefaultRankDir = "TB"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	Engine string `json:"engine,omitempty"`

	// Shared node box size
	NodeWidth  float64 `json:"node_width,omitempty"`
	NodeHeight float64 `json:"node_height,omitempty"`

	// Grid engine
	MarginX      float64 `json:"margin_x,omitempty"`
	MarginY      float64 `json:"margin_y,omitempty"`
	ComponentGap int     `json:"component_gap,omitempty"`
	SpiralRadius int     `json:"spiral_radius,omitempty"`

	// Layered engine
	RankDir string `json:"rank_dir,omitempty"`

	// Router
	Stub       float64 `json:"stub,omitempty"`
	Clearance  float64 `json:"clearance,omitempty"`
	Detour     float64 `json:"detour,omitempty"`
	PortSpread float64 `json:"port_spread,omitempty"`
	SkipRoutes bool    `json:"skip_routes,omitempty"`

	Refresh bool `json:"refresh,omitempty"` // Ignore cached results

	// Runtime options (not serialized)
	Timeout time.Duration `json:"-"`
	Logger  *log.Logger   `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the extracted layout graph.
	Graph *layout.Graph

	// GraphHash is the content hash of the graph.
	GraphHash string

	// Engine is the engine whose positions were used. It differs from
	// Options.Engine when Fallback is set.
	Engine   string
	Fallback bool

	// Nodes are the final positions with overrides applied.
	Nodes []layout.Node

	// Edges are the routed exits, empty when routing was skipped.
	Edges []route.Edge

	// Layout is the serialized form of Nodes and Edges.
	Layout graph.Layout

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	ExtractTime time.Duration
	LayoutTime  time.Duration
	RouteTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether engine output came from cache
	RouteHit  bool // Whether routed edges came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if err := layout.ValidateEngine(o.Engine); err != nil {
		return err
	}
	if o.RankDir == "" {
		o.RankDir = DefaultRankDir
	}
	if o.RankDir != "TB" && o.RankDir != "LR" {
		return fmt.Errorf("invalid rank_dir: %q (must be one of: TB, LR)", o.RankDir)
	}
	for name, v := range map[string]float64{
		"node_width": o.NodeWidth, "node_height": o.NodeHeight,
		"margin_x": o.MarginX, "margin_y": o.MarginY,
		"stub": o.Stub, "clearance": o.Clearance, "detour": o.Detour,
	} {
		if v < 0 {
			return fmt.Errorf("invalid %s: %v (must not be negative)", name, v)
		}
	}
	if o.ComponentGap < 0 || o.SpiralRadius < 0 {
		return fmt.Errorf("component_gap and spiral_radius must not be negative")
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// GridOptions returns the grid engine options with defaults applied.
func (o *Options) GridOptions() grid.Options {
	opts := grid.Options{
		NodeWidth:    o.NodeWidth,
		NodeHeight:   o.NodeHeight,
		MarginX:      o.MarginX,
		MarginY:      o.MarginY,
		ComponentGap: o.ComponentGap,
		SpiralRadius: o.SpiralRadius,
	}
	opts.SetDefaults()
	return opts
}

// LayeredOptions returns the layered engine options.
func (o *Options) LayeredOptions() layered.Options {
	g := o.GridOptions()
	return layered.Options{NodeWidth: g.NodeWidth, NodeHeight: g.NodeHeight, RankDir: o.RankDir}
}

// RouteOptions returns the router options with defaults applied.
func (o *Options) RouteOptions() route.Options {
	opts := route.Options{
		Stub:       o.Stub,
		Clearance:  o.Clearance,
		Detour:     o.Detour,
		PortSpread: o.PortSpread,
	}
	opts.SetDefaults()
	return opts
}

// LayoutKeyOpts returns cache key options for the given engine.
func (o *Options) LayoutKeyOpts(engine string) cache.LayoutKeyOpts {
	g := o.GridOptions()
	k := cache.LayoutKeyOpts{
		Engine:     engine,
		NodeWidth:  g.NodeWidth,
		NodeHeight: g.NodeHeight,
	}
	if engine == graph.EngineGrid {
		k.MarginX, k.MarginY = g.MarginX, g.MarginY
		k.ComponentGap, k.SpiralRadius = g.ComponentGap, g.SpiralRadius
	} else {
		k.RankDir = o.RankDir
	}
	return k
}

// RouteKeyOpts returns cache key options for routing.
func (o *Options) RouteKeyOpts() cache.RouteKeyOpts {
	r := o.RouteOptions()
	return cache.RouteKeyOpts{
		Stub:       r.Stub,
		Clearance:  r.Clearance,
		Detour:     r.Detour,
		PortSpread: r.PortSpread,
	}
}
