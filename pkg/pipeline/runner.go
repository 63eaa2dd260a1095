package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/worldmap/pkg/cache"
	"github.com/matzehuels/worldmap/pkg/graph"
	"github.com/matzehuels/worldmap/pkg/layout"
	"github.com/matzehuels/worldmap/pkg/layout/grid"
	"github.com/matzehuels/worldmap/pkg/layout/layered"
	"github.com/matzehuels/worldmap/pkg/layout/override"
	"github.com/matzehuels/worldmap/pkg/layout/route"
	"github.com/matzehuels/worldmap/pkg/observability"
	"github.com/matzehuels/worldmap/pkg/world"
)

// Key types reported to the cache hooks.
const (
	keyTypeLayout = "layout"
	keyTypeRoute  = "route"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// layered builds the layered engine; tests replace it.
	layered func(layered.Options) layout.Engine
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		layered: func(o layered.Options) layout.Engine {
			return layered.New(o)
		},
	}
}

// Execute runs the complete extract → layout → override → route pipeline
// with caching. snap holds the persisted overrides; the zero value means
// none.
func (r *Runner) Execute(ctx context.Context, w *world.World, snap override.Snapshot, opts Options) (*Result, error) {
	if w == nil {
		return nil, fmt.Errorf("invalid input: world is nil")
	}
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Extract
	start := time.Now()
	g := layout.Build(w)
	result.Graph = g
	result.Stats.ExtractTime = time.Since(start)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()

	hash, err := GraphHash(g)
	if err != nil {
		return nil, fmt.Errorf("hash graph: %w", err)
	}
	result.GraphHash = hash

	opts.Logger.Debug("extracted graph",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration", result.Stats.ExtractTime)

	// Stage 2: Layout
	start = time.Now()
	computed, engine, hit, err := r.LayoutWithCacheInfo(ctx, g, hash, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Engine = engine
	result.Fallback = engine != opts.Engine
	result.Stats.LayoutTime = time.Since(start)
	result.CacheInfo.LayoutHit = hit

	opts.Logger.Info("computed layout",
		"engine", engine,
		"nodes", len(computed),
		"cached", hit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Overrides
	state := override.FromSnapshot(computed, snap)
	result.Nodes = state.Nodes()

	// Stage 4: Route
	if !opts.SkipRoutes {
		start = time.Now()
		edges, hit, err := r.RouteWithCacheInfo(ctx, g, result.Nodes, opts)
		if err != nil {
			return nil, fmt.Errorf("route: %w", err)
		}
		result.Edges = edges
		result.Stats.RouteTime = time.Since(start)
		result.CacheInfo.RouteHit = hit

		opts.Logger.Info("routed edges",
			"edges", len(edges),
			"cached", hit,
			"duration", result.Stats.RouteTime)
	}

	result.Layout = graph.Export(engine, result.Nodes, result.Edges)
	result.Layout.World = w.Name()
	result.Layout.Fallback = result.Fallback
	if opts.SkipRoutes {
		result.Layout.Stats = nil
	}
	return result, nil
}

// LayoutWithCacheInfo runs the requested engine with caching and returns
// the engine actually used and whether the result came from the cache.
//
// A failing layered run falls back to the grid engine; fallback results are
// never cached under the layered key.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g *layout.Graph, graphHash string, opts Options) ([]layout.Node, string, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, "", false, err
	}

	if opts.Engine == graph.EngineLayered {
		nodes, hit, err := r.cachedLayout(ctx, g, graphHash, opts, graph.EngineLayered, func() ([]layout.Node, error) {
			return r.runLayered(ctx, g, opts)
		})
		if err == nil {
			return nodes, graph.EngineLayered, hit, nil
		}
		if ctx.Err() != nil {
			return nil, "", false, ctx.Err()
		}
		opts.Logger.Warn("layered layout failed, using grid", "err", err)
		observability.Layout().OnRelayoutFallback(ctx, graph.EngineLayered, err)
	}

	nodes, hit, err := r.cachedLayout(ctx, g, graphHash, opts, graph.EngineGrid, func() ([]layout.Node, error) {
		return grid.New(opts.GridOptions()).Layout(ctx, g)
	})
	return nodes, graph.EngineGrid, hit, err
}

// cachedLayout returns cached engine output for engine, or runs fn and
// caches its result.
func (r *Runner) cachedLayout(ctx context.Context, g *layout.Graph, graphHash string, opts Options, engine string, fn func() ([]layout.Node, error)) ([]layout.Node, bool, error) {
	key := r.Keyer.LayoutKey(graphHash, opts.LayoutKeyOpts(engine))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached []graph.Node
			if err := json.Unmarshal(data, &cached); err == nil && len(cached) == g.NodeCount() {
				observability.Cache().OnCacheHit(ctx, keyTypeLayout)
				return graph.ToNodes(cached), true, nil
			}
			// Stale or corrupt entries fall through to recompute.
		} else if err != nil {
			opts.Logger.Debug("cache read failed", "key", key, "err", err)
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeLayout)
	}

	start := time.Now()
	observability.Layout().OnLayoutStart(ctx, engine, g.NodeCount())
	nodes, err := fn()
	observability.Layout().OnLayoutComplete(ctx, engine, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(graph.FromNodes(nodes)); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.LayoutTTL); err != nil {
			opts.Logger.Debug("cache write failed", "key", key, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, keyTypeLayout, len(data))
		}
	}
	return nodes, false, nil
}

func (r *Runner) runLayered(ctx context.Context, g *layout.Graph, opts Options) ([]layout.Node, error) {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	return r.layered(opts.LayeredOptions()).Layout(ctx, g)
}

// RouteWithCacheInfo routes every edge between the final node positions
// with caching and returns cache hit info.
func (r *Runner) RouteWithCacheInfo(ctx context.Context, g *layout.Graph, nodes []layout.Node, opts Options) ([]route.Edge, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	posHash, err := cache.HashJSON(struct {
		Nodes []graph.Node  `json:"nodes"`
		Edges []layout.Edge `json:"edges"`
	}{graph.FromNodes(nodes), g.Edges()})
	if err != nil {
		return nil, false, err
	}
	key := r.Keyer.RouteKey(posHash, opts.RouteKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached []route.Edge
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, keyTypeRoute)
				return cached, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeRoute)
	}

	start := time.Now()
	edges := route.RouteAll(g, nodes, opts.RouteOptions())
	s := route.Summarize(edges)
	observability.Route().OnRouteComplete(ctx, s.Edges, s.Adjusted, s.Blocked, time.Since(start))
	if s.Blocked > 0 {
		opts.Logger.Debug("some edges cross node boxes", "blocked", s.Blocked)
	}

	if data, err := json.Marshal(edges); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.RouteTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, keyTypeRoute, len(data))
		}
	}
	return edges, false, nil
}

// GraphHash fingerprints an extracted graph: its nodes with labels and
// metadata plus every layout edge.
func GraphHash(g *layout.Graph) (string, error) {
	return cache.HashJSON(struct {
		Nodes []layout.Node `json:"nodes"`
		Edges []layout.Edge `json:"edges"`
	}{g.Nodes(), g.Edges()})
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
