package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/worldmap/pkg/layout"
	"github.com/matzehuels/worldmap/pkg/layout/grid"
	"github.com/matzehuels/worldmap/pkg/layout/override"
	"github.com/matzehuels/worldmap/pkg/layout/route"
	"github.com/matzehuels/worldmap/pkg/observability"
)

// ErrUnknownNode is returned by node operations for IDs outside the graph.
var ErrUnknownNode = errors.New("unknown node")

// Mode selects the engine used by Relayout.
type Mode int

const (
	ModeGrid Mode = iota
	ModeLayered
)

// String returns the engine name of the mode.
func (m Mode) String() string {
	if m == ModeLayered {
		return "layered"
	}
	return "grid"
}

// ParseMode converts an engine name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "grid":
		return ModeGrid, nil
	case "layered":
		return ModeLayered, nil
	}
	return ModeGrid, fmt.Errorf("unknown layout mode %q", s)
}

// Options configures a Session.
type Options struct {
	Grid  grid.Options
	Route route.Options
	Mode  Mode

	// Layered is the alternative engine. Without it layered mode uses the
	// grid engine.
	Layered layout.Engine

	// Timeout bounds a layered run. Zero means no limit.
	Timeout time.Duration

	// Snapshot restores persisted overrides and dirty flags.
	Snapshot *override.Snapshot

	Logger *log.Logger
}

// Outcome reports how a relayout request ended.
type Outcome struct {
	Generation uint64
	Engine     string
	Applied    bool  // The result replaced the working layout
	Fallback   bool  // The engine failed and the last good grid layout was used
	Err        error // Engine error, set when Fallback is true
}

// Session is one editing session over a graph. It owns the override state,
// the layout mode and the relayout generation counter.
//
// All methods are safe for concurrent use. Node operations apply
// immediately; Relayout may finish asynchronously and its result is applied
// only if no newer request, graph or mode change happened in between.
type Session struct {
	mu      sync.Mutex
	graph   *layout.Graph
	state   override.State
	mode    Mode
	gen     uint64
	cancel  context.CancelFunc
	grid    *grid.Engine
	layered layout.Engine
	route   route.Options
	timeout time.Duration

	// lastGood is the latest grid result for the current graph, used when
	// the layered engine fails.
	lastGood []layout.Node

	logger *log.Logger
}

// NewSession lays out g with the grid engine and returns a session over
// the result.
func NewSession(g *layout.Graph, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	s := &Session{
		graph:   g,
		mode:    opts.Mode,
		grid:    grid.New(opts.Grid),
		layered: opts.Layered,
		route:   opts.Route,
		timeout: opts.Timeout,
		logger:  opts.Logger,
	}
	computed := s.runGrid(context.Background(), g)
	s.lastGood = computed
	if opts.Snapshot != nil {
		s.state = override.FromSnapshot(computed, *opts.Snapshot)
	} else {
		s.state = override.New(computed, nil, nil)
	}
	return s
}

func (s *Session) runGrid(ctx context.Context, g *layout.Graph) []layout.Node {
	start := time.Now()
	observability.Layout().OnLayoutStart(ctx, s.grid.Name(), g.NodeCount())
	nodes, _ := s.grid.Layout(ctx, g)
	observability.Layout().OnLayoutComplete(ctx, s.grid.Name(), time.Since(start), nil)
	return nodes
}

// =============================================================================
// Node Operations
// =============================================================================

// Drag moves a node and marks it dirty.
func (s *Session) Drag(id string, p layout.Point) error {
	return s.update(id, func(st override.State) override.State { return st.Drag(id, p) })
}

// Lock pins a node at its current position.
func (s *Session) Lock(id string) error {
	return s.update(id, func(st override.State) override.State { return st.Lock(id) })
}

// Unlock releases a pinned node, leaving it in place and dirty.
func (s *Session) Unlock(id string) error {
	return s.update(id, func(st override.State) override.State { return st.Unlock(id) })
}

func (s *Session) update(id string, fn func(override.State) override.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.graph.Has(id) {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	s.state = fn(s.state)
	return nil
}

// Clear drops all overrides and dirty flags and starts a relayout.
func (s *Session) Clear(ctx context.Context) <-chan Outcome {
	s.mu.Lock()
	s.state = s.state.Clear()
	s.mu.Unlock()
	return s.Relayout(ctx)
}

// =============================================================================
// Relayout
// =============================================================================

// Relayout recomputes positions with the engine of the current mode and
// re-applies the overrides. Any in-flight request is cancelled and its
// result discarded. The returned channel receives exactly one Outcome.
//
// Grid relayouts complete before Relayout returns.
func (s *Session) Relayout(ctx context.Context) <-chan Outcome {
	out := make(chan Outcome, 1)

	s.mu.Lock()
	s.supersedeLocked()
	gen := s.gen
	g := s.graph
	engine := s.engineLocked()
	if engine == nil {
		s.mu.Unlock()
		nodes := s.runGrid(ctx, g)
		out <- s.complete(ctx, gen, s.grid.Name(), nodes, nil)
		close(out)
		return out
	}

	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if s.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	s.cancel = cancel
	s.mu.Unlock()

	s.logger.Debug("relayout started", "engine", engine.Name(), "generation", gen)
	go func() {
		defer cancel()
		start := time.Now()
		observability.Layout().OnLayoutStart(runCtx, engine.Name(), g.NodeCount())
		nodes, err := engine.Layout(runCtx, g)
		observability.Layout().OnLayoutComplete(runCtx, engine.Name(), time.Since(start), err)
		out <- s.complete(ctx, gen, engine.Name(), nodes, err)
		close(out)
	}()
	return out
}

// engineLocked returns the asynchronous engine for the current mode, or nil
// when the grid engine applies.
func (s *Session) engineLocked() layout.Engine {
	if s.mode == ModeLayered && s.layered != nil {
		return s.layered
	}
	return nil
}

// supersedeLocked invalidates the in-flight request.
func (s *Session) supersedeLocked() {
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) complete(ctx context.Context, gen uint64, engine string, nodes []layout.Node, err error) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := Outcome{Generation: gen, Engine: engine}
	if gen != s.gen {
		s.logger.Debug("discarding stale relayout", "engine", engine, "generation", gen, "current", s.gen)
		observability.Layout().OnRelayoutDiscarded(ctx, engine, gen)
		return res
	}
	s.cancel = nil

	if err == nil && len(nodes) != s.graph.NodeCount() {
		err = fmt.Errorf("engine returned %d nodes for %d", len(nodes), s.graph.NodeCount())
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Debug("relayout cancelled", "engine", engine, "generation", gen)
			return res
		}
		fallback := s.lastGood
		if fallback == nil {
			fallback = s.graph.Nodes()
		}
		s.logger.Warn("layout engine failed, using last grid layout", "engine", engine, "err", err)
		observability.Layout().OnRelayoutFallback(ctx, engine, err)
		s.state = s.state.CompleteRelayout(fallback)
		res.Applied, res.Fallback, res.Err = true, true, err
		return res
	}

	if engine == s.grid.Name() {
		s.lastGood = nodes
	}
	s.state = s.state.CompleteRelayout(nodes)
	res.Applied = true
	s.logger.Debug("relayout applied", "engine", engine, "generation", gen, "nodes", len(nodes))
	return res
}

// =============================================================================
// Graph and Mode
// =============================================================================

// SetGraph replaces the graph after a structural change. Overrides and dirty
// flags carry over by node ID; positions reset to the unlaid-out nodes until
// the next Relayout. Any in-flight request is discarded.
func (s *Session) SetGraph(g *layout.Graph) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersedeLocked()
	snap := s.state.Snapshot()
	s.graph = g
	s.lastGood = nil
	s.state = override.FromSnapshot(g.Nodes(), snap)
}

// SetMode switches the relayout engine. Any in-flight request is discarded.
func (s *Session) SetMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m == s.mode {
		return
	}
	s.supersedeLocked()
	s.mode = m
}

// Mode returns the current layout mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Generation returns the current request generation.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// =============================================================================
// Queries
// =============================================================================

// Graph returns the current graph.
func (s *Session) Graph() *layout.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

// State returns the current override state.
func (s *Session) State() override.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Nodes returns the working nodes with their lock and dirty flags.
func (s *Session) Nodes() []layout.Node { return s.State().Nodes() }

// Snapshot returns the persisted layout state.
func (s *Session) Snapshot() override.Snapshot { return s.State().Snapshot() }

// Routes routes every drawable edge over the working positions.
func (s *Session) Routes(ctx context.Context) []route.Edge {
	s.mu.Lock()
	g, st := s.graph, s.state
	s.mu.Unlock()

	start := time.Now()
	edges := route.RouteAll(g, st.Nodes(), s.route)
	stats := route.Summarize(edges)
	observability.Route().OnRouteComplete(ctx, stats.Edges, stats.Adjusted, stats.Blocked, time.Since(start))
	return edges
}
