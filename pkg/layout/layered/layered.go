// Package layered is the alternative layout engine. It hands the graph to
// Graphviz dot, pinning every edge to its compass ports, and reads the node
// positions back.
//
// Graphviz runs in-process through go-graphviz, so no system binary is
// needed. The engine is slower than the grid engine and its result ignores
// most cardinal intent; it suits maps whose exits do not form a plane.
package layered

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/worldmap/pkg/layout"
)

// ErrNoPositions is returned when Graphviz output lacks a position for one
// of the graph's nodes.
var ErrNoPositions = errors.New("graphviz returned no position")

// Options configures the layered engine. Sizes are plane units, which map
// one to one onto Graphviz points.
type Options struct {
	NodeWidth  float64
	NodeHeight float64
	RankDir    string  // "TB" (default) or "LR"
	RankSep    float64 // Inches between ranks
	NodeSep    float64 // Inches between nodes of one rank
}

func (o *Options) setDefaults() {
	if o.NodeWidth <= 0 {
		o.NodeWidth = 160
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = 60
	}
	if o.RankDir == "" {
		o.RankDir = "TB"
	}
	if o.RankSep <= 0 {
		o.RankSep = 0.8
	}
	if o.NodeSep <= 0 {
		o.NodeSep = 0.6
	}
}

// Engine implements [layout.Engine] on top of Graphviz.
type Engine struct {
	opts Options
}

// New returns a layered engine.
func New(opts Options) *Engine {
	opts.setDefaults()
	return &Engine{opts: opts}
}

// Name implements [layout.Engine].
func (e *Engine) Name() string { return "layered" }

// Layout implements [layout.Engine]. The returned nodes carry no grid
// coordinate.
func (e *Engine) Layout(ctx context.Context, g *layout.Graph) ([]layout.Node, error) {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return nodes, nil
	}

	dot := e.DOT(g)
	centers, err := run(ctx, dot)
	if err != nil {
		return nil, err
	}

	if err := e.place(nodes, centers); err != nil {
		return nil, err
	}
	return nodes, nil
}

// place converts Graphviz centres (Y pointing up) into top-left corners in
// the layout frame, with the bounding box of all nodes starting at (0, 0).
func (e *Engine) place(nodes []layout.Node, centers map[int]layout.Point) error {
	minX, maxY := math.Inf(1), math.Inf(-1)
	for i := range nodes {
		c, ok := centers[i]
		if !ok {
			return fmt.Errorf("%w for node %s", ErrNoPositions, nodes[i].ID)
		}
		minX, maxY = min(minX, c.X), max(maxY, c.Y)
	}
	for i := range nodes {
		c := centers[i]
		nodes[i].Position = layout.Point{X: c.X - minX, Y: maxY - c.Y}
		nodes[i].Width = e.opts.NodeWidth
		nodes[i].Height = e.opts.NodeHeight
	}
	return nil
}

// DOT renders g as a Graphviz document. Nodes are named n<index> after
// their slot in the graph so that IDs never need escaping. Placing edges
// constrain ranks; vertical and external edges do not.
func (e *Engine) DOT(g *layout.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n  ranksep=%s;\n  nodesep=%s;\n  splines=ortho;\n",
		e.opts.RankDir, ftoa(e.opts.RankSep), ftoa(e.opts.NodeSep))
	fmt.Fprintf(&buf, "  node [shape=box, fixedsize=true, label=\"\", width=%s, height=%s];\n",
		ftoa(e.opts.NodeWidth/72), ftoa(e.opts.NodeHeight/72))

	for i := range g.NodeCount() {
		fmt.Fprintf(&buf, "  n%d;\n", i)
	}
	for _, edge := range g.Edges() {
		si, okS := g.Index(edge.Source)
		ti, okT := g.Index(edge.Target)
		if !okS || !okT {
			continue
		}
		attrs := []string{
			"tailport=" + compass(edge.SourcePort.Side),
			"headport=" + compass(edge.TargetPort.Side),
		}
		if !edge.Places() {
			attrs = append(attrs, "constraint=false")
		}
		if edge.Bidirectional {
			attrs = append(attrs, "dir=both")
		}
		fmt.Fprintf(&buf, "  n%d -> n%d [%s];\n", si, ti, strings.Join(attrs, ", "))
	}
	buf.WriteString("}\n")
	return buf.String()
}

func compass(d layout.Direction) string {
	switch d.Key() {
	case layout.North:
		return "n"
	case layout.East:
		return "e"
	case layout.South:
		return "s"
	}
	return "w"
}

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// run lays out dot and returns node centres keyed by arena slot.
func run(ctx context.Context, dot string) (map[int]layout.Point, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, "dot", &buf); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return parsePositions(buf.Bytes())
}

var (
	nodeStmtRe = regexp.MustCompile(`(?m)^\s*n(\d+)\s*\[([^\]]*)\]`)
	posRe      = regexp.MustCompile(`pos="(-?[0-9.e+]+),(-?[0-9.e+]+)!?"`)
)

// parsePositions extracts node centres from laid-out DOT text.
func parsePositions(out []byte) (map[int]layout.Point, error) {
	centers := make(map[int]layout.Point)
	for _, m := range nodeStmtRe.FindAllSubmatch(out, -1) {
		idx, err := strconv.Atoi(string(m[1]))
		if err != nil {
			continue
		}
		attrs := strings.ReplaceAll(string(m[2]), "\\\n", "")
		pm := posRe.FindStringSubmatch(attrs)
		if pm == nil {
			continue
		}
		x, errX := strconv.ParseFloat(pm[1], 64)
		y, errY := strconv.ParseFloat(pm[2], 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("%w: bad pos %q", ErrNoPositions, pm[0])
		}
		centers[idx] = layout.Point{X: x, Y: y}
	}
	if len(centers) == 0 {
		return nil, ErrNoPositions
	}
	return centers, nil
}
