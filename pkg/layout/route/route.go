package route

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/worldmap/pkg/layout"
)

// Default option values.
const (
	DefaultStub       = 20.0
	DefaultClearance  = 8.0
	DefaultDetour     = 12.0
	DefaultPortSpread = 8.0
)

// Options holds the spacing constants of the router.
type Options struct {
	Stub       float64 // Length of the perpendicular segment leaving a port
	Clearance  float64 // Padding added around every obstacle box
	Detour     float64 // Extra distance kept from an obstacle when shifting
	PortSpread float64 // Offset of in/out ports from the side midpoint
}

// SetDefaults fills zero fields with the package defaults. A negative
// PortSpread is treated as zero.
func (o *Options) SetDefaults() {
	if o.Stub <= 0 {
		o.Stub = DefaultStub
	}
	if o.Clearance <= 0 {
		o.Clearance = DefaultClearance
	}
	if o.Detour <= 0 {
		o.Detour = DefaultDetour
	}
	if o.PortSpread == 0 {
		o.PortSpread = DefaultPortSpread
	}
	if o.PortSpread < 0 {
		o.PortSpread = 0
	}
}

// Orientation names the two path shapes the router considers.
type Orientation int

const (
	// HorizontalFirst runs the long middle leg vertically at the midpoint X,
	// so the path travels horizontally out of the source stub.
	HorizontalFirst Orientation = iota
	// VerticalFirst runs the long middle leg horizontally at the midpoint Y.
	VerticalFirst
)

// String returns "horizontal" or "vertical".
func (o Orientation) String() string {
	if o == VerticalFirst {
		return "vertical"
	}
	return "horizontal"
}

// MarshalText encodes o as its name.
func (o Orientation) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText decodes "horizontal" or "vertical".
func (o *Orientation) UnmarshalText(b []byte) error {
	switch string(b) {
	case "horizontal":
		*o = HorizontalFirst
	case "vertical":
		*o = VerticalFirst
	default:
		return fmt.Errorf("unknown orientation %q", b)
	}
	return nil
}

// DefaultOrientation returns the preferred shape for edges leaving through
// a port on side d: east and west ports flow horizontally first, north and
// south ports vertically first.
func DefaultOrientation(d layout.Direction) Orientation {
	if d.Horizontal() {
		return HorizontalFirst
	}
	return VerticalFirst
}

// Request describes one edge to route. SourceDir and TargetDir are the sides
// of the ports, pointing away from their nodes.
type Request struct {
	Source    layout.Point
	SourceDir layout.Direction
	Target    layout.Point
	TargetDir layout.Direction
	Obstacles []layout.Rect
}

// Path is a routed orthogonal polyline.
type Path struct {
	Points      []layout.Point `json:"points"`
	Label       layout.Point   `json:"label"`
	Orientation Orientation    `json:"orientation"`
	// Hits counts remaining segment/obstacle crossings. Zero for a clean path.
	Hits     int  `json:"hits,omitempty"`
	Adjusted bool `json:"adjusted,omitempty"`
}

// Length returns the Manhattan length of the path.
func (p Path) Length() float64 { return polylineLength(p.Points) }

// Router computes orthogonal paths. It holds only constants and is safe for
// concurrent use.
type Router struct {
	opts Options
}

// New returns a router with opts applied over the defaults.
func New(opts Options) *Router {
	opts.SetDefaults()
	return &Router{opts: opts}
}

// Options returns the effective options.
func (r *Router) Options() Options { return r.opts }

// Route produces one orthogonal path from req.Source to req.Target. It never
// fails: when no candidate avoids every obstacle the best scoring path is
// returned with Hits > 0.
func (r *Router) Route(req Request) Path {
	pads := make([]layout.Rect, len(req.Obstacles))
	for i, o := range req.Obstacles {
		pads[i] = o.Pad(r.opts.Clearance)
	}

	s1 := req.Source.Add(req.SourceDir.Unit().Scale(r.opts.Stub))
	t1 := req.Target.Add(req.TargetDir.Unit().Scale(r.opts.Stub))

	cands := [2]candidate{
		{orient: HorizontalFirst, pts: shape(req.Source, s1, t1, req.Target, HorizontalFirst, (s1.X+t1.X)/2)},
		{orient: VerticalFirst, pts: shape(req.Source, s1, t1, req.Target, VerticalFirst, (s1.Y+t1.Y)/2)},
	}
	for i := range cands {
		cands[i].hits = hits(cands[i].pts, pads)
		cands[i].length = polylineLength(cands[i].pts)
	}

	best := pick(cands, DefaultOrientation(req.SourceDir))
	chosen := cands[best]

	out := Path{Orientation: chosen.orient, Hits: chosen.hits}
	pts := chosen.pts
	if chosen.hits > 0 {
		if adj, ok := r.adjust(req, s1, t1, chosen, pads); ok {
			pts = adj
			out.Hits = 0
			out.Adjusted = true
		}
	}

	out.Points = simplify(pts)
	out.Label = Midpoint(out.Points)
	return out
}

type candidate struct {
	orient Orientation
	pts    []layout.Point
	hits   int
	length float64
}

// pick applies the tie-break chain: fewer hits, shorter length, the source
// side's default orientation, then candidate order.
func pick(cands [2]candidate, pref Orientation) int {
	a, b := cands[0], cands[1]
	if c := cmp.Compare(a.hits, b.hits); c != 0 {
		return boolIndex(c > 0)
	}
	if c := cmp.Compare(a.length, b.length); c != 0 {
		return boolIndex(c > 0)
	}
	if b.orient == pref && a.orient != pref {
		return 1
	}
	return 0
}

func boolIndex(second bool) int {
	if second {
		return 1
	}
	return 0
}

// shape builds the six-point path S, s1, m1, m2, t1, T where the middle leg
// m1→m2 sits at coordinate mid on the axis chosen by o.
func shape(s, s1, t1, t layout.Point, o Orientation, mid float64) []layout.Point {
	if o == HorizontalFirst {
		return []layout.Point{s, s1, {X: mid, Y: s1.Y}, {X: mid, Y: t1.Y}, t1, t}
	}
	return []layout.Point{s, s1, {X: s1.X, Y: mid}, {X: t1.X, Y: mid}, t1, t}
}

// adjust shifts the middle leg just outside each blocking obstacle, nearest
// shift first, and returns the first shifted path with no crossings. Any
// obstacle crossed by the path counts as blocking: between aligned ports the
// middle leg has zero length and the crossings sit on the stubs' legs.
func (r *Router) adjust(req Request, s1, t1 layout.Point, c candidate, pads []layout.Rect) ([]layout.Point, bool) {
	var original float64
	if c.orient == HorizontalFirst {
		original = c.pts[2].X
	} else {
		original = c.pts[2].Y
	}

	var shifts []float64
	for _, p := range pads {
		if !crosses(c.pts, p) {
			continue
		}
		if c.orient == HorizontalFirst {
			shifts = append(shifts, p.Min.X-r.opts.Detour, p.Max.X+r.opts.Detour)
		} else {
			shifts = append(shifts, p.Min.Y-r.opts.Detour, p.Max.Y+r.opts.Detour)
		}
	}
	slices.SortStableFunc(shifts, func(a, b float64) int {
		return cmp.Compare(math.Abs(a-original), math.Abs(b-original))
	})

	for _, mid := range shifts {
		pts := shape(req.Source, s1, t1, req.Target, c.orient, mid)
		if hits(pts, pads) == 0 {
			return pts, true
		}
	}
	return nil, false
}

// hits counts (segment, obstacle) crossings. Zero-length segments are
// skipped.
func hits(pts []layout.Point, pads []layout.Rect) int {
	n := 0
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		if a == b {
			continue
		}
		for _, p := range pads {
			if p.CrossedBy(a, b) {
				n++
			}
		}
	}
	return n
}

func crosses(pts []layout.Point, pad layout.Rect) bool {
	for i := 1; i < len(pts); i++ {
		if pts[i-1] != pts[i] && pad.CrossedBy(pts[i-1], pts[i]) {
			return true
		}
	}
	return false
}

// simplify drops repeated points and merges consecutive segments that keep
// the same heading. Segments that double back are kept.
func simplify(pts []layout.Point) []layout.Point {
	out := make([]layout.Point, 0, len(pts))
	for _, p := range pts {
		if n := len(out); n > 0 && out[n-1] == p {
			continue
		}
		if n := len(out); n >= 2 && sameHeading(out[n-2], out[n-1], p) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}

func sameHeading(a, b, c layout.Point) bool {
	d1 := layout.Point{X: sign(b.X - a.X), Y: sign(b.Y - a.Y)}
	d2 := layout.Point{X: sign(c.X - b.X), Y: sign(c.Y - b.Y)}
	return d1 == d2
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func polylineLength(pts []layout.Point) float64 {
	total := 0.0
	for i := 1; i < len(pts); i++ {
		total += pts[i-1].Manhattan(pts[i])
	}
	return total
}

// Midpoint returns the point halfway along pts by cumulative length.
func Midpoint(pts []layout.Point) layout.Point {
	switch len(pts) {
	case 0:
		return layout.Point{}
	case 1:
		return pts[0]
	}
	half := polylineLength(pts) / 2
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		seg := a.Manhattan(b)
		if seg > 0 && half <= seg {
			f := half / seg
			return layout.Point{X: a.X + (b.X-a.X)*f, Y: a.Y + (b.Y-a.Y)*f}
		}
		half -= seg
	}
	return pts[len(pts)-1]
}
