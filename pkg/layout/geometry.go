package layout

import "math"

// Point is a position on the continuous drawing plane. Y grows downwards.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Scale returns p with both components multiplied by f.
func (p Point) Scale(f float64) Point { return Point{X: p.X * f, Y: p.Y * f} }

// Manhattan returns the L1 distance between p and q.
func (p Point) Manhattan(q Point) float64 {
	return math.Abs(p.X-q.X) + math.Abs(p.Y-q.Y)
}

// Coord is an integer lattice cell assigned by the grid engine.
type Coord struct {
	X int `json:"x" bson:"x"`
	Y int `json:"y" bson:"y"`
}

// Add returns c translated by d.
func (c Coord) Add(d Coord) Coord { return Coord{X: c.X + d.X, Y: c.Y + d.Y} }

// Rect is an axis-aligned box given by its min and max corners.
type Rect struct {
	Min Point `json:"min" bson:"min"`
	Max Point `json:"max" bson:"max"`
}

// RectAt returns the box of size w×h whose top-left corner is p.
func RectAt(p Point, w, h float64) Rect {
	return Rect{Min: p, Max: Point{X: p.X + w, Y: p.Y + h}}
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Center returns the midpoint of r.
func (r Rect) Center() Point {
	return Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}

// Pad grows r by d on every side.
func (r Rect) Pad(d float64) Rect {
	return Rect{
		Min: Point{X: r.Min.X - d, Y: r.Min.Y - d},
		Max: Point{X: r.Max.X + d, Y: r.Max.Y + d},
	}
}

// Overlaps reports whether r and o share interior area. Touching edges do
// not count.
func (r Rect) Overlaps(o Rect) bool {
	return r.Min.X < o.Max.X && o.Min.X < r.Max.X &&
		r.Min.Y < o.Max.Y && o.Min.Y < r.Max.Y
}

// CrossedBy reports whether the segment a→b passes through the interior of
// r. Segments that only graze the boundary do not cross. Non axis-aligned
// segments are tested by their bounding box.
func (r Rect) CrossedBy(a, b Point) bool {
	minX, maxX := math.Min(a.X, b.X), math.Max(a.X, b.X)
	minY, maxY := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	switch {
	case a.Y == b.Y:
		return a.Y > r.Min.Y && a.Y < r.Max.Y && maxX > r.Min.X && minX < r.Max.X
	case a.X == b.X:
		return a.X > r.Min.X && a.X < r.Max.X && maxY > r.Min.Y && minY < r.Max.Y
	}
	return r.Overlaps(Rect{Min: Point{X: minX, Y: minY}, Max: Point{X: maxX, Y: maxY}})
}
