package layout

import (
	"fmt"
	"strings"
)

// Direction is a compass or vertical exit direction.
type Direction int

// Directions understood by the extractor. Only the first four are cardinal
// and take part in grid placement.
const (
	North Direction = iota
	East
	South
	West
	Up
	Down
)

// Cardinals lists the four placing directions in port order.
var Cardinals = [4]Direction{North, East, South, West}

var directionNames = [...]string{"north", "east", "south", "west", "up", "down"}

// String returns the lower-case direction word.
func (d Direction) String() string {
	if d < North || d > Down {
		return fmt.Sprintf("direction(%d)", int(d))
	}
	return directionNames[d]
}

// MarshalText encodes d as its direction word.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText decodes a direction word.
func (d *Direction) UnmarshalText(b []byte) error {
	v, ok := ParseDirection(string(b))
	if !ok {
		return fmt.Errorf("unknown direction %q", b)
	}
	*d = v
	return nil
}

// ParseDirection maps a MUD exit word (full or single-letter, any case) to a
// Direction. Diagonals and custom exit names are not recognised.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n":
		return North, true
	case "east", "e":
		return East, true
	case "south", "s":
		return South, true
	case "west", "w":
		return West, true
	case "up", "u":
		return Up, true
	case "down", "d":
		return Down, true
	}
	return 0, false
}

// IsCardinal reports whether d is one of north, east, south or west.
func (d Direction) IsCardinal() bool { return d >= North && d <= West }

// Key projects d onto the plane: up becomes north and down becomes south.
func (d Direction) Key() Direction {
	switch d {
	case Up:
		return North
	case Down:
		return South
	}
	return d
}

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	case Up:
		return Down
	case Down:
		return Up
	}
	return d
}

// Offset returns the lattice step for d.
func (d Direction) Offset() Coord {
	switch d.Key() {
	case North:
		return Coord{X: 0, Y: -1}
	case East:
		return Coord{X: 1, Y: 0}
	case South:
		return Coord{X: 0, Y: 1}
	case West:
		return Coord{X: -1, Y: 0}
	}
	return Coord{}
}

// Unit returns the outward unit vector on the plane for d.
func (d Direction) Unit() Point {
	o := d.Offset()
	return Point{X: float64(o.X), Y: float64(o.Y)}
}

// Horizontal reports whether d points along the X axis.
func (d Direction) Horizontal() bool {
	k := d.Key()
	return k == East || k == West
}
