package layout

import "testing"

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
		ok   bool
	}{
		{"north", North, true},
		{"N", North, true},
		{" east ", East, true},
		{"s", South, true},
		{"West", West, true},
		{"up", Up, true},
		{"d", Down, true},
		{"northeast", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseDirection(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseDirection(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDirectionGeometry(t *testing.T) {
	tests := []struct {
		d        Direction
		opposite Direction
		offset   Coord
		horiz    bool
	}{
		{North, South, Coord{0, -1}, false},
		{East, West, Coord{1, 0}, true},
		{South, North, Coord{0, 1}, false},
		{West, East, Coord{-1, 0}, true},
		{Up, Down, Coord{0, -1}, false},
		{Down, Up, Coord{0, 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.d.String(), func(t *testing.T) {
			if got := tt.d.Opposite(); got != tt.opposite {
				t.Errorf("Opposite = %v, want %v", got, tt.opposite)
			}
			if got := tt.d.Offset(); got != tt.offset {
				t.Errorf("Offset = %v, want %v", got, tt.offset)
			}
			if got := tt.d.Horizontal(); got != tt.horiz {
				t.Errorf("Horizontal = %v, want %v", got, tt.horiz)
			}
		})
	}
}

func TestRectCrossedBy(t *testing.T) {
	r := Rect{Min: Point{0, 0}, Max: Point{10, 10}}
	tests := []struct {
		name string
		a, b Point
		want bool
	}{
		{"HorizontalThrough", Point{-5, 5}, Point{15, 5}, true},
		{"HorizontalAbove", Point{-5, -1}, Point{15, -1}, false},
		{"HorizontalOnEdge", Point{-5, 0}, Point{15, 0}, false},
		{"HorizontalStopsShort", Point{-5, 5}, Point{0, 5}, false},
		{"VerticalThrough", Point{5, -5}, Point{5, 15}, true},
		{"VerticalInside", Point{5, 2}, Point{5, 8}, true},
		{"VerticalRight", Point{11, -5}, Point{11, 15}, false},
		{"Reversed", Point{15, 5}, Point{-5, 5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.CrossedBy(tt.a, tt.b); got != tt.want {
				t.Errorf("CrossedBy(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestValidateEngine(t *testing.T) {
	if err := ValidateEngine("grid"); err != nil {
		t.Errorf("grid: %v", err)
	}
	if err := ValidateEngine("force"); err == nil {
		t.Error("expected error for unknown engine")
	}
}

func TestEdgeTextRoundTrip(t *testing.T) {
	for _, p := range []Port{{Side: East, Kind: PortOut}, {Side: North, Kind: PortIn}} {
		b, _ := p.MarshalText()
		var got Port
		if err := got.UnmarshalText(b); err != nil || got != p {
			t.Errorf("port %s: got %v, %v", b, got, err)
		}
	}
	for _, bad := range []string{"east", "up-sideways", "-in"} {
		var p Port
		if err := p.UnmarshalText([]byte(bad)); err == nil {
			t.Errorf("port %q should not decode", bad)
		}
	}

	for _, c := range []EdgeClass{ClassPlacing, ClassVertical, ClassExternal} {
		b, _ := c.MarshalText()
		var got EdgeClass
		if err := got.UnmarshalText(b); err != nil || got != c {
			t.Errorf("class %s: got %v, %v", b, got, err)
		}
	}
}
