package geometry

import "testing"

func TestIntersection(t *testing.T) {
	tests := []struct {
		name string
		a    Rect
		b    Rect
		want Rect
	}{
		{
			name: "overlapping",
			a:    Rect{X: 0, Y: 0, Width: 100, Height: 100},
			b:    Rect{X: 50, Y: 50, Width: 100, Height: 100},
			want: Rect{X: 50, Y: 50, Width: 50, Height: 50},
		},
		{
			name: "contained",
			a:    Rect{X: 0, Y: 0, Width: 100, Height: 100},
			b:    Rect{X: 20, Y: 30, Width: 10, Height: 10},
			want: Rect{X: 20, Y: 30, Width: 10, Height: 10},
		},
		{
			name: "disjoint",
			a:    Rect{X: 0, Y: 0, Width: 100, Height: 100},
			b:    Rect{X: 200, Y: 0, Width: 100, Height: 100},
			want: Rect{},
		},
		{
			name: "edge adjacent does not intersect",
			a:    Rect{X: 0, Y: 0, Width: 100, Height: 100},
			b:    Rect{X: 100, Y: 0, Width: 100, Height: 100},
			want: Rect{},
		},
		{
			name: "partially off left",
			a:    Rect{X: -50, Y: 50, Width: 100, Height: 100},
			b:    Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
			want: Rect{X: 0, Y: 50, Width: 50, Height: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Intersection(tt.b)
			if got != tt.want {
				t.Fatalf("Intersection() = %+v, want %+v", got, tt.want)
			}
			if tt.a.Intersects(tt.b) != !tt.want.Empty() {
				t.Fatalf("Intersects() inconsistent with Intersection()")
			}
		})
	}
}

func TestCenterIn(t *testing.T) {
	work := Rect{X: 0, Y: 0, Width: 1920, Height: 1080}
	win := Rect{X: -50, Y: 50, Width: 1200, Height: 800}

	got := win.CenterIn(work)
	want := Rect{X: 360, Y: 140, Width: 1200, Height: 800}
	if got != want {
		t.Fatalf("CenterIn() = %+v, want %+v", got, want)
	}
}

func TestCenterInOffsetWorkArea(t *testing.T) {
	work := Rect{X: 1920, Y: 0, Width: 1280, Height: 1024}
	win := Rect{X: 0, Y: 0, Width: 800, Height: 600}

	got := win.CenterIn(work)
	want := Rect{X: 1920 + 240, Y: 212, Width: 800, Height: 600}
	if got != want {
		t.Fatalf("CenterIn() = %+v, want %+v", got, want)
	}
}

func TestClampInto(t *testing.T) {
	work := Rect{X: 0, Y: 0, Width: 1920, Height: 1080}

	tests := []struct {
		name string
		in   Rect
		want Rect
	}{
		{
			name: "already inside",
			in:   Rect{X: 10, Y: 10, Width: 100, Height: 100},
			want: Rect{X: 10, Y: 10, Width: 100, Height: 100},
		},
		{
			name: "off right edge",
			in:   Rect{X: 1900, Y: 0, Width: 100, Height: 100},
			want: Rect{X: 1820, Y: 0, Width: 100, Height: 100},
		},
		{
			name: "off top left",
			in:   Rect{X: -40, Y: -40, Width: 100, Height: 100},
			want: Rect{X: 0, Y: 0, Width: 100, Height: 100},
		},
		{
			name: "larger than work area",
			in:   Rect{X: 0, Y: 0, Width: 4000, Height: 100},
			want: Rect{X: 0, Y: 0, Width: 1920, Height: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.ClampInto(work)
			if got != tt.want {
				t.Fatalf("ClampInto() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSnapRect(t *testing.T) {
	work := Rect{X: 0, Y: 0, Width: 1920, Height: 1080}

	tests := []struct {
		edge Edge
		want Rect
	}{
		{EdgeLeft, Rect{X: 0, Y: 0, Width: 960, Height: 1080}},
		{EdgeRight, Rect{X: 960, Y: 0, Width: 960, Height: 1080}},
		{EdgeTop, Rect{X: 0, Y: 0, Width: 1920, Height: 540}},
		{EdgeBottom, Rect{X: 0, Y: 540, Width: 1920, Height: 540}},
		{EdgeTopLeft, Rect{X: 0, Y: 0, Width: 960, Height: 540}},
		{EdgeTopRight, Rect{X: 960, Y: 0, Width: 960, Height: 540}},
		{EdgeBottomLeft, Rect{X: 0, Y: 540, Width: 960, Height: 540}},
		{EdgeBottomRight, Rect{X: 960, Y: 540, Width: 960, Height: 540}},
		{EdgeMaximize, work},
	}

	for _, tt := range tests {
		t.Run(tt.edge.String(), func(t *testing.T) {
			got := SnapRect(work, tt.edge)
			if got != tt.want {
				t.Fatalf("SnapRect(%v) = %+v, want %+v", tt.edge, got, tt.want)
			}
		})
	}
}

func TestSnapRectOddDimensions(t *testing.T) {
	// Odd sizes: right/bottom halves absorb the extra pixel.
	work := Rect{X: 0, Y: 0, Width: 1921, Height: 1081}

	left := SnapRect(work, EdgeLeft)
	right := SnapRect(work, EdgeRight)
	if left.Width+right.Width != work.Width {
		t.Fatalf("left+right widths = %d, want %d", left.Width+right.Width, work.Width)
	}

	top := SnapRect(work, EdgeTop)
	bottom := SnapRect(work, EdgeBottom)
	if top.Height+bottom.Height != work.Height {
		t.Fatalf("top+bottom heights = %d, want %d", top.Height+bottom.Height, work.Height)
	}
}

func TestParseEdgeRoundTrip(t *testing.T) {
	edges := []Edge{
		EdgeLeft, EdgeRight, EdgeTop, EdgeBottom,
		EdgeTopLeft, EdgeTopRight, EdgeBottomLeft, EdgeBottomRight,
		EdgeMaximize,
	}
	for _, e := range edges {
		got, err := ParseEdge(e.String())
		if err != nil {
			t.Fatalf("ParseEdge(%q): %v", e.String(), err)
		}
		if got != e {
			t.Fatalf("ParseEdge(%q) = %v, want %v", e.String(), got, e)
		}
	}

	if _, err := ParseEdge("diagonal"); err == nil {
		t.Fatalf("expected error for unknown edge")
	}
}
