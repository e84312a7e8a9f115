package geometry

import "fmt"

// Rect represents a window or display rectangle in screen coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Intersects reports whether two rectangles overlap with positive area.
// Edge-adjacent rectangles do not intersect.
func (r Rect) Intersects(other Rect) bool {
	return !r.Intersection(other).Empty()
}

// Intersection returns the overlapping region of two rectangles.
// The result is empty when they do not overlap.
func (r Rect) Intersection(other Rect) Rect {
	x1 := max(r.X, other.X)
	y1 := max(r.Y, other.Y)
	x2 := min(r.Right(), other.Right())
	y2 := min(r.Bottom(), other.Bottom())

	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// CenterIn returns r repositioned so its center coincides with outer's
// center. Width and height are preserved.
func (r Rect) CenterIn(outer Rect) Rect {
	return Rect{
		X:      outer.X + (outer.Width-r.Width)/2,
		Y:      outer.Y + (outer.Height-r.Height)/2,
		Width:  r.Width,
		Height: r.Height,
	}
}

// ClampInto returns r shifted (and if necessary shrunk) so it lies fully
// inside outer.
func (r Rect) ClampInto(outer Rect) Rect {
	out := r

	if out.Width > outer.Width {
		out.Width = outer.Width
	}
	if out.Height > outer.Height {
		out.Height = outer.Height
	}
	if out.X < outer.X {
		out.X = outer.X
	}
	if out.Y < outer.Y {
		out.Y = outer.Y
	}
	if out.Right() > outer.Right() {
		out.X = outer.Right() - out.Width
	}
	if out.Bottom() > outer.Bottom() {
		out.Y = outer.Bottom() - out.Height
	}

	return out
}

// Edge identifies a snap target within a display work area.
type Edge int

const (
	EdgeLeft Edge = iota
	EdgeRight
	EdgeTop
	EdgeBottom
	EdgeTopLeft
	EdgeTopRight
	EdgeBottomLeft
	EdgeBottomRight
	EdgeMaximize
)

// String returns the CLI/wire spelling of the edge.
func (e Edge) String() string {
	switch e {
	case EdgeLeft:
		return "left"
	case EdgeRight:
		return "right"
	case EdgeTop:
		return "top"
	case EdgeBottom:
		return "bottom"
	case EdgeTopLeft:
		return "top-left"
	case EdgeTopRight:
		return "top-right"
	case EdgeBottomLeft:
		return "bottom-left"
	case EdgeBottomRight:
		return "bottom-right"
	case EdgeMaximize:
		return "maximize"
	default:
		return "unknown"
	}
}

// ParseEdge converts a CLI/wire spelling into an Edge.
func ParseEdge(s string) (Edge, error) {
	switch s {
	case "left":
		return EdgeLeft, nil
	case "right":
		return EdgeRight, nil
	case "top":
		return EdgeTop, nil
	case "bottom":
		return EdgeBottom, nil
	case "top-left":
		return EdgeTopLeft, nil
	case "top-right":
		return EdgeTopRight, nil
	case "bottom-left":
		return EdgeBottomLeft, nil
	case "bottom-right":
		return EdgeBottomRight, nil
	case "maximize":
		return EdgeMaximize, nil
	default:
		return 0, fmt.Errorf("unknown edge: %q", s)
	}
}

// SnapRect computes the target rectangle for snapping a window to an edge
// of the given work area. Side edges take the matching half, corners take
// the matching quarter, and EdgeMaximize takes the full work area.
func SnapRect(work Rect, edge Edge) Rect {
	halfW := work.Width / 2
	halfH := work.Height / 2
	midX := work.X + halfW
	midY := work.Y + halfH

	switch edge {
	case EdgeLeft:
		return Rect{X: work.X, Y: work.Y, Width: halfW, Height: work.Height}
	case EdgeRight:
		return Rect{X: midX, Y: work.Y, Width: work.Width - halfW, Height: work.Height}
	case EdgeTop:
		return Rect{X: work.X, Y: work.Y, Width: work.Width, Height: halfH}
	case EdgeBottom:
		return Rect{X: work.X, Y: midY, Width: work.Width, Height: work.Height - halfH}
	case EdgeTopLeft:
		return Rect{X: work.X, Y: work.Y, Width: halfW, Height: halfH}
	case EdgeTopRight:
		return Rect{X: midX, Y: work.Y, Width: work.Width - halfW, Height: halfH}
	case EdgeBottomLeft:
		return Rect{X: work.X, Y: midY, Width: halfW, Height: work.Height - halfH}
	case EdgeBottomRight:
		return Rect{X: midX, Y: midY, Width: work.Width - halfW, Height: work.Height - halfH}
	case EdgeMaximize:
		return work
	default:
		return work
	}
}
