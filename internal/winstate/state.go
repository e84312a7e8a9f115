// Package winstate persists and restores per-role window geometry against
// a live multi-display topology.
package winstate

import (
	"github.com/taskdesk/taskdesk/internal/display"
	"github.com/taskdesk/taskdesk/internal/geometry"
)

// Geometry is the persisted state of one window role.
type Geometry struct {
	Width         int           `json:"width"`
	Height        int           `json:"height"`
	X             int           `json:"x"`
	Y             int           `json:"y"`
	IsMaximized   bool          `json:"isMaximized"`
	IsMinimized   bool          `json:"isMinimized"`
	IsFullScreen  bool          `json:"isFullScreen"`
	IsVisible     bool          `json:"isVisible"`
	IsAlwaysOnTop bool          `json:"isAlwaysOnTop,omitempty"`
	DisplayID     int           `json:"displayId"`
	WorkArea      geometry.Rect `json:"workArea"`
	// LastSaved is milliseconds since the Unix epoch. It never decreases.
	LastSaved int64 `json:"lastSaved"`
}

// Bounds returns the window rectangle.
func (g Geometry) Bounds() geometry.Rect {
	return geometry.Rect{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
}

func (g *Geometry) setBounds(r geometry.Rect) {
	g.X = r.X
	g.Y = r.Y
	g.Width = r.Width
	g.Height = r.Height
}

// RoleConfig constrains one window role. Zero max values mean unbounded.
type RoleConfig struct {
	MinWidth      int
	MinHeight     int
	MaxWidth      int
	MaxHeight     int
	DefaultWidth  int
	DefaultHeight int
	// RememberPosition keeps the saved (x, y) as long as the rectangle
	// still intersects a known display's work area. When false the window
	// is always recentered on the primary display.
	RememberPosition bool
	AlwaysOnTop      bool
}

// Patch is a partial geometry update; nil fields are left unchanged.
type Patch struct {
	Width         *int
	Height        *int
	X             *int
	Y             *int
	IsMaximized   *bool
	IsMinimized   *bool
	IsFullScreen  *bool
	IsVisible     *bool
	IsAlwaysOnTop *bool
	DisplayID     *int
}

func (p Patch) apply(g *Geometry) {
	if p.Width != nil {
		g.Width = *p.Width
	}
	if p.Height != nil {
		g.Height = *p.Height
	}
	if p.X != nil {
		g.X = *p.X
	}
	if p.Y != nil {
		g.Y = *p.Y
	}
	if p.IsMaximized != nil {
		g.IsMaximized = *p.IsMaximized
	}
	if p.IsMinimized != nil {
		g.IsMinimized = *p.IsMinimized
	}
	if p.IsFullScreen != nil {
		g.IsFullScreen = *p.IsFullScreen
	}
	if p.IsVisible != nil {
		g.IsVisible = *p.IsVisible
	}
	if p.IsAlwaysOnTop != nil {
		g.IsAlwaysOnTop = *p.IsAlwaysOnTop
	}
	if p.DisplayID != nil {
		g.DisplayID = *p.DisplayID
	}
}

// DefaultGeometry builds the first-run state for a role: default size,
// centered on the primary display.
func DefaultGeometry(cfg RoleConfig, primary display.Descriptor) Geometry {
	g := Geometry{
		Width:         cfg.DefaultWidth,
		Height:        cfg.DefaultHeight,
		IsVisible:     true,
		IsAlwaysOnTop: cfg.AlwaysOnTop,
		DisplayID:     primary.ID,
		WorkArea:      primary.WorkArea,
	}
	g.setBounds(clampSize(g.Bounds(), cfg).CenterIn(primary.WorkArea))
	return g
}

// EnsureVisibleOnSomeDisplay returns bounds unchanged when the rectangle
// intersects some display's work area, otherwise returns it recentered on
// the primary display with width and height preserved. The overlap test
// uses rectangle intersection, so a window mostly off-screen but still
// partially over a display counts as visible.
func EnsureVisibleOnSomeDisplay(bounds geometry.Rect, displays []display.Descriptor) geometry.Rect {
	for _, d := range displays {
		if bounds.Intersects(d.WorkArea) {
			return bounds
		}
	}
	for _, d := range displays {
		if d.Primary {
			return bounds.CenterIn(d.WorkArea)
		}
	}
	if len(displays) > 0 {
		return bounds.CenterIn(displays[0].WorkArea)
	}
	return bounds
}

func clampSize(r geometry.Rect, cfg RoleConfig) geometry.Rect {
	if cfg.MinWidth > 0 && r.Width < cfg.MinWidth {
		r.Width = cfg.MinWidth
	}
	if cfg.MinHeight > 0 && r.Height < cfg.MinHeight {
		r.Height = cfg.MinHeight
	}
	if cfg.MaxWidth > 0 && r.Width > cfg.MaxWidth {
		r.Width = cfg.MaxWidth
	}
	if cfg.MaxHeight > 0 && r.Height > cfg.MaxHeight {
		r.Height = cfg.MaxHeight
	}
	return r
}

// Validate clamps the state's size to the role's bounds and, when the
// role remembers its position, checks the rectangle against every known
// display's work area, recentering on the primary display (width and
// height preserved) when nothing intersects. DisplayID and WorkArea are
// re-resolved to the display actually hosting the result.
func Validate(state Geometry, cfg RoleConfig, displays []display.Descriptor) Geometry {
	out := state
	out.setBounds(clampSize(out.Bounds(), cfg))
	if len(displays) == 0 {
		return out
	}

	if cfg.RememberPosition {
		if _, ok := display.ByID(displays, out.DisplayID); !ok {
			// The display this window was saved on is gone; a stale
			// position is meaningless even if it happens to overlap
			// another display.
			out.setBounds(out.Bounds().CenterIn(primaryOf(displays).WorkArea))
		} else {
			out.setBounds(EnsureVisibleOnSomeDisplay(out.Bounds(), displays))
		}
	}

	if d, ok := display.BestFor(displays, out.Bounds()); ok {
		out.DisplayID = d.ID
		out.WorkArea = d.WorkArea
	} else {
		primary := primaryOf(displays)
		out.DisplayID = primary.ID
		out.WorkArea = primary.WorkArea
	}

	return out
}

func primaryOf(displays []display.Descriptor) display.Descriptor {
	for _, d := range displays {
		if d.Primary {
			return d
		}
	}
	if len(displays) > 0 {
		return displays[0]
	}
	return display.Descriptor{}
}
