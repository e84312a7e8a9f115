package winstate

import (
	"testing"

	"github.com/taskdesk/taskdesk/internal/display"
	"github.com/taskdesk/taskdesk/internal/geometry"
)

func twoDisplays() []display.Descriptor {
	return []display.Descriptor{
		{
			ID:          0,
			Name:        "eDP-1",
			Bounds:      geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
			WorkArea:    geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080},
			ScaleFactor: 1,
			Primary:     true,
		},
		{
			ID:          1,
			Name:        "DP-1",
			Bounds:      geometry.Rect{X: 1920, Y: 0, Width: 1280, Height: 1024},
			WorkArea:    geometry.Rect{X: 1920, Y: 0, Width: 1280, Height: 1024},
			ScaleFactor: 1,
		},
	}
}

func TestEnsureVisibleOnSomeDisplay(t *testing.T) {
	displays := twoDisplays()

	tests := []struct {
		name   string
		bounds geometry.Rect
		want   geometry.Rect
	}{
		{
			name:   "fully on primary unchanged",
			bounds: geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600},
			want:   geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600},
		},
		{
			name:   "partial overlap still counts as visible",
			bounds: geometry.Rect{X: -700, Y: 100, Width: 800, Height: 600},
			want:   geometry.Rect{X: -700, Y: 100, Width: 800, Height: 600},
		},
		{
			name:   "on secondary unchanged",
			bounds: geometry.Rect{X: 2000, Y: 50, Width: 800, Height: 600},
			want:   geometry.Rect{X: 2000, Y: 50, Width: 800, Height: 600},
		},
		{
			name:   "fully off-screen recentered on primary",
			bounds: geometry.Rect{X: -5000, Y: -5000, Width: 800, Height: 600},
			want:   geometry.Rect{X: 560, Y: 240, Width: 800, Height: 600},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EnsureVisibleOnSomeDisplay(tt.bounds, displays)
			if got != tt.want {
				t.Fatalf("EnsureVisibleOnSomeDisplay() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestValidateRecentersWhenDisplayGone(t *testing.T) {
	// Stored state references display 7 which no longer exists; the
	// window must be recentered on the primary with its size preserved.
	state := Geometry{Width: 1200, Height: 800, X: -50, Y: 50, DisplayID: 7}
	cfg := RoleConfig{
		MinWidth: 400, MinHeight: 300,
		DefaultWidth: 1200, DefaultHeight: 800,
		RememberPosition: true,
	}

	got := Validate(state, cfg, twoDisplays())

	if got.X != 360 || got.Y != 140 {
		t.Fatalf("position = (%d, %d), want (360, 140)", got.X, got.Y)
	}
	if got.Width != 1200 || got.Height != 800 {
		t.Fatalf("size = %dx%d, want 1200x800", got.Width, got.Height)
	}
	if got.DisplayID != 0 {
		t.Fatalf("displayId = %d, want primary (0)", got.DisplayID)
	}
	if got.WorkArea != (geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1080}) {
		t.Fatalf("workArea = %+v, want primary work area", got.WorkArea)
	}
}

func TestValidateClampsSize(t *testing.T) {
	cfg := RoleConfig{
		MinWidth: 400, MinHeight: 300,
		MaxWidth: 1600, MaxHeight: 1000,
		RememberPosition: true,
	}

	tiny := Validate(Geometry{Width: 100, Height: 50, X: 10, Y: 10}, cfg, twoDisplays())
	if tiny.Width != 400 || tiny.Height != 300 {
		t.Fatalf("clamped up = %dx%d, want 400x300", tiny.Width, tiny.Height)
	}

	huge := Validate(Geometry{Width: 5000, Height: 4000, X: 10, Y: 10}, cfg, twoDisplays())
	if huge.Width != 1600 || huge.Height != 1000 {
		t.Fatalf("clamped down = %dx%d, want 1600x1000", huge.Width, huge.Height)
	}
}

func TestValidateKeepsSizeOnlyWhenPositionNotRemembered(t *testing.T) {
	cfg := RoleConfig{MinWidth: 100, MinHeight: 100}
	state := Geometry{Width: 800, Height: 600, X: -9000, Y: -9000}

	got := Validate(state, cfg, twoDisplays())
	if got.X != -9000 || got.Y != -9000 {
		t.Fatalf("position changed for role without remember-position: %+v", got)
	}
}

func TestValidateResolvesDisplayBinding(t *testing.T) {
	cfg := RoleConfig{RememberPosition: true}
	state := Geometry{Width: 800, Height: 600, X: 2100, Y: 100, DisplayID: 0}

	got := Validate(state, cfg, twoDisplays())
	if got.DisplayID != 1 {
		t.Fatalf("displayId = %d, want 1 (window sits on secondary)", got.DisplayID)
	}
}

func TestDefaultGeometryCentersOnPrimary(t *testing.T) {
	primary := twoDisplays()[0]
	cfg := RoleConfig{DefaultWidth: 1200, DefaultHeight: 800, AlwaysOnTop: true}

	got := DefaultGeometry(cfg, primary)
	if got.X != 360 || got.Y != 140 {
		t.Fatalf("position = (%d, %d), want (360, 140)", got.X, got.Y)
	}
	if !got.IsVisible || !got.IsAlwaysOnTop {
		t.Fatalf("expected visible always-on-top defaults, got %+v", got)
	}
	if got.DisplayID != primary.ID {
		t.Fatalf("displayId = %d, want %d", got.DisplayID, primary.ID)
	}
}

func TestPatchApply(t *testing.T) {
	g := Geometry{Width: 800, Height: 600, X: 10, Y: 20}
	w := 1024
	maximized := true
	Patch{Width: &w, IsMaximized: &maximized}.apply(&g)

	if g.Width != 1024 || g.Height != 600 || g.X != 10 || !g.IsMaximized {
		t.Fatalf("patch applied incorrectly: %+v", g)
	}
}
