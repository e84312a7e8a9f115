package display

import (
	"testing"

	"github.com/taskdesk/taskdesk/internal/geometry"
)

func desc(id int, x, y, w, h int, primary bool) Descriptor {
	return Descriptor{
		ID:          id,
		Bounds:      geometry.Rect{X: x, Y: y, Width: w, Height: h},
		WorkArea:    geometry.Rect{X: x, Y: y, Width: w, Height: h},
		ScaleFactor: 1,
		Primary:     primary,
	}
}

func TestDiffTopology(t *testing.T) {
	primary := desc(0, 0, 0, 1920, 1080, true)
	second := desc(1, 1920, 0, 1280, 1024, false)

	t.Run("no change", func(t *testing.T) {
		events := DiffTopology([]Descriptor{primary, second}, []Descriptor{primary, second})
		if len(events) != 0 {
			t.Fatalf("expected no events, got %v", events)
		}
	})

	t.Run("added", func(t *testing.T) {
		events := DiffTopology([]Descriptor{primary}, []Descriptor{primary, second})
		if len(events) != 1 || events[0].Kind != Added || events[0].Display.ID != 1 {
			t.Fatalf("unexpected events: %v", events)
		}
	})

	t.Run("removed", func(t *testing.T) {
		events := DiffTopology([]Descriptor{primary, second}, []Descriptor{primary})
		if len(events) != 1 || events[0].Kind != Removed || events[0].Display.ID != 1 {
			t.Fatalf("unexpected events: %v", events)
		}
	})

	t.Run("metrics changed", func(t *testing.T) {
		moved := second
		moved.Bounds.X = 2000
		events := DiffTopology([]Descriptor{primary, second}, []Descriptor{primary, moved})
		if len(events) != 1 || events[0].Kind != MetricsChanged || events[0].Display.ID != 1 {
			t.Fatalf("unexpected events: %v", events)
		}
	})
}

func TestBestFor(t *testing.T) {
	displays := []Descriptor{
		desc(0, 0, 0, 1920, 1080, true),
		desc(1, 1920, 0, 1280, 1024, false),
	}

	// Straddles both; larger overlap on display 1.
	bounds := geometry.Rect{X: 1800, Y: 0, Width: 800, Height: 600}
	got, ok := BestFor(displays, bounds)
	if !ok || got.ID != 1 {
		t.Fatalf("BestFor() = %+v ok=%v, want display 1", got, ok)
	}

	// Fully off-screen.
	if _, ok := BestFor(displays, geometry.Rect{X: -5000, Y: 0, Width: 100, Height: 100}); ok {
		t.Fatalf("expected no display for off-screen bounds")
	}
}
