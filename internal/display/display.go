// Package display defines the display-query collaborator consumed by the
// window-state store. Implementations live in internal/x11; tests use a
// static in-memory provider.
package display

import (
	"fmt"

	"github.com/taskdesk/taskdesk/internal/geometry"
)

// Descriptor describes one physical display. The core only reads these;
// they are supplied entirely by the backend.
type Descriptor struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	Bounds      geometry.Rect `json:"bounds"`
	WorkArea    geometry.Rect `json:"work_area"`
	ScaleFactor float64       `json:"scale_factor"`
	Primary     bool          `json:"primary"`
}

// Provider answers display-topology queries.
type Provider interface {
	// AllDisplays returns every active display.
	AllDisplays() ([]Descriptor, error)
	// PrimaryDisplay returns the primary display. Implementations must
	// return a usable display whenever at least one is connected.
	PrimaryDisplay() (Descriptor, error)
}

// ByID returns the display with the given id, if present.
func ByID(displays []Descriptor, id int) (Descriptor, bool) {
	for _, d := range displays {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// BestFor returns the display whose work area shares the largest overlap
// with bounds, falling back to the primary when nothing overlaps.
func BestFor(displays []Descriptor, bounds geometry.Rect) (Descriptor, bool) {
	var best Descriptor
	bestArea := 0
	for _, d := range displays {
		in := bounds.Intersection(d.WorkArea)
		if area := in.Width * in.Height; area > bestArea {
			best = d
			bestArea = area
		}
	}
	if bestArea > 0 {
		return best, true
	}
	return Descriptor{}, false
}

// StaticProvider is a fixed display set, used in tests and dry runs.
type StaticProvider struct {
	Displays []Descriptor
}

func (p *StaticProvider) AllDisplays() ([]Descriptor, error) {
	out := make([]Descriptor, len(p.Displays))
	copy(out, p.Displays)
	return out, nil
}

func (p *StaticProvider) PrimaryDisplay() (Descriptor, error) {
	for _, d := range p.Displays {
		if d.Primary {
			return d, nil
		}
	}
	if len(p.Displays) > 0 {
		return p.Displays[0], nil
	}
	return Descriptor{}, fmt.Errorf("no displays configured")
}
