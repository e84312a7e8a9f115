package display

// EventKind classifies a topology change.
type EventKind int

const (
	// Added means a display appeared.
	Added EventKind = iota
	// Removed means a display disappeared.
	Removed
	// MetricsChanged means a display's bounds or work area changed.
	MetricsChanged
)

// String returns the wire spelling of the kind.
func (k EventKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case MetricsChanged:
		return "metrics-changed"
	default:
		return "unknown"
	}
}

// Event is one topology change affecting a single display.
type Event struct {
	Kind    EventKind
	Display Descriptor
}

// DiffTopology compares two display sets and returns per-display events.
// Displays are matched by ID.
func DiffTopology(old, current []Descriptor) []Event {
	oldByID := make(map[int]Descriptor, len(old))
	for _, d := range old {
		oldByID[d.ID] = d
	}

	var events []Event
	seen := make(map[int]bool, len(current))
	for _, d := range current {
		seen[d.ID] = true
		prev, ok := oldByID[d.ID]
		if !ok {
			events = append(events, Event{Kind: Added, Display: d})
			continue
		}
		if prev.Bounds != d.Bounds || prev.WorkArea != d.WorkArea || prev.ScaleFactor != d.ScaleFactor || prev.Primary != d.Primary {
			events = append(events, Event{Kind: MetricsChanged, Display: d})
		}
	}
	for _, d := range old {
		if !seen[d.ID] {
			events = append(events, Event{Kind: Removed, Display: d})
		}
	}
	return events
}
