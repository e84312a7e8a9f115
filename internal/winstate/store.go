package winstate

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/taskdesk/taskdesk/internal/display"
	"github.com/taskdesk/taskdesk/internal/geometry"
	"github.com/taskdesk/taskdesk/internal/sched"
	"github.com/taskdesk/taskdesk/internal/window"
)

// DefaultDebounce is the window within which successive live-geometry
// updates collapse into a single write. Resize and move events fire many
// times per second during a drag and must not each hit the disk.
const DefaultDebounce = 500 * time.Millisecond

// Options configures a Store.
type Options struct {
	// Path of the state file.
	Path string
	// Displays answers topology queries.
	Displays display.Provider
	// Roles maps window role names to their constraints.
	Roles map[string]RoleConfig
	// Scheduler drives debounce timers. Defaults to the wall clock.
	Scheduler sched.Scheduler
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration
	Logger   *slog.Logger
}

// Store is the durable, display-topology-aware window-geometry store.
//
// Persistence is best-effort: read errors fall back to role defaults and
// write errors are logged and swallowed, so no UI-visible operation ever
// fails on state-file I/O.
type Store struct {
	mu       sync.Mutex
	path     string
	displays display.Provider
	roles    map[string]RoleConfig
	clock    sched.Scheduler
	debounce time.Duration
	logger   *slog.Logger

	doc     document
	pending map[string]*debounceEntry
	closed  bool
}

type debounceEntry struct {
	timer sched.Timer
	patch Patch
}

// New loads the state file (absence is the expected first run) and
// validates every known role's geometry against the current topology.
func New(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Scheduler
	if clock == nil {
		clock = sched.New()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	s := &Store{
		path:     opts.Path,
		displays: opts.Displays,
		roles:    opts.Roles,
		clock:    clock,
		debounce: debounce,
		logger:   logger,
		pending:  map[string]*debounceEntry{},
	}

	doc, migrated, err := loadDocument(opts.Path)
	if err != nil {
		// Corrupted or unreadable state is never fatal; start over with
		// role defaults.
		logger.Warn("window state unreadable, using defaults", "path", opts.Path, "error", err)
		doc = newDocument()
	}
	s.doc = doc

	changed := s.revalidateAll()
	if migrated || changed {
		s.persistLocked()
	}

	return s
}

// Roles returns the registered role names, sorted.
func (s *Store) Roles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.roles))
	for role := range s.roles {
		out = append(out, role)
	}
	sort.Strings(out)
	return out
}

// GetState returns a copy of the role's geometry, or nil for an
// unregistered role. A registered role with no stored state materializes
// its defaults (centered on the primary display) without touching disk.
func (s *Store) GetState(role string) *Geometry {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.roles[role]
	if !ok {
		return nil
	}
	if g, ok := s.doc.Windows[role]; ok {
		out := g
		return &out
	}

	g := DefaultGeometry(cfg, s.primary())
	s.doc.Windows[role] = g
	out := g
	return &out
}

// SetState merges the patch into the stored state, stamps LastSaved,
// writes synchronously (best-effort), and returns the merged value.
func (s *Store) SetState(role string, patch Patch) (Geometry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStateLocked(role, patch)
}

func (s *Store) setStateLocked(role string, patch Patch) (Geometry, error) {
	cfg, ok := s.roles[role]
	if !ok {
		return Geometry{}, fmt.Errorf("unknown window role: %q", role)
	}

	g, ok := s.doc.Windows[role]
	if !ok {
		g = DefaultGeometry(cfg, s.primary())
	}
	patch.apply(&g)
	g = Validate(g, cfg, s.allDisplays())
	s.stamp(&g)

	s.doc.Windows[role] = g
	s.persistLocked()
	return g, nil
}

// ResetState replaces the role's state with its defaults.
func (s *Store) ResetState(role string) (Geometry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.roles[role]
	if !ok {
		return Geometry{}, fmt.Errorf("unknown window role: %q", role)
	}
	if e, ok := s.pending[role]; ok {
		e.timer.Stop()
		delete(s.pending, role)
	}

	g := DefaultGeometry(cfg, s.primary())
	s.stamp(&g)
	s.doc.Windows[role] = g
	s.persistLocked()
	return g, nil
}

// UpdateFromLive reads bounds and flags from the live window handle and
// persists immediately.
func (s *Store) UpdateFromLive(role string, h window.Handle) (Geometry, error) {
	patch, err := captureLive(h)
	if err != nil {
		return Geometry{}, err
	}
	return s.SetState(role, patch)
}

// UpdateFromLiveDebounced has the same effect as UpdateFromLive, but
// successive calls within the debounce window collapse into a single
// write carrying only the most recent geometry.
func (s *Store) UpdateFromLiveDebounced(role string, h window.Handle) error {
	patch, err := captureLive(h)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.roles[role]; !ok {
		return fmt.Errorf("unknown window role: %q", role)
	}
	if s.closed {
		return fmt.Errorf("store is closed")
	}

	if e, ok := s.pending[role]; ok {
		e.timer.Stop()
		e.patch = patch
		e.timer = s.clock.AfterFunc(s.debounce, func() { s.flushRole(role) })
		return nil
	}
	e := &debounceEntry{patch: patch}
	e.timer = s.clock.AfterFunc(s.debounce, func() { s.flushRole(role) })
	s.pending[role] = e
	return nil
}

func (s *Store) flushRole(role string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.pending[role]
	if !ok {
		return
	}
	delete(s.pending, role)
	if _, err := s.setStateLocked(role, e.patch); err != nil {
		s.logger.Warn("debounced state update failed", "role", role, "error", err)
	}
}

// Flush immediately applies any pending debounced updates.
func (s *Store) Flush() {
	s.mu.Lock()
	roles := make([]string, 0, len(s.pending))
	for role, e := range s.pending {
		e.timer.Stop()
		roles = append(roles, role)
	}
	s.mu.Unlock()

	for _, role := range roles {
		s.flushRole(role)
	}
}

// SnapToEdge computes the snap rectangle for the role's current display
// work area, persists it, and applies it to the live handle when one is
// supplied. EdgeMaximize marks the state maximized instead of resizing.
func (s *Store) SnapToEdge(role string, edge geometry.Edge, h window.Handle) (Geometry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.roles[role]
	if !ok {
		return Geometry{}, fmt.Errorf("unknown window role: %q", role)
	}

	g, ok := s.doc.Windows[role]
	if !ok {
		g = DefaultGeometry(cfg, s.primary())
	}

	displays := s.allDisplays()
	work := s.workAreaFor(g, displays)
	target := geometry.SnapRect(work, edge)

	if edge == geometry.EdgeMaximize {
		g.IsMaximized = true
	} else {
		g.IsMaximized = false
	}
	g.IsMinimized = false
	g.setBounds(target)
	g = Validate(g, cfg, displays)
	s.stamp(&g)
	s.doc.Windows[role] = g
	s.persistLocked()

	if h != nil && !h.IsDestroyed() {
		if err := s.applyToHandle(g, edge, h); err != nil {
			s.logger.Warn("failed to apply snap to window", "role", role, "edge", edge.String(), "error", err)
		}
	}
	return g, nil
}

func (s *Store) applyToHandle(g Geometry, edge geometry.Edge, h window.Handle) error {
	if edge == geometry.EdgeMaximize {
		return h.Maximize()
	}
	return h.SetBounds(g.Bounds())
}

// MoveToDisplay recenters the role's geometry on the named display and
// updates its display binding. The live handle, when supplied, follows.
func (s *Store) MoveToDisplay(role string, displayID int, h window.Handle) (Geometry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.roles[role]
	if !ok {
		return Geometry{}, fmt.Errorf("unknown window role: %q", role)
	}

	displays := s.allDisplays()
	target, ok := display.ByID(displays, displayID)
	if !ok {
		return Geometry{}, fmt.Errorf("unknown display: %d", displayID)
	}

	g, exists := s.doc.Windows[role]
	if !exists {
		g = DefaultGeometry(cfg, s.primary())
	}
	g.setBounds(clampSize(g.Bounds(), cfg).CenterIn(target.WorkArea))
	g.DisplayID = target.ID
	g.WorkArea = target.WorkArea
	s.stamp(&g)
	s.doc.Windows[role] = g
	s.persistLocked()

	if h != nil && !h.IsDestroyed() {
		if err := h.SetBounds(g.Bounds()); err != nil {
			s.logger.Warn("failed to move window to display", "role", role, "display", displayID, "error", err)
		}
	}
	return g, nil
}

// HandleTopologyChange remaps every tracked role against the current
// display set: roles whose display vanished are recentered on the primary
// display, and roles whose display survived but whose bounds slipped
// outside its work area are clamped back inside it.
func (s *Store) HandleTopologyChange() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.revalidateAll() {
		s.persistLocked()
	}
}

// UpdateRoles replaces the role constraints, re-validates every stored
// geometry against the new bounds, and persists any corrections. Used
// by config hot reload.
func (s *Store) UpdateRoles(roles map[string]RoleConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roles = roles
	displays := s.allDisplays()

	changed := false
	for role, g := range s.doc.Windows {
		cfg, tracked := s.roles[role]
		if !tracked {
			continue
		}
		if updated := Validate(g, cfg, displays); updated != g {
			s.stamp(&updated)
			s.doc.Windows[role] = updated
			changed = true
		}
	}
	if changed {
		s.persistLocked()
	}
}

func (s *Store) revalidateAll() bool {
	displays := s.allDisplays()
	if len(displays) == 0 {
		return false
	}
	primary := primaryOf(displays)

	changed := false
	for role, g := range s.doc.Windows {
		cfg, tracked := s.roles[role]
		if !tracked {
			continue
		}
		updated := g

		d, ok := display.ByID(displays, g.DisplayID)
		if !ok {
			// Display gone: recenter on the primary, size preserved.
			updated.setBounds(clampSize(updated.Bounds(), cfg).CenterIn(primary.WorkArea))
			updated.DisplayID = primary.ID
			updated.WorkArea = primary.WorkArea
		} else {
			updated.WorkArea = d.WorkArea
			if in := updated.Bounds().Intersection(d.WorkArea); in != updated.Bounds() {
				updated.setBounds(clampSize(updated.Bounds(), cfg).ClampInto(d.WorkArea))
			}
		}

		if updated != g {
			s.stamp(&updated)
			s.doc.Windows[role] = updated
			changed = true
		}
	}
	return changed
}

// Close flushes pending debounced writes and stops all timers.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.Flush()
	return nil
}

// stamp sets LastSaved to the current time, never letting it decrease.
func (s *Store) stamp(g *Geometry) {
	now := s.clock.Now().UnixMilli()
	if now < g.LastSaved {
		now = g.LastSaved
	}
	g.LastSaved = now
}

func (s *Store) persistLocked() {
	if s.path == "" {
		return
	}
	if err := saveDocument(s.path, s.doc); err != nil {
		// Best-effort persistence; never fail a UI-visible operation.
		s.logger.Warn("failed to write window state", "path", s.path, "error", err)
	}
}

func (s *Store) allDisplays() []display.Descriptor {
	displays, err := s.displays.AllDisplays()
	if err != nil {
		s.logger.Warn("display query failed", "error", err)
		return nil
	}
	return displays
}

func (s *Store) primary() display.Descriptor {
	d, err := s.displays.PrimaryDisplay()
	if err != nil {
		s.logger.Warn("primary display query failed", "error", err)
		return display.Descriptor{}
	}
	return d
}

func (s *Store) workAreaFor(g Geometry, displays []display.Descriptor) geometry.Rect {
	if d, ok := display.ByID(displays, g.DisplayID); ok {
		return d.WorkArea
	}
	if d, ok := display.BestFor(displays, g.Bounds()); ok {
		return d.WorkArea
	}
	return primaryOf(displays).WorkArea
}

func captureLive(h window.Handle) (Patch, error) {
	if h == nil {
		return Patch{}, fmt.Errorf("window handle is nil")
	}
	if h.IsDestroyed() {
		return Patch{}, fmt.Errorf("window is destroyed")
	}

	bounds, err := h.Bounds()
	if err != nil {
		return Patch{}, fmt.Errorf("failed to read window bounds: %w", err)
	}

	patch := Patch{
		X:      &bounds.X,
		Y:      &bounds.Y,
		Width:  &bounds.Width,
		Height: &bounds.Height,
	}
	// Flag reads are best-effort; a window manager race here must not
	// drop the geometry update.
	if v, err := h.IsMaximized(); err == nil {
		patch.IsMaximized = &v
	}
	if v, err := h.IsMinimized(); err == nil {
		patch.IsMinimized = &v
	}
	if v, err := h.IsFullScreen(); err == nil {
		patch.IsFullScreen = &v
	}
	if v, err := h.IsVisible(); err == nil {
		patch.IsVisible = &v
	}
	if v, err := h.IsAlwaysOnTop(); err == nil {
		patch.IsAlwaysOnTop = &v
	}
	return patch, nil
}
