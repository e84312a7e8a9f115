package winstate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdesk/taskdesk/internal/display"
	"github.com/taskdesk/taskdesk/internal/geometry"
	"github.com/taskdesk/taskdesk/internal/sched"
	"github.com/taskdesk/taskdesk/internal/window"
)

func testRoles() map[string]RoleConfig {
	return map[string]RoleConfig{
		"main": {
			MinWidth: 400, MinHeight: 300,
			DefaultWidth: 1200, DefaultHeight: 800,
			RememberPosition: true,
		},
		"floating": {
			MinWidth: 200, MinHeight: 150,
			DefaultWidth: 400, DefaultHeight: 300,
			AlwaysOnTop: true,
		},
	}
}

func newTestStore(t *testing.T) (*Store, *display.StaticProvider, *sched.Fake, string) {
	t.Helper()
	provider := &display.StaticProvider{Displays: twoDisplays()}
	clock := sched.NewFake()
	path := filepath.Join(t.TempDir(), "window-state.json")
	s := New(Options{
		Path:      path,
		Displays:  provider,
		Roles:     testRoles(),
		Scheduler: clock,
	})
	return s, provider, clock, path
}

func TestGetStateFirstRunDefaults(t *testing.T) {
	s, _, _, path := newTestStore(t)

	g := s.GetState("main")
	require.NotNil(t, g)
	assert.Equal(t, 1200, g.Width)
	assert.Equal(t, 800, g.Height)
	assert.Equal(t, 360, g.X)
	assert.Equal(t, 140, g.Y)
	assert.True(t, g.IsVisible)
	assert.Equal(t, 0, g.DisplayID)

	// First access materializes defaults in memory only.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "GetState must not write the state file")

	assert.Nil(t, s.GetState("unknown"))
}

func TestGetStateReturnsCopy(t *testing.T) {
	s, _, _, _ := newTestStore(t)

	a := s.GetState("main")
	a.Width = 7
	b := s.GetState("main")
	assert.Equal(t, 1200, b.Width, "mutating a returned state must not affect the store")
}

func TestSetStatePersistsAndStamps(t *testing.T) {
	s, _, clock, path := newTestStore(t)

	x, y := 100, 50
	got, err := s.SetState("main", Patch{X: &x, Y: &y})
	require.NoError(t, err)
	assert.Equal(t, 100, got.X)
	assert.Equal(t, 50, got.Y)
	assert.Equal(t, clock.Now().UnixMilli(), got.LastSaved)

	doc, _, err := loadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, got, doc.Windows["main"])

	_, err = s.SetState("nope", Patch{})
	assert.Error(t, err)
}

func TestLastSavedNeverDecreases(t *testing.T) {
	s, _, clock, _ := newTestStore(t)

	first, err := s.SetState("main", Patch{})
	require.NoError(t, err)

	clock.Advance(time.Second)
	second, err := s.SetState("main", Patch{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, second.LastSaved, first.LastSaved)
}

func TestDebounceCollapsesBurstIntoSingleWrite(t *testing.T) {
	s, _, clock, path := newTestStore(t)

	win := window.NewFake(geometry.Rect{X: 0, Y: 0, Width: 800, Height: 600})

	// A drag fires many geometry events in quick succession.
	for i := 0; i < 5; i++ {
		require.NoError(t, win.SetBounds(geometry.Rect{X: 10 * i, Y: 5 * i, Width: 800, Height: 600}))
		require.NoError(t, s.UpdateFromLiveDebounced("main", win))
		clock.Advance(50 * time.Millisecond)
	}

	// Still within the debounce window: nothing persisted yet.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "expected no write during the debounce window")

	clock.Advance(DefaultDebounce)

	doc, _, err := loadDocument(path)
	require.NoError(t, err)
	g := doc.Windows["main"]
	assert.Equal(t, 40, g.X, "persisted geometry must come from the last event")
	assert.Equal(t, 20, g.Y)
	assert.Equal(t, 0, clock.Pending(), "no timers may remain after the flush")
}

func TestDebounceSeparateBurstsWriteSeparately(t *testing.T) {
	s, _, clock, _ := newTestStore(t)
	win := window.NewFake(geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600})

	require.NoError(t, s.UpdateFromLiveDebounced("main", win))
	clock.Advance(DefaultDebounce)
	assert.Equal(t, 100, s.GetState("main").X)

	require.NoError(t, win.SetBounds(geometry.Rect{X: 300, Y: 100, Width: 800, Height: 600}))
	require.NoError(t, s.UpdateFromLiveDebounced("main", win))
	clock.Advance(DefaultDebounce)
	assert.Equal(t, 300, s.GetState("main").X)
}

func TestUpdateFromLiveImmediate(t *testing.T) {
	s, _, _, path := newTestStore(t)
	win := window.NewFake(geometry.Rect{X: 200, Y: 150, Width: 1024, Height: 768})
	require.NoError(t, win.Maximize())

	got, err := s.UpdateFromLive("main", win)
	require.NoError(t, err)
	assert.Equal(t, 200, got.X)
	assert.Equal(t, 1024, got.Width)
	assert.True(t, got.IsMaximized)

	doc, _, err := loadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, got, doc.Windows["main"])
}

func TestUpdateFromLiveDestroyedWindow(t *testing.T) {
	s, _, _, _ := newTestStore(t)
	win := window.NewFake(geometry.Rect{X: 0, Y: 0, Width: 800, Height: 600})
	win.Destroy()

	_, err := s.UpdateFromLive("main", win)
	assert.Error(t, err)
}

func TestSnapToEdge(t *testing.T) {
	s, _, _, _ := newTestStore(t)
	win := window.NewFake(geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600})

	got, err := s.SnapToEdge("main", geometry.EdgeTopRight, win)
	require.NoError(t, err)
	assert.Equal(t, 960, got.X)
	assert.Equal(t, 0, got.Y)
	assert.Equal(t, 960, got.Width)
	assert.Equal(t, 540, got.Height)
	assert.False(t, got.IsMaximized)

	bounds, err := win.Bounds()
	require.NoError(t, err)
	assert.Equal(t, got.Bounds(), bounds, "live window must follow the snap")
}

func TestSnapToEdgeMaximize(t *testing.T) {
	s, _, _, _ := newTestStore(t)
	win := window.NewFake(geometry.Rect{X: 100, Y: 100, Width: 800, Height: 600})

	got, err := s.SnapToEdge("main", geometry.EdgeMaximize, win)
	require.NoError(t, err)
	assert.True(t, got.IsMaximized)

	maximized, err := win.IsMaximized()
	require.NoError(t, err)
	assert.True(t, maximized)
}

func TestMoveToDisplay(t *testing.T) {
	s, _, _, _ := newTestStore(t)

	got, err := s.MoveToDisplay("main", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, got.DisplayID)
	// Centered in the secondary work area {1920,0,1280,1024}.
	assert.Equal(t, 1920+(1280-1200)/2, got.X)
	assert.Equal(t, (1024-800)/2, got.Y)

	_, err = s.MoveToDisplay("main", 42, nil)
	assert.Error(t, err, "unknown display must be rejected")
}

func TestTopologyChangeRemapsVanishedDisplay(t *testing.T) {
	s, provider, _, _ := newTestStore(t)

	// Put the window on the secondary display, then unplug it.
	_, err := s.MoveToDisplay("main", 1, nil)
	require.NoError(t, err)

	provider.Displays = twoDisplays()[:1]
	s.HandleTopologyChange()

	g := s.GetState("main")
	assert.Equal(t, 0, g.DisplayID)
	assert.Equal(t, 360, g.X)
	assert.Equal(t, 140, g.Y)
}

func TestTopologyChangeClampsOutOfWorkArea(t *testing.T) {
	s, provider, _, _ := newTestStore(t)

	x, y := 600, 500
	_, err := s.SetState("main", Patch{X: &x, Y: &y})
	require.NoError(t, err)

	// The primary work area shrinks (a dock appeared at the bottom).
	shrunk := twoDisplays()
	shrunk[0].WorkArea = geometry.Rect{X: 0, Y: 0, Width: 1920, Height: 1000}
	provider.Displays = shrunk
	s.HandleTopologyChange()

	g := s.GetState("main")
	assert.Equal(t, 0, g.DisplayID)
	assert.LessOrEqual(t, g.X+g.Width, 1920)
	assert.LessOrEqual(t, g.Y+g.Height, 1000)
}

func TestCorruptStateFileFallsBackToDefaults(t *testing.T) {
	provider := &display.StaticProvider{Displays: twoDisplays()}
	path := filepath.Join(t.TempDir(), "window-state.json")
	require.NoError(t, os.WriteFile(path, []byte("\x00garbage"), 0644))

	s := New(Options{
		Path:      path,
		Displays:  provider,
		Roles:     testRoles(),
		Scheduler: sched.NewFake(),
	})

	g := s.GetState("main")
	require.NotNil(t, g)
	assert.Equal(t, 1200, g.Width)
}

func TestResetState(t *testing.T) {
	s, _, _, _ := newTestStore(t)

	x := 5
	_, err := s.SetState("main", Patch{X: &x})
	require.NoError(t, err)

	got, err := s.ResetState("main")
	require.NoError(t, err)
	assert.Equal(t, 360, got.X)
	assert.Equal(t, 140, got.Y)
}

func TestCloseFlushesPendingDebounce(t *testing.T) {
	s, _, _, path := newTestStore(t)
	win := window.NewFake(geometry.Rect{X: 77, Y: 88, Width: 800, Height: 600})

	require.NoError(t, s.UpdateFromLiveDebounced("main", win))
	require.NoError(t, s.Close())

	doc, _, err := loadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, 77, doc.Windows["main"].X)
}
