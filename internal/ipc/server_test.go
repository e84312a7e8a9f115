package ipc

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdesk/taskdesk/internal/display"
	"github.com/taskdesk/taskdesk/internal/geometry"
	"github.com/taskdesk/taskdesk/internal/registry"
	"github.com/taskdesk/taskdesk/internal/reliability"
	"github.com/taskdesk/taskdesk/internal/winstate"
)

func startTestServer(t *testing.T) (*Server, *Client) {
	t.Helper()

	dir := t.TempDir()
	socketPath := filepath.Join(dir, "taskdesk.sock")

	displays := &display.StaticProvider{Displays: []display.Descriptor{
		{
			ID:       0,
			Name:     "primary",
			Bounds:   geometry.Rect{Width: 1920, Height: 1080},
			WorkArea: geometry.Rect{Width: 1920, Height: 1080},
			Primary:  true,
		},
	}}

	store := winstate.New(winstate.Options{
		Path:     filepath.Join(dir, "window-state.json"),
		Displays: displays,
		Roles: map[string]winstate.RoleConfig{
			"main": {
				MinWidth:         600,
				MinHeight:        400,
				DefaultWidth:     1200,
				DefaultHeight:    800,
				RememberPosition: true,
			},
		},
	})
	t.Cleanup(func() { store.Close() })

	reg := registry.New(registry.Options{})
	reg.Register("notifications", registry.PriorityMedium, func(ctx context.Context) (any, error) {
		return "up", nil
	})

	srv, err := NewServer(Options{
		SocketPath: socketPath,
		Store:      store,
		Displays:   displays,
		Wrapper:    reliability.New(reliability.Options{}),
		Components: reg,
	})
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)

	return srv, NewClientWithSocket(socketPath)
}

func TestGetStatusRoundTrip(t *testing.T) {
	_, client := startTestServer(t)

	status, err := client.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.DaemonRunning)
	assert.Equal(t, []string{"main"}, status.Roles)
	assert.Equal(t, 1, status.DisplayCount)
}

func TestGetDisplaysRoundTrip(t *testing.T) {
	_, client := startTestServer(t)

	displays, err := client.GetDisplays()
	require.NoError(t, err)
	require.Len(t, displays.Displays, 1)
	assert.Equal(t, "primary", displays.Displays[0].Name)
	assert.Equal(t, 1920, displays.Displays[0].Width)
	assert.True(t, displays.Displays[0].Primary)
}

func TestGetStateRoundTrip(t *testing.T) {
	_, client := startTestServer(t)

	state, err := client.GetState("main")
	require.NoError(t, err)
	assert.Equal(t, 1200, state.Geometry.Width)
	assert.Equal(t, 800, state.Geometry.Height)

	_, err = client.GetState("ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestSnapRoundTrip(t *testing.T) {
	_, client := startTestServer(t)

	state, err := client.Snap("main", "top-right")
	require.NoError(t, err)
	assert.Equal(t, 960, state.Geometry.X)
	assert.Equal(t, 0, state.Geometry.Y)
	assert.Equal(t, 960, state.Geometry.Width)
	assert.Equal(t, 540, state.Geometry.Height)

	_, err = client.Snap("main", "diagonal")
	require.Error(t, err)
}

func TestMoveToDisplayUnknownDisplay(t *testing.T) {
	_, client := startTestServer(t)

	_, err := client.MoveToDisplay("main", 42)
	require.Error(t, err)
}

func TestResetStateRoundTrip(t *testing.T) {
	_, client := startTestServer(t)

	_, err := client.Snap("main", "left")
	require.NoError(t, err)
	require.NoError(t, client.ResetState("main"))

	state, err := client.GetState("main")
	require.NoError(t, err)
	assert.Equal(t, 1200, state.Geometry.Width, "reset restores defaults")
}

func TestStatsAndHealthRoundTrip(t *testing.T) {
	_, client := startTestServer(t)

	// Generate one failed mutation so the counters move.
	_, err := client.MoveToDisplay("main", 42)
	require.Error(t, err)

	stats, err := client.GetStats()
	require.NoError(t, err)
	assert.NotZero(t, stats.Stats.TotalErrors)

	health, err := client.Health()
	require.NoError(t, err)
	assert.NotZero(t, health.Health.TotalErrors)
}

func TestComponentsRoundTrip(t *testing.T) {
	_, client := startTestServer(t)

	components, err := client.Components()
	require.NoError(t, err)
	assert.Equal(t, 1, components.Status.Registered)
	assert.Equal(t, 0, components.Status.Loaded)

	require.NoError(t, client.LoadComponent("notifications"))

	components, err = client.Components()
	require.NoError(t, err)
	assert.Equal(t, 1, components.Status.Loaded)

	require.Error(t, client.LoadComponent("ghost"))
}

func TestReloadWithoutHookFails(t *testing.T) {
	_, client := startTestServer(t)
	require.Error(t, client.Reload())
}

func TestUnknownCommand(t *testing.T) {
	srv, _ := startTestServer(t)

	resp := srv.handleCommand(context.Background(), &Request{Command: "DANCE"})
	assert.Equal(t, "ERROR", resp.Status)
	assert.Contains(t, resp.Error, "DANCE")
}
