package mcp

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdesk/taskdesk/internal/ipc"
)

// offlineServer points at a socket that does not exist, so any handler
// that reaches the daemon fails with a connection error while input
// validation still runs locally.
func offlineServer(t *testing.T) *Server {
	t.Helper()
	client := ipc.NewClientWithSocket(filepath.Join(t.TempDir(), "absent.sock"))
	return NewServer(client, nil)
}

func TestHandlersValidateInputBeforeDialing(t *testing.T) {
	s := offlineServer(t)
	ctx := context.Background()

	_, _, err := s.handleGetWindowState(ctx, nil, GetWindowStateInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role is required")

	_, _, err = s.handleSnapWindow(ctx, nil, SnapWindowInput{Role: "main"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "edge is required")

	_, _, err = s.handleMoveWindow(ctx, nil, MoveWindowInput{DisplayID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role is required")

	_, _, err = s.handleResetWindowState(ctx, nil, ResetWindowStateInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role is required")

	_, _, err = s.handleLoadComponent(ctx, nil, LoadComponentInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestHandlersSurfaceConnectionErrors(t *testing.T) {
	s := offlineServer(t)
	ctx := context.Background()

	_, _, err := s.handleGetWindowState(ctx, nil, GetWindowStateInput{Role: "main"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daemon")

	_, _, err = s.handleListDisplays(ctx, nil, ListDisplaysInput{})
	require.Error(t, err)

	_, _, err = s.handleHealthCheck(ctx, nil, HealthCheckInput{})
	require.Error(t, err)
}
