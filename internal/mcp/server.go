// Package mcp exposes the taskdesk daemon's window-state and
// diagnostics surface to assistant clients over the Model Context
// Protocol. The server is a thin proxy: every tool call is forwarded
// to the daemon's unix socket, so the daemon remains the single owner
// of window state.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/taskdesk/taskdesk/internal/ipc"
)

const (
	ServerName    = "taskdesk"
	ServerVersion = "0.1.0"
)

// Server is the MCP server bridging assistants to the taskdesk daemon.
type Server struct {
	mcpServer *mcpsdk.Server
	client    *ipc.Client
	log       *slog.Logger
}

// NewServer creates an MCP server that proxies to the daemon socket.
func NewServer(client *ipc.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		client: client,
		log:    logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_window_state",
		Description: "Get the persisted geometry for a window role: position, size, display binding, maximize/fullscreen flags, and last-saved timestamp.",
	}, s.handleGetWindowState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "snap_window",
		Description: "Snap a window role to an edge preset of its display's work area (halves, quarters, or maximize). Applies to the live window when one is open and persists the result.",
	}, s.handleSnapWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_window_to_display",
		Description: "Move a window role to another display, centered in that display's work area. Fails if the display ID is unknown.",
	}, s.handleMoveWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reset_window_state",
		Description: "Discard a window role's saved geometry and restore its configured defaults, centered on the primary display.",
	}, s.handleResetWindowState)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_displays",
		Description: "List the attached displays with their bounds, work areas (excluding docks and panels), and which one is primary.",
	}, s.handleListDisplays)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reliability_stats",
		Description: "Get retry/degradation statistics for wrapped daemon operations: totals, success rate, worst channels, most common error types, and the last recorded error.",
	}, s.handleReliabilityStats)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "health_check",
		Description: "Run the daemon's reliability health check. Reports healthy/unhealthy with operator recommendations when the success rate drops or errors accumulate.",
	}, s.handleHealthCheck)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "component_status",
		Description: "Get the lazy component registry snapshot: per-component priority, loaded/loading state, and aggregate totals.",
	}, s.handleComponentStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "load_component",
		Description: "Ask the daemon to construct a registered component now instead of waiting for background or first-use loading.",
	}, s.handleLoadComponent)
}
