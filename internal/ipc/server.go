package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/taskdesk/taskdesk/internal/display"
	"github.com/taskdesk/taskdesk/internal/geometry"
	"github.com/taskdesk/taskdesk/internal/registry"
	"github.com/taskdesk/taskdesk/internal/reliability"
	"github.com/taskdesk/taskdesk/internal/window"
	"github.com/taskdesk/taskdesk/internal/winstate"
)

const requestTimeout = 30 * time.Second

// WindowResolver maps a window role to its live handle, if one exists.
// A nil handle means the role has no open window; state-only commands
// still apply.
type WindowResolver func(role string) window.Handle

// Options wires the server to the daemon's subsystems.
type Options struct {
	SocketPath string
	Store      *winstate.Store
	Displays   display.Provider
	Wrapper    *reliability.Wrapper
	Components *registry.Registry
	Windows    WindowResolver
	Reload     func() error
	Logger     *slog.Logger
}

// Server handles IPC requests from clients. Every state-mutating
// command goes through the reliability wrapper, so transient failures
// are retried and reflected in the operator statistics.
type Server struct {
	socketPath   string
	listener     net.Listener
	store        *winstate.Store
	displays     display.Provider
	wrapper      *reliability.Wrapper
	components   *registry.Registry
	windows      WindowResolver
	reload       func() error
	log          *slog.Logger
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server.
func NewServer(opts Options) (*Server, error) {
	if opts.SocketPath == "" {
		return nil, fmt.Errorf("ipc: socket path is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Windows == nil {
		opts.Windows = func(string) window.Handle { return nil }
	}

	// Remove existing socket if present
	os.Remove(opts.SocketPath)

	return &Server{
		socketPath: opts.SocketPath,
		store:      opts.Store,
		displays:   opts.Displays,
		wrapper:    opts.Wrapper,
		components: opts.Components,
		windows:    opts.Windows,
		reload:     opts.Reload,
		log:        opts.Logger,
		startTime:  time.Now(),
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.log.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.log.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Expect JSON on a single line.
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.log.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	resp := s.handleCommand(ctx, req)
	cancel()

	respData, err := resp.Marshal()
	if err != nil {
		s.log.Warn("failed to marshal response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.log.Warn("failed to send response", "error", err)
	}
}

func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetDisplays:
		return s.handleGetDisplays(ctx)
	case CommandGetState:
		return s.handleGetState(ctx, req.Payload)
	case CommandSnap:
		return s.handleSnap(ctx, req.Payload)
	case CommandMoveToDisplay:
		return s.handleMoveToDisplay(ctx, req.Payload)
	case CommandResetState:
		return s.handleResetState(ctx, req.Payload)
	case CommandGetStats:
		return s.handleGetStats()
	case CommandHealth:
		return s.handleHealth()
	case CommandComponents:
		return s.handleComponents()
	case CommandLoadComponent:
		return s.handleLoadComponent(ctx, req.Payload)
	case CommandReload:
		return s.handleReload()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleGetStatus() *Response {
	roles := s.store.Roles()

	displayCount := 0
	if all, err := s.displays.AllDisplays(); err == nil {
		displayCount = len(all)
	}

	status := StatusData{
		Roles:            roles,
		DisplayCount:     displayCount,
		ComponentsLoaded: s.components.Status().Loaded,
		UptimeSeconds:    int64(time.Since(s.startTime).Seconds()),
		DaemonRunning:    true,
	}

	resp, _ := NewOKResponse(status)
	return resp
}

func (s *Server) handleGetDisplays(ctx context.Context) *Response {
	op := s.wrapper.Wrap(func(ctx context.Context) (any, error) {
		return s.displays.AllDisplays()
	}, reliability.OperationContext{
		Channel: "ipc:get-displays",
		Kind:    reliability.KindCollection,
	})

	result, err := op(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get displays: %v", err))
	}

	descriptors, _ := result.([]display.Descriptor)
	infos := make([]DisplayInfo, len(descriptors))
	for i, d := range descriptors {
		infos[i] = DisplayInfo{
			ID:      d.ID,
			Name:    d.Name,
			X:       d.Bounds.X,
			Y:       d.Bounds.Y,
			Width:   d.Bounds.Width,
			Height:  d.Bounds.Height,
			WorkX:   d.WorkArea.X,
			WorkY:   d.WorkArea.Y,
			WorkW:   d.WorkArea.Width,
			WorkH:   d.WorkArea.Height,
			Primary: d.Primary,
		}
	}

	resp, _ := NewOKResponse(DisplaysData{Displays: infos})
	return resp
}

func (s *Server) handleGetState(ctx context.Context, payload json.RawMessage) *Response {
	var p StatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid state payload: %v", err))
	}
	if p.Role == "" {
		return NewErrorResponse("role is required")
	}

	geo := s.store.GetState(p.Role)
	if geo == nil {
		return NewErrorResponse(fmt.Sprintf("Unknown window role: %s", p.Role))
	}

	resp, _ := NewOKResponse(StateData{Role: p.Role, Geometry: *geo})
	return resp
}

func (s *Server) handleSnap(ctx context.Context, payload json.RawMessage) *Response {
	var p SnapPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid snap payload: %v", err))
	}
	edge, err := geometry.ParseEdge(p.Edge)
	if err != nil {
		return NewErrorResponse(err.Error())
	}

	op := s.wrapper.Wrap(func(ctx context.Context) (any, error) {
		g, err := s.store.SnapToEdge(p.Role, edge, s.windows(p.Role))
		if err != nil {
			return nil, reliability.Permanent(err)
		}
		return g, nil
	}, reliability.OperationContext{
		Channel:            "ipc:snap",
		Kind:               reliability.KindMutation,
		DisableDegradation: true,
	})

	result, err := op(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to snap: %v", err))
	}

	g, _ := result.(winstate.Geometry)
	resp, _ := NewOKResponse(StateData{Role: p.Role, Geometry: g})
	return resp
}

func (s *Server) handleMoveToDisplay(ctx context.Context, payload json.RawMessage) *Response {
	var p MoveToDisplayPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid move payload: %v", err))
	}
	if p.Role == "" {
		return NewErrorResponse("role is required")
	}

	op := s.wrapper.Wrap(func(ctx context.Context) (any, error) {
		g, err := s.store.MoveToDisplay(p.Role, p.DisplayID, s.windows(p.Role))
		if err != nil {
			return nil, reliability.Permanent(err)
		}
		return g, nil
	}, reliability.OperationContext{
		Channel:            "ipc:move-to-display",
		Kind:               reliability.KindMutation,
		DisableDegradation: true,
	})

	result, err := op(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to move window: %v", err))
	}

	g, _ := result.(winstate.Geometry)
	resp, _ := NewOKResponse(StateData{Role: p.Role, Geometry: g})
	return resp
}

func (s *Server) handleResetState(ctx context.Context, payload json.RawMessage) *Response {
	var p StatePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid reset payload: %v", err))
	}
	if p.Role == "" {
		return NewErrorResponse("role is required")
	}

	op := s.wrapper.Wrap(func(ctx context.Context) (any, error) {
		g, err := s.store.ResetState(p.Role)
		if err != nil {
			return nil, reliability.Permanent(err)
		}
		return g, nil
	}, reliability.OperationContext{
		Channel:            "ipc:reset-state",
		Kind:               reliability.KindMutation,
		DisableDegradation: true,
	})

	result, err := op(ctx)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reset state: %v", err))
	}

	g, _ := result.(winstate.Geometry)
	resp, _ := NewOKResponse(StateData{Role: p.Role, Geometry: g})
	return resp
}

func (s *Server) handleGetStats() *Response {
	resp, _ := NewOKResponse(StatsData{Stats: s.wrapper.Stats()})
	return resp
}

func (s *Server) handleHealth() *Response {
	resp, _ := NewOKResponse(HealthData{Health: s.wrapper.HealthCheck()})
	return resp
}

func (s *Server) handleComponents() *Response {
	resp, _ := NewOKResponse(ComponentsData{Status: s.components.Status()})
	return resp
}

func (s *Server) handleLoadComponent(ctx context.Context, payload json.RawMessage) *Response {
	var p LoadComponentPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid load payload: %v", err))
	}
	if p.Name == "" {
		return NewErrorResponse("name is required")
	}

	if _, err := s.components.Load(ctx, p.Name); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to load component: %v", err))
	}

	resp, _ := NewOKResponse(s.components.Status().Components[p.Name])
	return resp
}

func (s *Server) handleReload() *Response {
	s.log.Info("IPC: received RELOAD command")

	if s.reload == nil {
		return NewErrorResponse("reload is not supported")
	}
	if err := s.reload(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
