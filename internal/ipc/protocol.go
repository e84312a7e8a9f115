// Package ipc implements the line-delimited JSON protocol between the
// taskdesk daemon and its CLI/TUI clients over a unix socket.
package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/taskdesk/taskdesk/internal/registry"
	"github.com/taskdesk/taskdesk/internal/reliability"
	"github.com/taskdesk/taskdesk/internal/winstate"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus     CommandType = "GET_STATUS"
	CommandGetDisplays   CommandType = "GET_DISPLAYS"
	CommandGetState      CommandType = "GET_STATE"
	CommandSnap          CommandType = "SNAP"
	CommandMoveToDisplay CommandType = "MOVE_TO_DISPLAY"
	CommandResetState    CommandType = "RESET_STATE"
	CommandGetStats      CommandType = "GET_STATS"
	CommandHealth        CommandType = "HEALTH"
	CommandComponents    CommandType = "COMPONENTS"
	CommandLoadComponent CommandType = "LOAD_COMPONENT"
	CommandReload        CommandType = "RELOAD"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	Roles            []string `json:"roles"`
	DisplayCount     int      `json:"display_count"`
	ComponentsLoaded int      `json:"components_loaded"`
	UptimeSeconds    int64    `json:"uptime_seconds"`
	DaemonRunning    bool     `json:"daemon_running"`
}

// DisplayInfo represents one attached display
type DisplayInfo struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	WorkX   int    `json:"work_x"`
	WorkY   int    `json:"work_y"`
	WorkW   int    `json:"work_w"`
	WorkH   int    `json:"work_h"`
	Primary bool   `json:"primary"`
}

// DisplaysData represents the data returned by GET_DISPLAYS
type DisplaysData struct {
	Displays []DisplayInfo `json:"displays"`
}

// StatePayload selects a window role for state commands.
type StatePayload struct {
	Role string `json:"role"`
}

// StateData carries one role's persisted geometry.
type StateData struct {
	Role     string            `json:"role"`
	Geometry winstate.Geometry `json:"geometry"`
}

// SnapPayload represents the payload for SNAP.
type SnapPayload struct {
	Role string `json:"role"`
	Edge string `json:"edge"` // left, right, top, bottom, corners, maximize
}

// MoveToDisplayPayload represents the payload for MOVE_TO_DISPLAY.
type MoveToDisplayPayload struct {
	Role      string `json:"role"`
	DisplayID int    `json:"display_id"`
}

// LoadComponentPayload represents the payload for LOAD_COMPONENT.
type LoadComponentPayload struct {
	Name string `json:"name"`
}

// StatsData wraps reliability wrapper statistics.
type StatsData struct {
	Stats reliability.Stats `json:"stats"`
}

// HealthData wraps the reliability health report.
type HealthData struct {
	Health reliability.Health `json:"health"`
}

// ComponentsData wraps the component registry snapshot.
type ComponentsData struct {
	Status registry.Status `json:"status"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
