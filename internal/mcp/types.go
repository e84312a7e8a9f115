package mcp

import (
	"github.com/taskdesk/taskdesk/internal/ipc"
	"github.com/taskdesk/taskdesk/internal/registry"
	"github.com/taskdesk/taskdesk/internal/reliability"
	"github.com/taskdesk/taskdesk/internal/winstate"
)

// GetWindowStateInput is the input for the get_window_state tool.
type GetWindowStateInput struct {
	Role string `json:"role" jsonschema:"required,Window role name (e.g. main, quick-add)"`
}

// GetWindowStateOutput is the output for the get_window_state tool.
type GetWindowStateOutput struct {
	Role     string            `json:"role"`
	Geometry winstate.Geometry `json:"geometry"`
}

// SnapWindowInput is the input for the snap_window tool.
type SnapWindowInput struct {
	Role string `json:"role" jsonschema:"required,Window role name"`
	Edge string `json:"edge" jsonschema:"required,Edge preset: left, right, top, bottom, top-left, top-right, bottom-left, bottom-right, or maximize"`
}

// SnapWindowOutput is the output for the snap_window tool.
type SnapWindowOutput struct {
	Role     string            `json:"role"`
	Geometry winstate.Geometry `json:"geometry"`
}

// MoveWindowInput is the input for the move_window_to_display tool.
type MoveWindowInput struct {
	Role      string `json:"role" jsonschema:"required,Window role name"`
	DisplayID int    `json:"display_id" jsonschema:"required,Target display ID from list_displays"`
}

// MoveWindowOutput is the output for the move_window_to_display tool.
type MoveWindowOutput struct {
	Role     string            `json:"role"`
	Geometry winstate.Geometry `json:"geometry"`
}

// ResetWindowStateInput is the input for the reset_window_state tool.
type ResetWindowStateInput struct {
	Role string `json:"role" jsonschema:"required,Window role name to reset to configured defaults"`
}

// ResetWindowStateOutput is the output for the reset_window_state tool.
type ResetWindowStateOutput struct {
	Role  string `json:"role"`
	Reset bool   `json:"reset"`
}

// ListDisplaysInput is the input for the list_displays tool.
type ListDisplaysInput struct{}

// ListDisplaysOutput is the output for the list_displays tool.
type ListDisplaysOutput struct {
	Displays []ipc.DisplayInfo `json:"displays"`
}

// ReliabilityStatsInput is the input for the reliability_stats tool.
type ReliabilityStatsInput struct{}

// ReliabilityStatsOutput is the output for the reliability_stats tool.
type ReliabilityStatsOutput struct {
	Stats reliability.Stats `json:"stats"`
}

// HealthCheckInput is the input for the health_check tool.
type HealthCheckInput struct{}

// HealthCheckOutput is the output for the health_check tool.
type HealthCheckOutput struct {
	Health reliability.Health `json:"health"`
}

// ComponentStatusInput is the input for the component_status tool.
type ComponentStatusInput struct{}

// ComponentStatusOutput is the output for the component_status tool.
type ComponentStatusOutput struct {
	Status registry.Status `json:"status"`
}

// LoadComponentInput is the input for the load_component tool.
type LoadComponentInput struct {
	Name string `json:"name" jsonschema:"required,Component name from component_status"`
}

// LoadComponentOutput is the output for the load_component tool.
type LoadComponentOutput struct {
	Name   string `json:"name"`
	Loaded bool   `json:"loaded"`
}
