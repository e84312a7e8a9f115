package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) handleGetWindowState(_ context.Context, _ *mcpsdk.CallToolRequest, args GetWindowStateInput) (*mcpsdk.CallToolResult, GetWindowStateOutput, error) {
	if args.Role == "" {
		return nil, GetWindowStateOutput{}, fmt.Errorf("role is required")
	}

	state, err := s.client.GetState(args.Role)
	if err != nil {
		return nil, GetWindowStateOutput{}, err
	}

	return nil, GetWindowStateOutput{
		Role:     state.Role,
		Geometry: state.Geometry,
	}, nil
}

func (s *Server) handleSnapWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args SnapWindowInput) (*mcpsdk.CallToolResult, SnapWindowOutput, error) {
	if args.Role == "" {
		return nil, SnapWindowOutput{}, fmt.Errorf("role is required")
	}
	if args.Edge == "" {
		return nil, SnapWindowOutput{}, fmt.Errorf("edge is required")
	}

	state, err := s.client.Snap(args.Role, args.Edge)
	if err != nil {
		return nil, SnapWindowOutput{}, err
	}

	s.log.Debug("snapped window", "role", args.Role, "edge", args.Edge)

	return nil, SnapWindowOutput{
		Role:     state.Role,
		Geometry: state.Geometry,
	}, nil
}

func (s *Server) handleMoveWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveWindowInput) (*mcpsdk.CallToolResult, MoveWindowOutput, error) {
	if args.Role == "" {
		return nil, MoveWindowOutput{}, fmt.Errorf("role is required")
	}

	state, err := s.client.MoveToDisplay(args.Role, args.DisplayID)
	if err != nil {
		return nil, MoveWindowOutput{}, err
	}

	s.log.Debug("moved window", "role", args.Role, "display", args.DisplayID)

	return nil, MoveWindowOutput{
		Role:     state.Role,
		Geometry: state.Geometry,
	}, nil
}

func (s *Server) handleResetWindowState(_ context.Context, _ *mcpsdk.CallToolRequest, args ResetWindowStateInput) (*mcpsdk.CallToolResult, ResetWindowStateOutput, error) {
	if args.Role == "" {
		return nil, ResetWindowStateOutput{}, fmt.Errorf("role is required")
	}

	if err := s.client.ResetState(args.Role); err != nil {
		return nil, ResetWindowStateOutput{}, err
	}

	return nil, ResetWindowStateOutput{Role: args.Role, Reset: true}, nil
}

func (s *Server) handleListDisplays(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListDisplaysInput) (*mcpsdk.CallToolResult, ListDisplaysOutput, error) {
	displays, err := s.client.GetDisplays()
	if err != nil {
		return nil, ListDisplaysOutput{}, err
	}

	return nil, ListDisplaysOutput{Displays: displays.Displays}, nil
}

func (s *Server) handleReliabilityStats(_ context.Context, _ *mcpsdk.CallToolRequest, _ ReliabilityStatsInput) (*mcpsdk.CallToolResult, ReliabilityStatsOutput, error) {
	stats, err := s.client.GetStats()
	if err != nil {
		return nil, ReliabilityStatsOutput{}, err
	}

	return nil, ReliabilityStatsOutput{Stats: stats.Stats}, nil
}

func (s *Server) handleHealthCheck(_ context.Context, _ *mcpsdk.CallToolRequest, _ HealthCheckInput) (*mcpsdk.CallToolResult, HealthCheckOutput, error) {
	health, err := s.client.Health()
	if err != nil {
		return nil, HealthCheckOutput{}, err
	}

	return nil, HealthCheckOutput{Health: health.Health}, nil
}

func (s *Server) handleComponentStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ ComponentStatusInput) (*mcpsdk.CallToolResult, ComponentStatusOutput, error) {
	components, err := s.client.Components()
	if err != nil {
		return nil, ComponentStatusOutput{}, err
	}

	return nil, ComponentStatusOutput{Status: components.Status}, nil
}

func (s *Server) handleLoadComponent(_ context.Context, _ *mcpsdk.CallToolRequest, args LoadComponentInput) (*mcpsdk.CallToolResult, LoadComponentOutput, error) {
	if args.Name == "" {
		return nil, LoadComponentOutput{}, fmt.Errorf("name is required")
	}

	if err := s.client.LoadComponent(args.Name); err != nil {
		return nil, LoadComponentOutput{}, err
	}

	return nil, LoadComponentOutput{Name: args.Name, Loaded: true}, nil
}
