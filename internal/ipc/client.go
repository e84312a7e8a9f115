package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/taskdesk/taskdesk/internal/apppath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := apppath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// NewClientWithSocket creates a client against an explicit socket path.
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStatus})
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}

	return &status, nil
}

// GetDisplays retrieves display information
func (c *Client) GetDisplays() (*DisplaysData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetDisplays})
	if err != nil {
		return nil, err
	}

	var displays DisplaysData
	if err := json.Unmarshal(resp.Data, &displays); err != nil {
		return nil, fmt.Errorf("failed to parse displays data: %w", err)
	}

	return &displays, nil
}

// GetState retrieves persisted geometry for a window role.
func (c *Client) GetState(role string) (*StateData, error) {
	payload, err := json.Marshal(StatePayload{Role: role})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state payload: %w", err)
	}

	resp, err := c.sendRequest(&Request{Command: CommandGetState, Payload: payload})
	if err != nil {
		return nil, err
	}

	var state StateData
	if err := json.Unmarshal(resp.Data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state data: %w", err)
	}

	return &state, nil
}

// Snap snaps a window role to a display edge preset.
func (c *Client) Snap(role, edge string) (*StateData, error) {
	payload, err := json.Marshal(SnapPayload{Role: role, Edge: edge})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snap payload: %w", err)
	}

	resp, err := c.sendRequest(&Request{Command: CommandSnap, Payload: payload})
	if err != nil {
		return nil, err
	}

	var state StateData
	if err := json.Unmarshal(resp.Data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse snap result: %w", err)
	}

	return &state, nil
}

// MoveToDisplay recenters a window role onto the given display.
func (c *Client) MoveToDisplay(role string, displayID int) (*StateData, error) {
	payload, err := json.Marshal(MoveToDisplayPayload{Role: role, DisplayID: displayID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal move payload: %w", err)
	}

	resp, err := c.sendRequest(&Request{Command: CommandMoveToDisplay, Payload: payload})
	if err != nil {
		return nil, err
	}

	var state StateData
	if err := json.Unmarshal(resp.Data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse move result: %w", err)
	}

	return &state, nil
}

// ResetState restores a window role to its configured defaults.
func (c *Client) ResetState(role string) error {
	payload, err := json.Marshal(StatePayload{Role: role})
	if err != nil {
		return fmt.Errorf("failed to marshal reset payload: %w", err)
	}

	_, err = c.sendRequest(&Request{Command: CommandResetState, Payload: payload})
	return err
}

// GetStats retrieves reliability wrapper statistics
func (c *Client) GetStats() (*StatsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandGetStats})
	if err != nil {
		return nil, err
	}

	var stats StatsData
	if err := json.Unmarshal(resp.Data, &stats); err != nil {
		return nil, fmt.Errorf("failed to parse stats data: %w", err)
	}

	return &stats, nil
}

// Health retrieves the daemon's reliability health report
func (c *Client) Health() (*HealthData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandHealth})
	if err != nil {
		return nil, err
	}

	var health HealthData
	if err := json.Unmarshal(resp.Data, &health); err != nil {
		return nil, fmt.Errorf("failed to parse health data: %w", err)
	}

	return &health, nil
}

// Components retrieves the component registry snapshot
func (c *Client) Components() (*ComponentsData, error) {
	resp, err := c.sendRequest(&Request{Command: CommandComponents})
	if err != nil {
		return nil, err
	}

	var components ComponentsData
	if err := json.Unmarshal(resp.Data, &components); err != nil {
		return nil, fmt.Errorf("failed to parse components data: %w", err)
	}

	return &components, nil
}

// LoadComponent asks the daemon to construct a component now.
func (c *Client) LoadComponent(name string) error {
	payload, err := json.Marshal(LoadComponentPayload{Name: name})
	if err != nil {
		return fmt.Errorf("failed to marshal load payload: %w", err)
	}

	_, err = c.sendRequest(&Request{Command: CommandLoadComponent, Payload: payload})
	return err
}

// Reload sends a RELOAD command to the daemon
func (c *Client) Reload() error {
	_, err := c.sendRequest(&Request{Command: CommandReload})
	return err
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
