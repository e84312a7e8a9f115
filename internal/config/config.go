// Package config loads and validates the taskdesk configuration file.
// Decoding is strict: unknown keys are rejected so a typo in the file
// fails loudly at startup instead of silently falling back to defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/taskdesk/taskdesk/internal/registry"
	"github.com/taskdesk/taskdesk/internal/reliability"
	"github.com/taskdesk/taskdesk/internal/winstate"
)

const (
	DefaultDebounceMs        = 500
	DefaultBackgroundDelayMs = 100
)

// WindowRole describes size constraints and placement policy for one
// window role.
type WindowRole struct {
	MinWidth         int   `yaml:"min_width"`
	MinHeight        int   `yaml:"min_height"`
	MaxWidth         int   `yaml:"max_width"`  // 0 = unlimited
	MaxHeight        int   `yaml:"max_height"` // 0 = unlimited
	DefaultWidth     int   `yaml:"default_width"`
	DefaultHeight    int   `yaml:"default_height"`
	RememberPosition *bool `yaml:"remember_position"` // nil = true
	AlwaysOnTop      bool  `yaml:"always_on_top"`
}

// Reliability tunes the retry/backoff policy applied to wrapped
// request handlers.
type Reliability struct {
	MaxRetries        int     `yaml:"max_retries"`
	BaseDelayMs       int     `yaml:"base_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
}

// Config is the effective taskdesk configuration.
type Config struct {
	// LogLevel is one of debug, info, warning, error.
	LogLevel string `yaml:"log_level"`

	// StateFile overrides the window-state file location. Empty means
	// the per-user default under the OS config directory.
	StateFile string `yaml:"state_file"`

	// DebounceMs is the window-state write coalescing delay.
	DebounceMs int `yaml:"debounce_ms"`

	WindowRoles map[string]WindowRole `yaml:"window_roles"`

	Reliability Reliability `yaml:"reliability"`

	// Components maps component name -> priority class
	// (critical, high, medium, low).
	Components map[string]string `yaml:"components"`

	// BackgroundLoadDelayMs paces sequential background component loads.
	BackgroundLoadDelayMs int `yaml:"background_load_delay_ms"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	remember := true
	return &Config{
		LogLevel:   "info",
		DebounceMs: DefaultDebounceMs,
		WindowRoles: map[string]WindowRole{
			"main": {
				MinWidth:         600,
				MinHeight:        400,
				DefaultWidth:     1200,
				DefaultHeight:    800,
				RememberPosition: &remember,
			},
			"quick-add": {
				MinWidth:      400,
				MinHeight:     120,
				DefaultWidth:  560,
				DefaultHeight: 160,
				AlwaysOnTop:   true,
			},
		},
		Reliability: Reliability{
			MaxRetries:        3,
			BaseDelayMs:       1000,
			BackoffMultiplier: 2,
			MaxDelayMs:        10000,
		},
		Components: map[string]string{
			"window-state":  "critical",
			"tray":          "high",
			"notifications": "medium",
			"export":        "low",
		},
		BackgroundLoadDelayMs: DefaultBackgroundDelayMs,
	}
}

// DefaultConfigPath returns the standard config file location.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return filepath.Join(dir, "taskdesk", "config.yaml"), nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	if c.DebounceMs < 0 {
		return &ValidationError{Path: "debounce_ms", Err: fmt.Errorf("debounce_ms must be >= 0")}
	}
	if c.BackgroundLoadDelayMs < 0 {
		return &ValidationError{Path: "background_load_delay_ms", Err: fmt.Errorf("background_load_delay_ms must be >= 0")}
	}
	if len(c.WindowRoles) == 0 {
		return &ValidationError{Path: "window_roles", Err: fmt.Errorf("window_roles must not be empty")}
	}
	for name, role := range c.WindowRoles {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Path: "window_roles", Err: fmt.Errorf("window_roles contains an empty role name")}
		}
		if err := validateRole(&role); err != nil {
			return &ValidationError{Path: "window_roles." + name, Err: err}
		}
	}
	if c.Reliability.MaxRetries < 1 {
		return &ValidationError{Path: "reliability.max_retries", Err: fmt.Errorf("max_retries must be >= 1")}
	}
	if c.Reliability.BaseDelayMs < 0 {
		return &ValidationError{Path: "reliability.base_delay_ms", Err: fmt.Errorf("base_delay_ms must be >= 0")}
	}
	if c.Reliability.BackoffMultiplier < 1 {
		return &ValidationError{Path: "reliability.backoff_multiplier", Err: fmt.Errorf("backoff_multiplier must be >= 1")}
	}
	if c.Reliability.MaxDelayMs < c.Reliability.BaseDelayMs {
		return &ValidationError{Path: "reliability.max_delay_ms", Err: fmt.Errorf("max_delay_ms must be >= base_delay_ms")}
	}
	for name, prio := range c.Components {
		if strings.TrimSpace(name) == "" {
			return &ValidationError{Path: "components", Err: fmt.Errorf("components contains an empty component name")}
		}
		if _, err := registry.ParsePriority(prio); err != nil {
			return &ValidationError{Path: "components." + name, Err: err}
		}
	}
	return nil
}

func validateRole(role *WindowRole) error {
	if role.MinWidth < 0 || role.MinHeight < 0 {
		return fmt.Errorf("min_width and min_height must be >= 0")
	}
	if role.MaxWidth < 0 || role.MaxHeight < 0 {
		return fmt.Errorf("max_width and max_height must be >= 0")
	}
	if role.MaxWidth > 0 && role.MinWidth > role.MaxWidth {
		return fmt.Errorf("min_width %d exceeds max_width %d", role.MinWidth, role.MaxWidth)
	}
	if role.MaxHeight > 0 && role.MinHeight > role.MaxHeight {
		return fmt.Errorf("min_height %d exceeds max_height %d", role.MinHeight, role.MaxHeight)
	}
	if role.DefaultWidth <= 0 || role.DefaultHeight <= 0 {
		return fmt.Errorf("default_width and default_height must be > 0")
	}
	return nil
}

// Debounce returns the configured debounce delay as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// BackgroundLoadDelay returns the pacing delay for background loads.
func (c *Config) BackgroundLoadDelay() time.Duration {
	return time.Duration(c.BackgroundLoadDelayMs) * time.Millisecond
}

// RolePolicies converts the window-role section into the form the
// window-state store consumes.
func (c *Config) RolePolicies() map[string]winstate.RoleConfig {
	out := make(map[string]winstate.RoleConfig, len(c.WindowRoles))
	for name, role := range c.WindowRoles {
		remember := true
		if role.RememberPosition != nil {
			remember = *role.RememberPosition
		}
		out[name] = winstate.RoleConfig{
			MinWidth:         role.MinWidth,
			MinHeight:        role.MinHeight,
			MaxWidth:         role.MaxWidth,
			MaxHeight:        role.MaxHeight,
			DefaultWidth:     role.DefaultWidth,
			DefaultHeight:    role.DefaultHeight,
			RememberPosition: remember,
			AlwaysOnTop:      role.AlwaysOnTop,
		}
	}
	return out
}

// RetryPolicy converts the reliability section into a wrapper policy.
func (c *Config) RetryPolicy() reliability.Policy {
	return reliability.Policy{
		MaxRetries:        c.Reliability.MaxRetries,
		BaseDelay:         time.Duration(c.Reliability.BaseDelayMs) * time.Millisecond,
		BackoffMultiplier: c.Reliability.BackoffMultiplier,
		MaxDelay:          time.Duration(c.Reliability.MaxDelayMs) * time.Millisecond,
	}
}

// ComponentPriorities converts the components section into parsed
// priority classes. Call Validate first; unknown classes fall back to
// low here rather than erroring twice.
func (c *Config) ComponentPriorities() map[string]registry.Priority {
	out := make(map[string]registry.Priority, len(c.Components))
	for name, prio := range c.Components {
		p, err := registry.ParsePriority(prio)
		if err != nil {
			p = registry.PriorityLow
		}
		out[name] = p
	}
	return out
}
