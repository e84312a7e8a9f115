package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// ValidationError carries the YAML path of the offending key so error
// messages point at the file location an operator can fix.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("config: %s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Load reads the configuration from the standard location. A missing
// file yields the defaults; a malformed or invalid file is an error.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads and validates the configuration at path, filling
// unset sections with defaults.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := decodeStrictYAML(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return nil
}

// applyDefaults fills sections the file left unset. A file that names
// a section owns it entirely; merging happens per-section, not per-key,
// except for the reliability knobs which default individually.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.DebounceMs == 0 {
		cfg.DebounceMs = def.DebounceMs
	}
	if cfg.BackgroundLoadDelayMs == 0 {
		cfg.BackgroundLoadDelayMs = def.BackgroundLoadDelayMs
	}
	if len(cfg.WindowRoles) == 0 {
		cfg.WindowRoles = def.WindowRoles
	}
	if len(cfg.Components) == 0 {
		cfg.Components = def.Components
	}
	if cfg.Reliability.MaxRetries == 0 {
		cfg.Reliability.MaxRetries = def.Reliability.MaxRetries
	}
	if cfg.Reliability.BaseDelayMs == 0 {
		cfg.Reliability.BaseDelayMs = def.Reliability.BaseDelayMs
	}
	if cfg.Reliability.BackoffMultiplier == 0 {
		cfg.Reliability.BackoffMultiplier = def.Reliability.BackoffMultiplier
	}
	if cfg.Reliability.MaxDelayMs == 0 {
		cfg.Reliability.MaxDelayMs = def.Reliability.MaxDelayMs
	}
}
