// Package config holds the simulator run configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/xyproto/env/v2"
)

// Config holds the parameters of one simulation run.
type Config struct {
	// Lanes is the number of active data paths (1, 2 or 4). Default: 4.
	Lanes int `json:"lanes"`

	// LogLevel is the logrus level name for diagnostics. Default: "warning".
	LogLevel string `json:"log_level"`

	// CoalesceWarnings keeps only the first warning of a kind per source
	// line. Default: true.
	CoalesceWarnings bool `json:"coalesce_warnings"`

	// UnalignedPenalty is the stall cost in cycles of an allowed unaligned
	// access. Default: 1.
	UnalignedPenalty uint64 `json:"unaligned_penalty"`

	// InitMode makes data memory writes ignore the lane-enable mask, for
	// loading initial memory images. Default: false.
	InitMode bool `json:"init_mode"`

	// DumpOnError attaches the architectural state dump to fatal errors.
	// Default: true.
	DumpOnError bool `json:"dump_on_error"`

	// MaxInstructions stops the run after this many bundles. 0 means no
	// limit. Default: 0.
	MaxInstructions uint64 `json:"max_instructions"`
}

// Environment variables read by ApplyEnv.
const (
	EnvLanes            = "DPSIM_LANES"
	EnvLogLevel         = "DPSIM_LOG_LEVEL"
	EnvCoalesce         = "DPSIM_COALESCE"
	EnvInitMode         = "DPSIM_INIT_MODE"
	EnvUnalignedPenalty = "DPSIM_UNALIGNED_PENALTY"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Lanes:            4,
		LogLevel:         "warning",
		CoalesceWarnings: true,
		UnalignedPenalty: 1,
		InitMode:         false,
		DumpOnError:      true,
		MaxInstructions:  0,
	}
}

// Load reads a configuration from a JSON file. Fields missing from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	c := Default()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return c, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides fields from DPSIM_* environment variables that are set.
func (c *Config) ApplyEnv() error {
	if env.Has(EnvLanes) {
		c.Lanes = env.Int(EnvLanes, c.Lanes)
	}
	if env.Has(EnvLogLevel) {
		c.LogLevel = env.Str(EnvLogLevel, c.LogLevel)
	}
	if env.Has(EnvCoalesce) {
		c.CoalesceWarnings = env.Bool(EnvCoalesce)
	}
	if env.Has(EnvInitMode) {
		c.InitMode = env.Bool(EnvInitMode)
	}
	if env.Has(EnvUnalignedPenalty) {
		n := env.Int(EnvUnalignedPenalty, int(c.UnalignedPenalty))
		if n < 0 {
			return fmt.Errorf("%s must not be negative, got %d", EnvUnalignedPenalty, n)
		}
		c.UnalignedPenalty = uint64(n)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Lanes {
	case 1, 2, 4:
	default:
		return fmt.Errorf("lanes must be 1, 2 or 4, got %d", c.Lanes)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (logrus.Level, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.WarnLevel, fmt.Errorf("invalid log_level: %w", err)
	}
	return level, nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
