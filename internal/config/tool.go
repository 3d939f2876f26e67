package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/velocitek/vtk-protocol/internal/units"
)

// DefaultConfigPath is the path to the canonical tool defaults file.
const DefaultConfigPath = "config/vtktool.defaults.json"

// Time formats accepted by time_format.
const (
	TimeFormatPython  = "python"
	TimeFormatRFC3339 = "rfc3339"
)

// ToolConfig holds the optional settings for vtktool. Every field is a
// pointer so a partial JSON file only overrides what it names; the Get*
// methods supply defaults for the rest.
type ToolConfig struct {
	// Input recognition
	InputExtension *string `json:"input_extension,omitempty"`

	// CSV formatting
	TimeFormat    *string `json:"time_format,omitempty"`    // "python" or "rfc3339"
	Timezone      *string `json:"timezone,omitempty"`       // tz database name
	SpeedUnits    *string `json:"speed_units,omitempty"`    // knots, mps, kph, mph
	FloatDecimals *int    `json:"float_decimals,omitempty"` // -1 for shortest round-trip

	// Chart output
	ChartTitle *string `json:"chart_title,omitempty"`
}

// EmptyToolConfig returns a ToolConfig with all fields set to nil.
func EmptyToolConfig() *ToolConfig {
	return &ToolConfig{}
}

// LoadToolConfig loads a ToolConfig from a JSON file.
// The file must have a .json extension and be at most 1MB.
func LoadToolConfig(path string) (*ToolConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyToolConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file cannot
// be loaded, intended for test setup.
func MustLoadDefaultConfig() *ToolConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadToolConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *ToolConfig) Validate() error {
	if c.InputExtension != nil {
		ext := *c.InputExtension
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("input_extension must start with '.', got %q", ext)
		}
	}

	if c.TimeFormat != nil {
		switch *c.TimeFormat {
		case TimeFormatPython, TimeFormatRFC3339:
		default:
			return fmt.Errorf("time_format must be %q or %q, got %q", TimeFormatPython, TimeFormatRFC3339, *c.TimeFormat)
		}
	}

	if c.Timezone != nil && !units.IsTimezoneValid(*c.Timezone) {
		return fmt.Errorf("timezone must be a tz database name such as UTC or Europe/London, got %q", *c.Timezone)
	}

	if c.SpeedUnits != nil && !units.IsValid(*c.SpeedUnits) {
		return fmt.Errorf("speed_units must be one of %s, got %q", units.GetValidUnitsString(), *c.SpeedUnits)
	}

	if c.FloatDecimals != nil {
		if *c.FloatDecimals < -1 || *c.FloatDecimals > 17 {
			return fmt.Errorf("float_decimals must be between -1 and 17, got %d", *c.FloatDecimals)
		}
	}

	return nil
}

// GetInputExtension returns the recognised input extension, lower-cased.
func (c *ToolConfig) GetInputExtension() string {
	if c.InputExtension == nil {
		return ".vtk"
	}
	return strings.ToLower(*c.InputExtension)
}

// GetTimeFormat returns the time_format value or the default.
func (c *ToolConfig) GetTimeFormat() string {
	if c.TimeFormat == nil {
		return TimeFormatPython
	}
	return *c.TimeFormat
}

// GetTimezone returns the timezone value or the default.
func (c *ToolConfig) GetTimezone() string {
	if c.Timezone == nil {
		return "UTC"
	}
	return *c.Timezone
}

// GetSpeedUnits returns the speed_units value or the default.
func (c *ToolConfig) GetSpeedUnits() string {
	if c.SpeedUnits == nil {
		return units.KNOTS
	}
	return *c.SpeedUnits
}

// GetFloatDecimals returns the float_decimals value or the default.
func (c *ToolConfig) GetFloatDecimals() int {
	if c.FloatDecimals == nil {
		return -1
	}
	return *c.FloatDecimals
}

// GetChartTitle returns the chart_title value or the default.
func (c *ToolConfig) GetChartTitle() string {
	if c.ChartTitle == nil || *c.ChartTitle == "" {
		return "VTK track"
	}
	return *c.ChartTitle
}
