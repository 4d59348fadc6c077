package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for the auto-overlap tuning
// parameters. Fields are pointers so a partial JSON file only overrides what
// it names; the Get* methods supply defaults for everything else.
type TuningConfig struct {
	// Monitor optimization params
	MonitorThreshold *float64 `json:"monitor_threshold,omitempty"` // ADC counts
	CoarseStepPs     *float64 `json:"coarse_step_ps,omitempty"`
	MaxAttempts      *int     `json:"max_attempts,omitempty"`

	// Acquisition params
	AverageCount    *int    `json:"average_count,omitempty"`
	BaselineSamples *int    `json:"baseline_samples,omitempty"`
	RefreshInterval *string `json:"refresh_interval,omitempty"` // duration string like "100ms"

	// Error-curve scan params
	FineStepPs      *float64 `json:"fine_step_ps,omitempty"`
	ScanHalfwidthPs *float64 `json:"scan_halfwidth_ps,omitempty"`

	// Delay stage params
	SearchLowPs  *float64 `json:"search_low_ps,omitempty"`
	SearchHighPs *float64 `json:"search_high_ps,omitempty"`
	BounceCount  *int     `json:"bounce_count,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from a file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
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

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.MonitorThreshold != nil && *c.MonitorThreshold <= 0 {
		return fmt.Errorf("monitor_threshold must be positive, got %f", *c.MonitorThreshold)
	}

	if c.CoarseStepPs != nil && *c.CoarseStepPs <= 0 {
		return fmt.Errorf("coarse_step_ps must be positive, got %f", *c.CoarseStepPs)
	}

	if c.FineStepPs != nil && *c.FineStepPs <= 0 {
		return fmt.Errorf("fine_step_ps must be positive, got %f", *c.FineStepPs)
	}

	if c.ScanHalfwidthPs != nil && *c.ScanHalfwidthPs <= 0 {
		return fmt.Errorf("scan_halfwidth_ps must be positive, got %f", *c.ScanHalfwidthPs)
	}

	if c.MaxAttempts != nil && *c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", *c.MaxAttempts)
	}

	if c.AverageCount != nil && *c.AverageCount < 1 {
		return fmt.Errorf("average_count must be at least 1, got %d", *c.AverageCount)
	}

	if c.BaselineSamples != nil && *c.BaselineSamples < 1 {
		return fmt.Errorf("baseline_samples must be at least 1, got %d", *c.BaselineSamples)
	}

	// Validate RefreshInterval can be parsed if set
	if c.RefreshInterval != nil && *c.RefreshInterval != "" {
		if _, err := time.ParseDuration(*c.RefreshInterval); err != nil {
			return fmt.Errorf("invalid refresh_interval '%s': %w", *c.RefreshInterval, err)
		}
	}

	// Search bounds must describe a non-empty range when both are present
	if c.SearchLowPs != nil && c.SearchHighPs != nil {
		if *c.SearchLowPs >= *c.SearchHighPs {
			return fmt.Errorf("search_low_ps (%f) must be below search_high_ps (%f)",
				*c.SearchLowPs, *c.SearchHighPs)
		}
	}

	if c.BounceCount != nil && *c.BounceCount < 1 {
		return fmt.Errorf("bounce_count must be at least 1, got %d", *c.BounceCount)
	}

	return nil
}

// GetMonitorThreshold returns the monitor_threshold value or the default.
func (c *TuningConfig) GetMonitorThreshold() float64 {
	if c.MonitorThreshold == nil {
		return 35000 // ADC counts
	}
	return *c.MonitorThreshold
}

// GetCoarseStepPs returns the coarse_step_ps value or the default.
func (c *TuningConfig) GetCoarseStepPs() float64 {
	if c.CoarseStepPs == nil {
		return 1.0
	}
	return *c.CoarseStepPs
}

// GetFineStepPs returns the fine_step_ps value or the default.
func (c *TuningConfig) GetFineStepPs() float64 {
	if c.FineStepPs == nil {
		return 0.01
	}
	return *c.FineStepPs
}

// GetScanHalfwidthPs returns the scan_halfwidth_ps value or the default.
func (c *TuningConfig) GetScanHalfwidthPs() float64 {
	if c.ScanHalfwidthPs == nil {
		return 1.0
	}
	return *c.ScanHalfwidthPs
}

// GetMaxAttempts returns the max_attempts value or the default.
func (c *TuningConfig) GetMaxAttempts() int {
	if c.MaxAttempts == nil {
		return 3 // should only take one try
	}
	return *c.MaxAttempts
}

// GetAverageCount returns the average_count value or the default.
func (c *TuningConfig) GetAverageCount() int {
	if c.AverageCount == nil {
		return 20
	}
	return *c.AverageCount
}

// GetBaselineSamples returns the baseline_samples value or the default.
func (c *TuningConfig) GetBaselineSamples() int {
	if c.BaselineSamples == nil {
		return 10
	}
	return *c.BaselineSamples
}

// GetRefreshInterval parses and returns the RefreshInterval as a time.Duration.
// The digitizer refreshes its waveform records at 10Hz.
func (c *TuningConfig) GetRefreshInterval() time.Duration {
	if c.RefreshInterval == nil || *c.RefreshInterval == "" {
		return 100 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.RefreshInterval)
	if err != nil {
		return 100 * time.Millisecond // default on parse error
	}
	return d
}

// GetSearchLowPs returns the search_low_ps value or the default.
func (c *TuningConfig) GetSearchLowPs() float64 {
	if c.SearchLowPs == nil {
		return -5.0
	}
	return *c.SearchLowPs
}

// GetSearchHighPs returns the search_high_ps value or the default.
func (c *TuningConfig) GetSearchHighPs() float64 {
	if c.SearchHighPs == nil {
		return 5.0
	}
	return *c.SearchHighPs
}

// GetBounceCount returns the bounce_count value or the default.
func (c *TuningConfig) GetBounceCount() int {
	if c.BounceCount == nil {
		return 4
	}
	return *c.BounceCount
}
