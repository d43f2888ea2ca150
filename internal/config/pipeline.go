// Package config loads the pipeline configuration from JSON. The
// configuration replaces the ad hoc "current subject/session" globals of
// interactive workflows with an explicit struct threaded through calls.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PipelineConfig is the root configuration for a preprocessing run.
// Fields omitted from the JSON file retain their defaults via the Get*
// accessors, so partial configs are safe.
type PipelineConfig struct {
	// Dataset identity
	Subject *string `json:"subject,omitempty"`
	Session *string `json:"session,omitempty"`
	Task    *string `json:"task,omitempty"`

	// Input files
	RecordingPath *string `json:"recording_path,omitempty"` // EDF recording
	ChannelsPath  *string `json:"channels_path,omitempty"`  // channels TSV sidecar
	EventsPath    *string `json:"events_path,omitempty"`    // events TSV

	// High-gamma extraction params
	NotchFreqs   []float64 `json:"notch_freqs,omitempty"` // line frequencies, Hz
	CAR          *bool     `json:"car,omitempty"`
	BandPreset   *string   `json:"band_preset,omitempty"`
	LogTransform *bool     `json:"log_transform,omitempty"`
	ZScore       *bool     `json:"do_zscore,omitempty"`
	OutputRate   *float64  `json:"output_rate,omitempty"` // Hz

	// Epoching params
	EpochTmin *float64 `json:"epoch_tmin,omitempty"` // seconds relative to onset
	EpochTmax *float64 `json:"epoch_tmax,omitempty"`
	Labels    []int    `json:"labels,omitempty"` // event labels to epoch; empty = all

	// Output
	OutputDir *string `json:"output_dir,omitempty"`
}

// LoadPipelineConfig loads a PipelineConfig from a JSON file. The file
// must have a .json extension and stay under the max file size.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
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

	cfg := &PipelineConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *PipelineConfig) Validate() error {
	if c.OutputRate != nil && *c.OutputRate <= 0 {
		return fmt.Errorf("output_rate must be positive, got %g", *c.OutputRate)
	}
	for _, f := range c.NotchFreqs {
		if f <= 0 {
			return fmt.Errorf("notch_freqs must be positive, got %g", f)
		}
	}
	if c.EpochTmin != nil && c.EpochTmax != nil && *c.EpochTmax <= *c.EpochTmin {
		return fmt.Errorf("epoch window [%g, %g] is empty", *c.EpochTmin, *c.EpochTmax)
	}
	return nil
}

// GetSubject returns the subject identifier or the default.
func (c *PipelineConfig) GetSubject() string {
	if c.Subject == nil {
		return "01"
	}
	return *c.Subject
}

// GetNotchFreqs returns the line frequencies to notch or the default.
func (c *PipelineConfig) GetNotchFreqs() []float64 {
	if c.NotchFreqs == nil {
		return []float64{60} // North American mains
	}
	return c.NotchFreqs
}

// GetCAR returns the common-average-reference flag or the default.
func (c *PipelineConfig) GetCAR() bool {
	if c.CAR == nil {
		return true
	}
	return *c.CAR
}

// GetBandPreset returns the band preset name or the default.
func (c *PipelineConfig) GetBandPreset() string {
	if c.BandPreset == nil {
		return "high_gamma"
	}
	return *c.BandPreset
}

// GetLogTransform returns the log-transform flag or the default.
func (c *PipelineConfig) GetLogTransform() bool {
	if c.LogTransform == nil {
		return false
	}
	return *c.LogTransform
}

// GetZScore returns the z-score flag or the default.
func (c *PipelineConfig) GetZScore() bool {
	if c.ZScore == nil {
		return true
	}
	return *c.ZScore
}

// GetOutputRate returns the output sample rate or 0, meaning keep the
// input rate.
func (c *PipelineConfig) GetOutputRate() float64 {
	if c.OutputRate == nil {
		return 0
	}
	return *c.OutputRate
}

// GetEpochTmin returns the epoch window start or the default.
func (c *PipelineConfig) GetEpochTmin() float64 {
	if c.EpochTmin == nil {
		return -0.5
	}
	return *c.EpochTmin
}

// GetEpochTmax returns the epoch window end or the default.
func (c *PipelineConfig) GetEpochTmax() float64 {
	if c.EpochTmax == nil {
		return 1.0
	}
	return *c.EpochTmax
}

// GetOutputDir returns the output directory or the default.
func (c *PipelineConfig) GetOutputDir() string {
	if c.OutputDir == nil {
		return "out"
	}
	return *c.OutputDir
}
