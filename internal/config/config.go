// Package config loads runtime settings for the pH estimator.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Prefilter names accepted in Config.Prefilter.
const (
	PrefilterNone      = "none"
	PrefilterGaussian  = "gaussian"
	PrefilterMedian    = "median"
	PrefilterBilateral = "bilateral"
)

// Storage selects where the manual calibration curve is persisted.
type Storage struct {
	Backend string `json:"backend"` // prefs, file, sqlite or memory
	Path    string `json:"path,omitempty"`
}

// Config holds every tunable of the estimator. Fields omitted from a config file
// keep the values from Default.
type Config struct {
	ROISize         int     `json:"roi_size"`
	WhiteBalance    bool    `json:"white_balance"`
	MinSaturation   float64 `json:"min_saturation"`
	MinValue        float64 `json:"min_value"`
	MinAlpha        int     `json:"min_alpha"`
	MinPixels       int     `json:"min_pixels"`
	ReportMinPixels int     `json:"report_min_pixels"`
	TickInterval    string  `json:"tick_interval"` // duration string like "150ms"

	Storage    Storage  `json:"storage"`
	StorageKey string   `json:"storage_key"`
	AssetsDir  string   `json:"assets_dir,omitempty"`
	AssetsURL  string   `json:"assets_url,omitempty"`
	Presets    []string `json:"presets,omitempty"`

	CameraDevice    int                    `json:"camera_device"`
	Prefilter       string                 `json:"prefilter"`
	PrefilterParams map[string]interface{} `json:"prefilter_params,omitempty"` // merged over the filter's defaults
	Diagnostics     bool                   `json:"diagnostics"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		ROISize:         64,
		WhiteBalance:    true,
		MinSaturation:   0.18,
		MinValue:        0.18,
		MinAlpha:        128,
		MinPixels:       5,
		ReportMinPixels: 20,
		TickInterval:    "150ms",
		Storage:         Storage{Backend: "file"},
		StorageKey:      "ph_manual_calibration_v1",
		Presets:         []string{"red-cabbage"},
		CameraDevice:    0,
		Prefilter:       PrefilterNone,
	}
}

// Load reads a JSON config file and merges it over Default.
// The file must have a .json extension and be under 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.ROISize < 24 || c.ROISize > 256 {
		return fmt.Errorf("roi_size must be between 24 and 256, got %d", c.ROISize)
	}
	if c.MinSaturation < 0 || c.MinSaturation > 1 {
		return fmt.Errorf("min_saturation must be between 0 and 1, got %f", c.MinSaturation)
	}
	if c.MinValue < 0 || c.MinValue > 1 {
		return fmt.Errorf("min_value must be between 0 and 1, got %f", c.MinValue)
	}
	if c.MinAlpha < 0 || c.MinAlpha > 255 {
		return fmt.Errorf("min_alpha must be between 0 and 255, got %d", c.MinAlpha)
	}
	if c.MinPixels < 1 {
		return fmt.Errorf("min_pixels must be at least 1, got %d", c.MinPixels)
	}
	if c.ReportMinPixels < c.MinPixels {
		return fmt.Errorf("report_min_pixels (%d) must not be below min_pixels (%d)", c.ReportMinPixels, c.MinPixels)
	}
	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			return fmt.Errorf("invalid tick_interval '%s': %w", c.TickInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
		}
	}

	switch c.Storage.Backend {
	case "prefs", "file", "memory":
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	if c.StorageKey == "" {
		return fmt.Errorf("storage_key must not be empty")
	}

	if c.CameraDevice < 0 {
		return fmt.Errorf("camera_device must be non-negative, got %d", c.CameraDevice)
	}
	switch c.Prefilter {
	case "", PrefilterNone, PrefilterGaussian, PrefilterMedian, PrefilterBilateral:
	default:
		return fmt.Errorf("unknown prefilter %q", c.Prefilter)
	}
	if (c.Prefilter == "" || c.Prefilter == PrefilterNone) && len(c.PrefilterParams) > 0 {
		return fmt.Errorf("prefilter_params set without a prefilter")
	}
	return nil
}

// GetTickInterval returns TickInterval as a time.Duration.
func (c *Config) GetTickInterval() time.Duration {
	if c.TickInterval == "" {
		return 150 * time.Millisecond // default
	}
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil || d <= 0 {
		return 150 * time.Millisecond // default on parse error
	}
	return d
}
