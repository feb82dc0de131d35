// Package config loads optional JSON tuning files for the vision pipeline.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/beltmetrics/conveyor.report/internal/vision"
)

// TuningConfig is the root tuning document. All fields are optional;
// omitted fields keep the pipeline defaults, so partial configs are safe.
type TuningConfig struct {
	// Segmenter params
	LearningRate *float64 `json:"learning_rate,omitempty"`
	VarThreshold *float64 `json:"var_threshold,omitempty"`
	MinVariance  *float64 `json:"min_variance,omitempty"`
	BlurSigma    *float64 `json:"blur_sigma,omitempty"`
	WarmupFrames *int     `json:"warmup_frames,omitempty"`

	// Mask cleaner params
	KernelRadius *int `json:"kernel_radius,omitempty"`

	// Blob extractor params
	MinArea *int `json:"min_area,omitempty"`

	// Tracker params
	MaxMatchDistance *float64 `json:"max_match_distance,omitempty"`
	MaxMissedFrames  *int     `json:"max_missed_frames,omitempty"`

	// Counter params
	LinePosition *float64 `json:"line_position,omitempty"`
	Direction    *string  `json:"direction,omitempty"`

	// Emitter params
	EmitEvery         *int `json:"emit_every,omitempty"`
	EmitMinIntervalMS *int `json:"emit_min_interval_ms,omitempty"`
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and stay under the size cap.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &TuningConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges for any fields that are set. Full range checking
// happens again in vision.Config.Validate; this catches obvious mistakes at
// load time with file-oriented messages.
func (c *TuningConfig) Validate() error {
	if c.LearningRate != nil && (*c.LearningRate <= 0 || *c.LearningRate > 1) {
		return fmt.Errorf("learning_rate must be in (0,1], got %f", *c.LearningRate)
	}
	if c.LinePosition != nil && (*c.LinePosition < 0 || *c.LinePosition > 1) {
		return fmt.Errorf("line_position must be in [0,1], got %f", *c.LinePosition)
	}
	if c.MinArea != nil && *c.MinArea < 1 {
		return fmt.Errorf("min_area must be positive, got %d", *c.MinArea)
	}
	if c.MaxMatchDistance != nil && *c.MaxMatchDistance <= 0 {
		return fmt.Errorf("max_match_distance must be positive, got %f", *c.MaxMatchDistance)
	}
	if c.MaxMissedFrames != nil && *c.MaxMissedFrames < 0 {
		return fmt.Errorf("max_missed_frames must be non-negative, got %d", *c.MaxMissedFrames)
	}
	if c.KernelRadius != nil && *c.KernelRadius < 0 {
		return fmt.Errorf("kernel_radius must be non-negative, got %d", *c.KernelRadius)
	}
	if c.EmitMinIntervalMS != nil && *c.EmitMinIntervalMS < 0 {
		return fmt.Errorf("emit_min_interval_ms must be non-negative, got %d", *c.EmitMinIntervalMS)
	}
	if c.Direction != nil {
		switch vision.Direction(*c.Direction) {
		case vision.DirectionUp, vision.DirectionDown, vision.DirectionBoth:
		default:
			return fmt.Errorf("direction must be up, down, or both, got %q", *c.Direction)
		}
	}
	return nil
}

// Apply overlays the set fields onto a pipeline configuration.
func (c *TuningConfig) Apply(cfg *vision.Config) {
	if c.LearningRate != nil {
		cfg.Background.LearningRate = *c.LearningRate
	}
	if c.VarThreshold != nil {
		cfg.Background.VarThreshold = *c.VarThreshold
	}
	if c.MinVariance != nil {
		cfg.Background.MinVariance = *c.MinVariance
	}
	if c.BlurSigma != nil {
		cfg.Background.BlurSigma = *c.BlurSigma
	}
	if c.WarmupFrames != nil {
		cfg.Background.WarmupFrames = *c.WarmupFrames
	}
	if c.KernelRadius != nil {
		cfg.KernelRadius = *c.KernelRadius
	}
	if c.MinArea != nil {
		cfg.MinArea = *c.MinArea
	}
	if c.MaxMatchDistance != nil {
		cfg.Tracker.MaxMatchDistance = *c.MaxMatchDistance
	}
	if c.MaxMissedFrames != nil {
		cfg.Tracker.MaxMissedFrames = *c.MaxMissedFrames
	}
	if c.LinePosition != nil {
		cfg.LinePosition = *c.LinePosition
	}
	if c.Direction != nil {
		cfg.Direction = vision.Direction(*c.Direction)
	}
	if c.EmitEvery != nil {
		cfg.EmitEvery = *c.EmitEvery
	}
	if c.EmitMinIntervalMS != nil {
		cfg.MinEmitInterval = time.Duration(*c.EmitMinIntervalMS) * time.Millisecond
	}
}
