package vision

import (
	"fmt"
	"time"
)

// Config holds every tunable for one pipeline run. Zero values fall back to
// defaults in Validate; out-of-range values are rejected before any frame is
// processed.
type Config struct {
	// LinePosition is the counting line as a fraction of frame height.
	LinePosition float64

	// MinArea is the minimum blob area in pixels². The sole noise-floor
	// control exposed to callers.
	MinArea int

	// Direction selects which crossings count.
	Direction Direction

	Background BackgroundParams
	Tracker    TrackerConfig

	// KernelRadius is the structuring-element radius for mask cleaning.
	KernelRadius int

	// EmitEvery is the progress cadence in frames.
	EmitEvery int

	// MinEmitInterval optionally rate-limits progress to at most one
	// update per interval of wall-clock time. Zero disables the throttle.
	MinEmitInterval time.Duration
}

// DefaultConfig returns the configuration the original belt deployments run
// with: line at mid-frame, 1500 px² noise floor, either-direction counting.
func DefaultConfig() Config {
	return Config{
		LinePosition: DefaultLinePosition,
		MinArea:      DefaultMinArea,
		Direction:    DirectionBoth,
		Background:   DefaultBackgroundParams(),
		Tracker:      DefaultTrackerConfig(),
		KernelRadius: DefaultKernelRadius,
		EmitEvery:    DefaultEmitEvery,
	}
}

// Validate checks ranges and fills defaults for unset fields. Every
// violation wraps ErrConfig.
func (c *Config) Validate() error {
	if c.LinePosition == 0 {
		c.LinePosition = DefaultLinePosition
	}
	if c.LinePosition < 0 || c.LinePosition > 1 {
		return fmt.Errorf("%w: line position %v outside [0,1]", ErrConfig, c.LinePosition)
	}
	if c.MinArea == 0 {
		c.MinArea = DefaultMinArea
	}
	if c.MinArea < 1 {
		return fmt.Errorf("%w: min area %d must be positive", ErrConfig, c.MinArea)
	}
	switch c.Direction {
	case "":
		c.Direction = DirectionBoth
	case DirectionDown, DirectionUp, DirectionBoth:
	default:
		return fmt.Errorf("%w: unknown direction %q", ErrConfig, c.Direction)
	}
	if c.Background.LearningRate == 0 {
		c.Background.LearningRate = DefaultLearningRate
	}
	if c.Background.LearningRate < 0 || c.Background.LearningRate > 1 {
		return fmt.Errorf("%w: learning rate %v outside (0,1]", ErrConfig, c.Background.LearningRate)
	}
	if c.Background.VarThreshold < 0 {
		return fmt.Errorf("%w: variance threshold %v must be non-negative", ErrConfig, c.Background.VarThreshold)
	}
	if c.Tracker.MaxMatchDistance < 0 {
		return fmt.Errorf("%w: max match distance %v must be non-negative", ErrConfig, c.Tracker.MaxMatchDistance)
	}
	if c.Tracker.MaxMissedFrames < 0 {
		return fmt.Errorf("%w: max missed frames %d must be non-negative", ErrConfig, c.Tracker.MaxMissedFrames)
	}
	if c.KernelRadius < 0 {
		return fmt.Errorf("%w: kernel radius %d must be non-negative", ErrConfig, c.KernelRadius)
	}
	if c.KernelRadius == 0 {
		c.KernelRadius = DefaultKernelRadius
	}
	if c.EmitEvery <= 0 {
		c.EmitEvery = DefaultEmitEvery
	}
	if c.MinEmitInterval < 0 {
		return fmt.Errorf("%w: min emit interval %v must be non-negative", ErrConfig, c.MinEmitInterval)
	}
	return nil
}
