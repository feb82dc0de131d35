package vision

import (
	"errors"
	"testing"
	"time"
)

func TestValidateFillsDefaults(t *testing.T) {
	var cfg Config
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero config should validate: %v", err)
	}
	if cfg.LinePosition != DefaultLinePosition {
		t.Errorf("LinePosition = %v, want %v", cfg.LinePosition, DefaultLinePosition)
	}
	if cfg.MinArea != DefaultMinArea {
		t.Errorf("MinArea = %d, want %d", cfg.MinArea, DefaultMinArea)
	}
	if cfg.Direction != DirectionBoth {
		t.Errorf("Direction = %q, want %q", cfg.Direction, DirectionBoth)
	}
	if cfg.KernelRadius != DefaultKernelRadius {
		t.Errorf("KernelRadius = %d, want %d", cfg.KernelRadius, DefaultKernelRadius)
	}
	if cfg.EmitEvery != DefaultEmitEvery {
		t.Errorf("EmitEvery = %d, want %d", cfg.EmitEvery, DefaultEmitEvery)
	}
	if cfg.Background.LearningRate != DefaultLearningRate {
		t.Errorf("LearningRate = %v, want %v", cfg.Background.LearningRate, DefaultLearningRate)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"line position above 1", func(c *Config) { c.LinePosition = 1.5 }},
		{"line position negative", func(c *Config) { c.LinePosition = -0.1 }},
		{"negative min area", func(c *Config) { c.MinArea = -5 }},
		{"unknown direction", func(c *Config) { c.Direction = "sideways" }},
		{"learning rate above 1", func(c *Config) { c.Background.LearningRate = 1.5 }},
		{"negative variance threshold", func(c *Config) { c.Background.VarThreshold = -1 }},
		{"negative match distance", func(c *Config) { c.Tracker.MaxMatchDistance = -1 }},
		{"negative missed frames", func(c *Config) { c.Tracker.MaxMissedFrames = -1 }},
		{"negative kernel radius", func(c *Config) { c.KernelRadius = -1 }},
		{"negative min emit interval", func(c *Config) { c.MinEmitInterval = -time.Second }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrConfig) {
				t.Errorf("error %v does not wrap ErrConfig", err)
			}
		})
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}
