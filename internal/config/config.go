// Package config handles OmniStep configuration loading and management.
package config

import (
	"github.com/Faultbox/omnistep/internal/engine/clock"
	"github.com/Faultbox/omnistep/internal/engine/input"
	"github.com/Faultbox/omnistep/internal/engine/motion"
	"github.com/Faultbox/omnistep/internal/engine/recorder"
	"github.com/Faultbox/omnistep/internal/logger"
	"github.com/Faultbox/omnistep/internal/remote"
	"github.com/Faultbox/omnistep/internal/session"
)

// Config holds all settings.
type Config struct {
	Motion   motion.Config   `yaml:"motion"`
	Input    input.Config    `yaml:"input"`
	Clock    clock.Config    `yaml:"clock"`
	Recorder recorder.Config `yaml:"recorder"`
	Remote   remote.Config   `yaml:"remote"`
	Scene    SceneConfig     `yaml:"scene"`
	Window   WindowConfig    `yaml:"window"`
	Logging  logger.Config   `yaml:"logging"`
	Sentry   SentryConfig    `yaml:"sentry"`
}

// SceneConfig selects the scene file.
type SceneConfig struct {
	Path string `yaml:"path"`
	// FullEvaluation rebuilds dynamic colliders from their deformed geometry.
	FullEvaluation bool `yaml:"full_evaluation"`
}

// WindowConfig holds display settings for the interactive host.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	// PixelsPerMeter is the zoom of the top-down view.
	PixelsPerMeter float32 `yaml:"pixels_per_meter"`
	// FocalLength is the lens the look sensitivity is scaled against, in mm.
	FocalLength float32 `yaml:"focal_length"`
}

// SentryConfig holds crash reporting settings. An empty DSN disables it.
type SentryConfig struct {
	DSN         string  `yaml:"dsn"`
	Environment string  `yaml:"environment"`
	SampleRate  float64 `yaml:"sample_rate"`
	Debug       bool    `yaml:"debug"`
}

// Default returns a Config with the stock values.
func Default() *Config {
	return &Config{
		Motion:   motion.DefaultConfig(),
		Input:    input.DefaultConfig(),
		Clock:    clock.DefaultConfig(),
		Recorder: recorder.DefaultConfig(),
		Remote:   remote.DefaultConfig(),
		Scene: SceneConfig{
			Path: "scenes/courtyard.yaml",
		},
		Window: WindowConfig{
			Title:          "OmniStep",
			Width:          1280,
			Height:         720,
			Fullscreen:     false,
			VSync:          true,
			PixelsPerMeter: 24,
			FocalLength:    50,
		},
		Logging: logger.DefaultConfig(),
		Sentry: SentryConfig{
			Environment: "development",
			SampleRate:  1,
		},
	}
}

// Session returns the part of the config a session is built from.
func (c *Config) Session() session.Config {
	return session.Config{
		Motion:         c.Motion,
		Input:          c.Input,
		Clock:          c.Clock,
		Recorder:       c.Recorder,
		FullEvaluation: c.Scene.FullEvaluation,
	}
}
