// Package logger builds the process-wide zap logger: console output plus
// an optional rotating file.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the global logger instance. It is nil until Init.
var Log *zap.Logger

// Sugar is the sugared logger for convenient logging.
var Sugar *zap.SugaredLogger

// components holds the per-component levels set by Init.
var components map[string]zapcore.Level

// Config holds logging settings.
type Config struct {
	Level string `yaml:"level"`
	// File enables a rotating JSON log next to the console output.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
	// Quiet disables console output.
	Quiet bool `yaml:"quiet"`
	// Components raises the level of single components, e.g.
	// {spatial: warn}. A level below Level has no effect.
	Components map[string]string `yaml:"components,omitempty"`
}

// DefaultConfig returns info level console logging with rotation settings
// for when a file is configured.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		MaxSizeMB:  50,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Compress:   true,
	}
}

// Init replaces the global loggers.
func Init(cfg Config) error {
	log, err := New(cfg)
	if err != nil {
		return err
	}
	levels, err := componentLevels(cfg.Components)
	if err != nil {
		return err
	}
	Log, Sugar, components = log, log.Sugar(), levels
	return nil
}

// New builds a logger without touching the globals. With neither console
// nor file output it discards everything.
func New(cfg Config) (*zap.Logger, error) {
	lvl, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var cores []zapcore.Core

	// Console output
	if !cfg.Quiet {
		enc := encoderConfig()
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(enc),
			zapcore.AddSync(os.Stdout),
			lvl,
		))
	}

	// File output (if configured)
	if cfg.File != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
			LocalTime:  true, // Use local time in rotated filename
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig()),
			zapcore.AddSync(fileWriter),
			lvl,
		))
	}

	if len(cores) == 0 {
		return zap.NewNop(), nil
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "component",
		MessageKey:       "msg",
		CallerKey:        "caller",
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
}

// parseLevel converts a string level to zapcore.Level. Empty means info.
func parseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return lvl, fmt.Errorf("logger: %w", err)
	}
	return lvl, nil
}

func componentLevels(in map[string]string) (map[string]zapcore.Level, error) {
	out := make(map[string]zapcore.Level, len(in))
	for name, level := range in {
		lvl, err := parseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", name, err)
		}
		out[name] = lvl
	}
	return out, nil
}

// Named returns a child of the global logger for one component, or a
// no-op logger before Init.
func Named(component string) *zap.Logger {
	if Log == nil {
		return zap.NewNop()
	}
	log := Log.Named(component)
	if lvl, ok := components[component]; ok && lvl > Log.Level() {
		log = log.WithOptions(zap.IncreaseLevel(lvl))
	}
	return log
}

// Sync flushes any buffered log entries.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
