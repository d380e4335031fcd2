// Package main is the interactive OmniStep host: an SDL window with a
// top-down view, keyboard, mouse and game controller input.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/Faultbox/omnistep/internal/config"
	"github.com/Faultbox/omnistep/internal/logger"
	"github.com/Faultbox/omnistep/internal/telemetry"
)

var (
	flagCSV  = flag.String("csv", "", "Write recorded keyframes to this CSV file on exit")
	flagPlot = flag.String("plot", "", "Write a top-down PNG of the recorded path on exit")
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Named("omnistep")

	for _, note := range cfg.Validate() {
		log.Warn("config adjusted", zap.String("note", note))
	}
	if path := config.WriteConfigPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			log.Error("failed to write config", zap.Error(err))
			os.Exit(1)
		}
		log.Info("config written", zap.String("path", path))
		return
	}

	flush, err := telemetry.InitCrashReporting(telemetry.CrashOptions{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		SampleRate:  cfg.Sentry.SampleRate,
		Debug:       cfg.Sentry.Debug,
	})
	if err != nil {
		log.Warn("crash reporting disabled", zap.Error(err))
	}
	defer flush()
	defer sentry.Recover()

	log.Info("=== OmniStep ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	a, err := newApp(cfg)
	if err != nil {
		log.Error("failed to start", zap.Error(err))
		os.Exit(1)
	}

	runErr := a.run()
	a.saveRecording(*flagCSV, *flagPlot)
	a.close()
	if runErr != nil {
		log.Error("session ended", zap.Error(runErr))
		os.Exit(1)
	}

	log.Info("closed normally")
}
