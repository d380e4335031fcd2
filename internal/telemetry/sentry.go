package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// CrashOptions configures crash reporting. An empty DSN disables it.
type CrashOptions struct {
	DSN         string
	Environment string
	Release     string
	SampleRate  float64
	Debug       bool
}

// InitCrashReporting sets up the global Sentry hub. The returned function
// flushes buffered events and must be deferred by main.
func InitCrashReporting(opts CrashOptions) (func(), error) {
	if opts.DSN == "" {
		return func() {}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Environment:      opts.Environment,
		Release:          opts.Release,
		SampleRate:       opts.SampleRate,
		Debug:            opts.Debug,
		AttachStacktrace: true,
	})
	if err != nil {
		return func() {}, fmt.Errorf("sentry init: %w", err)
	}
	return func() { sentry.Flush(5 * time.Second) }, nil
}
