package telemetry

import "testing"

func TestCrashReportingDisabled(t *testing.T) {
	flush, err := InitCrashReporting(CrashOptions{})
	if err != nil {
		t.Fatalf("expected no error without a DSN, got %v", err)
	}
	flush()
}

func TestCrashReportingBadDSN(t *testing.T) {
	flush, err := InitCrashReporting(CrashOptions{DSN: "ftp://key@example.com/1"})
	if err == nil {
		t.Error("expected error for an unsupported DSN scheme")
	}
	if flush == nil {
		t.Error("expected a callable flush even on error")
	}
}
