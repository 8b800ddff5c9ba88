package errors

import (
	"testing"

	"bilimusic/internal/testutils"
)

func TestLoggerBridge_Printf(t *testing.T) {
	logger := &testutils.RecordingLogger{}
	NewLoggerBridge(logger).Printf("operation '%s' attempt %d/%d failed", "search", 1, 3)

	entries := logger.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != "warn" {
		t.Errorf("Level = %q, want warn", entries[0].Level)
	}
	if entries[0].Msg != "operation 'search' attempt 1/3 failed" {
		t.Errorf("Msg = %q", entries[0].Msg)
	}
	if fields := testutils.FieldsToMap(t, entries[0].Fields); fields["component"] != "retry" {
		t.Errorf("component = %v, want retry", fields["component"])
	}

	// nil logger is silent
	NewLoggerBridge(nil).Printf("ignored")
}
