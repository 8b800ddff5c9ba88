package testutils

import (
	"fmt"
	"testing"
)

type captureT struct {
	errors []string
}

func (c *captureT) Errorf(format string, args ...any) {
	c.errors = append(c.errors, fmt.Sprintf(format, args...))
}

func TestFieldsToMap(t *testing.T) {
	ct := &captureT{}
	got := FieldsToMap(ct, []any{"a", 1, "b", "two"})

	if len(ct.errors) != 0 {
		t.Fatalf("Unexpected errors: %v", ct.errors)
	}
	if got["a"] != 1 || got["b"] != "two" {
		t.Errorf("Unexpected map: %v", got)
	}
}

func TestFieldsToMap_Malformed(t *testing.T) {
	ct := &captureT{}
	got := FieldsToMap(ct, []any{42, "x", "dangling"})

	if len(ct.errors) != 2 {
		t.Fatalf("Expected 2 errors, got %d: %v", len(ct.errors), ct.errors)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty map, got %v", got)
	}
}

func TestRecordingLogger(t *testing.T) {
	r := &RecordingLogger{}
	r.Info("one", "k", "v")
	r.Error("two")
	r.Info("three")

	if r.Count("info") != 2 {
		t.Errorf("Expected 2 info entries, got %d", r.Count("info"))
	}
	entries := r.Entries()
	if len(entries) != 3 || entries[1].Msg != "two" {
		t.Errorf("Unexpected entries: %+v", entries)
	}
}
